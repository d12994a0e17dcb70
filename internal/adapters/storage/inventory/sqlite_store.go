package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dojo/internal/adapters/storage"
	domain "dojo/internal/domain/inventory"
)

const (
	timeLayout      = time.RFC3339Nano
	itemColumns     = "id, name, category, current_stock, min_stock_level, max_stock_level, unit_cost, selling_price, status"
	movementColumns = "id, inventory_id, movement_type, quantity, unit_cost, total_cost, reference_kind, reference_id, notes, created_at"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new inventory store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetItem retrieves an item by its ID.
// PRE: id is non-empty
// POST: Returns the item or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetItem(ctx context.Context, id string) (domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM inventory_item WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, fmt.Errorf("inventory item %s not found: %w", id, err)
	}
	return item, err
}

// SaveItem inserts or updates an item.
// PRE: item has been validated
func (s *SQLiteStore) SaveItem(ctx context.Context, i domain.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inventory_item (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, category=excluded.category, current_stock=excluded.current_stock,
		   min_stock_level=excluded.min_stock_level, max_stock_level=excluded.max_stock_level,
		   unit_cost=excluded.unit_cost, selling_price=excluded.selling_price, status=excluded.status`,
		i.ID, i.Name, i.Category, i.CurrentStock, i.MinStockLevel, i.MaxStockLevel, i.UnitCost, i.SellingPrice, i.Status)
	if err != nil {
		return fmt.Errorf("save inventory item %s: %w", i.ID, err)
	}
	return nil
}

// ListItems returns items ordered by category then name.
func (s *SQLiteStore) ListItems(ctx context.Context, f ItemFilter) ([]domain.Item, error) {
	var where []string
	var args []any
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	query := "SELECT " + itemColumns + " FROM inventory_item"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY category, name, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// RecordMovement writes the movement and the item's new stock atomically.
// The stock update only applies while current_stock still equals readStock,
// so two writers that read the same level cannot both land.
func (s *SQLiteStore) RecordMovement(ctx context.Context, item domain.Item, m domain.Movement, readStock int) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stock movement: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO stock_movement (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.InventoryID, m.Type, m.Quantity, m.UnitCost, m.TotalCost,
		m.Reference.Kind, m.Reference.ID, m.Notes, m.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert stock movement %s: %w", m.ID, err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE inventory_item SET current_stock = ?, status = ? WHERE id = ? AND current_stock = ?`,
		item.CurrentStock, item.Status, item.ID, readStock)
	if err != nil {
		return fmt.Errorf("update stock for %s: %w", item.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stock for %s: %w", item.ID, err)
	}
	if n == 0 {
		var stock int
		err = tx.QueryRowContext(ctx, `SELECT current_stock FROM inventory_item WHERE id = ?`, item.ID).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update stock for %s: %w", item.ID, sql.ErrNoRows)
		}
		if err != nil {
			return fmt.Errorf("update stock for %s: %w", item.ID, err)
		}
		return fmt.Errorf("update stock for %s: read %d, now %d: %w", item.ID, readStock, stock, domain.ErrStockChanged)
	}
	return tx.Commit()
}

// ListMovements returns an item's ledger, newest first. limit <= 0 returns all.
func (s *SQLiteStore) ListMovements(ctx context.Context, inventoryID string, limit int) ([]domain.Movement, error) {
	query := "SELECT " + movementColumns + " FROM stock_movement WHERE inventory_id = ? ORDER BY created_at DESC, id"
	args := []any{inventoryID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var out []domain.Movement
	for rows.Next() {
		var m domain.Movement
		var created string
		if err := rows.Scan(&m.ID, &m.InventoryID, &m.Type, &m.Quantity, &m.UnitCost, &m.TotalCost,
			&m.Reference.Kind, &m.Reference.ID, &m.Notes, &created); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("stock movement %s has bad created_at: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (domain.Item, error) {
	var i domain.Item
	err := sc.Scan(&i.ID, &i.Name, &i.Category, &i.CurrentStock, &i.MinStockLevel, &i.MaxStockLevel,
		&i.UnitCost, &i.SellingPrice, &i.Status)
	return i, err
}
