package orchestrators

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"dojo/internal/adapters/storage"
	inventoryStore "dojo/internal/adapters/storage/inventory"
	"dojo/internal/domain/inventory"
)

// lockstepStore holds the first n item reads until all n have happened, so
// every caller works from the same stock level.
type lockstepStore struct {
	InventoryStore
	mu    sync.Mutex
	reads int
	n     int
	gate  sync.WaitGroup
}

func newLockstepStore(s InventoryStore, n int) *lockstepStore {
	l := &lockstepStore{InventoryStore: s, n: n}
	l.gate.Add(n)
	return l
}

func (l *lockstepStore) GetItem(ctx context.Context, id string) (inventory.Item, error) {
	item, err := l.InventoryStore.GetItem(ctx, id)
	l.mu.Lock()
	l.reads++
	held := l.reads <= l.n
	l.mu.Unlock()
	if held {
		l.gate.Done()
		l.gate.Wait()
	}
	return item, err
}

func TestExecuteRecordStockMovement_ConcurrentSalesBothLand(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "dojo.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	sqlStore := inventoryStore.NewSQLiteStore(db)
	item := giItem()
	item.CurrentStock = 10
	if err := sqlStore.SaveItem(ctx, item); err != nil {
		t.Fatalf("SaveItem: %v", err)
	}

	store := newLockstepStore(sqlStore, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = ExecuteRecordStockMovement(ctx,
				RecordStockMovementInput{ItemID: item.ID, Type: inventory.MovementSale, Quantity: 3},
				RecordStockMovementDeps{InventoryStore: store})
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("sale %d: %v", i, err)
		}
	}

	got, err := sqlStore.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.CurrentStock != 4 {
		t.Errorf("stock = %d, want 4", got.CurrentStock)
	}
	mvs, err := sqlStore.ListMovements(ctx, item.ID, 0)
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(mvs) != 2 {
		t.Errorf("movements = %d, want 2", len(mvs))
	}
}

// contendedStore loses every write to some other writer.
type contendedStore struct {
	*mockInventoryStore
	writes int
}

func (c *contendedStore) RecordMovement(context.Context, inventory.Item, inventory.Movement, int) error {
	c.writes++
	return inventory.ErrStockChanged
}

func TestExecuteRecordStockMovement_GivesUpUnderContention(t *testing.T) {
	store := &contendedStore{mockInventoryStore: newMockInventoryStore(giItem())}
	_, err := ExecuteRecordStockMovement(context.Background(),
		RecordStockMovementInput{ItemID: "gi-a2", Type: inventory.MovementSale, Quantity: 1},
		RecordStockMovementDeps{InventoryStore: store})
	if !errors.Is(err, inventory.ErrStockChanged) {
		t.Fatalf("err = %v, want ErrStockChanged", err)
	}
	if store.writes != stockAttempts {
		t.Errorf("writes = %d, want %d", store.writes, stockAttempts)
	}
	if store.items["gi-a2"].CurrentStock != 5 {
		t.Errorf("stock changed to %d", store.items["gi-a2"].CurrentStock)
	}
}
