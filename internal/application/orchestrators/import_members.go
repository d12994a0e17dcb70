package orchestrators

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/member"
)

// ImportMembersInput carries the roster CSV and import options.
// PRE: Reader is a CSV stream with a header row containing NAME and EMAIL.
// INVARIANT: Existing members are never deleted; IDs are preserved on update.
type ImportMembersInput struct {
	Reader     io.Reader
	Source     string // file name or caller, for the log line
	DryRun     bool
	UpdateMode bool
}

// ImportMembersResult holds aggregate counts and per-row errors from an import run.
type ImportMembersResult struct {
	Total   int                     `json:"total"`
	Created int                     `json:"created"`
	Updated int                     `json:"updated"`
	Skipped int                     `json:"skipped"`
	Errors  []ImportMembersRowError `json:"errors,omitempty"`
	DryRun  bool                    `json:"dry_run"`
	Unknown []string                `json:"unknown_columns,omitempty"`
}

// ImportMembersRowError describes a validation or processing error for a single CSV row.
type ImportMembersRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportMembersDeps holds external dependencies for the import orchestrator.
type ImportMembersDeps struct {
	MemberStore MemberDirectory
	GenerateID  func() string
}

var importColumns = map[string]bool{"ID": true, "NAME": true, "EMAIL": true, "STATUS": true, "PAYMENT_TOKEN": true}

// ExecuteImportMembers parses a roster CSV and creates or updates members,
// matching existing rows by email.
// POST: Members are created/updated/skipped according to DryRun and UpdateMode;
// a malformed row is reported and the rest of the file still imports.
// INVARIANT: When DryRun=true no writes occur.
func ExecuteImportMembers(ctx context.Context, input ImportMembersInput, deps ImportMembersDeps) (ImportMembersResult, error) {
	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportMembersResult{}, domainerr.Invalidf("read CSV header: %v", err)
	}

	colIdx := make(map[string]int, len(header))
	var unknown []string
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		colIdx[name] = i
		if !importColumns[name] {
			unknown = append(unknown, h)
		}
	}
	for _, required := range []string{"NAME", "EMAIL"} {
		if _, ok := colIdx[required]; !ok {
			return ImportMembersResult{}, domainerr.Invalidf("CSV missing required column: %s", required)
		}
	}

	getCol := func(row []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := ImportMembersResult{DryRun: input.DryRun, Unknown: unknown}
	rowNum := 1
	rowErr := func(msg string) {
		result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: msg})
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.Total++
			rowErr("malformed row")
			continue
		}
		result.Total++

		name := getCol(row, "NAME")
		if name == "" {
			rowErr("name is required")
			continue
		}
		addr, parseErr := mail.ParseAddress(getCol(row, "EMAIL"))
		if parseErr != nil {
			rowErr("invalid email: " + getCol(row, "EMAIL"))
			continue
		}
		email := member.NormalizeEmail(addr.Address)

		status := strings.ToLower(getCol(row, "STATUS"))
		if status == "" {
			status = member.StatusActive
		}

		existing, lookupErr := deps.MemberStore.GetByEmail(ctx, email)
		exists := lookupErr == nil
		if lookupErr != nil && !errors.Is(lookupErr, sql.ErrNoRows) {
			return result, fmt.Errorf("look up member: %w", lookupErr)
		}
		if exists && !input.UpdateMode {
			result.Skipped++
			continue
		}

		m := member.Member{ID: getCol(row, "ID"), Name: name, Email: email, Status: status, PaymentToken: getCol(row, "PAYMENT_TOKEN")}
		if exists {
			m.ID = existing.ID
			if m.PaymentToken == "" {
				m.PaymentToken = existing.PaymentToken
			}
		} else if m.ID == "" {
			m.ID = idOrUUID(deps.GenerateID)
		}
		if err := m.Validate(); err != nil {
			rowErr(err.Error())
			continue
		}

		if !input.DryRun {
			if err := deps.MemberStore.Save(ctx, m); err != nil {
				slog.Error("members_import_save_failed", "row", rowNum, "email", email, "error", err)
				rowErr("save failed (see server log)")
				continue
			}
		}
		if exists {
			result.Updated++
		} else {
			result.Created++
		}
	}

	slog.Info("members_import",
		"source", input.Source,
		"dry_run", input.DryRun,
		"update_mode", input.UpdateMode,
		"total", result.Total,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}
