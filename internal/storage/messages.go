package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-sms-must-flow/internal/model"
)

// MessageFilter narrows ListMessages. Zero values disable a criterion.
type MessageFilter struct {
	Since time.Time
	Until time.Time
	// Sender matches the full address or its last '-' separated segment,
	// case-insensitively.
	Sender string
	Limit  int
}

// ImportResult reports the outcome of SaveMessages.
type ImportResult struct {
	ID       int64
	Total    int
	Inserted int
	Skipped  int
}

// Duplicates returns how many valid messages were already stored.
func (r ImportResult) Duplicates() int {
	return r.Total - r.Inserted - r.Skipped
}

// ImportRun is a recorded call to SaveMessages.
type ImportRun struct {
	ImportedAt time.Time
	Source     string
	ID         int64
	Total      int
	Inserted   int
	Skipped    int
}

// SaveMessages stores msgs, skipping any that are already present, and
// records the import run under source. Messages without a sender or body are
// logged and counted as skipped; the rest of the batch is still stored.
func (s *SQLiteStorage) SaveMessages(ctx context.Context, source string, msgs []model.RawMessage) (ImportResult, error) {
	if err := validateContext(ctx); err != nil {
		return ImportResult{}, err
	}
	if err := validateString(source, "source"); err != nil {
		return ImportResult{}, err
	}

	valid := make([]model.RawMessage, 0, len(msgs))
	for i := range msgs {
		if err := validateMessage(&msgs[i]); err != nil {
			slog.Warn("Skipping invalid message",
				"source", source,
				"index", i,
				"address", msgs[i].Address,
				"error", err)
			continue
		}
		valid = append(valid, msgs[i])
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var result ImportResult
	result, err = s.saveMessagesTx(ctx, tx, source, valid, len(msgs)-len(valid))
	if err != nil {
		return ImportResult{}, err
	}

	if err = tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

func (s *SQLiteStorage) saveMessagesTx(ctx context.Context, tx *sql.Tx, source string, msgs []model.RawMessage, skipped int) (ImportResult, error) {
	total := len(msgs) + skipped
	res, err := tx.ExecContext(ctx,
		`INSERT INTO imports (source, total, inserted, skipped) VALUES (?, ?, 0, ?)`,
		source, total, skipped)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to record import: %w", err)
	}
	importID, err := res.LastInsertId()
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to get import id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO messages (id, address, body, date_raw, date_ms, import_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	result := ImportResult{ID: importID, Total: total, Skipped: skipped}
	for _, msg := range msgs {
		var dateMs sql.NullInt64
		if ts, ok := model.ParseEpochMillis(msg.Date); ok {
			dateMs = sql.NullInt64{Int64: ts.UnixMilli(), Valid: true}
		}

		r, err := stmt.ExecContext(ctx, msg.Hash(), msg.Address, msg.Body, msg.Date, dateMs, importID)
		if err != nil {
			return ImportResult{}, fmt.Errorf("failed to insert message: %w", err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return ImportResult{}, fmt.Errorf("failed to get rows affected: %w", err)
		}
		result.Inserted += int(n)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE imports SET inserted = ? WHERE id = ?`,
		result.Inserted, importID); err != nil {
		return ImportResult{}, fmt.Errorf("failed to update import: %w", err)
	}

	return result, nil
}

// ListMessages returns stored messages ordered by date, oldest first.
// Messages without a usable date sort last.
func (s *SQLiteStorage) ListMessages(ctx context.Context, filter MessageFilter) ([]model.RawMessage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRange(filter.Since, filter.Until); err != nil {
		return nil, err
	}
	return s.listMessages(ctx, s.db, filter)
}

func (s *SQLiteStorage) listMessages(ctx context.Context, q queryable, filter MessageFilter) ([]model.RawMessage, error) {
	var (
		where []string
		args  []any
	)
	if !filter.Since.IsZero() {
		where = append(where, "date_ms >= ?")
		args = append(args, filter.Since.UnixMilli())
	}
	if !filter.Until.IsZero() {
		where = append(where, "date_ms < ?")
		args = append(args, filter.Until.UnixMilli())
	}
	if sender := strings.ToUpper(strings.TrimSpace(filter.Sender)); sender != "" {
		where = append(where, `(UPPER(address) = ? OR UPPER(address) LIKE ? ESCAPE '\')`)
		args = append(args, sender, "%-"+escapeLike(sender))
	}

	query := `SELECT address, body, date_raw FROM messages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date_ms IS NULL, date_ms, rowid"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.RawMessage
	for rows.Next() {
		var msg model.RawMessage
		if err := rows.Scan(&msg.Address, &msg.Body, &msg.Date); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return msgs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as the
// escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// CountMessages returns the number of stored messages.
func (s *SQLiteStorage) CountMessages(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// ListImports returns recorded import runs, newest first.
func (s *SQLiteStorage) ListImports(ctx context.Context) ([]ImportRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, total, inserted, skipped, imported_at
		FROM imports
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []ImportRun
	for rows.Next() {
		var run ImportRun
		if err := rows.Scan(&run.ID, &run.Source, &run.Total, &run.Inserted, &run.Skipped, &run.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating imports: %w", err)
	}
	return runs, nil
}
