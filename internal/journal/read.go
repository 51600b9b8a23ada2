package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/freight/internal/cargo"
)

// Entry is one recorded emission.
type Entry struct {
	ID         string          `json:"id"`
	Store      string          `json:"store"`
	Seq        int64           `json:"seq"`
	Cargo      json.RawMessage `json:"cargo"`
	RecordedAt string          `json:"recorded_at"`
}

// Decode returns the entry's cargo.
func (e Entry) Decode() (cargo.Cargo, error) {
	var c cargo.Cargo
	if err := json.Unmarshal(e.Cargo, &c); err != nil {
		return nil, fmt.Errorf("decode cargo of %s: %w", e.ID, err)
	}
	return c, nil
}

// Entries returns the emissions of storeName ordered by seq, then id. An
// empty storeName returns every store's emissions. Never returns nil.
func (j *Journal) Entries(ctx context.Context, storeName string) ([]Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if storeName == "" {
		rows, err = j.db.QueryContext(ctx, `
			SELECT id, store, seq, cargo, recorded_at
			FROM emissions
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`)
	} else {
		rows, err = j.db.QueryContext(ctx, `
			SELECT id, store, seq, cargo, recorded_at
			FROM emissions
			WHERE store = ?
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`, storeName)
	}
	if err != nil {
		return nil, fmt.Errorf("query emissions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var data string
		if err := rows.Scan(&e.ID, &e.Store, &e.Seq, &data, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan emission: %w", err)
		}
		e.Cargo = json.RawMessage(data)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emissions: %w", err)
	}
	return entries, nil
}

// Stores returns the names of every store with recorded emissions, sorted.
func (j *Journal) Stores(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT DISTINCT store FROM emissions ORDER BY store COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return names, nil
}

// LastSeq returns the highest recorded seq, or 0 for an empty journal.
// Stores resuming a journal start their clock after it.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM emissions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}
