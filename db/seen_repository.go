package db

import (
	"context"
	"fmt"

	"catalog-watcher/seen"
)

// SeenRepository is a seen.Store backed by the seen_items table
type SeenRepository struct {
	db *DB
}

var _ seen.Store = (*SeenRepository)(nil)

// NewSeenRepository creates a new seen-item repository
func NewSeenRepository(db *DB) *SeenRepository {
	return &SeenRepository{db: db}
}

// Load reads every stored identifier
func (r *SeenRepository) Load(ctx context.Context) (seen.Set, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT id FROM seen_items`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen items: %w", err)
	}
	defer rows.Close()

	s := seen.NewSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan seen item: %w", err)
		}
		s.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate seen items: %w", err)
	}

	return s, nil
}

// Save inserts identifiers not yet stored. Existing rows keep their first_seen_at.
// All inserts share one transaction, so a failed save stores nothing.
func (r *SeenRepository) Save(ctx context.Context, s seen.Set) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return r.persistErr(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO seen_items (id) VALUES (%s) ON CONFLICT (id) DO NOTHING`, r.db.dialect.placeholder(1))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return r.persistErr(fmt.Errorf("failed to prepare insert: %w", err))
	}
	defer stmt.Close()

	for _, id := range s.Sorted() {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return r.persistErr(fmt.Errorf("failed to insert seen item %q: %w", id, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return r.persistErr(fmt.Errorf("failed to commit seen items: %w", err))
	}
	return nil
}

// Close closes the underlying connection
func (r *SeenRepository) Close() error {
	return r.db.Close()
}

func (r *SeenRepository) persistErr(err error) error {
	return &seen.PersistenceError{Backend: string(r.db.dialect), Err: err}
}
