// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists raw catalog documents and their cluster
// assignments in a SQLite database. Documents are stored as JSON blobs
// keyed by product id; cluster_info stays NULL until a deployment run
// writes an assignment.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// Store manages the product catalog SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path and creates the
// schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			cluster_info TEXT,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_missing_cluster
			ON products(id) WHERE cluster_info IS NULL`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// UpsertProducts inserts or replaces raw documents. An upsert clears any
// previous cluster assignment so stale labels never survive a document
// change.
func (s *Store) UpsertProducts(ctx context.Context, products []types.RawProduct) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (id, doc, cluster_info, updated_at)
		 VALUES (?, ?, NULL, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT(id) DO UPDATE SET
			doc=excluded.doc, cluster_info=NULL, updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("upserting product: empty id")
		}
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding product %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, string(doc)); err != nil {
			return fmt.Errorf("upserting product %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Find returns up to limit raw documents in id order. limit <= 0 means
// no limit.
func (s *Store) Find(ctx context.Context, limit int) ([]types.RawProduct, error) {
	query := `SELECT doc FROM products ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryDocs(ctx, query, args...)
}

// Get returns the raw document with the given id.
func (s *Store) Get(ctx context.Context, id string) (types.RawProduct, bool, error) {
	products, err := s.queryDocs(ctx, `SELECT doc FROM products WHERE id = ?`, id)
	if err != nil {
		return types.RawProduct{}, false, err
	}
	if len(products) == 0 {
		return types.RawProduct{}, false, nil
	}
	return products[0], true, nil
}

// FindMissingClusterInfo returns the raw documents that have no cluster
// assignment yet, in id order.
func (s *Store) FindMissingClusterInfo(ctx context.Context) ([]types.RawProduct, error) {
	return s.queryDocs(ctx,
		`SELECT doc FROM products WHERE cluster_info IS NULL ORDER BY id`)
}

func (s *Store) queryDocs(ctx context.Context, query string, args ...any) ([]types.RawProduct, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []types.RawProduct
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		var p types.RawProduct
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("decoding product document: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Count returns the total number of stored documents and how many of
// them still lack a cluster assignment.
func (s *Store) Count(ctx context.Context) (total, missing int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT count(*), count(*) FILTER (WHERE cluster_info IS NULL) FROM products`,
	).Scan(&total, &missing)
	if err != nil {
		return 0, 0, fmt.Errorf("counting products: %w", err)
	}
	return total, missing, nil
}

// SetClusterInfo writes one product's assignment.
func (s *Store) SetClusterInfo(ctx context.Context, id string, a types.Assignment) error {
	info, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding assignment for %s: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET cluster_info = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		 WHERE id = ?`, string(info), id)
	if err != nil {
		return fmt.Errorf("updating cluster info for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("updating cluster info: product %s not found", id)
	}
	return nil
}

// BulkSetClusterInfo writes assignments for many products in a single
// transaction. Unknown ids fail the whole batch.
func (s *Store) BulkSetClusterInfo(ctx context.Context, assignments map[string]types.Assignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE products SET cluster_info = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		 WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing update: %w", err)
	}
	defer stmt.Close()

	for id, a := range assignments {
		info, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encoding assignment for %s: %w", id, err)
		}
		res, err := stmt.ExecContext(ctx, string(info), id)
		if err != nil {
			return fmt.Errorf("updating cluster info for %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking update for %s: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("updating cluster info: product %s not found", id)
		}
	}

	return tx.Commit()
}

// ClusterInfo reads one product's assignment. found is false when the
// product exists but has no assignment yet.
func (s *Store) ClusterInfo(ctx context.Context, id string) (a types.Assignment, found bool, err error) {
	var info sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT cluster_info FROM products WHERE id = ?`, id).Scan(&info)
	if err == sql.ErrNoRows {
		return types.Assignment{}, false, fmt.Errorf("reading cluster info: product %s not found", id)
	}
	if err != nil {
		return types.Assignment{}, false, fmt.Errorf("reading cluster info for %s: %w", id, err)
	}
	if !info.Valid {
		return types.Assignment{}, false, nil
	}
	if err := json.Unmarshal([]byte(info.String), &a); err != nil {
		return types.Assignment{}, false, fmt.Errorf("decoding cluster info for %s: %w", id, err)
	}
	return a, true, nil
}
