package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type storePG struct {
	pool *pgxpool.Pool
}

// NewPG returns a Store backed by the user_document table.
func NewPG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func (s *storePG) Get(ctx context.Context, key string) (*Document, error) {
	d := &Document{Key: key}
	err := s.pool.QueryRow(ctx,
		`SELECT doc, version FROM user_document WHERE key = $1`, key,
	).Scan(&d.Data, &d.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s: %w", key, err)
	}
	return d, nil
}

func (s *storePG) Create(ctx context.Context, key string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_document (key, doc, version) VALUES ($1, $2, 1)`, key, data)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("create document %s: %w", key, err)
	}
	return nil
}

func (s *storePG) Upsert(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	var version int64
	err := s.pool.QueryRow(ctx,
		`UPDATE user_document
		    SET doc = $2, version = version + 1, updated_at = NOW()
		  WHERE key = $1 AND version = $3
		  RETURNING version`,
		key, data, expectedVersion,
	).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("upsert document %s: %w", key, err)
	}

	// No row matched: either the key is absent or the token is stale.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_document WHERE key = $1)`, key,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("upsert document %s: %w", key, err)
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrVersionMismatch
}

func (s *storePG) ListByRole(ctx context.Context, role string, limit, offset int) ([]*Document, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_document WHERE doc->>'role' = $1`, role,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents by role %s: %w", role, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT key, doc, version FROM user_document
		  WHERE doc->>'role' = $1
		  ORDER BY created_at
		  LIMIT $2 OFFSET $3`,
		role, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents by role %s: %w", role, err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d := &Document{}
		if err := rows.Scan(&d.Key, &d.Data, &d.Version); err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, total, nil
}
