package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pokestate/internal/apperr"
)

func (c *Client) Put(ctx context.Context, id string, doc []byte) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO saves (id, document)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = now()`,
		id, string(doc))
	if err != nil {
		return fmt.Errorf("upserting save %s: %w", id, err)
	}
	return nil
}

// Get returns the stored document. JSONB does not preserve key order or
// whitespace, so the bytes are equivalent to, not identical to, what was put.
func (c *Client) Get(ctx context.Context, id string) ([]byte, error) {
	var doc string
	err := c.pool.QueryRow(ctx, `SELECT document::text FROM saves WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying save %s: %w", id, err)
	}
	return []byte(doc), nil
}

func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := c.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM saves WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking save %s: %w", id, err)
	}
	return ok, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	tag, err := c.pool.Exec(ctx, `DELETE FROM saves WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting save %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	rows, err := c.pool.Query(ctx, `SELECT id FROM saves ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting save ids: %w", err)
	}
	return ids, nil
}

func notFound(id string) error {
	return apperr.New(apperr.CodeNotFound, fmt.Sprintf("save with ID %s not found", id))
}
