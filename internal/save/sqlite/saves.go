package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pokestate/internal/apperr"
)

func (c *Client) Put(ctx context.Context, id string, doc []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO saves (id, document)
		VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET
			document = excluded.document,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		id, string(doc))
	if err != nil {
		return fmt.Errorf("upserting save %s: %w", id, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, id string) ([]byte, error) {
	var doc string
	err := c.db.QueryRowContext(ctx, `SELECT document FROM saves WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying save %s: %w", id, err)
	}
	return []byte(doc), nil
}

func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saves WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("checking save %s: %w", id, err)
	}
	return n > 0, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM saves WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting save %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting deleted rows: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id FROM saves ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning save id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saves: %w", err)
	}
	return ids, nil
}

func notFound(id string) error {
	return apperr.New(apperr.CodeNotFound, fmt.Sprintf("save with ID %s not found", id))
}
