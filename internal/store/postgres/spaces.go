package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/plaza-dev/plaza/internal/world"
)

// ensureSpaces lazily materializes space rows for every referenced space id
// inside the caller's transaction. Spaces are created on first reference, so
// every batch write calls this before touching child tables.
func ensureSpaces(ctx context.Context, tx pgx.Tx, spaceIDs []string) error {
	if len(spaceIDs) == 0 {
		return nil
	}

	args := make([]any, 0, len(spaceIDs))
	for _, id := range spaceIDs {
		args = append(args, id)
	}

	query := `INSERT INTO spaces (space_id) VALUES ` +
		multiRowValues(len(spaceIDs), 1, 1) +
		` ON CONFLICT (space_id) DO NOTHING`

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ensuring spaces: %w", err)
	}
	return nil
}

func (c *Client) GetSpace(ctx context.Context, spaceID string) (*world.Space, error) {
	query := `
SELECT space_id, name, settings, max_users, visitor_count, created_at, updated_at
FROM spaces
WHERE space_id = $1
`
	var s world.Space
	var settingsBytes []byte
	err := c.pool.QueryRow(ctx, query, spaceID).Scan(
		&s.SpaceID,
		&s.Name,
		&settingsBytes,
		&s.MaxUsers,
		&s.VisitorCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting space: %w", err)
	}
	if len(settingsBytes) > 0 {
		if err := json.Unmarshal(settingsBytes, &s.Settings); err != nil {
			return nil, fmt.Errorf("unmarshaling space settings: %w", err)
		}
	}
	return &s, nil
}

// IncrementVisitorCount bumps a space's visitor counter, creating the space
// row if this is its first reference.
func (c *Client) IncrementVisitorCount(ctx context.Context, spaceID string) error {
	return c.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := ensureSpaces(ctx, tx, []string{spaceID}); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`UPDATE spaces SET visitor_count = visitor_count + 1, updated_at = now() WHERE space_id = $1`,
			spaceID,
		)
		if err != nil {
			return fmt.Errorf("incrementing visitor count: %w", err)
		}
		return nil
	})
}
