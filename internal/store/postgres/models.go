package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/plaza-dev/plaza/internal/world"
)

// UpsertModel records an uploaded model reference. Re-uploads of the same
// model id only bump the usage counter; the stored asset metadata is
// append-once and never mutated in place.
func (c *Client) UpsertModel(ctx context.Context, m world.UploadedModel) error {
	return c.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := ensureSpaces(ctx, tx, []string{m.SpaceID}); err != nil {
			return err
		}

		query := `
INSERT INTO uploaded_models (model_id, space_id, name, storage_key, public_url, size_bytes, uploaded_by, usage_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
ON CONFLICT (model_id) DO UPDATE SET
    usage_count = uploaded_models.usage_count + 1`

		_, err := tx.Exec(ctx, query,
			m.ModelID, m.SpaceID, m.Name, m.StorageKey, m.PublicURL, m.SizeBytes, m.UploadedBy,
		)
		if err != nil {
			return fmt.Errorf("upserting uploaded model: %w", err)
		}
		return nil
	})
}

// ListModels returns every model referenced by a space.
func (c *Client) ListModels(ctx context.Context, spaceID string) ([]world.UploadedModel, error) {
	query := `
SELECT model_id, space_id, name, storage_key, public_url, size_bytes, uploaded_by, usage_count, created_at
FROM uploaded_models
WHERE space_id = $1
ORDER BY created_at`

	rows, err := c.pool.Query(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("listing uploaded models: %w", err)
	}
	defer rows.Close()

	var models []world.UploadedModel
	for rows.Next() {
		var m world.UploadedModel
		err := rows.Scan(
			&m.ModelID, &m.SpaceID, &m.Name, &m.StorageKey, &m.PublicURL,
			&m.SizeBytes, &m.UploadedBy, &m.UsageCount, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning uploaded model: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating uploaded models: %w", err)
	}
	return models, nil
}
