package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/plaza-dev/plaza/internal/world"
)

// objectCols is the column list shared by the multi-row upsert. One
// placeholder row per object; interaction_count carries the delta, which the
// conflict clause folds into the existing counter.
const objectCols = 17

// ApplyObjectBatch writes one flush's worth of object mutations in a single
// transaction: lazily creates referenced spaces, upserts surviving object
// states with one multi-row statement, and soft-deletes removed objects.
func (c *Client) ApplyObjectBatch(ctx context.Context, writes []world.ObjectWrite, deletes []string) error {
	if len(writes) == 0 && len(deletes) == 0 {
		return nil
	}

	spaceSet := make(map[string]bool)
	for _, w := range writes {
		spaceSet[w.Object.SpaceID] = true
	}
	spaceIDs := make([]string, 0, len(spaceSet))
	for id := range spaceSet {
		spaceIDs = append(spaceIDs, id)
	}

	return c.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := ensureSpaces(ctx, tx, spaceIDs); err != nil {
			return err
		}

		if len(writes) > 0 {
			args := make([]any, 0, len(writes)*objectCols)
			for _, w := range writes {
				obj := w.Object
				propsJSON, err := json.Marshal(obj.Properties)
				if err != nil {
					return fmt.Errorf("marshaling properties for %s: %w", obj.ObjectID, err)
				}
				var modelID any
				if obj.ModelID != "" {
					modelID = obj.ModelID
				}
				args = append(args,
					obj.ObjectID, obj.SpaceID, obj.Name, obj.Type,
					obj.Position.X, obj.Position.Y, obj.Position.Z,
					obj.Rotation.X, obj.Rotation.Y, obj.Rotation.Z,
					obj.Scale.X, obj.Scale.Y, obj.Scale.Z,
					modelID, obj.OwnerID, propsJSON, w.InteractionDelta,
				)
			}

			query := `
INSERT INTO world_objects (object_id, space_id, name, object_type,
    pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, scale_x, scale_y, scale_z,
    model_id, owner_id, properties, interaction_count)
VALUES ` + multiRowValues(len(writes), objectCols, 1) + `
ON CONFLICT (object_id) DO UPDATE SET
    name = EXCLUDED.name,
    object_type = EXCLUDED.object_type,
    pos_x = EXCLUDED.pos_x, pos_y = EXCLUDED.pos_y, pos_z = EXCLUDED.pos_z,
    rot_x = EXCLUDED.rot_x, rot_y = EXCLUDED.rot_y, rot_z = EXCLUDED.rot_z,
    scale_x = EXCLUDED.scale_x, scale_y = EXCLUDED.scale_y, scale_z = EXCLUDED.scale_z,
    model_id = EXCLUDED.model_id,
    owner_id = EXCLUDED.owner_id,
    properties = EXCLUDED.properties,
    interaction_count = world_objects.interaction_count + EXCLUDED.interaction_count,
    updated_at = now(),
    deleted_at = NULL
`
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("upserting world objects: %w", err)
			}
		}

		if len(deletes) > 0 {
			_, err := tx.Exec(ctx,
				`UPDATE world_objects SET deleted_at = now(), updated_at = now()
WHERE object_id = ANY($1) AND deleted_at IS NULL`,
				deletes,
			)
			if err != nil {
				return fmt.Errorf("soft-deleting world objects: %w", err)
			}
		}

		return nil
	})
}

func scanObject(rows pgx.Rows) (world.WorldObject, error) {
	var obj world.WorldObject
	var propsBytes []byte
	var modelID *string
	err := rows.Scan(
		&obj.ObjectID, &obj.SpaceID, &obj.Name, &obj.Type,
		&obj.Position.X, &obj.Position.Y, &obj.Position.Z,
		&obj.Rotation.X, &obj.Rotation.Y, &obj.Rotation.Z,
		&obj.Scale.X, &obj.Scale.Y, &obj.Scale.Z,
		&modelID, &obj.OwnerID, &propsBytes, &obj.InteractionCount,
		&obj.CreatedAt, &obj.UpdatedAt,
	)
	if err != nil {
		return obj, fmt.Errorf("scanning world object: %w", err)
	}
	if modelID != nil {
		obj.ModelID = *modelID
	}
	if len(propsBytes) > 0 {
		if err := json.Unmarshal(propsBytes, &obj.Properties); err != nil {
			return obj, fmt.Errorf("unmarshaling object properties: %w", err)
		}
	}
	return obj, nil
}

const selectObjectCols = `
SELECT object_id, space_id, name, object_type,
    pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, scale_x, scale_y, scale_z,
    model_id, owner_id, properties, interaction_count, created_at, updated_at
FROM world_objects`

// ListObjects returns every active (not soft-deleted) object in a space.
func (c *Client) ListObjects(ctx context.Context, spaceID string) ([]world.WorldObject, error) {
	query := selectObjectCols + `
WHERE space_id = $1 AND deleted_at IS NULL
ORDER BY created_at`

	rows, err := c.pool.Query(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("listing world objects: %w", err)
	}
	defer rows.Close()

	var objects []world.WorldObject
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating world objects: %w", err)
	}
	return objects, nil
}

// GetObject returns one active object by id, or nil when absent or deleted.
func (c *Client) GetObject(ctx context.Context, objectID string) (*world.WorldObject, error) {
	query := selectObjectCols + `
WHERE object_id = $1 AND deleted_at IS NULL`

	rows, err := c.pool.Query(ctx, query, objectID)
	if err != nil {
		return nil, fmt.Errorf("getting world object: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting world object: %w", err)
		}
		return nil, nil
	}
	obj, err := scanObject(rows)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}
