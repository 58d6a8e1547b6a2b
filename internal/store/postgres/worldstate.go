package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/plaza-dev/plaza/internal/world"
)

// LoadWorldState composes the snapshot a client needs on (re)join: active
// objects, models, the recent chat window, and live sessions, all read
// inside one transaction so the pieces agree with each other.
//
// ActiveScreenShare is an ephemeral cache-tier flag; the coordinator fills
// it in after this read.
func (c *Client) LoadWorldState(ctx context.Context, spaceID string) (*world.WorldState, error) {
	state := &world.WorldState{
		SpaceID:  spaceID,
		LoadedAt: time.Now().UTC(),
	}

	err := c.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		objects, err := queryObjectsTx(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		state.Objects = objects

		models, err := queryModelsTx(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		state.Models = models

		chat, err := queryRecentChatTx(ctx, tx, spaceID, 50)
		if err != nil {
			return err
		}
		state.RecentChat = chat

		sessions, err := queryActiveSessionsTx(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		state.ActiveSessions = sessions

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading world state for %s: %w", spaceID, err)
	}
	return state, nil
}

func queryObjectsTx(ctx context.Context, tx pgx.Tx, spaceID string) ([]world.WorldObject, error) {
	rows, err := tx.Query(ctx, selectObjectCols+`
WHERE space_id = $1 AND deleted_at IS NULL
ORDER BY created_at`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("querying objects: %w", err)
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
	return objects, rows.Err()
}

func queryModelsTx(ctx context.Context, tx pgx.Tx, spaceID string) ([]world.UploadedModel, error) {
	rows, err := tx.Query(ctx, `
SELECT model_id, space_id, name, storage_key, public_url, size_bytes, uploaded_by, usage_count, created_at
FROM uploaded_models
WHERE space_id = $1
ORDER BY created_at`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
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
			return nil, fmt.Errorf("scanning model: %w", err)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

func queryRecentChatTx(ctx context.Context, tx pgx.Tx, spaceID string, limit int) ([]world.ChatMessage, error) {
	rows, err := tx.Query(ctx, `
SELECT message_id, space_id, user_id, username, message, message_type, created_at
FROM (
    SELECT message_id, space_id, user_id, username, message, message_type, created_at
    FROM chat_messages
    WHERE space_id = $1 AND deleted_at IS NULL
    ORDER BY created_at DESC
    LIMIT $2
) recent
ORDER BY created_at`, spaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent chat: %w", err)
	}
	defer rows.Close()

	var messages []world.ChatMessage
	for rows.Next() {
		var msg world.ChatMessage
		err := rows.Scan(
			&msg.MessageID, &msg.SpaceID, &msg.UserID, &msg.Username,
			&msg.Message, &msg.Type, &msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func queryActiveSessionsTx(ctx context.Context, tx pgx.Tx, spaceID string) ([]world.Session, error) {
	rows, err := tx.Query(ctx, `
SELECT session_id, user_id, username, space_id, socket_ref,
    pos_x, pos_y, pos_z, rot_x, rot_y, rot_z,
    connected_at, disconnected_at, is_active
FROM sessions
WHERE space_id = $1 AND is_active
ORDER BY connected_at`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("querying active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []world.Session
	for rows.Next() {
		var s world.Session
		err := rows.Scan(
			&s.SessionID, &s.UserID, &s.Username, &s.SpaceID, &s.SocketRef,
			&s.Position.X, &s.Position.Y, &s.Position.Z,
			&s.Rotation.X, &s.Rotation.Y, &s.Rotation.Z,
			&s.ConnectedAt, &s.DisconnectedAt, &s.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
