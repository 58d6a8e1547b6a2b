package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/plaza-dev/plaza/internal/world"
)

// UpsertSession records a session on connect. The conflict clause refreshes
// transform and socket fields only while the session is still active:
// is_active=false is terminal and a disconnected session is never
// reactivated, even by a late-arriving connect retry.
func (c *Client) UpsertSession(ctx context.Context, s world.Session) error {
	return c.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := ensureSpaces(ctx, tx, []string{s.SpaceID}); err != nil {
			return err
		}

		query := `
INSERT INTO sessions (session_id, user_id, username, space_id, socket_ref,
    pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, connected_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE)
ON CONFLICT (session_id) DO UPDATE SET
    socket_ref = EXCLUDED.socket_ref,
    pos_x = EXCLUDED.pos_x, pos_y = EXCLUDED.pos_y, pos_z = EXCLUDED.pos_z,
    rot_x = EXCLUDED.rot_x, rot_y = EXCLUDED.rot_y, rot_z = EXCLUDED.rot_z
WHERE sessions.is_active`

		_, err := tx.Exec(ctx, query,
			s.SessionID, s.UserID, s.Username, s.SpaceID, s.SocketRef,
			s.Position.X, s.Position.Y, s.Position.Z,
			s.Rotation.X, s.Rotation.Y, s.Rotation.Z,
			s.ConnectedAt,
		)
		if err != nil {
			return fmt.Errorf("upserting session: %w", err)
		}
		return nil
	})
}

// DeactivateSession marks a session terminated. Idempotent; the durable row
// survives for analytics while the cache entry is dropped separately.
func (c *Client) DeactivateSession(ctx context.Context, sessionID string) error {
	_, err := c.pool.Exec(ctx,
		`UPDATE sessions SET is_active = FALSE, disconnected_at = now()
WHERE session_id = $1 AND is_active`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("deactivating session: %w", err)
	}
	return nil
}

// ActiveSessions returns the live sessions for a space, oldest connection
// first.
func (c *Client) ActiveSessions(ctx context.Context, spaceID string) ([]world.Session, error) {
	query := `
SELECT session_id, user_id, username, space_id, socket_ref,
    pos_x, pos_y, pos_z, rot_x, rot_y, rot_z,
    connected_at, disconnected_at, is_active
FROM sessions
WHERE space_id = $1 AND is_active
ORDER BY connected_at`

	rows, err := c.pool.Query(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("listing active sessions: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}
