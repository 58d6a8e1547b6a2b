package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/plaza-dev/plaza/internal/world"
)

const chatCols = 7

// AppendChatMessages inserts one flush's worth of chat rows in a single
// multi-row statement. Chat is append-only: conflicts on message id mean a
// retried batch partially landed before failing, so duplicates are skipped
// rather than updated.
func (c *Client) AppendChatMessages(ctx context.Context, messages []world.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	spaceSet := make(map[string]bool)
	for _, msg := range messages {
		spaceSet[msg.SpaceID] = true
	}
	spaceIDs := make([]string, 0, len(spaceSet))
	for id := range spaceSet {
		spaceIDs = append(spaceIDs, id)
	}

	return c.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := ensureSpaces(ctx, tx, spaceIDs); err != nil {
			return err
		}

		args := make([]any, 0, len(messages)*chatCols)
		for _, msg := range messages {
			args = append(args,
				msg.MessageID, msg.SpaceID, msg.UserID, msg.Username,
				msg.Message, msg.Type, msg.CreatedAt,
			)
		}

		query := `
INSERT INTO chat_messages (message_id, space_id, user_id, username, message, message_type, created_at)
VALUES ` + multiRowValues(len(messages), chatCols, 1) + `
ON CONFLICT (message_id) DO NOTHING`

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("appending chat messages: %w", err)
		}
		return nil
	})
}

// RecentChat returns the newest non-deleted messages for a space, oldest
// first, capped at limit.
func (c *Client) RecentChat(ctx context.Context, spaceID string, limit int) ([]world.ChatMessage, error) {
	query := `
SELECT message_id, space_id, user_id, username, message, message_type, created_at
FROM (
    SELECT message_id, space_id, user_id, username, message, message_type, created_at
    FROM chat_messages
    WHERE space_id = $1 AND deleted_at IS NULL
    ORDER BY created_at DESC
    LIMIT $2
) recent
ORDER BY created_at`

	rows, err := c.pool.Query(ctx, query, spaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent chat: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat messages: %w", err)
	}
	return messages, nil
}

// SoftDeleteChatMessage hides a message from active read paths. Chat rows
// are never hard-deleted by this core.
func (c *Client) SoftDeleteChatMessage(ctx context.Context, messageID string) error {
	_, err := c.pool.Exec(ctx,
		`UPDATE chat_messages SET deleted_at = now() WHERE message_id = $1 AND deleted_at IS NULL`,
		messageID,
	)
	if err != nil {
		return fmt.Errorf("soft-deleting chat message: %w", err)
	}
	return nil
}
