package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// All DDL uses IF NOT EXISTS so bootstrap is idempotent across daemon
	// restarts. Postgres runs the single Exec atomically in an implicit
	// transaction. Schema evolution beyond additive changes should move to
	// a migration tool before any destructive change is needed.
	ddl := `
CREATE TABLE IF NOT EXISTS spaces (
    space_id      TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    settings      JSONB DEFAULT '{}',
    max_users     INTEGER NOT NULL DEFAULT 50,
    visitor_count BIGINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS world_objects (
    object_id         TEXT PRIMARY KEY,
    space_id          TEXT NOT NULL REFERENCES spaces(space_id) ON DELETE CASCADE,
    name              TEXT NOT NULL DEFAULT '',
    object_type       TEXT NOT NULL DEFAULT '',
    pos_x             DOUBLE PRECISION NOT NULL DEFAULT 0,
    pos_y             DOUBLE PRECISION NOT NULL DEFAULT 0,
    pos_z             DOUBLE PRECISION NOT NULL DEFAULT 0,
    rot_x             DOUBLE PRECISION NOT NULL DEFAULT 0,
    rot_y             DOUBLE PRECISION NOT NULL DEFAULT 0,
    rot_z             DOUBLE PRECISION NOT NULL DEFAULT 0,
    scale_x           DOUBLE PRECISION NOT NULL DEFAULT 1,
    scale_y           DOUBLE PRECISION NOT NULL DEFAULT 1,
    scale_z           DOUBLE PRECISION NOT NULL DEFAULT 1,
    model_id          TEXT,
    owner_id          TEXT NOT NULL DEFAULT '',
    properties        JSONB DEFAULT '{}',
    interaction_count BIGINT NOT NULL DEFAULT 0,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    deleted_at        TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS uploaded_models (
    model_id    TEXT PRIMARY KEY,
    space_id    TEXT NOT NULL REFERENCES spaces(space_id) ON DELETE CASCADE,
    name        TEXT NOT NULL DEFAULT '',
    storage_key TEXT NOT NULL,
    public_url  TEXT NOT NULL DEFAULT '',
    size_bytes  BIGINT NOT NULL DEFAULT 0,
    uploaded_by TEXT NOT NULL DEFAULT '',
    usage_count BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_messages (
    message_id   TEXT PRIMARY KEY,
    space_id     TEXT NOT NULL REFERENCES spaces(space_id) ON DELETE CASCADE,
    user_id      TEXT NOT NULL DEFAULT '',
    username     TEXT NOT NULL DEFAULT '',
    message      TEXT NOT NULL DEFAULT '',
    message_type TEXT NOT NULL DEFAULT 'text',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    deleted_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS sessions (
    session_id      TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL DEFAULT '',
    username        TEXT NOT NULL DEFAULT '',
    space_id        TEXT NOT NULL REFERENCES spaces(space_id) ON DELETE CASCADE,
    socket_ref      TEXT NOT NULL DEFAULT '',
    pos_x           DOUBLE PRECISION NOT NULL DEFAULT 0,
    pos_y           DOUBLE PRECISION NOT NULL DEFAULT 0,
    pos_z           DOUBLE PRECISION NOT NULL DEFAULT 0,
    rot_x           DOUBLE PRECISION NOT NULL DEFAULT 0,
    rot_y           DOUBLE PRECISION NOT NULL DEFAULT 0,
    rot_z           DOUBLE PRECISION NOT NULL DEFAULT 0,
    connected_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    disconnected_at TIMESTAMPTZ,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS events (
    event_id   TEXT PRIMARY KEY,
    space_id   TEXT NOT NULL DEFAULT '',
    user_id    TEXT NOT NULL DEFAULT '',
    name       TEXT NOT NULL,
    payload    JSONB DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS metric_points (
    id       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    name     TEXT NOT NULL,
    space_id TEXT NOT NULL DEFAULT '',
    count    BIGINT NOT NULL DEFAULT 0,
    sum      DOUBLE PRECISION NOT NULL DEFAULT 0,
    min      DOUBLE PRECISION NOT NULL DEFAULT 0,
    max      DOUBLE PRECISION NOT NULL DEFAULT 0,
    bucket   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_world_objects_space ON world_objects (space_id) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_uploaded_models_space ON uploaded_models (space_id);
CREATE INDEX IF NOT EXISTS idx_chat_messages_space_time ON chat_messages (space_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_space_active ON sessions (space_id) WHERE is_active;
CREATE INDEX IF NOT EXISTS idx_events_space_time ON events (space_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_metric_points_name_bucket ON metric_points (name, bucket DESC);
`

	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
