package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/plaza-dev/plaza/internal/world"
)

const eventCols = 6

// AppendEvents inserts one flush's worth of analytics events in a single
// multi-row statement. Append-only; duplicate event ids from retried batches
// are skipped.
func (c *Client) AppendEvents(ctx context.Context, events []world.Event) error {
	if len(events) == 0 {
		return nil
	}

	return c.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		args := make([]any, 0, len(events)*eventCols)
		for _, ev := range events {
			payloadJSON, err := json.Marshal(ev.Payload)
			if err != nil {
				return fmt.Errorf("marshaling event payload for %s: %w", ev.EventID, err)
			}
			args = append(args, ev.EventID, ev.SpaceID, ev.UserID, ev.Name, payloadJSON, ev.CreatedAt)
		}

		query := `
INSERT INTO events (event_id, space_id, user_id, name, payload, created_at)
VALUES ` + multiRowValues(len(events), eventCols, 1) + `
ON CONFLICT (event_id) DO NOTHING`

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("appending events: %w", err)
		}
		return nil
	})
}

const metricCols = 7

// MetricWindow bounds the rolling time-series retention. Points older than
// this are trimmed on every metric write.
const MetricWindow = time.Hour

// AppendMetricPoints writes pre-aggregated metric points and trims the
// rolling window in the same transaction.
func (c *Client) AppendMetricPoints(ctx context.Context, points []world.MetricPoint) error {
	if len(points) == 0 {
		return nil
	}

	return c.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		args := make([]any, 0, len(points)*metricCols)
		for _, p := range points {
			args = append(args, p.Name, p.SpaceID, p.Count, p.Sum, p.Min, p.Max, p.Timestamp)
		}

		query := `
INSERT INTO metric_points (name, space_id, count, sum, min, max, bucket)
VALUES ` + multiRowValues(len(points), metricCols, 1)

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("appending metric points: %w", err)
		}

		_, err := tx.Exec(ctx,
			`DELETE FROM metric_points WHERE bucket < now() - make_interval(secs => $1)`,
			MetricWindow.Seconds(),
		)
		if err != nil {
			return fmt.Errorf("trimming metric window: %w", err)
		}
		return nil
	})
}
