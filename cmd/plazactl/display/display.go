// Package display provides output formatting and display functions for plazactl.
//
// This package handles all user-facing output formatting including table and
// JSON output for daemon health, scheduler statistics, and space state. It
// provides consistent formatting across all plazactl commands with support
// for verbose mode and different output formats.
//
// The display functions handle:
// - Daemon health and uptime formatting
// - Batch scheduler counters and cache hit rates
// - World state snapshots, object listings, chat windows, and presence
// - Consistent table formatting using text/tabwriter
// - JSON output with proper indentation and error handling
//
// All display functions respect global configuration for output format and
// verbosity while maintaining clean separation from business logic.
package display

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/plaza-dev/plaza/cmd/plazactl/client"
	"github.com/plaza-dev/plaza/cmd/plazactl/config"
	"github.com/plaza-dev/plaza/cmd/plazactl/utils"
	"github.com/plaza-dev/plaza/internal/logging"
	internalutils "github.com/plaza-dev/plaza/internal/utils"
	"github.com/plaza-dev/plaza/internal/world"
)

// printJSON encodes any value as indented JSON on stdout.
func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		logging.Error("Failed to encode JSON: %v", err)
		fmt.Println("Error encoding JSON output")
	}
}

// DisplayHealth displays daemon health status in tabular or JSON format.
func DisplayHealth(health *client.HealthStatus) {
	if config.Global.Output == "json" {
		printJSON(health)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Status:\t%s\n", health.Status)
	fmt.Fprintf(w, "Version:\t%s\n", health.Version)
	fmt.Fprintf(w, "Uptime:\t%s\n", health.Uptime)
	fmt.Fprintf(w, "Checked:\t%s\n", health.Timestamp.Local().Format(time.RFC3339))
}

// DisplayStats displays the write-behind core's counters: per-kind queue
// depths, operation totals, flush latency, and cache hit rates. Provides
// operators a single view of scheduler throughput and cache effectiveness
// for capacity and backpressure assessment.
func DisplayStats(stats *client.CoreStats) {
	if config.Global.Output == "json" {
		printJSON(stats)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "BATCH SCHEDULER")
	fmt.Fprintf(w, "  Processed:\t%s\n", humanize.Comma(int64(stats.Batch.Processed)))
	fmt.Fprintf(w, "  Failed:\t%s\n", humanize.Comma(int64(stats.Batch.Failed)))
	fmt.Fprintf(w, "  Retried:\t%s\n", humanize.Comma(int64(stats.Batch.Retried)))
	fmt.Fprintf(w, "  Rejected:\t%s\n", humanize.Comma(int64(stats.Batch.Rejected)))
	fmt.Fprintf(w, "  Flushes:\t%s\n", humanize.Comma(int64(stats.Batch.Flushes)))
	fmt.Fprintf(w, "  Avg flush latency:\t%s\n", stats.Batch.AverageFlushLatency)

	// Sort kinds for stable queue depth output
	kinds := make([]string, 0, len(stats.Batch.QueueDepths))
	for kind := range stats.Batch.QueueDepths {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(w, "  Queue %s:\t%d pending\n", kind, stats.Batch.QueueDepths[kind])
	}

	fmt.Fprintln(w, "CACHE")
	fmt.Fprintf(w, "  Hits:\t%s\n", humanize.Comma(stats.Cache.HitCount))
	fmt.Fprintf(w, "  Misses:\t%s\n", humanize.Comma(stats.Cache.MissCount))
	fmt.Fprintf(w, "  Errors:\t%s\n", humanize.Comma(stats.Cache.ErrorCount))
	fmt.Fprintf(w, "  Publishes:\t%s\n", humanize.Comma(stats.Cache.PublishCount))
	fmt.Fprintf(w, "  Hit rate:\t%.1f%%\n", stats.Cache.HitRate)
}

// DisplayWorldState displays the full join snapshot for a space including
// object, model, chat, and session counts with the screen share flag.
// Verbose mode expands each section into its own table.
func DisplayWorldState(state *world.WorldState) {
	if config.Global.Output == "json" {
		printJSON(state)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Space:\t%s\n", state.SpaceID)
	fmt.Fprintf(w, "Objects:\t%d\n", len(state.Objects))
	fmt.Fprintf(w, "Models:\t%d\n", len(state.Models))
	fmt.Fprintf(w, "Recent chat:\t%d messages\n", len(state.RecentChat))
	fmt.Fprintf(w, "Sessions:\t%d active\n", len(state.ActiveSessions))
	fmt.Fprintf(w, "Screen share:\t%t\n", state.ActiveScreenShare)
	fmt.Fprintf(w, "Loaded:\t%s\n", state.LoadedAt.Local().Format(time.RFC3339))
	w.Flush()

	if !config.Global.Verbose {
		return
	}

	if len(state.Objects) > 0 {
		fmt.Println()
		displayObjectTable(state.Objects)
	}
	if len(state.Models) > 0 {
		fmt.Println()
		displayModelTable(state.Models)
	}
	if len(state.ActiveSessions) > 0 {
		fmt.Println()
		displaySessionTable(state.ActiveSessions)
	}
}

// DisplaySpaceObjects displays the active objects in a space in tabular or
// JSON format. Handles empty result sets gracefully.
func DisplaySpaceObjects(objects *client.SpaceObjects) {
	if config.Global.Output == "json" {
		printJSON(objects)
		return
	}

	if len(objects.Objects) == 0 {
		fmt.Printf("No objects in space %s\n", objects.SpaceID)
		return
	}

	displayObjectTable(objects.Objects)
}

func displayObjectTable(objects []world.WorldObject) {
	// Sort by most recently updated first
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].UpdatedAt.After(objects[j].UpdatedAt)
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tTYPE\tOWNER\tINTERACTIONS\tUPDATED")
	for _, obj := range objects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			internalutils.TruncateID(obj.ObjectID), obj.Name, obj.Type,
			internalutils.TruncateID(obj.OwnerID),
			humanize.Comma(obj.InteractionCount),
			utils.FormatDuration(time.Since(obj.UpdatedAt))+" ago")
	}
}

func displayModelTable(models []world.UploadedModel) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tSIZE\tUPLOADED BY")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			internalutils.TruncateID(m.ModelID), m.Name,
			humanize.Bytes(uint64(m.SizeBytes)), m.UploadedBy)
	}
}

// DisplaySpaceChat displays the recent chat window in chronological order
// with timestamps and usernames. Soft-deleted messages are marked rather
// than hidden so moderation actions stay visible to operators.
func DisplaySpaceChat(chat *client.SpaceChat) {
	if config.Global.Output == "json" {
		printJSON(chat)
		return
	}

	if len(chat.Messages) == 0 {
		fmt.Printf("No recent chat in space %s\n", chat.SpaceID)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "TIME\tUSER\tMESSAGE")
	for _, msg := range chat.Messages {
		text := msg.Message
		if msg.DeletedAt != nil {
			text = "(deleted)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			utils.FormatTimestamp(msg.CreatedAt), msg.Username, text)
	}
}

// DisplaySpaceSessions displays live presence in tabular or JSON format.
func DisplaySpaceSessions(sessions *client.SpaceSessions) {
	if config.Global.Output == "json" {
		printJSON(sessions)
		return
	}

	if len(sessions.Sessions) == 0 {
		fmt.Printf("No active sessions in space %s\n", sessions.SpaceID)
		return
	}

	displaySessionTable(sessions.Sessions)
}

func displaySessionTable(sessions []world.Session) {
	// Sort by most recently connected first
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ConnectedAt.After(sessions[j].ConnectedAt)
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "SESSION\tUSER\tPOSITION\tCONNECTED")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t(%.1f, %.1f, %.1f)\t%s\n",
			internalutils.TruncateID(s.SessionID), s.Username,
			s.Position.X, s.Position.Y, s.Position.Z,
			utils.FormatDuration(time.Since(s.ConnectedAt))+" ago")
	}
}
