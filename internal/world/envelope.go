package world

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvelopeKind discriminates pub/sub notification payloads. One kind per
// channel family keeps subscribers from sniffing ad hoc message shapes.
type EnvelopeKind string

const (
	// EnvelopeObjects carries a []ObjectSummary of objects changed by a flush.
	EnvelopeObjects EnvelopeKind = "objects"

	// EnvelopePositions carries a []PositionUpdate of fresh avatar positions.
	EnvelopePositions EnvelopeKind = "positions"

	// EnvelopeChat carries a []ChatMessage of newly appended messages.
	EnvelopeChat EnvelopeKind = "chat"
)

// Envelope is the single wire shape for every pub/sub channel: a kind
// discriminant, the space partition, a timestamp, and the kind-specific data.
// Delivery is at-least-once with no persistence of missed messages; durable
// catch-up comes from a WorldState load on (re)connect.
type Envelope struct {
	Kind      EnvelopeKind    `json:"kind"`
	SpaceID   string          `json:"spaceId"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEnvelope builds an Envelope around a JSON-serializable payload.
func NewEnvelope(kind EnvelopeKind, spaceID string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling %s envelope data: %w", kind, err)
	}
	return Envelope{
		Kind:      kind,
		SpaceID:   spaceID,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// ObjectChannel returns the pub/sub channel carrying object updates for a space.
func ObjectChannel(spaceID string) string {
	return fmt.Sprintf("plaza:space:%s:objects", spaceID)
}

// PositionChannel returns the pub/sub channel carrying avatar positions for a space.
func PositionChannel(spaceID string) string {
	return fmt.Sprintf("plaza:space:%s:positions", spaceID)
}

// ChatChannel returns the pub/sub channel carrying chat messages for a space.
func ChatChannel(spaceID string) string {
	return fmt.Sprintf("plaza:space:%s:chat", spaceID)
}
