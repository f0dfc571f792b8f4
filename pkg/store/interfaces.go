// Package store defines the call journal: an append-only log of dispatched tool calls.
// Implementations must provide identical semantics across backends.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrEventNotFound is returned by lookups that match no record.
var ErrEventNotFound = errors.New("store: event not found")

// EventRecord is the persisted representation of one finished call.
// Payload holds call details (message, duration) as JSON; arguments are never journaled.
type EventRecord struct {
	EventID   string          `json:"eventId"`
	CallID    string          `json:"callId"`
	Seq       int64           `json:"seq"`
	Tool      string          `json:"tool"`
	Kind      string          `json:"kind,omitempty"`
	IsError   bool            `json:"isError"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// EventStore defines operations for the call journal.
type EventStore interface {
	// AppendEvent assigns the next sequence number. Appending an EventID that already
	// exists returns the stored record unchanged.
	AppendEvent(ctx context.Context, e EventRecord) (EventRecord, error)
	// ListEvents returns records with Seq > afterSeq in sequence order. An empty tool
	// matches every tool; limit <= 0 means no limit.
	ListEvents(ctx context.Context, tool string, afterSeq int64, limit int) ([]EventRecord, error)
	LastSeq(ctx context.Context) (int64, error)
	GetEvent(ctx context.Context, eventID string) (EventRecord, error)
}
