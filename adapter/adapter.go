// Package adapter defines the cart event publishing boundary.
//
// Adapters push cart change notifications to downstream systems (analytics
// pipelines, abandonment reminders). The engine owns adapter lifecycle;
// users provide configuration only. Publishing is best-effort and never
// blocks a cart mutation from committing.
package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/trolley/types"
)

// SchemaVersion is the event payload schema version.
const SchemaVersion = "1.0"

// Cart event actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionUpdate = "update"
	ActionClear  = "clear"
	ActionMerge  = "merge"
	ActionSync   = "sync"
)

// CartChangedEvent is the payload published after a cart commit.
type CartChangedEvent struct {
	SchemaVersion string `json:"schema_version"`
	EventType     string `json:"event_type"` // always "cart_changed"
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id,omitempty"`
	Action        string `json:"action"` // add, remove, update, clear, merge, sync
	ProductID     string `json:"product_id,omitempty"`
	ItemCount     int    `json:"item_count"`
	Subtotal      int64  `json:"subtotal"` // minor units
	Source        string `json:"source"`   // local or remote
	Timestamp     string `json:"timestamp"` // ISO 8601
}

// NewEvent builds a cart change event from a committed cart state.
func NewEvent(session types.SessionMeta, action, productID string, state types.CartState) *CartChangedEvent {
	ev := &CartChangedEvent{
		SchemaVersion: SchemaVersion,
		EventType:     "cart_changed",
		SessionID:     session.SessionID,
		Action:        action,
		ProductID:     productID,
		ItemCount:     state.Lines.ItemCount(),
		Subtotal:      state.Lines.Subtotal(),
		Source:        string(state.Source),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if session.UserID != nil {
		ev.UserID = *session.UserID
	}
	return ev
}

// Adapter publishes cart change events to a downstream system.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Publish sends a cart change event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *CartChangedEvent) error

	// Close releases adapter resources.
	Close() error
}
