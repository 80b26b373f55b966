package types

// SessionMeta identifies one client session.
// Every log entry and cart event carries these fields.
type SessionMeta struct {
	// SessionID is a unique identifier for this client session.
	SessionID string `json:"session_id"`
	// UserID is the authenticated user's identifier, nil while anonymous.
	UserID *string `json:"user_id,omitempty"`
}
