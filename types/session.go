package types

import "github.com/google/uuid"

// SessionMeta identifies one CLI session talking to the agent backend.
// Logging and archive records carry these fields.
type SessionMeta struct {
	// SessionID is generated per process.
	SessionID string `json:"session_id" msgpack:"session_id"`
	// ConversationID is the backend conversation, when one is selected.
	ConversationID *int64 `json:"conversation_id,omitempty" msgpack:"conversation_id,omitempty"`
}

// NewSessionMeta returns session metadata with a fresh session ID.
func NewSessionMeta(conversationID *int64) *SessionMeta {
	return &SessionMeta{
		SessionID:      uuid.NewString(),
		ConversationID: conversationID,
	}
}
