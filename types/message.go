package types

import "time"

// Role identifies the author of a transcript message.
type Role string

// Transcript roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrorPrefix starts the content of every synthesized failure message.
const ErrorPrefix = "Error: "

// Message is one committed transcript entry.
// Messages are never mutated after they are committed.
type Message struct {
	// ID uniquely identifies the message within a session.
	ID string `json:"id" msgpack:"id"`
	// Role is the author.
	Role Role `json:"role" msgpack:"role"`
	// Content is the user input, the final report, or an error text.
	Content string `json:"content" msgpack:"content"`
	// Timestamp is the commit time.
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
	// Chunks are the intermediate chunks of an assistant turn, in arrival order.
	Chunks []StreamChunk `json:"chunks,omitempty" msgpack:"chunks,omitempty"`
}

// IsError returns true if the message is a synthesized failure entry.
func (m Message) IsError() bool {
	return m.Role == RoleAssistant && len(m.Content) >= len(ErrorPrefix) && m.Content[:len(ErrorPrefix)] == ErrorPrefix
}
