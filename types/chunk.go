// Package types defines the wire and domain types shared by the intel client,
// the transcript reducer and the CLI.
//
//nolint:revive // types is a common Go package naming convention
package types

import "encoding/json"

// ChunkType is the discriminator of a streamed mission chunk.
type ChunkType string

// Chunk type constants for the /execute/stream NDJSON protocol.
const (
	ChunkTypeThinking ChunkType = "thinking"
	ChunkTypeTool     ChunkType = "tool"
	ChunkTypeComplete ChunkType = "complete"
	ChunkTypeError    ChunkType = "error"
)

// IsTerminal returns true if this chunk type ends a mission turn.
func (t ChunkType) IsTerminal() bool {
	return t == ChunkTypeComplete || t == ChunkTypeError
}

// IsKnown returns true if t is one of the four protocol variants.
func (t ChunkType) IsKnown() bool {
	switch t {
	case ChunkTypeThinking, ChunkTypeTool, ChunkTypeComplete, ChunkTypeError:
		return true
	default:
		return false
	}
}

// StreamChunk is one decoded frame of a mission stream.
//
// It is a tagged union: Type selects which of the remaining fields are
// meaningful.
//
//	thinking: Content (required)
//	tool:     Tool, Result (both optional)
//	complete: Report (optional)
//	error:    Error (required)
//
// Use the variant constructors rather than filling fields directly.
type StreamChunk struct {
	// Type is the variant discriminator.
	Type ChunkType `msgpack:"type"`
	// Content is the reasoning fragment of a thinking chunk.
	Content string `msgpack:"content,omitempty"`
	// Tool is the tool name of a tool chunk.
	Tool *string `msgpack:"tool,omitempty"`
	// Result is the tool output of a tool chunk.
	Result *string `msgpack:"result,omitempty"`
	// Report is the final report body of a complete chunk.
	Report *string `msgpack:"report,omitempty"`
	// Error is the message of an error chunk.
	Error string `msgpack:"error,omitempty"`
}

// ThinkingChunk returns a thinking chunk.
func ThinkingChunk(content string) StreamChunk {
	return StreamChunk{Type: ChunkTypeThinking, Content: content}
}

// ToolChunk returns a tool chunk. Either field may be nil.
func ToolChunk(tool, result *string) StreamChunk {
	return StreamChunk{Type: ChunkTypeTool, Tool: tool, Result: result}
}

// CompleteChunk returns a complete chunk. report may be nil.
func CompleteChunk(report *string) StreamChunk {
	return StreamChunk{Type: ChunkTypeComplete, Report: report}
}

// ErrorChunk returns an error chunk.
func ErrorChunk(message string) StreamChunk {
	return StreamChunk{Type: ChunkTypeError, Error: message}
}

// ReportText returns the report of a complete chunk, or "" when absent.
func (c StreamChunk) ReportText() string {
	if c.Report == nil {
		return ""
	}
	return *c.Report
}

// Summary returns a one-line human readable rendering of the chunk.
func (c StreamChunk) Summary() string {
	switch c.Type {
	case ChunkTypeThinking:
		return c.Content
	case ChunkTypeTool:
		name, result := "tool", ""
		if c.Tool != nil {
			name = *c.Tool
		}
		if c.Result != nil {
			result = *c.Result
		}
		if result == "" {
			return name
		}
		return name + ": " + result
	case ChunkTypeComplete:
		return c.ReportText()
	case ChunkTypeError:
		return c.Error
	default:
		return ""
	}
}

type thinkingWire struct {
	Type    ChunkType `json:"type"`
	Content string    `json:"content"`
}

type toolWire struct {
	Type   ChunkType `json:"type"`
	Tool   *string   `json:"tool,omitempty"`
	Result *string   `json:"result,omitempty"`
}

type completeWire struct {
	Type   ChunkType `json:"type"`
	Report *string   `json:"report,omitempty"`
}

type errorWire struct {
	Type  ChunkType `json:"type"`
	Error string    `json:"error"`
}

// MarshalJSON encodes only the fields that belong to the chunk's variant,
// so required fields are always present even when empty.
func (c StreamChunk) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ChunkTypeThinking:
		return json.Marshal(thinkingWire{Type: c.Type, Content: c.Content})
	case ChunkTypeTool:
		return json.Marshal(toolWire{Type: c.Type, Tool: c.Tool, Result: c.Result})
	case ChunkTypeComplete:
		return json.Marshal(completeWire{Type: c.Type, Report: c.Report})
	case ChunkTypeError:
		return json.Marshal(errorWire{Type: c.Type, Error: c.Error})
	default:
		return json.Marshal(struct {
			Type ChunkType `json:"type"`
		}{Type: c.Type})
	}
}
