package stream

import (
	"encoding/json"
	"fmt"

	"github.com/pithecene-io/intel/types"
)

// ValidationError reports a line that does not decode into any chunk variant.
// It is recoverable: the line is dropped and the stream continues.
type ValidationError struct {
	// Field is the offending field, empty for whole-line failures.
	Field string
	// Msg describes the failure.
	Msg string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *ValidationError) Error() string {
	prefix := "invalid chunk"
	if e.Field != "" {
		prefix += ": " + e.Field
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DecodeChunk decodes one NDJSON line into a StreamChunk.
//
// The line must be a JSON object whose "type" field selects one of the four
// variants; every non-optional field of that variant must be present and
// every declared field must be a string. An optional field may be omitted
// but not null. Unknown fields are ignored.
func DecodeChunk(line []byte) (types.StreamChunk, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return types.StreamChunk{}, &ValidationError{Msg: "not a JSON object", Err: err}
	}
	if fields == nil {
		return types.StreamChunk{}, &ValidationError{Msg: "not a JSON object"}
	}

	rawType, ok := fields["type"]
	if !ok {
		return types.StreamChunk{}, &ValidationError{Field: "type", Msg: "missing discriminator"}
	}
	var chunkType types.ChunkType
	if err := json.Unmarshal(rawType, &chunkType); err != nil {
		return types.StreamChunk{}, &ValidationError{Field: "type", Msg: "must be a string", Err: err}
	}

	switch chunkType {
	case types.ChunkTypeThinking:
		content, err := requiredString(fields, "content")
		if err != nil {
			return types.StreamChunk{}, err
		}
		return types.ThinkingChunk(content), nil

	case types.ChunkTypeTool:
		tool, err := optionalString(fields, "tool")
		if err != nil {
			return types.StreamChunk{}, err
		}
		result, err := optionalString(fields, "result")
		if err != nil {
			return types.StreamChunk{}, err
		}
		return types.ToolChunk(tool, result), nil

	case types.ChunkTypeComplete:
		report, err := optionalString(fields, "report")
		if err != nil {
			return types.StreamChunk{}, err
		}
		return types.CompleteChunk(report), nil

	case types.ChunkTypeError:
		msg, err := requiredString(fields, "error")
		if err != nil {
			return types.StreamChunk{}, err
		}
		return types.ErrorChunk(msg), nil

	default:
		return types.StreamChunk{}, &ValidationError{Field: "type", Msg: fmt.Sprintf("unknown chunk type %q", chunkType)}
	}
}

func requiredString(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", &ValidationError{Field: name, Msg: "required field missing"}
	}
	s, err := decodeString(raw, name)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", &ValidationError{Field: name, Msg: "required field is null"}
	}
	return *s, nil
}

func optionalString(fields map[string]json.RawMessage, name string) (*string, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, nil
	}
	s, err := decodeString(raw, name)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &ValidationError{Field: name, Msg: "must be a string"}
	}
	return s, nil
}

// decodeString returns nil for a JSON null.
func decodeString(raw json.RawMessage, name string) (*string, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &ValidationError{Field: name, Msg: "must be a string", Err: err}
	}
	return s, nil
}
