package transcript

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/intel/iox"
	"github.com/pithecene-io/intel/types"
)

// SessionVersion is the current session file format version.
const SessionVersion = 1

// ErrSessionVersion is returned for session files of an unknown version.
var ErrSessionVersion = errors.New("unsupported session version")

// Session is a persisted conversation.
type Session struct {
	Version        int             `msgpack:"version"`
	SessionID      string          `msgpack:"session_id"`
	ConversationID *int64          `msgpack:"conversation_id,omitempty"`
	Messages       []types.Message `msgpack:"messages"`
	SavedAt        time.Time       `msgpack:"saved_at"`
}

// NewSession captures the reducer's committed messages.
func NewSession(meta *types.SessionMeta, r *Reducer) *Session {
	return &Session{
		Version:        SessionVersion,
		SessionID:      meta.SessionID,
		ConversationID: meta.ConversationID,
		Messages:       r.Messages(),
	}
}

// Options returns the reducer options that resume this session.
func (s *Session) Options() []Option {
	return []Option{WithMessages(s.Messages), WithConversation(s.ConversationID)}
}

// SaveSession encodes s as msgpack.
func SaveSession(w io.Writer, s *Session) error {
	if s.Version == 0 {
		s.Version = SessionVersion
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}
	if err := msgpack.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return nil
}

// LoadSession decodes a session written by SaveSession.
func LoadSession(r io.Reader) (*Session, error) {
	var s Session
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Version != SessionVersion {
		return nil, fmt.Errorf("%w: %d", ErrSessionVersion, s.Version)
	}
	return &s, nil
}

// SaveSessionFile writes s to path, replacing it atomically.
func SaveSessionFile(path string, s *Session) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := SaveSession(tmp, s); err != nil {
		iox.DiscardClose(tmp)
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// LoadSessionFile reads a session from path.
// A missing file returns an error matching os.ErrNotExist.
func LoadSessionFile(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(f)
	return LoadSession(f)
}
