// Package stream implements NDJSON framing and chunk decoding for the
// /execute/stream mission protocol.
//
// A mission stream is a sequence of newline-delimited JSON objects. The
// transport delivers arbitrary fragments; LineBuffer restores line
// boundaries, FrameDecoder drives it from an io.Reader, and DecodeChunk
// validates each line into a types.StreamChunk.
package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum length of a single line (1 MiB).
	MaxFrameSize = 1024 * 1024
	// ReadSize is the fragment size FrameDecoder requests from its reader.
	ReadSize = 4 * 1024
)

// FrameErrorKind classifies frame errors.
type FrameErrorKind int

const (
	// FrameErrorTooLarge indicates a line exceeding MaxFrameSize.
	FrameErrorTooLarge FrameErrorKind = iota
)

// FrameError represents a framing error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if this error ends the stream.
// Oversized frames cannot be resynchronized, so every kind is fatal.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// ReadError wraps a failure of the underlying reader before a clean end of
// stream. Lines completed before the failure are still delivered.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("stream read failed: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// LineBuffer restores line boundaries over irregular fragments.
//
// Each Push appends a fragment and returns the lines it completed, trimmed of
// surrounding whitespace, with empty lines dropped. The unterminated tail is
// kept until a later Push completes it or Flush drains it.
type LineBuffer struct {
	buf []byte
}

// Push appends fragment and returns every line it completes, in order.
func (b *LineBuffer) Push(fragment []byte) []string {
	b.buf = append(b.buf, fragment...)

	var lines []string
	start := 0
	for {
		i := bytes.IndexByte(b.buf[start:], '\n')
		if i < 0 {
			break
		}
		if line := bytes.TrimSpace(b.buf[start : start+i]); len(line) > 0 {
			lines = append(lines, string(line))
		}
		start += i + 1
	}

	if start > 0 {
		// Compact so the tail does not pin consumed bytes.
		b.buf = append(b.buf[:0], b.buf[start:]...)
	}
	return lines
}

// Flush returns the trimmed tail, if non-empty, and resets the buffer.
func (b *LineBuffer) Flush() (string, bool) {
	tail := bytes.TrimSpace(b.buf)
	b.buf = b.buf[:0]
	if len(tail) == 0 {
		return "", false
	}
	return string(tail), true
}

// Len returns the number of buffered bytes of the incomplete tail.
func (b *LineBuffer) Len() int {
	return len(b.buf)
}

// FrameDecoder reads NDJSON lines from a stream.
type FrameDecoder struct {
	reader  io.Reader
	lines   LineBuffer
	readBuf []byte
	pending []string
	err     error // terminal state once set
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{
		reader:  r,
		readBuf: make([]byte, ReadSize),
	}
}

// ReadFrame returns the next non-empty, trimmed line.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more frames)
//   - *ReadError: the reader failed before the end of stream
//   - *FrameError with Kind=FrameErrorTooLarge: line exceeds MaxFrameSize (fatal)
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	for {
		if len(d.pending) > 0 {
			line := d.pending[0]
			d.pending = d.pending[1:]
			return []byte(line), nil
		}
		if d.err != nil {
			return nil, d.err
		}

		n, err := d.reader.Read(d.readBuf)
		if n > 0 {
			d.pending = append(d.pending, d.lines.Push(d.readBuf[:n])...)
			if d.lines.Len() > MaxFrameSize {
				d.err = &FrameError{
					Kind: FrameErrorTooLarge,
					Msg:  fmt.Sprintf("line exceeds maximum frame size %d", MaxFrameSize),
				}
				continue
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if tail, ok := d.lines.Flush(); ok {
					d.pending = append(d.pending, tail)
				}
				d.err = io.EOF
			} else {
				// The incomplete tail is dropped; completed lines still drain.
				d.lines.Flush()
				d.err = &ReadError{Err: err}
			}
		}
	}
}
