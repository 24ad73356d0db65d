// Package iox holds cleanup helpers shared by the client, archive and
// session code.
package iox

import "io"

// maxDrain bounds how much of an unread response body DrainClose consumes
// before giving up on connection reuse.
const maxDrain = 64 << 10

// DiscardClose closes c and ignores the error.
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// DrainClose reads what is left of rc (up to 64 KiB) and closes it, so an
// HTTP keep-alive connection can go back to the pool.
//
//	defer iox.DrainClose(resp.Body)
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxDrain))
	_ = rc.Close()
}

// CloseFunc returns a func that closes c, for t.Cleanup or a closer list.
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr calls fn and ignores its error. Used for logger Sync.
func DiscardErr(fn func() error) { _ = fn() }
