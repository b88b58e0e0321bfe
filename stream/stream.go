// Package stream turns a provider's incremental response protocol into a
// uniform, pull-based sequence of chunks. A TextStream is lazy, finite and
// single-pass: the consumer controls pacing by calling Next, which blocks
// until the next network-delivered chunk arrives or the stream ends.
// Abandoning consumption via Close cancels the underlying request so no
// background work is orphaned.
package stream

import (
	"context"
	"strings"

	"github.com/hupe1980/modelbridge/model"
)

// TextStream is a single-pass iterator over partial model responses.
// Chunks are delivered strictly in generation order; no buffering happens
// beyond the adapter's channel. Not safe for concurrent use.
type TextStream struct {
	respCh <-chan model.Response
	errCh  <-chan error
	cancel context.CancelFunc

	current model.Response
	acc     strings.Builder
	final   *model.Response
	err     error
	closed  bool
}

// New wraps the channel pair returned by model.Generate. cancel is invoked
// on Close to release the underlying connection; pass the CancelFunc that
// governs the Generate context.
func New(respCh <-chan model.Response, errCh <-chan error, cancel context.CancelFunc) *TextStream {
	if cancel == nil {
		cancel = func() {}
	}
	return &TextStream{respCh: respCh, errCh: errCh, cancel: cancel}
}

// Next advances to the next partial chunk. It returns false when the stream
// ends, an error occurs, or the stream was closed; inspect Err afterwards.
// A fully drained or failed stream releases the underlying request without
// needing an explicit Close.
func (s *TextStream) Next() bool {
	if s.closed || s.err != nil {
		return false
	}
	for s.respCh != nil || s.errCh != nil {
		select {
		case resp, ok := <-s.respCh:
			if !ok {
				s.respCh = nil
				continue
			}
			if !resp.Partial {
				r := resp
				s.final = &r
				continue
			}
			s.current = resp
			s.acc.WriteString(resp.Content.Text())
			return true
		case err, ok := <-s.errCh:
			if !ok {
				s.errCh = nil
				continue
			}
			if err != nil {
				s.err = err
				s.cancel()
				return false
			}
		}
	}
	s.cancel()
	return false
}

// Current returns the chunk most recently produced by Next.
func (s *TextStream) Current() model.Response { return s.current }

// CurrentText returns the text delta of the current chunk.
func (s *TextStream) CurrentText() string { return s.current.Content.Text() }

// Text returns the concatenation of all chunks consumed so far. After a
// fully drained stream it equals the equivalent non-streamed result.
func (s *TextStream) Text() string { return s.acc.String() }

// Final returns the terminal (non-partial) response, available once Next
// has returned false on a successfully completed stream.
func (s *TextStream) Final() *model.Response { return s.final }

// Err returns the error that terminated the stream, if any.
func (s *TextStream) Err() error { return s.err }

// Close abandons the stream, cancels the underlying request and drains the
// producer so its goroutine can exit. Safe to call multiple times.
func (s *TextStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	go func(respCh <-chan model.Response, errCh <-chan error) {
		for respCh != nil || errCh != nil {
			select {
			case _, ok := <-respCh:
				if !ok {
					respCh = nil
				}
			case _, ok := <-errCh:
				if !ok {
					errCh = nil
				}
			}
		}
	}(s.respCh, s.errCh)
	s.respCh = nil
	s.errCh = nil
	return nil
}
