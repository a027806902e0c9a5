package dispatch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/retouch"
)

// maxLineBytes bounds one request line.
const maxLineBytes = 16 << 20

// Serve reads newline-delimited requests from r and writes one response
// line per request to w. Mutating commands are handled one at a time in
// arrival order; previews, exports and queries run concurrently, at most
// concurrency at once (non-positive means unlimited). Responses are
// written as they complete, so clients match them by id.
//
// Serve returns once r is exhausted and every request read has been
// answered. After ctx is cancelled no further lines are read.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer, concurrency int) error {
	out := &responseWriter{enc: json.NewEncoder(w)}

	serial := make(chan Request, 64)
	serialDone := make(chan struct{})
	go func() {
		defer close(serialDone)
		for req := range serial {
			out.write(d.Handle(ctx, req))
		}
	}()

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for sc.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			out.write(failure("", &retouch.Error{
				Kind:   retouch.KindInvalidOperation,
				Op:     "dispatch",
				Detail: "malformed request",
				Err:    err,
			}))
			continue
		}
		if Mutating(req.Command) {
			serial <- req
			continue
		}
		g.Go(func() error {
			out.write(d.Handle(ctx, req))
			return nil
		})
	}
	close(serial)
	<-serialDone
	_ = g.Wait()

	if err := out.err(); err != nil {
		return err
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("dispatch: read: %w", err)
	}
	return ctx.Err()
}

// responseWriter serializes response lines from concurrent handlers.
type responseWriter struct {
	mu       sync.Mutex
	enc      *json.Encoder
	firstErr error
}

func (w *responseWriter) write(resp Response) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.firstErr != nil {
		return
	}
	if err := w.enc.Encode(resp); err != nil {
		w.firstErr = fmt.Errorf("dispatch: write: %w", err)
	}
}

func (w *responseWriter) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.firstErr
}
