package registry_test

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	"github.com/aretw0/sluice/pkg/query"
)

// readCall records one SearchRead issued against the fake connection.
type readCall struct {
	Collection string
	Opts       query.Options
}

// fakeConn replays canned results in call order.
type fakeConn struct {
	mu      sync.Mutex
	calls   []readCall
	results [][]ports.Record
	errs    []error
}

func (c *fakeConn) SearchRead(_ context.Context, collection string, opts query.Options) ([]ports.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := len(c.calls)
	c.calls = append(c.calls, readCall{Collection: collection, Opts: opts})

	if idx < len(c.errs) && c.errs[idx] != nil {
		return nil, c.errs[idx]
	}
	if idx < len(c.results) {
		return c.results[idx], nil
	}
	return nil, nil
}

func (c *fakeConn) Calls() []readCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]readCall(nil), c.calls...)
}

// fakeTransport counts handshakes and hands out a fixed connection.
type fakeTransport struct {
	mu    sync.Mutex
	conn  ports.Conn
	err   error
	opens int
}

func (t *fakeTransport) Open(_ context.Context, _ pipeline.Backend) (ports.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opens++
	if t.err != nil {
		return nil, t.err
	}
	return t.conn, nil
}

func (t *fakeTransport) Opens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opens
}

// logCapture collects records so tests can assert on emitted severities.
type logCapture struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *logCapture) Enabled(context.Context, slog.Level) bool { return true }

func (h *logCapture) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *logCapture) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *logCapture) WithGroup(string) slog.Handler      { return h }

func (h *logCapture) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}
