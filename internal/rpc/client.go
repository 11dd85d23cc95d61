// Package rpc implements ports.Transport over the backend's JSON-RPC
// endpoint. It is a thin collaborator: no retries, no result caching, no
// payload validation beyond the envelope itself.
package rpc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aretw0/sluice/internal/logging"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	"github.com/aretw0/sluice/pkg/query"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const rpcPath = "/jsonrpc"

// Transport opens authenticated sessions over JSON-RPC.
type Transport struct {
	httpClient *http.Client
	logger     *slog.Logger
	nextID     atomic.Int64
}

// Option configures the Transport.
type Option func(*Transport)

// WithHTTPClient overrides the HTTP client (default: 30s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		t.httpClient = c
	}
}

// WithLogger sets a structured logger (default: no-op).
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = l
	}
}

// New creates a JSON-RPC transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  requestParams `json:"params"`
	ID      int64         `json:"id"`
}

type requestParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type response struct {
	JSONRPC string              `json:"jsonrpc"`
	Result  jsoniter.RawMessage `json:"result"`
	Error   *rpcError           `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Open performs the handshake for the backend's authentication strategy:
// a credential login resolving the account uid, or a token validation
// call for token backends. The returned Conn is ready for queries.
func (t *Transport) Open(ctx context.Context, backend pipeline.Backend) (ports.Conn, error) {
	if backend.UsesToken() {
		return t.openWithToken(ctx, backend)
	}
	return t.openWithCredentials(ctx, backend)
}

func (t *Transport) openWithCredentials(ctx context.Context, backend pipeline.Backend) (ports.Conn, error) {
	args := []any{backend.Database, backend.Username, backend.Password}

	var uid int64
	raw, err := t.call(ctx, backend, "common", "login", args)
	if err != nil {
		return nil, &pipeline.AuthenticationError{Endpoint: backend.Endpoint, Err: err}
	}

	// The backend answers false (not an error) for bad credentials.
	if err := json.Unmarshal(raw, &uid); err != nil || uid == 0 {
		return nil, &pipeline.AuthenticationError{
			Endpoint: backend.Endpoint,
			Err:      fmt.Errorf("login rejected for %q on %q", backend.Username, backend.Database),
		}
	}

	t.logger.Info("session authenticated", "endpoint", backend.Endpoint, "uid", uid)
	return &conn{transport: t, backend: backend, uid: uid}, nil
}

func (t *Transport) openWithToken(ctx context.Context, backend pipeline.Backend) (ports.Conn, error) {
	// Token backends authenticate per request; the handshake validates the
	// token once so a bad one fails the execution up front.
	if _, err := t.call(ctx, backend, "common", "version", nil); err != nil {
		return nil, &pipeline.AuthenticationError{Endpoint: backend.Endpoint, Err: err}
	}

	t.logger.Info("session authenticated", "endpoint", backend.Endpoint, "strategy", "token")
	return &conn{transport: t, backend: backend}, nil
}

// call issues one JSON-RPC request and returns the raw result.
func (t *Transport) call(ctx context.Context, backend pipeline.Backend, service, method string, args []any) (jsoniter.RawMessage, error) {
	if args == nil {
		args = []any{}
	}

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  requestParams{Service: service, Method: method, Args: args},
		ID:      t.nextID.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, backend.Endpoint+rpcPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if backend.UsesToken() {
		req.Header.Set("Authorization", "Bearer "+backend.AccessToken)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", service, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%s.%s: backend rejected credentials (status %d)", service, method, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s.%s: unexpected status %d", service, method, resp.StatusCode)
	}

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%s.%s: decode response: %w", service, method, err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("%s.%s: %w", service, method, envelope.Error)
	}
	return envelope.Result, nil
}

// conn is one authenticated session. uid is zero for token sessions.
type conn struct {
	transport *Transport
	backend   pipeline.Backend
	uid       int64
}

// SearchRead issues a paginated read. Offset and order are only put on the
// wire when set; a zero offset is omitted entirely.
func (c *conn) SearchRead(ctx context.Context, collection string, opts query.Options) ([]ports.Record, error) {
	kwargs := map[string]any{
		"fields": opts.Fields,
		"limit":  opts.Limit,
	}
	if opts.Order != "" {
		kwargs["order"] = opts.Order
	}
	if opts.Offset > 0 {
		kwargs["offset"] = opts.Offset
	}

	args := []any{
		c.backend.Database, c.uid, c.backend.Password,
		collection, "search_read",
		[]any{opts.Domain.Raw()},
		kwargs,
	}

	raw, err := c.transport.call(ctx, c.backend, "object", "execute_kw", args)
	if err != nil {
		return nil, err
	}

	var records []ports.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s records: %w", collection, err)
	}
	return records, nil
}
