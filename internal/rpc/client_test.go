package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aretw0/sluice/internal/rpc"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/query"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string `json:"method"`
	Params struct {
		Service string            `json:"service"`
		Method  string            `json:"method"`
		Args    []json.RawMessage `json:"args"`
	} `json:"params"`
	ID int64 `json:"id"`
}

// fakeBackend is a minimal JSON-RPC endpoint speaking the backend dialect.
type fakeBackend struct {
	mu        sync.Mutex
	uid       int64
	password  string
	token     string
	records   []map[string]any
	execErr   bool
	execCalls []rpcRequest
}

func (f *fakeBackend) handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/jsonrpc", func(w http.ResponseWriter, req *http.Request) {
		var in rpcRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		write := func(result any) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"id":      in.ID,
				"result":  result,
			})
		}

		switch in.Params.Service + "." + in.Params.Method {
		case "common.login":
			var password string
			_ = json.Unmarshal(in.Params.Args[2], &password)
			if password != f.password {
				write(false)
				return
			}
			write(f.uid)

		case "common.version":
			if req.Header.Get("Authorization") != "Bearer "+f.token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			write(map[string]any{"server_version": "17.0"})

		case "object.execute_kw":
			f.mu.Lock()
			f.execCalls = append(f.execCalls, in)
			broken := f.execErr
			f.mu.Unlock()
			if broken {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"jsonrpc": "2.0",
					"id":      in.ID,
					"error":   map[string]any{"code": 200, "message": "internal server error"},
				})
				return
			}
			write(f.records)

		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"id":      in.ID,
				"error":   map[string]any{"code": -32601, "message": "method not found"},
			})
		}
	})
	return r
}

func (f *fakeBackend) lastKwargs(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.execCalls)

	args := f.execCalls[len(f.execCalls)-1].Params.Args
	require.Len(t, args, 7)

	var kwargs map[string]any
	require.NoError(t, json.Unmarshal(args[6], &kwargs))
	return kwargs
}

func TestOpen_CredentialLoginAndSearchRead(t *testing.T) {
	fake := &fakeBackend{
		uid:      7,
		password: "secret",
		records:  []map[string]any{{"id": float64(1), "name": "Amina"}},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	transport := rpc.New(withTestClient(srv))
	backend := pipeline.Backend{Endpoint: srv.URL, Database: "registry", Username: "svc", Password: "secret"}

	conn, err := transport.Open(context.Background(), backend)
	require.NoError(t, err)

	opts := query.Policy{Fields: []string{"id", "name"}, Limit: 1}.Build(
		query.Expression{query.C("registrant_id", query.OpEq, "REG_1")}, 0)

	records, err := conn.SearchRead(context.Background(), "res.partner", opts)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Amina", records[0]["name"])

	kwargs := fake.lastKwargs(t)
	assert.Equal(t, float64(1), kwargs["limit"])
	assert.NotContains(t, kwargs, "offset", "zero offset must stay off the wire")
	assert.NotContains(t, kwargs, "order")
}

func TestSearchRead_PositiveOffsetOnTheWire(t *testing.T) {
	fake := &fakeBackend{uid: 7, password: "secret"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	transport := rpc.New(withTestClient(srv))
	backend := pipeline.Backend{Endpoint: srv.URL, Database: "registry", Username: "svc", Password: "secret"}

	conn, err := transport.Open(context.Background(), backend)
	require.NoError(t, err)

	opts := query.Policy{Fields: []string{"id"}, Limit: 100, Order: "name asc"}.Build(nil, 200)
	_, err = conn.SearchRead(context.Background(), "res.partner", opts)
	require.NoError(t, err)

	kwargs := fake.lastKwargs(t)
	assert.Equal(t, float64(200), kwargs["offset"])
	assert.Equal(t, "name asc", kwargs["order"])
}

func TestOpen_RejectedCredentials(t *testing.T) {
	fake := &fakeBackend{uid: 7, password: "secret"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	transport := rpc.New(withTestClient(srv))
	backend := pipeline.Backend{Endpoint: srv.URL, Database: "registry", Username: "svc", Password: "wrong"}

	_, err := transport.Open(context.Background(), backend)

	var authErr *pipeline.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, pipeline.IsFatal(err))
}

func TestOpen_TokenStrategy(t *testing.T) {
	fake := &fakeBackend{token: "tok-123", records: []map[string]any{{"id": float64(1)}}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	transport := rpc.New(withTestClient(srv))

	conn, err := transport.Open(context.Background(), pipeline.Backend{Endpoint: srv.URL, AccessToken: "tok-123"})
	require.NoError(t, err)

	records, err := conn.SearchRead(context.Background(), "survey.submission",
		query.Policy{Fields: []string{"id"}, Limit: 100}.Build(nil, 0))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestOpen_BadTokenIsFatal(t *testing.T) {
	fake := &fakeBackend{token: "tok-123"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	transport := rpc.New(withTestClient(srv))

	_, err := transport.Open(context.Background(), pipeline.Backend{Endpoint: srv.URL, AccessToken: "wrong"})

	assert.True(t, pipeline.IsFatal(err))
}

func TestSearchRead_EnvelopeErrorSurfaces(t *testing.T) {
	fake := &fakeBackend{uid: 7, password: "secret"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	transport := rpc.New(withTestClient(srv))
	backend := pipeline.Backend{Endpoint: srv.URL, Database: "registry", Username: "svc", Password: "secret"}

	conn, err := transport.Open(context.Background(), backend)
	require.NoError(t, err)

	// An error envelope must surface as a Go error, not as an empty result.
	fake.execErr = true
	_, err = conn.SearchRead(context.Background(), "res.partner",
		query.Policy{Limit: 1}.Build(nil, 0))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "internal server error")
}

// withTestClient binds the transport to the test server's client.
func withTestClient(srv *httptest.Server) rpc.Option {
	return rpc.WithHTTPClient(srv.Client())
}
