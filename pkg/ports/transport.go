package ports

import (
	"context"

	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/query"
)

// Record is one raw backend record. Payloads are not schema-validated at
// this layer; adaptors decode the fields they need.
type Record map[string]any

// Conn is an authenticated session with a backend. A Conn is scoped to one
// pipeline execution and must not be reused across executions.
type Conn interface {
	// SearchRead fetches the records of collection matching opts.Domain,
	// limited and paginated per opts. A query matching nothing returns an
	// empty result, not an error.
	SearchRead(ctx context.Context, collection string, opts query.Options) ([]Record, error)
}

// Transport opens authenticated sessions against a backend. The handshake
// completes before Open returns: a non-nil Conn is ready for queries, and
// a rejected handshake surfaces as *pipeline.AuthenticationError.
type Transport interface {
	Open(ctx context.Context, backend pipeline.Backend) (Conn, error)
}
