package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/sluice/pkg/observability"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	"github.com/aretw0/sluice/pkg/query"
)

// Step describes one read: a collection, the policy-defined default read
// shape, and the domain to overlay on it.
type Step struct {
	Collection string
	Policy     query.Policy
	Domain     query.Expression
}

// Executor issues paginated reads against the execution's session.
type Executor struct {
	sessions *SessionManager
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewExecutor creates an executor bound to the execution's session manager.
func NewExecutor(sessions *SessionManager, logger *slog.Logger, metrics *observability.Metrics) *Executor {
	return &Executor{sessions: sessions, logger: logger, metrics: metrics}
}

// Read ensures a session and issues a single read. Options are assembled
// from the step's policy with the domain overlaid; offset is included iff
// strictly positive. A query matching nothing returns an empty result.
func (e *Executor) Read(ctx context.Context, st pipeline.State, step Step, offset int) ([]ports.Record, error) {
	conn, err := e.sessions.Ensure(ctx, st.Backend)
	if err != nil {
		return nil, err
	}

	opts := step.Policy.Build(step.Domain, offset)
	e.metrics.QueryIssued(step.Collection)
	e.logger.Debug("issuing read",
		"collection", step.Collection,
		"clauses", len(opts.Domain),
		"limit", opts.Limit,
		"offset", opts.Offset,
	)

	records, err := conn.SearchRead(ctx, step.Collection, opts)
	if err != nil {
		var terr *pipeline.TransportError
		if errors.As(err, &terr) {
			return nil, err
		}
		return nil, &pipeline.TransportError{Collection: step.Collection, Err: err}
	}
	return records, nil
}

// ReadVia runs the strict two-step dependent lookup. Step 1 reads the
// bridging collection and collects the foreign keys held in keyField.
// Step 2 reads the target collection filtered by "id in (keys)" with the
// limit set to the key count, and only starts once step 1 has completed
// with at least one key. Zero keys short-circuit: no second read is
// issued and the outcome is an absent result set.
func (e *Executor) ReadVia(ctx context.Context, st pipeline.State, bridge Step, keyField string, target Step) ([]ports.Record, error) {
	bridgeRecords, err := e.Read(ctx, st, bridge, 0)
	if err != nil {
		return nil, err
	}

	keys := foreignKeys(bridgeRecords, keyField)
	if len(keys) == 0 {
		e.logger.Debug("dependent lookup short-circuited",
			"bridge", bridge.Collection,
			"target", target.Collection,
		)
		return nil, nil
	}

	target.Policy.Limit = len(keys)
	target.Domain = query.Expression{query.C("id", query.OpIn, keys)}
	return e.Read(ctx, st, target, 0)
}

// foreignKeys extracts the keyField values from bridge records. Relational
// fields may arrive as a bare id or as an [id, display] tuple; empty and
// missing values are skipped.
func foreignKeys(records []ports.Record, keyField string) []any {
	keys := make([]any, 0, len(records))
	for _, rec := range records {
		v, ok := rec[keyField]
		if !ok || v == nil {
			continue
		}
		if tuple, isTuple := v.([]any); isTuple {
			if len(tuple) == 0 {
				continue
			}
			v = tuple[0]
		}
		keys = append(keys, v)
	}
	return keys
}
