package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/sluice/internal/logging"
	"github.com/aretw0/sluice/pkg/observability"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	"github.com/aretw0/sluice/pkg/query"
)

// Adaptor translates declarative registry operations into backend calls.
// Create one Adaptor per pipeline execution: it owns that execution's
// session and discards it when the execution completes.
type Adaptor struct {
	sessions *SessionManager
	exec     *Executor
	reduce   *Reducer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures the Adaptor.
type Option func(*Adaptor)

// WithLogger sets a structured logger (default: no-op).
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adaptor) {
		a.logger = logger
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(a *Adaptor) {
		a.metrics = metrics
	}
}

// New creates a registry adaptor for one pipeline execution.
func New(transport ports.Transport, opts ...Option) *Adaptor {
	a := &Adaptor{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}

	a.sessions = NewSessionManager(transport, a.logger, a.metrics)
	a.exec = NewExecutor(a.sessions, a.logger, a.metrics)
	a.reduce = NewReducer(a.logger, a.metrics)
	return a
}

// Sessions exposes the execution's session manager, mainly so the runner
// can reset it when the execution completes.
func (a *Adaptor) Sessions() *SessionManager {
	return a.sessions
}

// FetchRegistrant resolves a single registrant by its registry identifier.
func (a *Adaptor) FetchRegistrant(id string, cont pipeline.Continuation) pipeline.Operation {
	return func(ctx context.Context, st pipeline.State) (pipeline.State, error) {
		step := Step{
			Collection: CollectionPartner,
			Policy:     registrantPolicy(),
			Domain: query.And(
				query.Expression{query.C("registrant_id", query.OpEq, id)},
				registrantDefaults(),
			),
		}

		records, err := a.exec.Read(ctx, st, step, 0)
		return a.reduce.Reduce(st, "registry.fetch_registrant", first(records), err, cont)
	}
}

// SearchGroups lists registrant groups matching the caller filter, which
// may be a single raw clause or a sequence of clauses. Offset paginates
// through the result window when strictly positive.
func (a *Adaptor) SearchGroups(filter []any, offset int, cont pipeline.Continuation) pipeline.Operation {
	return func(ctx context.Context, st pipeline.State) (pipeline.State, error) {
		caller, err := query.Parse(filter)
		if err != nil {
			return st, fmt.Errorf("search groups: %w", err)
		}

		step := Step{
			Collection: CollectionPartner,
			Policy:     groupListPolicy(),
			Domain:     query.And(caller, groupDefaults()),
		}

		records, err := a.exec.Read(ctx, st, step, offset)
		return a.reduce.Reduce(st, "registry.search_groups", records, err, cont)
	}
}

// EnrolledPrograms resolves the programs a registrant is enrolled in via
// the enrollment bridging collection. The second read never starts before
// the first completes, and is skipped entirely when no enrollments exist.
func (a *Adaptor) EnrolledPrograms(registrantID string, cont pipeline.Continuation) pipeline.Operation {
	return func(ctx context.Context, st pipeline.State) (pipeline.State, error) {
		bridge := Step{
			Collection: CollectionEnrollment,
			Policy:     enrollmentBridgePolicy(),
			Domain: query.Expression{
				query.C("partner_id.registrant_id", query.OpEq, registrantID),
			},
		}
		target := Step{
			Collection: CollectionProgram,
			Policy:     programPolicy(),
		}

		records, err := a.exec.ReadVia(ctx, st, bridge, "program_id", target)
		return a.reduce.Reduce(st, "registry.enrolled_programs", records, err, cont)
	}
}

// first returns the sole record of a single-entity lookup, or nil when the
// lookup matched nothing.
func first(records []ports.Record) any {
	if len(records) == 0 {
		return nil
	}
	return records[0]
}
