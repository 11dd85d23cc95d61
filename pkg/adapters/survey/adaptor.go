package survey

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/sluice/internal/logging"
	"github.com/aretw0/sluice/pkg/observability"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	"github.com/aretw0/sluice/pkg/query"
)

// CollectionSubmission is the collection holding finalized form submissions.
const CollectionSubmission = "survey.submission"

func submissionDefaults() query.Expression {
	return query.Expression{query.C("state", query.OpEq, "submitted")}
}

func submissionPolicy() query.Policy {
	return query.Policy{
		Fields: []string{"id", "form_id", "registrant_id", "submitted_at", "answers"},
		Limit:  query.ListLimit,
		Order:  "submitted_at desc",
	}
}

// Adaptor translates survey operations into backend calls. Like its
// registry sibling it caches one session per execution behind a mutex.
type Adaptor struct {
	transport ports.Transport
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu   sync.Mutex
	conn ports.Conn
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

// New creates a survey adaptor for one pipeline execution.
func New(transport ports.Transport, opts ...Option) *Adaptor {
	a := &Adaptor{transport: transport, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adaptor) ensure(ctx context.Context, backend pipeline.Backend) (ports.Conn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn != nil {
		return a.conn, nil
	}

	conn, err := a.transport.Open(ctx, backend)
	if err != nil {
		a.metrics.SessionOpened(false)
		a.logger.Error("backend handshake failed", "endpoint", backend.Endpoint, "error", err)
		return nil, &pipeline.AuthenticationError{Endpoint: backend.Endpoint, Err: err}
	}

	a.metrics.SessionOpened(true)
	a.conn = conn
	return conn, nil
}

// Submissions lists the finalized submissions of one form, newest first.
func (a *Adaptor) Submissions(formID string, offset int, cont pipeline.Continuation) pipeline.Operation {
	const operation = "survey.submissions"

	return func(ctx context.Context, st pipeline.State) (pipeline.State, error) {
		conn, err := a.ensure(ctx, st.Backend)
		if err != nil {
			a.metrics.OperationFinished(operation, observability.OutcomeAuthError)
			return st, err
		}

		domain := query.And(
			query.Expression{query.C("form_id", query.OpEq, formID)},
			submissionDefaults(),
		)
		opts := submissionPolicy().Build(domain, offset)

		a.metrics.QueryIssued(CollectionSubmission)
		records, err := conn.SearchRead(ctx, CollectionSubmission, opts)
		if err != nil {
			a.metrics.OperationFinished(operation, observability.OutcomeTransportError)
			a.logger.Error("operation failed", "operation", operation, "error", err)
			return st, &pipeline.TransportError{Collection: CollectionSubmission, Err: err}
		}

		if len(records) == 0 {
			a.metrics.OperationFinished(operation, observability.OutcomeNotFound)
			a.logger.Warn("no records matched", "operation", operation, "form_id", formID)
			return st, nil
		}

		next := st.WithData(records)
		a.metrics.OperationFinished(operation, observability.OutcomeOK)
		a.logger.Info("state advanced", "operation", operation, "records", len(records))

		if cont != nil {
			return cont(next), nil
		}
		return next, nil
	}
}
