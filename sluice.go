package sluice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sluice/internal/logging"
	"github.com/aretw0/sluice/pkg/adapters/registry"
	"github.com/aretw0/sluice/pkg/adapters/survey"
	"github.com/aretw0/sluice/pkg/observability"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for the Sluice library. It holds the
// process-wide collaborators (transport, persistence, locking, telemetry)
// and creates one Execution per pipeline invocation.
type Engine struct {
	transport ports.Transport
	store     ports.StateStore
	locker    ports.ExecutionLocker
	logger    *slog.Logger
	metrics   *observability.Metrics
	lockTTL   time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStateStore enables persistence of final execution states.
func WithStateStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes executions sharing one pipeline ID across replicas.
func WithLocker(locker ports.ExecutionLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL overrides the execution lock TTL (default: 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// New initializes a Sluice Engine on top of a backend transport.
func New(transport ports.Transport, opts ...Option) *Engine {
	eng := &Engine{
		transport: transport,
		logger:    logging.NewNop(),
		lockTTL:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Execution is the explicit per-invocation context. It owns the evolving
// state and the adaptors whose backend sessions are scoped to it; nothing
// about an execution survives into the next one.
type Execution struct {
	// PipelineID is the caller-chosen identity used for persistence and
	// cross-replica locking.
	PipelineID string

	// RunID uniquely identifies this invocation in logs.
	RunID string

	// Registry and Survey are this execution's adaptors.
	Registry *registry.Adaptor
	Survey   *survey.Adaptor

	state pipeline.State
}

// State returns the execution's current state snapshot.
func (x *Execution) State() pipeline.State {
	return x.state
}

// NewExecution creates a fresh invocation context: new state, new adaptors,
// no inherited session.
func (e *Engine) NewExecution(pipelineID string, backend pipeline.Backend) *Execution {
	runID := uuid.NewString()
	logger := e.logger.With("pipeline", pipelineID, "run_id", runID)

	return &Execution{
		PipelineID: pipelineID,
		RunID:      runID,
		Registry: registry.New(e.transport,
			registry.WithLogger(logger),
			registry.WithMetrics(e.metrics),
		),
		Survey: survey.New(e.transport,
			survey.WithLogger(logger),
			survey.WithMetrics(e.metrics),
		),
		state: pipeline.NewState(backend),
	}
}

// Run executes the composed operations strictly in order.
//
// An authentication failure aborts the remaining sequence and is returned
// as the run error. Any other operation failure is scoped: it produces no
// state transition, later operations still run against the prior state,
// and the failures are joined into the returned error so the host can see
// the run was partial. The execution's session is discarded when Run
// returns, whatever the outcome.
func (e *Engine) Run(ctx context.Context, exec *Execution, ops ...pipeline.Operation) (pipeline.State, error) {
	logger := e.logger.With("pipeline", exec.PipelineID, "run_id", exec.RunID)

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, exec.PipelineID, e.lockTTL)
		if err != nil {
			return exec.state, fmt.Errorf("failed to acquire execution lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				logger.Warn("failed to release execution lock (will expire via TTL)",
					"pipeline", exec.PipelineID,
					"err", err,
				)
			}
		}()
	}

	defer exec.Registry.Sessions().Reset()

	var scoped []error
	st := exec.state
	for i, op := range ops {
		next, err := op(ctx, st)
		if err != nil {
			if pipeline.IsFatal(err) {
				logger.Error("execution aborted", "operation_index", i, "error", err)
				exec.state = st
				return st, err
			}
			scoped = append(scoped, err)
			continue
		}
		st = next
	}
	exec.state = st

	if e.store != nil {
		if err := e.store.Save(ctx, exec.PipelineID, st); err != nil {
			return st, fmt.Errorf("failed to persist final state: %w", err)
		}
	}

	if len(scoped) == 0 {
		logging.Success(logger, "execution completed",
			"operations", len(ops),
			"references", len(st.References),
		)
	} else {
		logger.Warn("execution completed with scoped failures",
			"operations", len(ops),
			"failed", len(scoped),
		)
	}
	return st, errors.Join(scoped...)
}

// State loads the persisted state of a pipeline.
func (e *Engine) State(ctx context.Context, pipelineID string) (pipeline.State, error) {
	if e.store == nil {
		return pipeline.State{}, errors.New("no state store configured")
	}
	return e.store.Load(ctx, pipelineID)
}

// States lists the pipeline IDs with persisted state.
func (e *Engine) States(ctx context.Context) ([]string, error) {
	if e.store == nil {
		return nil, errors.New("no state store configured")
	}
	return e.store.List(ctx)
}
