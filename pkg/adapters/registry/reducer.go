package registry

import (
	"log/slog"

	"github.com/aretw0/sluice/pkg/observability"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
)

// Reducer merges a query outcome into pipeline state.
type Reducer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReducer creates a reducer.
func NewReducer(logger *slog.Logger, metrics *observability.Metrics) *Reducer {
	return &Reducer{logger: logger, metrics: metrics}
}

// Reduce applies the outcome of one operation to the prior state:
//
//   - err != nil: logged at error severity, no state transition, the error
//     propagates outward.
//   - absent/empty payload: logged at warning severity (a miss is not an
//     error), prior state returned unchanged.
//   - otherwise: a fresh state with Data replaced by payload and the
//     previous Data appended to References. The prior state is never
//     mutated.
//
// When cont is non-nil it is invoked with the computed next state and its
// return value is returned instead; this layer does not validate it.
func (r *Reducer) Reduce(prior pipeline.State, operation string, payload any, err error, cont pipeline.Continuation) (pipeline.State, error) {
	if err != nil {
		outcome := observability.OutcomeTransportError
		if pipeline.IsFatal(err) {
			outcome = observability.OutcomeAuthError
		}
		r.metrics.OperationFinished(operation, outcome)
		r.logger.Error("operation failed", "operation", operation, "error", err)
		return prior, err
	}

	if absent(payload) {
		r.metrics.OperationFinished(operation, observability.OutcomeNotFound)
		r.logger.Warn("no records matched", "operation", operation)
		return prior, nil
	}

	next := prior.WithData(payload)
	r.metrics.OperationFinished(operation, observability.OutcomeOK)
	r.logger.Info("state advanced", "operation", operation, "references", len(next.References))

	if cont != nil {
		return cont(next), nil
	}
	return next, nil
}

// absent reports whether payload represents a not-found result set.
func absent(payload any) bool {
	switch p := payload.(type) {
	case nil:
		return true
	case []ports.Record:
		return len(p) == 0
	case ports.Record:
		return len(p) == 0
	default:
		return false
	}
}
