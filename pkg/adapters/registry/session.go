package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/sluice/pkg/observability"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
)

// SessionState tracks the handshake lifecycle of the execution's session.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticating
	Ready
	Failed
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionManager lazily opens and caches the single backend session of one
// pipeline execution. Ready is a precondition of Ensure's return value: a
// cached handle is only handed out after its handshake succeeded, never
// while it is still pending. Create a fresh manager per execution; handles
// must not outlive the execution they were opened for.
//
// The session slot is mutex-guarded, so concurrent composition is safe,
// though operations are still expected to compose sequentially.
type SessionManager struct {
	transport ports.Transport
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu    sync.Mutex
	conn  ports.Conn
	state SessionState
}

// NewSessionManager creates a manager in the Unauthenticated state.
func NewSessionManager(transport ports.Transport, logger *slog.Logger, metrics *observability.Metrics) *SessionManager {
	return &SessionManager{
		transport: transport,
		logger:    logger,
		metrics:   metrics,
		state:     Unauthenticated,
	}
}

// Ensure returns the execution's session, opening it on first use. The
// handshake resolves before Ensure returns; a rejected handshake yields a
// *pipeline.AuthenticationError, which is fatal to the remaining sequence.
func (m *SessionManager) Ensure(ctx context.Context, backend pipeline.Backend) (ports.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Ready && m.conn != nil {
		return m.conn, nil
	}

	m.state = Authenticating
	m.logger.Info("opening backend session", "endpoint", backend.Endpoint)

	conn, err := m.transport.Open(ctx, backend)
	if err != nil {
		m.state = Failed
		m.conn = nil
		m.metrics.SessionOpened(false)
		m.logger.Error("backend handshake failed", "endpoint", backend.Endpoint, "error", err)

		var authErr *pipeline.AuthenticationError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &pipeline.AuthenticationError{Endpoint: backend.Endpoint, Err: err}
	}

	m.state = Ready
	m.conn = conn
	m.metrics.SessionOpened(true)
	return conn, nil
}

// State reports the current handshake state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset discards the cached handle and returns to Unauthenticated.
// Called when an execution completes so a handle cannot leak into the next.
func (m *SessionManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conn = nil
	m.state = Unauthenticated
}
