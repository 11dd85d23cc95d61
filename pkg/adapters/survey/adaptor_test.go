package survey_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/sluice/pkg/adapters/survey"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	"github.com/aretw0/sluice/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	opts    []query.Options
	records []ports.Record
	err     error
}

func (c *fakeConn) SearchRead(_ context.Context, _ string, opts query.Options) ([]ports.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts = append(c.opts, opts)
	return c.records, c.err
}

type fakeTransport struct {
	conn  *fakeConn
	err   error
	opens int
}

func (t *fakeTransport) Open(context.Context, pipeline.Backend) (ports.Conn, error) {
	t.opens++
	if t.err != nil {
		return nil, t.err
	}
	return t.conn, nil
}

func TestSubmissions_MergesFormFilterWithDefaults(t *testing.T) {
	conn := &fakeConn{records: []ports.Record{{"id": float64(1), "form_id": "intake"}}}
	adaptor := survey.New(&fakeTransport{conn: conn})

	next, err := adaptor.Submissions("intake", 0, nil)(context.Background(), pipeline.NewState(pipeline.Backend{AccessToken: "tok"}))
	require.NoError(t, err)

	require.Len(t, conn.opts, 1)
	assert.Equal(t, [][]any{
		{"form_id", "=", "intake"},
		{"state", "=", "submitted"},
	}, conn.opts[0].Domain.Raw())
	assert.Equal(t, conn.records, next.Data)
}

func TestSubmissions_EmptyKeepsPriorState(t *testing.T) {
	conn := &fakeConn{}
	adaptor := survey.New(&fakeTransport{conn: conn})
	st := pipeline.NewState(pipeline.Backend{}).WithData("seed")

	next, err := adaptor.Submissions("intake", 0, nil)(context.Background(), st)

	require.NoError(t, err)
	assert.Equal(t, st, next)
}

func TestSubmissions_HandshakeFailureIsFatal(t *testing.T) {
	adaptor := survey.New(&fakeTransport{err: errors.New("bad token")})

	_, err := adaptor.Submissions("intake", 0, nil)(context.Background(), pipeline.NewState(pipeline.Backend{}))

	assert.True(t, pipeline.IsFatal(err))
}

func TestSubmissions_SessionCachedAcrossOperations(t *testing.T) {
	conn := &fakeConn{records: []ports.Record{{"id": float64(1)}}}
	transport := &fakeTransport{conn: conn}
	adaptor := survey.New(transport)
	ctx := context.Background()

	st := pipeline.NewState(pipeline.Backend{})
	st, err := adaptor.Submissions("intake", 0, nil)(ctx, st)
	require.NoError(t, err)
	_, err = adaptor.Submissions("followup", 0, nil)(ctx, st)
	require.NoError(t, err)

	assert.Equal(t, 1, transport.opens)
}
