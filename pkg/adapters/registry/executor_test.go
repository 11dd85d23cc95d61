package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/sluice/internal/logging"
	"github.com/aretw0/sluice/pkg/adapters/registry"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	"github.com/aretw0/sluice/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(conn *fakeConn) *registry.Executor {
	transport := &fakeTransport{conn: conn}
	sessions := registry.NewSessionManager(transport, logging.NewNop(), nil)
	return registry.NewExecutor(sessions, logging.NewNop(), nil)
}

func TestExecutor_AssemblesOptionsFromPolicy(t *testing.T) {
	conn := &fakeConn{}
	exec := newExecutor(conn)
	step := registry.Step{
		Collection: "res.partner",
		Policy:     query.Policy{Fields: []string{"id", "name"}, Limit: query.ListLimit, Order: "name asc"},
		Domain:     query.Expression{query.C("is_group", query.OpEq, true)},
	}

	_, err := exec.Read(context.Background(), pipeline.NewState(pipeline.Backend{}), step, 0)
	require.NoError(t, err)

	calls := conn.Calls()
	require.Len(t, calls, 1)
	opts := calls[0].Opts
	assert.Equal(t, []string{"id", "name"}, opts.Fields)
	assert.Equal(t, query.ListLimit, opts.Limit)
	assert.Equal(t, "name asc", opts.Order)
	assert.Equal(t, step.Domain, opts.Domain)
	assert.Zero(t, opts.Offset)
}

func TestExecutor_IncludesStrictlyPositiveOffset(t *testing.T) {
	conn := &fakeConn{}
	exec := newExecutor(conn)
	step := registry.Step{Collection: "res.partner", Policy: query.Policy{Limit: query.ListLimit}}

	_, err := exec.Read(context.Background(), pipeline.NewState(pipeline.Backend{}), step, 300)
	require.NoError(t, err)

	assert.Equal(t, 300, conn.Calls()[0].Opts.Offset)
}

func TestExecutor_WrapsTransportFailures(t *testing.T) {
	conn := &fakeConn{errs: []error{errors.New("connection reset")}}
	exec := newExecutor(conn)
	step := registry.Step{Collection: "res.partner", Policy: query.Policy{Limit: 1}}

	_, err := exec.Read(context.Background(), pipeline.NewState(pipeline.Backend{}), step, 0)

	var terr *pipeline.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "res.partner", terr.Collection)
	assert.False(t, pipeline.IsFatal(err))
}

func TestReadVia_SecondReadFilteredByCollectedKeys(t *testing.T) {
	conn := &fakeConn{
		results: [][]ports.Record{
			{
				{"program_id": []any{float64(11), "Cash Transfer"}},
				{"program_id": float64(12)},
			},
			{
				{"id": float64(11), "name": "Cash Transfer"},
				{"id": float64(12), "name": "School Feeding"},
			},
		},
	}
	exec := newExecutor(conn)
	bridge := registry.Step{
		Collection: "g2p.program_membership",
		Policy:     query.Policy{Fields: []string{"program_id"}, Limit: query.BulkLimit},
		Domain:     query.Expression{query.C("partner_id.registrant_id", query.OpEq, "REG_7")},
	}
	target := registry.Step{
		Collection: "g2p.program",
		Policy:     query.Policy{Fields: []string{"id", "name"}, Limit: query.ListLimit},
	}

	records, err := exec.ReadVia(context.Background(), pipeline.NewState(pipeline.Backend{}), bridge, "program_id", target)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	calls := conn.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "g2p.program_membership", calls[0].Collection)
	assert.Equal(t, "g2p.program", calls[1].Collection)

	// Relational tuples collapse to their id; limit equals the key count.
	second := calls[1].Opts
	assert.Equal(t, [][]any{{"id", "in", []any{float64(11), float64(12)}}}, second.Domain.Raw())
	assert.Equal(t, 2, second.Limit)
}

func TestReadVia_ShortCircuitsOnZeroKeys(t *testing.T) {
	conn := &fakeConn{results: [][]ports.Record{{}}}
	exec := newExecutor(conn)
	bridge := registry.Step{Collection: "g2p.program_membership", Policy: query.Policy{Limit: query.BulkLimit}}
	target := registry.Step{Collection: "g2p.program", Policy: query.Policy{Limit: query.ListLimit}}

	records, err := exec.ReadVia(context.Background(), pipeline.NewState(pipeline.Backend{}), bridge, "program_id", target)

	require.NoError(t, err)
	assert.Nil(t, records)
	assert.Len(t, conn.Calls(), 1, "the second read must never be issued")
}

func TestReadVia_BridgeFailureStopsLookup(t *testing.T) {
	conn := &fakeConn{errs: []error{errors.New("timeout")}}
	exec := newExecutor(conn)
	bridge := registry.Step{Collection: "g2p.program_membership", Policy: query.Policy{Limit: query.BulkLimit}}
	target := registry.Step{Collection: "g2p.program", Policy: query.Policy{Limit: query.ListLimit}}

	_, err := exec.ReadVia(context.Background(), pipeline.NewState(pipeline.Backend{}), bridge, "program_id", target)

	var terr *pipeline.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Len(t, conn.Calls(), 1)
}
