package query_test

import (
	"testing"

	"github.com/aretw0/sluice/pkg/query"
	"github.com/stretchr/testify/assert"
)

func TestPolicyBuild_OmitsNonPositiveOffset(t *testing.T) {
	pol := query.Policy{Fields: []string{"id", "name"}, Limit: query.ListLimit}

	for _, offset := range []int{0, -1, -250} {
		opts := pol.Build(nil, offset)
		assert.Zero(t, opts.Offset, "offset %d must be omitted", offset)
	}
}

func TestPolicyBuild_KeepsPositiveOffset(t *testing.T) {
	pol := query.Policy{Fields: []string{"id"}, Limit: query.ListLimit}

	opts := pol.Build(nil, 200)

	assert.Equal(t, 200, opts.Offset)
}

func TestPolicyBuild_OverlaysDomainOnDefaults(t *testing.T) {
	pol := query.Policy{
		Fields: []string{"id", "name"},
		Limit:  query.SingleLimit,
		Order:  "name asc",
	}
	domain := query.Expression{query.C("id", query.OpEq, 7)}

	opts := pol.Build(domain, 0)

	assert.Equal(t, domain, opts.Domain)
	assert.Equal(t, []string{"id", "name"}, opts.Fields)
	assert.Equal(t, query.SingleLimit, opts.Limit)
	assert.Equal(t, "name asc", opts.Order)
}
