package query

// Limits applied by entity-kind policy.
const (
	SingleLimit = 1   // single-entity lookups
	ListLimit   = 100 // list lookups
	BulkLimit   = 500 // bulk id prefetch
)

// Options is one assembled read request. Offset zero means "absent": it is
// only set when the caller-supplied offset is strictly positive, and
// transports must omit it from the wire request otherwise.
type Options struct {
	Domain Expression
	Fields []string
	Limit  int
	Order  string
	Offset int
}

// Policy is the per-operation default read shape: which fields to fetch,
// how many records at most, and in which order.
type Policy struct {
	Fields []string
	Limit  int
	Order  string
}

// Build assembles Options from the policy, overlaying the domain and
// including offset iff it is strictly greater than zero.
func (p Policy) Build(domain Expression, offset int) Options {
	opts := Options{
		Domain: domain,
		Fields: p.Fields,
		Limit:  p.Limit,
		Order:  p.Order,
	}
	if offset > 0 {
		opts.Offset = offset
	}
	return opts
}
