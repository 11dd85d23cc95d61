package registry

import "github.com/aretw0/sluice/pkg/query"

// Backend collections the registry adaptor reads from.
const (
	CollectionPartner    = "res.partner"
	CollectionEnrollment = "g2p.program_membership"
	CollectionProgram    = "g2p.program"
)

// Default clauses per entity kind, ANDed onto every caller domain.
// Registrants and groups share a collection; the flags tell them apart.
func registrantDefaults() query.Expression {
	return query.Expression{
		query.C("is_registrant", query.OpEq, true),
		query.C("is_group", query.OpEq, false),
	}
}

func groupDefaults() query.Expression {
	return query.Expression{
		query.C("is_registrant", query.OpEq, true),
		query.C("is_group", query.OpEq, true),
	}
}

// Read policies per operation. Limits follow entity-kind policy: 1 for
// single-entity lookups, 100 for list lookups, up to 500 for the bulk id
// prefetch of a dependent lookup's bridge step.
func registrantPolicy() query.Policy {
	return query.Policy{
		Fields: []string{"id", "name", "registrant_id", "phone", "email", "is_group"},
		Limit:  query.SingleLimit,
	}
}

func groupListPolicy() query.Policy {
	return query.Policy{
		Fields: []string{"id", "name", "registrant_id", "is_group"},
		Limit:  query.ListLimit,
		Order:  "name asc",
	}
}

func enrollmentBridgePolicy() query.Policy {
	return query.Policy{
		Fields: []string{"program_id"},
		Limit:  query.BulkLimit,
	}
}

func programPolicy() query.Policy {
	return query.Policy{
		Fields: []string{"id", "name", "state"},
		Limit:  query.ListLimit, // overridden to the key count by ReadVia
		Order:  "name asc",
	}
}
