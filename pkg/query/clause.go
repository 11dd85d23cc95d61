package query

import (
	"errors"
	"fmt"
)

// Operator is a comparator accepted by the backend query language.
type Operator string

const (
	OpEq      Operator = "="
	OpNe      Operator = "!="
	OpGt      Operator = ">"
	OpGte     Operator = ">="
	OpLt      Operator = "<"
	OpLte     Operator = "<="
	OpIn      Operator = "in"
	OpNotIn   Operator = "not in"
	OpLike    Operator = "like"
	OpILike   Operator = "ilike"
	OpChildOf Operator = "child_of"
)

var operators = map[Operator]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
	OpIn: {}, OpNotIn: {}, OpLike: {}, OpILike: {}, OpChildOf: {},
}

// Valid reports whether o belongs to the fixed comparator set.
func (o Operator) Valid() bool {
	_, ok := operators[o]
	return ok
}

// ErrMalformedClause is returned when a raw clause is not a 3-element
// (field, operator, value) triple with a known operator.
var ErrMalformedClause = errors.New("malformed filter clause")

// Clause is one atomic comparison against a backend attribute path.
type Clause struct {
	Field string
	Op    Operator
	Value any
}

// C is a shorthand constructor for a Clause.
func C(field string, op Operator, value any) Clause {
	return Clause{Field: field, Op: op, Value: value}
}

// Raw renders the clause in the wire shape the backend expects.
func (c Clause) Raw() []any {
	return []any{c.Field, string(c.Op), c.Value}
}

// ParseClause validates a raw triple and converts it into a Clause.
func ParseClause(raw []any) (Clause, error) {
	if len(raw) != 3 {
		return Clause{}, fmt.Errorf("%w: want 3 elements, got %d", ErrMalformedClause, len(raw))
	}

	field, ok := raw[0].(string)
	if !ok || field == "" {
		return Clause{}, fmt.Errorf("%w: field must be a non-empty string", ErrMalformedClause)
	}

	opStr, ok := raw[1].(string)
	if !ok {
		return Clause{}, fmt.Errorf("%w: operator must be a string", ErrMalformedClause)
	}
	op := Operator(opStr)
	if !op.Valid() {
		return Clause{}, fmt.Errorf("%w: unknown operator %q", ErrMalformedClause, opStr)
	}

	return Clause{Field: field, Op: op, Value: raw[2]}, nil
}
