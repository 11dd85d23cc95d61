package query

// Expression is an ordered sequence of clauses the backend ANDs together.
type Expression []Clause

// Raw renders the expression in the wire shape the backend expects.
// A nil expression renders as an empty (match-all) domain, not as null.
func (e Expression) Raw() [][]any {
	raw := make([][]any, 0, len(e))
	for _, c := range e {
		raw = append(raw, c.Raw())
	}
	return raw
}

// Normalize canonicalizes caller filter input. Callers may supply either a
// single clause ["name","=","X"] or a sequence of clauses [["a","=",1],...];
// the result is always a sequence of raw clauses. Normalizing an already
// normalized value is a no-op.
func Normalize(input []any) [][]any {
	if len(input) == 0 {
		return nil
	}

	for _, el := range input {
		if _, ok := asSlice(el); !ok {
			// At least one top-level element is not itself a sequence,
			// so the input is one bare clause.
			return [][]any{input}
		}
	}

	out := make([][]any, 0, len(input))
	for _, el := range input {
		clause, _ := asSlice(el)
		out = append(out, clause)
	}
	return out
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

// Parse normalizes caller input and validates every clause.
// Empty input is valid and yields an empty expression.
func Parse(input []any) (Expression, error) {
	raw := Normalize(input)

	expr := make(Expression, 0, len(raw))
	for _, rc := range raw {
		clause, err := ParseClause(rc)
		if err != nil {
			return nil, err
		}
		expr = append(expr, clause)
	}
	return expr, nil
}

// And combines caller clauses with entity default clauses into one ANDed
// expression, caller clauses first. The backend ANDs every clause in an
// expression, so the order carries no logical weight; it is fixed for
// determinism. Neither input is modified.
func And(caller, defaults Expression) Expression {
	merged := make(Expression, 0, len(caller)+len(defaults))
	merged = append(merged, caller...)
	merged = append(merged, defaults...)
	return merged
}
