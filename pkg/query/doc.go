// Package query builds the canonical filter expressions and read options
// sent to a backend. A filter clause is a (field, operator, value) triple;
// an expression is an ordered clause list the backend ANDs together.
package query
