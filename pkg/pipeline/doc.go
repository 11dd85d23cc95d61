// Package pipeline defines the core types shared by every Sluice adaptor:
// the evolving execution state, the operation and continuation signatures,
// and the error taxonomy that separates soft, hard and fatal failures.
package pipeline
