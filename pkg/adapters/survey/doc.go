// Package survey is the adaptor for survey backends. It is a deliberately
// small sibling of the registry adaptor: the same session-per-execution,
// canonical-domain and pure-merge pattern, reduced to a single operation
// with no dependent lookups.
package survey
