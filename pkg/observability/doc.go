// Package observability exposes Prometheus metrics for pipeline executions:
// sessions opened, queries issued and operation outcomes.
package observability
