// Package sluice turns declarative pipeline operations into calls against
// remote registry and survey backends, threading each result back into an
// evolving pipeline state.
//
// An Engine holds the process-wide collaborators; each invocation gets its
// own Execution with a fresh state and its own backend session:
//
//	eng := sluice.New(rpc.New(), sluice.WithLogger(logger))
//	exec := eng.NewExecution("intake-sync", backend)
//
//	final, err := eng.Run(ctx, exec,
//		exec.Registry.FetchRegistrant("REG_7", nil),
//		exec.Registry.EnrolledPrograms("REG_7", nil),
//	)
//
// Operations compose sequentially: each receives the state produced by its
// predecessor, and only an authentication failure aborts the sequence.
package sluice
