// Package errors provides structured error types for the playhost bridge.
//
// Errors are categorized by Phase (which subsystem raised it) and Kind
// (error category). Asynchronous failures also carry a Reason that is
// later translated into the module's own error codes.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseGPU, errors.KindInvalidHandle).
//		Category("texture").
//		Value(h).
//		Detail("bindTexture").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle("buffer", 7)
//	err := errors.OperationFailed(errors.PhaseFetch, errors.ReasonNotFound, cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match on Kind regardless of Phase.
package errors
