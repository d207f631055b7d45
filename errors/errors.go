package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which subsystem produced the error
type Phase string

const (
	PhaseMemory  Phase = "memory"  // linear memory access
	PhaseHandle  Phase = "handle"  // handle table operations
	PhaseBridge  Phase = "bridge"  // async completion
	PhaseClock   Phase = "clock"   // simulation stepping
	PhaseInput   Phase = "input"   // keyboard translation
	PhaseGPU     Phase = "gpu"     // rendering forwarders
	PhaseAudio   Phase = "audio"   // audio forwarders
	PhaseStorage Phase = "storage" // file persistence
	PhaseFetch   Phase = "fetch"   // network and asset fetch
	PhaseLoad    Phase = "load"    // module loading
	PhaseHost    Phase = "host"    // host function registration
	PhaseConfig  Phase = "config"  // configuration
	PhaseRuntime Phase = "runtime" // runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidHandle    Kind = "invalid_handle"
	KindDoubleSettlement Kind = "double_settlement"
	KindOperationFailed  Kind = "operation_failed"
	KindOutOfMemory      Kind = "out_of_memory"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindInvalidData      Kind = "invalid_data"
	KindUnsupported      Kind = "unsupported"
	KindNotFound         Kind = "not_found"
	KindNotInitialized   Kind = "not_initialized"
	KindInvalidInput     Kind = "invalid_input"
	KindInvalidState     Kind = "invalid_state"
	KindRegistration     Kind = "registration"
	KindInstantiation    Kind = "instantiation"
)

// Reason classifies why an asynchronous operation failed. It is the
// host-side vocabulary that gets translated into the module's own
// error codes on the reject path.
type Reason string

const (
	ReasonNotFound    Reason = "not_found"
	ReasonOutOfMemory Reason = "out_of_memory"
	ReasonUnknown     Reason = "unknown"
)

// Error is the structured error type used throughout the host
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Reason   Reason
	Category string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Reason != "" {
		b.WriteByte('(')
		b.WriteString(string(e.Reason))
		b.WriteByte(')')
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Category != "" {
		b.WriteString(": ")
		b.WriteString(e.Category)
	}

	if e.Detail != "" {
		if e.Category != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target with an empty
// Phase matches any phase, so the package-level sentinels match errors
// raised by every subsystem.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks that do not care about the phase.
var (
	ErrInvalidHandle    = &Error{Kind: KindInvalidHandle}
	ErrDoubleSettlement = &Error{Kind: KindDoubleSettlement}
	ErrOperationFailed  = &Error{Kind: KindOperationFailed}
	ErrOutOfMemory      = &Error{Kind: KindOutOfMemory}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrOutOfBounds      = &Error{Kind: KindOutOfBounds}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the call path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Category sets the resource category
func (b *Builder) Category(c string) *Builder {
	b.err.Category = c
	return b
}

// Reason sets the failure reason
func (b *Builder) Reason(r Reason) *Builder {
	b.err.Reason = r
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidHandle reports a handle that was never issued, already released,
// or zero where a live resource is required.
func InvalidHandle(category string, handle uint32) *Error {
	return &Error{
		Phase:    PhaseHandle,
		Kind:     KindInvalidHandle,
		Category: category,
		Detail:   fmt.Sprintf("handle %d is not live", handle),
		Value:    handle,
	}
}

// DoubleSettlement reports a settle call for a slot with no pending operation.
func DoubleSettlement(slot uint32) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindDoubleSettlement,
		Detail: fmt.Sprintf("slot %d has no pending operation", slot),
		Value:  slot,
	}
}

// OperationFailed creates an async failure carrying a reason
func OperationFailed(phase Phase, reason Reason, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOperationFailed,
		Reason: reason,
		Cause:  cause,
	}
}

// OutOfMemory reports that the module could not provide a buffer
func OutOfMemory(phase Phase, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfMemory,
		Reason: ReasonOutOfMemory,
		Detail: fmt.Sprintf("module allocator returned 0 for %d bytes", size),
		Value:  size,
	}
}

// OutOfBounds creates an out of bounds memory access error
func OutOfBounds(phase Phase, offset, length, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("offset=%d length=%d exceeds memory size %d", offset, length, size),
		Value:  offset,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error for missing module state
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Reason: ReasonNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidState reports an operation attempted in the wrong lifecycle state
func InvalidState(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidState,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(phase Phase, namespace, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", namespace, name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ReasonOf classifies any error into a failure reason. The first
// structured error in the chain that names a reason wins; not-found and
// out-of-memory kinds imply their reason; everything else is unknown.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	for cur := err; cur != nil; cur = stderrors.Unwrap(cur) {
		e, ok := cur.(*Error)
		if !ok {
			continue
		}
		if e.Reason != "" {
			return e.Reason
		}
		switch e.Kind {
		case KindNotFound:
			return ReasonNotFound
		case KindOutOfMemory:
			return ReasonOutOfMemory
		}
	}
	return ReasonUnknown
}

// ModuleError is a failure raised by the module itself through its
// reject path. Name is resolved through the module's error-name exports
// and may be empty when the module does not provide them.
type ModuleError struct {
	Name string
	Code uint32
}

func (e *ModuleError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("module error %d", e.Code)
	}
	return fmt.Sprintf("module error %d (%s)", e.Code, e.Name)
}

// Is reports whether target is a ModuleError with the same code
func (e *ModuleError) Is(target error) bool {
	t, ok := target.(*ModuleError)
	return ok && t.Code == e.Code
}

// MissingExport reports a guest export the host requires but did not find
type MissingExport struct {
	Name string
	Kind string // "function" or "global"
}

func (e *MissingExport) Error() string {
	return fmt.Sprintf("[load] missing %s export %q", e.Kind, e.Name)
}
