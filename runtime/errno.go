package runtime

import (
	"github.com/wippyai/wasm-playhost/engine"
	"github.com/wippyai/wasm-playhost/errors"
)

// Error code globals the module may export. Each holds the address of a
// u32 with the module's own code for that condition.
const (
	globalErrnoOutOfMemory  = "ERRNO_OUT_OF_MEMORY"
	globalErrnoFileNotFound = "ERRNO_FILE_NOT_FOUND"
	globalErrnoUnknown      = "ERRNO_UNKNOWN"
)

// Errnos maps failure reasons to the module's error codes.
type Errnos struct {
	OutOfMemory  uint32
	FileNotFound uint32
	Unknown      uint32
}

// DefaultErrnos is used for codes the module does not export.
var DefaultErrnos = Errnos{OutOfMemory: 1, FileNotFound: 2, Unknown: 3}

// LoadErrnos reads the module's error code globals, keeping defaults for
// missing ones.
func LoadErrnos(mod *engine.Module) Errnos {
	e := DefaultErrnos
	if v, ok := mod.GlobalU32(globalErrnoOutOfMemory); ok {
		e.OutOfMemory = v
	}
	if v, ok := mod.GlobalU32(globalErrnoFileNotFound); ok {
		e.FileNotFound = v
	}
	if v, ok := mod.GlobalU32(globalErrnoUnknown); ok {
		e.Unknown = v
	}
	return e
}

// For returns the code delivered to the module for err.
func (e Errnos) For(err error) uint32 {
	switch errors.ReasonOf(err) {
	case errors.ReasonNotFound:
		return e.FileNotFound
	case errors.ReasonOutOfMemory:
		return e.OutOfMemory
	default:
		return e.Unknown
	}
}
