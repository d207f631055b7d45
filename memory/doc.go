// Package memory adapts the module's linear memory for the host.
//
// Two implementations of playhost.Memory are provided: Wrapper around a
// wazero api.Memory, and Bytes, a growable slice used by tests and
// headless tools. The marshaling helpers (ReadString, WriteCString,
// ReadU32s, ...) work over either.
//
// Host functions must re-resolve memory on every call, typically with
// Wrap(mod.Memory()) on the api.Module argument, and must never hold a
// byte slice returned from a previous call. Memory may have grown in
// between, which replaces the backing buffer. All helpers here return
// copies.
package memory
