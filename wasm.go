package playhost

import "context"

// Memory represents the module's linear memory. Implementations must not
// cache derived buffers across calls: memory may grow between any two
// module calls and invalidate them.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	ReadF32(offset uint32) (float32, error)
	ReadF64(offset uint32) (float64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
	WriteF32(offset uint32, value float32) error
	WriteF64(offset uint32, value float64) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates buffers inside the module's linear memory. A zero
// pointer with a nil error means the module is out of memory.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
}

// Completion is the outcome of an asynchronous operation started by the
// module. Apply, when set, runs on the loop with the module's memory
// before the module is resumed; Data is then copied into a module
// buffer and handed to the resume export.
type Completion struct {
	Apply func(m Memory) error
	Data  []byte
}

// Tasks starts asynchronous work on behalf of the module. Start returns
// the slot the module will see when the operation settles; work runs off
// the loop and must not touch module memory.
type Tasks interface {
	Start(ctx context.Context, name string, work func(ctx context.Context) (Completion, error)) uint32
}
