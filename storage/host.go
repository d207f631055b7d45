package storage

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/memory"
)

// Host exposes a Store to the module as asynchronous file_read and
// file_write imports.
type Host struct {
	store Store
	tasks playhost.Tasks
}

// NewHost creates the file imports over store.
func NewHost(store Store, tasks playhost.Tasks) *Host {
	return &Host{store: store, tasks: tasks}
}

// FileRead starts reading the file named by (pathPtr, pathLen). The
// module resumes with the file contents, or is rejected with the
// not-found code when the file does not exist.
func (h *Host) FileRead(ctx context.Context, m playhost.Memory, pathPtr, pathLen uint32) uint32 {
	p, err := memory.ReadString(m, pathPtr, pathLen)
	if err != nil {
		panic(err)
	}
	return h.tasks.Start(ctx, "file.read", func(ctx context.Context) (playhost.Completion, error) {
		data, err := h.store.Read(ctx, p)
		if err != nil {
			Logger().Debug("file read failed", zap.String("path", p), zap.Error(err))
			return playhost.Completion{}, err
		}
		return playhost.Completion{Data: data}, nil
	})
}

// FileWrite starts writing dataLen bytes at dataPtr to the file named by
// (pathPtr, pathLen). The bytes are copied before FileWrite returns, so
// the module may reuse its buffer immediately.
func (h *Host) FileWrite(ctx context.Context, m playhost.Memory, pathPtr, pathLen, dataPtr, dataLen uint32) uint32 {
	p, err := memory.ReadString(m, pathPtr, pathLen)
	if err != nil {
		panic(err)
	}
	data, err := memory.ReadBytes(m, dataPtr, dataLen)
	if err != nil {
		panic(err)
	}
	return h.tasks.Start(ctx, "file.write", func(ctx context.Context) (playhost.Completion, error) {
		if err := h.store.Write(ctx, p, data); err != nil {
			Logger().Warn("file write failed", zap.String("path", p), zap.Error(err))
			return playhost.Completion{}, err
		}
		return playhost.Completion{}, nil
	})
}

// Register returns the file imports keyed by import name. They live in
// the playhost import module.
func (h *Host) Register() map[string]any {
	return map[string]any{
		"file_read": func(ctx context.Context, mod api.Module, pathPtr, pathLen uint32) uint32 {
			return h.FileRead(ctx, memory.Wrap(mod.Memory()), pathPtr, pathLen)
		},
		"file_write": func(ctx context.Context, mod api.Module, pathPtr, pathLen, dataPtr, dataLen uint32) uint32 {
			return h.FileWrite(ctx, memory.Wrap(mod.Memory()), pathPtr, pathLen, dataPtr, dataLen)
		},
	}
}
