package fetch

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/memory"
)

// Host exposes a Fetcher to the module as the asynchronous fetch import.
type Host struct {
	fetcher *Fetcher
	tasks   playhost.Tasks
}

// NewHost creates the fetch import.
func NewHost(fetcher *Fetcher, tasks playhost.Tasks) *Host {
	return &Host{fetcher: fetcher, tasks: tasks}
}

// Fetch starts fetching the location named by (ptr, length). The module
// resumes with the fetched bytes.
func (h *Host) Fetch(ctx context.Context, m playhost.Memory, ptr, length uint32) uint32 {
	location, err := memory.ReadString(m, ptr, length)
	if err != nil {
		panic(err)
	}
	return h.tasks.Start(ctx, "fetch", func(ctx context.Context) (playhost.Completion, error) {
		data, err := h.fetcher.Fetch(ctx, location)
		if err != nil {
			return playhost.Completion{}, err
		}
		return playhost.Completion{Data: data}, nil
	})
}

// Register returns the fetch import. It lives in the playhost import
// module.
func (h *Host) Register() map[string]any {
	return map[string]any{
		"fetch": func(ctx context.Context, mod api.Module, ptr, length uint32) uint32 {
			return h.Fetch(ctx, memory.Wrap(mod.Memory()), ptr, length)
		},
	}
}
