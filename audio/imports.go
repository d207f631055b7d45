package audio

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-playhost/memory"
)

// Namespace is the import module name of the audio forwarders.
const Namespace = "audio"

// Namespace returns the import module name.
func (h *Host) Namespace() string { return Namespace }

// Register returns the audio host functions keyed by import name.
func (h *Host) Register() map[string]any {
	return map[string]any{
		"init": h.Init,
		"load": func(ctx context.Context, mod api.Module, namePtr, nameLen, idOutPtr uint32) uint32 {
			return h.Load(ctx, memory.Wrap(mod.Memory()), namePtr, nameLen, idOutPtr)
		},
		"createSoundNode":       h.CreateSoundNode,
		"play":                  h.Play,
		"createBiquadNode":      h.CreateBiquadNode,
		"createMixerNode":       h.CreateMixerNode,
		"connectToMixer":        h.ConnectToMixer,
		"createDelayOutputNode": h.CreateDelayOutputNode,
		"createDelayInputNode":  h.CreateDelayInputNode,
		"connectToOutput":       h.ConnectToOutput,
		"deleteNode":            h.DeleteNode,
		"deleteSound":           h.DeleteSound,
	}
}
