package audio

import (
	"context"

	"go.uber.org/zap"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/memory"
	"github.com/wippyai/wasm-playhost/resource"
)

// Fetch retrieves the bytes of a sound file.
type Fetch func(ctx context.Context, path string) ([]byte, error)

type sound struct {
	buffer *Buffer
	path   string
}

// node is one module-visible node. Everything downstream connects to
// output; a sound node swaps its source on every play.
type node struct {
	engine Engine
	output NodeRef
	source NodeRef
	extra  []NodeRef
}

// Drop releases every native node the module node owns.
func (n *node) Drop() {
	if n.source != 0 {
		n.engine.Release(n.source)
	}
	for _, ref := range n.extra {
		n.engine.Release(ref)
	}
	n.engine.Release(n.output)
}

// Host forwards the audio imports to an Engine. Sound and node handles
// are never reused, so a stale handle keeps failing instead of aliasing
// a newer object.
type Host struct {
	engine Engine
	tasks  playhost.Tasks
	fetch  Fetch
	logger *zap.Logger
	sounds *resource.Registry[*sound]
	nodes  *resource.Registry[*node]
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostLogger overrides the package logger for one host.
func WithHostLogger(l *zap.Logger) HostOption {
	return func(h *Host) { h.logger = l }
}

// NewHost creates an audio host. Sound files are retrieved with fetch
// and loads are settled through tasks. The module must call init before
// any other audio import.
func NewHost(engine Engine, tasks playhost.Tasks, fetch Fetch, opts ...HostOption) *Host {
	h := &Host{
		engine: engine,
		tasks:  tasks,
		fetch:  fetch,
		logger: Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Engine returns the backing engine.
func (h *Host) Engine() Engine { return h.engine }

// Init starts a fresh audio context. Handles from a previous context
// are dropped and numbering restarts at 1.
func (h *Host) Init() {
	if h.nodes != nil {
		_ = h.nodes.Close()
		_ = h.sounds.Close()
	}
	h.sounds = resource.New[*sound](resource.WithName("sound"), resource.WithPolicy(resource.Retire))
	h.nodes = resource.New[*node](resource.WithName("audio_node"), resource.WithPolicy(resource.Retire))
}

// Live returns the number of live sounds and nodes.
func (h *Host) Live() (sounds, nodes int) {
	if h.nodes == nil {
		return 0, 0
	}
	return h.sounds.Len(), h.nodes.Len()
}

func (h *Host) ready() {
	if h.nodes == nil {
		panic(errors.NotInitialized(errors.PhaseAudio, "audio context"))
	}
}

func (h *Host) node(id uint32) *node {
	h.ready()
	n, err := h.nodes.Resolve(resource.Handle(id))
	if err != nil {
		panic(err)
	}
	return n
}

func (h *Host) sound(id uint32) *sound {
	h.ready()
	s, err := h.sounds.Resolve(resource.Handle(id))
	if err != nil {
		panic(err)
	}
	return s
}

func (h *Host) newNode(output NodeRef) uint32 {
	return uint32(h.nodes.Allocate(&node{engine: h.engine, output: output}))
}

// Load allocates a sound handle and starts fetching and decoding the file
// named by (namePtr, nameLen). When the load settles the handle is
// written to idOutPtr before the module resumes. The returned value is
// the operation's slot.
func (h *Host) Load(ctx context.Context, m playhost.Memory, namePtr, nameLen, idOutPtr uint32) uint32 {
	h.ready()
	path, err := memory.ReadString(m, namePtr, nameLen)
	if err != nil {
		panic(err)
	}

	snd := &sound{path: path}
	sounds := h.sounds
	id := sounds.Allocate(snd)

	return h.tasks.Start(ctx, "audio.load", func(ctx context.Context) (playhost.Completion, error) {
		data, err := h.fetch(ctx, path)
		if err == nil {
			var buf *Buffer
			if buf, err = h.engine.Decode(data); err == nil {
				h.logger.Debug("sound decoded",
					zap.String("path", path),
					zap.Uint32("sound", uint32(id)),
					zap.Duration("duration", buf.Duration()))
				return playhost.Completion{Apply: func(m playhost.Memory) error {
					snd.buffer = buf
					return m.WriteU32(idOutPtr, uint32(id))
				}}, nil
			}
		}
		h.logger.Warn("sound load failed", zap.String("path", path), zap.Error(err))
		_, _ = sounds.Release(id)
		return playhost.Completion{}, err
	})
}

// CreateSoundNode creates a node that plays sounds into its own gain
// output.
func (h *Host) CreateSoundNode() uint32 {
	h.ready()
	return h.newNode(h.engine.Gain(1))
}

// Play starts sound on a sound node, replacing whatever the node was
// playing. Playing through a node without a source, or a sound that has
// not finished loading, does nothing.
func (h *Host) Play(nodeID, soundID uint32) {
	n := h.node(nodeID)
	s := h.sound(soundID)
	if s.buffer == nil {
		h.logger.Debug("play before load finished", zap.Uint32("sound", soundID))
		return
	}
	if n.source != 0 {
		h.engine.Disconnect(n.source, n.output)
		h.engine.Release(n.source)
	}
	n.source = h.engine.BufferSource(s.buffer)
	h.engine.Connect(n.source, n.output)
	h.engine.Start(n.source)
}

// CreateBiquadNode creates a filter fed by input.
func (h *Host) CreateBiquadNode(input, kind uint32, frequency, q, gain float32) uint32 {
	in := h.node(input)
	k := BiquadKind(kind)
	if kind > uint32(Allpass) || !k.Valid() {
		panic(errors.InvalidInput(errors.PhaseAudio, "unknown biquad kind"))
	}
	ref := h.engine.Biquad(k, frequency, q, gain)
	h.engine.Connect(in.output, ref)
	return h.newNode(ref)
}

// CreateMixerNode creates a gain node other nodes can be mixed into.
func (h *Host) CreateMixerNode() uint32 {
	h.ready()
	return h.newNode(h.engine.Gain(1))
}

// ConnectToMixer routes input into mixer through a dedicated gain stage.
func (h *Host) ConnectToMixer(mixer, input uint32, gain float32) {
	mx := h.node(mixer)
	in := h.node(input)
	g := h.engine.Gain(gain)
	h.engine.Connect(in.output, g)
	h.engine.Connect(g, mx.output)
	in.extra = append(in.extra, g)
}

// CreateDelayOutputNode creates a delay line.
func (h *Host) CreateDelayOutputNode(seconds float32) uint32 {
	h.ready()
	return h.newNode(h.engine.Delay(seconds))
}

// CreateDelayInputNode feeds input into an existing delay line. It
// returns 0 on success.
func (h *Host) CreateDelayInputNode(input, delayOutput uint32) int32 {
	in := h.node(input)
	out := h.node(delayOutput)
	h.engine.Connect(in.output, out.output)
	return 0
}

// ConnectToOutput routes input to the engine's destination.
func (h *Host) ConnectToOutput(input uint32) {
	in := h.node(input)
	h.engine.Connect(in.output, h.engine.Destination())
}

// DeleteNode releases a node and its native resources.
func (h *Host) DeleteNode(id uint32) {
	h.ready()
	if _, err := h.nodes.Release(resource.Handle(id)); err != nil {
		panic(err)
	}
}

// DeleteSound releases a sound. Nodes already playing it keep their
// source until the next play.
func (h *Host) DeleteSound(id uint32) {
	h.ready()
	if _, err := h.sounds.Release(resource.Handle(id)); err != nil {
		panic(err)
	}
}

// Close releases every handle and closes the engine.
func (h *Host) Close() error {
	if h.nodes != nil {
		_ = h.nodes.Close()
		_ = h.sounds.Close()
	}
	return h.engine.Close()
}
