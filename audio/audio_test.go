package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/memory"
)

func encodeWAV(format, channels uint16, rate uint32, bits uint16, data []byte) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("RIFF")
	_ = binary.Write(&b, le, uint32(4+8+16+8+len(data)+len(data)%2))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	_ = binary.Write(&b, le, uint32(16))
	_ = binary.Write(&b, le, format)
	_ = binary.Write(&b, le, channels)
	_ = binary.Write(&b, le, rate)
	_ = binary.Write(&b, le, rate*uint32(channels)*uint32(bits/8))
	_ = binary.Write(&b, le, channels*bits/8)
	_ = binary.Write(&b, le, bits)
	b.WriteString("data")
	_ = binary.Write(&b, le, uint32(len(data)))
	b.Write(data)
	if len(data)%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

func pcm16(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// syncTasks runs work inline and records how each slot settled.
type syncTasks struct {
	mem      playhost.Memory
	next     uint32
	resolved map[uint32][]byte
	rejected map[uint32]error
}

func newSyncTasks(m playhost.Memory) *syncTasks {
	return &syncTasks{mem: m, resolved: map[uint32][]byte{}, rejected: map[uint32]error{}}
}

func (s *syncTasks) Start(ctx context.Context, name string, work func(context.Context) (playhost.Completion, error)) uint32 {
	slot := s.next
	s.next++
	c, err := work(ctx)
	if err == nil && c.Apply != nil {
		err = c.Apply(s.mem)
	}
	if err != nil {
		s.rejected[slot] = err
	} else {
		s.resolved[slot] = c.Data
	}
	return slot
}

func files(m map[string][]byte) Fetch {
	return func(_ context.Context, path string) ([]byte, error) {
		if b, ok := m[path]; ok {
			return b, nil
		}
		return nil, errors.NotFound(errors.PhaseFetch, "file", path)
	}
}

type fixture struct {
	host   *Host
	engine *NullEngine
	tasks  *syncTasks
	mem    *memory.Bytes
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := memory.NewBytes(memory.PageSize)
	eng := NewNullEngine()
	tasks := newSyncTasks(m)
	wav := encodeWAV(1, 1, 8000, 16, pcm16(0, 16384, -32768, 32767))
	h := NewHost(eng, tasks, files(map[string][]byte{
		"beep.wav": wav,
		"bad.wav":  []byte("not audio"),
	}))
	h.Init()
	return &fixture{host: h, engine: eng, tasks: tasks, mem: m}
}

func (f *fixture) load(t *testing.T, name string) (slot, id uint32) {
	t.Helper()
	require.NoError(t, f.mem.Write(100, []byte(name)))
	slot = f.host.Load(context.Background(), f.mem, 100, uint32(len(name)), 200)
	id, err := f.mem.ReadU32(200)
	require.NoError(t, err)
	return slot, id
}

func TestDecodeWAV_PCM16(t *testing.T) {
	buf, err := DecodeWAV(encodeWAV(1, 2, 44100, 16, pcm16(0, 16384, -32768, 32767)))
	require.NoError(t, err)

	assert.Equal(t, 44100, buf.SampleRate)
	require.Len(t, buf.Channels, 2)
	assert.Equal(t, 2, buf.Frames())
	assert.Equal(t, []float32{0, -1}, buf.Channels[0])
	assert.InDelta(t, 0.5, buf.Channels[1][0], 1e-6)
	assert.InDelta(t, 1, buf.Channels[1][1], 1e-4)
}

func TestDecodeWAV_Formats(t *testing.T) {
	t.Run("8 bit", func(t *testing.T) {
		buf, err := DecodeWAV(encodeWAV(1, 1, 8000, 8, []byte{128, 0, 255}))
		require.NoError(t, err)
		assert.Equal(t, []float32{0, -1, 127.0 / 128}, buf.Channels[0])
	})
	t.Run("24 bit", func(t *testing.T) {
		buf, err := DecodeWAV(encodeWAV(1, 1, 8000, 24, []byte{0, 0, 0x80, 0xff, 0xff, 0x7f}))
		require.NoError(t, err)
		assert.Equal(t, float32(-1), buf.Channels[0][0])
		assert.InDelta(t, 1, buf.Channels[0][1], 1e-6)
	})
	t.Run("float", func(t *testing.T) {
		data := make([]byte, 8)
		binary.LittleEndian.PutUint32(data, math.Float32bits(0.25))
		binary.LittleEndian.PutUint32(data[4:], math.Float32bits(-0.75))
		buf, err := DecodeWAV(encodeWAV(3, 1, 8000, 32, data))
		require.NoError(t, err)
		assert.Equal(t, []float32{0.25, -0.75}, buf.Channels[0])
	})
	t.Run("unsupported", func(t *testing.T) {
		_, err := DecodeWAV(encodeWAV(2, 1, 8000, 4, []byte{0, 0}))
		var e *errors.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, errors.KindUnsupported, e.Kind)
	})
}

func TestDecodeWAV_Malformed(t *testing.T) {
	valid := encodeWAV(1, 1, 8000, 16, pcm16(1, 2))
	tests := map[string][]byte{
		"empty":     nil,
		"not riff":  []byte("RIFX0000WAVE"),
		"truncated": valid[:len(valid)-3],
		"no data":   valid[:36],
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeWAV(data)
			require.Error(t, err)
		})
	}
}

func TestBuffer_Duration(t *testing.T) {
	buf := &Buffer{SampleRate: 8000, Channels: [][]float32{make([]float32, 4000)}}
	assert.Equal(t, 500*time.Millisecond, buf.Duration())
	assert.Equal(t, time.Duration(0), (*Buffer)(nil).Duration())
}

func TestHost_LoadWritesSoundHandle(t *testing.T) {
	f := newFixture(t)

	slot, id := f.load(t, "beep.wav")
	assert.Equal(t, uint32(1), id, "sound ids start at 1")
	assert.Contains(t, f.tasks.resolved, slot)
	assert.Equal(t, 1, f.engine.Stats().Decoded)

	slot2, id2 := f.load(t, "beep.wav")
	assert.NotEqual(t, slot, slot2)
	assert.Equal(t, uint32(2), id2)
}

func TestHost_LoadFailures(t *testing.T) {
	f := newFixture(t)

	slot, _ := f.load(t, "missing.wav")
	require.Contains(t, f.tasks.rejected, slot)
	assert.Equal(t, errors.ReasonNotFound, errors.ReasonOf(f.tasks.rejected[slot]))

	slot, _ = f.load(t, "bad.wav")
	require.Contains(t, f.tasks.rejected, slot)
	assert.Equal(t, errors.ReasonUnknown, errors.ReasonOf(f.tasks.rejected[slot]))

	sounds, _ := f.host.Live()
	assert.Equal(t, 0, sounds, "failed loads release their handle")
}

func TestHost_PlayGraph(t *testing.T) {
	f := newFixture(t)
	_, snd := f.load(t, "beep.wav")

	src := f.host.CreateSoundNode()
	filter := f.host.CreateBiquadNode(src, uint32(Lowpass), 800, 1, 0)
	mixer := f.host.CreateMixerNode()
	f.host.ConnectToMixer(mixer, filter, 0.5)
	f.host.ConnectToOutput(mixer)

	f.host.Play(src, snd)
	f.host.Play(src, snd)

	st := f.engine.Stats()
	assert.Equal(t, 2, st.Started)
	// output gain, biquad, mixer, mix gain stage, current source
	assert.Equal(t, 5, st.Nodes)
	// source->out, out->biquad, biquad->stage, stage->mixer, mixer->dest
	assert.Equal(t, 5, st.Edges)

	f.host.DeleteNode(filter)
	assert.Equal(t, 3, f.engine.Stats().Nodes)
	assert.Equal(t, 2, f.engine.Stats().Edges)
}

func TestHost_Delay(t *testing.T) {
	f := newFixture(t)

	src := f.host.CreateSoundNode()
	delay := f.host.CreateDelayOutputNode(0.25)
	assert.Equal(t, int32(0), f.host.CreateDelayInputNode(src, delay))
	f.host.ConnectToOutput(delay)

	assert.Equal(t, 2, f.engine.Stats().Edges)
}

func TestHost_InvalidHandles(t *testing.T) {
	f := newFixture(t)

	assert.Panics(t, func() { f.host.Play(9, 1) })
	assert.Panics(t, func() { f.host.ConnectToOutput(0) })

	n := f.host.CreateMixerNode()
	f.host.DeleteNode(n)
	assert.Panics(t, func() { f.host.DeleteNode(n) })
	assert.Equal(t, n+1, f.host.CreateMixerNode(), "node ids are never reused")

	assert.Panics(t, func() { f.host.CreateBiquadNode(n+1, 8, 1, 1, 1) })
}

func TestHost_PlayBeforeLoadIsSilent(t *testing.T) {
	m := memory.NewBytes(memory.PageSize)
	eng := NewNullEngine()
	h := NewHost(eng, &deferredTasks{}, files(nil))
	h.Init()

	require.NoError(t, m.Write(100, []byte("later.wav")))
	h.Load(context.Background(), m, 100, 9, 200)
	node := h.CreateSoundNode()

	assert.NotPanics(t, func() { h.Play(node, 1) })
	assert.Equal(t, 0, eng.Stats().Started)
}

func TestHost_RequiresInit(t *testing.T) {
	h := NewHost(NewNullEngine(), &deferredTasks{}, files(nil))
	assert.Panics(t, func() { h.CreateSoundNode() })

	h.Init()
	first := h.CreateSoundNode()
	h.Init()
	assert.Equal(t, first, h.CreateSoundNode(), "init restarts numbering")
	require.NoError(t, h.Close())
}

func TestBiquadKind(t *testing.T) {
	assert.Equal(t, "peaking", Peaking.String())
	assert.True(t, Allpass.Valid())
	assert.False(t, BiquadKind(8).Valid())
	assert.Equal(t, "unknown", BiquadKind(8).String())
}

type deferredTasks struct{}

func (deferredTasks) Start(context.Context, string, func(context.Context) (playhost.Completion, error)) uint32 {
	return 0
}
