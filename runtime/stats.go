package runtime

import (
	"github.com/wippyai/wasm-playhost/clock"
	"github.com/wippyai/wasm-playhost/gpu"
)

// Stats is a snapshot of the session for status displays.
type Stats struct {
	Session   string
	Clock     clock.Stats
	GPU       gpu.Stats
	GPUHandle map[string]int
	Begun     uint64
	Settled   uint64
	Pending   int
	Sounds    int
	Nodes     int
	Surfaces  int
	HeldKeys  int
	LogLines  uint64
	Running   bool
}

// Stats returns the current snapshot. Loop-owned counters are refreshed
// after every rendered frame; the rest is read live. Safe from any
// goroutine.
func (p *Platform) Stats() Stats {
	var s Stats
	if snap := p.snapshot.Load(); snap != nil {
		s = *snap
	}
	s.Session = p.id
	s.Begun, s.Settled = p.bridge.Stats()
	s.Pending = p.bridge.Pending()
	s.Surfaces = p.surfaces.Len()
	s.LogLines = p.logLines.Load()
	s.Running = !p.stopped.Load()
	if c := p.clock.Load(); c != nil {
		s.Clock = c.Stats()
	}
	return s
}

// refreshSnapshot captures the loop-owned counters. Runs on the loop.
func (p *Platform) refreshSnapshot() {
	s := &Stats{GPUHandle: p.gpu.Live()}
	s.Sounds, s.Nodes = p.audio.Live()
	if r, ok := p.Current().Device.(*gpu.Recorder); ok {
		s.GPU = r.Stats()
	}
	if p.input != nil {
		s.HeldKeys = p.input.Held()
	}
	p.snapshot.Store(s)
}
