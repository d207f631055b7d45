package audio

// NodeRef names a native node inside an Engine. The module never sees
// it; Host maps module node handles onto refs.
type NodeRef uint32

// BiquadKind selects a biquad filter response.
type BiquadKind uint8

const (
	Lowpass BiquadKind = iota
	Highpass
	Bandpass
	Lowshelf
	Highshelf
	Peaking
	Notch
	Allpass
)

var biquadNames = [...]string{
	Lowpass:   "lowpass",
	Highpass:  "highpass",
	Bandpass:  "bandpass",
	Lowshelf:  "lowshelf",
	Highshelf: "highshelf",
	Peaking:   "peaking",
	Notch:     "notch",
	Allpass:   "allpass",
}

func (k BiquadKind) String() string {
	if int(k) < len(biquadNames) {
		return biquadNames[k]
	}
	return "unknown"
}

// Valid reports whether k is one of the eight filter kinds.
func (k BiquadKind) Valid() bool { return int(k) < len(biquadNames) }

// Engine is the audio backend: a graph of nodes ending at a destination.
type Engine interface {
	Decode(data []byte) (*Buffer, error)
	Gain(value float32) NodeRef
	BufferSource(buf *Buffer) NodeRef
	Biquad(kind BiquadKind, frequency, q, gain float32) NodeRef
	Delay(seconds float32) NodeRef
	Destination() NodeRef
	Connect(from, to NodeRef)
	Disconnect(from, to NodeRef)
	Start(source NodeRef)
	Release(n NodeRef)
	Close() error
}
