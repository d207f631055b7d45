package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/wippyai/wasm-playhost/errors"
)

// Buffer is decoded PCM audio, one slice of samples in [-1, 1] per channel.
type Buffer struct {
	Channels   [][]float32
	SampleRate int
}

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

func wavError(detail string) error {
	return errors.InvalidData(errors.PhaseAudio, []string{"wav"}, detail)
}

// DecodeWAV decodes a RIFF/WAVE file with integer PCM (8, 16, 24 or 32
// bit) or 32-bit float samples.
func DecodeWAV(data []byte) (*Buffer, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, wavError("not a RIFF/WAVE file")
	}

	var (
		format, channels, bits uint16
		rate                   uint32
		haveFmt                bool
		samples                []byte
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return nil, wavError("chunk " + id + " overruns file")
		}
		chunk := data[body : body+size]

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, wavError("short fmt chunk")
			}
			format = binary.LittleEndian.Uint16(chunk[0:2])
			channels = binary.LittleEndian.Uint16(chunk[2:4])
			rate = binary.LittleEndian.Uint32(chunk[4:8])
			bits = binary.LittleEndian.Uint16(chunk[14:16])
			if format == wavFormatExtensible && size >= 26 {
				format = binary.LittleEndian.Uint16(chunk[24:26])
			}
			haveFmt = true
		case "data":
			samples = chunk
		}
		// chunks are word aligned
		off = body + size + size&1
	}

	if !haveFmt {
		return nil, wavError("missing fmt chunk")
	}
	if samples == nil {
		return nil, wavError("missing data chunk")
	}
	if channels == 0 || rate == 0 {
		return nil, wavError("zero channels or sample rate")
	}

	var sample func([]byte) float32
	switch {
	case format == wavFormatPCM && bits == 8:
		sample = func(b []byte) float32 { return (float32(b[0]) - 128) / 128 }
	case format == wavFormatPCM && bits == 16:
		sample = func(b []byte) float32 { return float32(int16(binary.LittleEndian.Uint16(b))) / 32768 }
	case format == wavFormatPCM && bits == 24:
		sample = func(b []byte) float32 {
			v := int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
			return float32(v) / 8388608
		}
	case format == wavFormatPCM && bits == 32:
		sample = func(b []byte) float32 { return float32(int32(binary.LittleEndian.Uint32(b))) / 2147483648 }
	case format == wavFormatFloat && bits == 32:
		sample = func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
	default:
		return nil, errors.Unsupported(errors.PhaseAudio, "wav format "+formatName(format, bits))
	}

	width := int(bits / 8)
	frame := width * int(channels)
	frames := len(samples) / frame
	buf := &Buffer{
		SampleRate: int(rate),
		Channels:   make([][]float32, channels),
	}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		base := i * frame
		for c := 0; c < int(channels); c++ {
			off := base + c*width
			buf.Channels[c][i] = sample(samples[off : off+width])
		}
	}
	return buf, nil
}

func formatName(format, bits uint16) string {
	switch format {
	case wavFormatPCM:
		return fmt.Sprintf("pcm/%d", bits)
	case wavFormatFloat:
		return fmt.Sprintf("float/%d", bits)
	}
	return fmt.Sprintf("code %d/%d", format, bits)
}
