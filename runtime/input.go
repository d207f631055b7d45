package runtime

import (
	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/input"
	"github.com/wippyai/wasm-playhost/memory"
)

// Guest input entries. All are optional.
const (
	exportOnKeyDown     = "on_key_down"
	exportOnKeyUp       = "on_key_up"
	exportOnTextInput   = "on_text_input"
	globalTextInputBuff = "TEXT_INPUT_BUFFER"
)

// moduleSink delivers translated key events to the module. It runs on
// the loop.
type moduleSink struct {
	p *Platform
}

var _ input.Sink = moduleSink{}

func (s moduleSink) KeyDown(key, scancode uint32) {
	s.p.callInput(exportOnKeyDown, uint64(key), uint64(scancode))
}

func (s moduleSink) KeyUp(key, scancode uint32) {
	s.p.callInput(exportOnKeyUp, uint64(key), uint64(scancode))
}

// TextInput writes text NUL-terminated into the module's text buffer and
// passes its length.
func (s moduleSink) TextInput(text []byte) {
	p := s.p
	if !p.mod.Has(exportOnTextInput) {
		return
	}
	addr, ok := p.mod.GlobalAddress(globalTextInputBuff)
	if !ok {
		return
	}
	n, err := memory.WriteCString(p.mod.Memory(), addr, p.textBufSize, 0, string(text))
	if err != nil {
		p.fail(errors.Wrap(errors.PhaseInput, errors.KindOutOfBounds, err, "text input buffer"))
		return
	}
	p.callInput(exportOnTextInput, uint64(n))
}

func (p *Platform) callInput(name string, params ...uint64) {
	if p.stopped.Load() {
		return
	}
	if _, err := p.mod.CallOptional(p.ctx, name, params...); err != nil {
		p.fail(errors.Wrap(errors.PhaseInput, errors.KindOperationFailed, err, name))
	}
}

// KeyDown queues a key-down event for the module.
func (p *Platform) KeyDown(ev input.Event) error {
	return p.loop.Submit(func() { p.input.KeyDown(ev) })
}

// KeyUp queues a key-up event for the module.
func (p *Platform) KeyUp(ev input.Event) error {
	return p.loop.Submit(func() { p.input.KeyUp(ev) })
}

// SetFocused queues a focus change. Losing focus releases held keys.
func (p *Platform) SetFocused(focused bool) error {
	return p.loop.Submit(func() { p.input.SetFocused(focused) })
}
