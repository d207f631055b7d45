package input

import (
	"maps"
	"slices"
	"sync"
	"unicode/utf8"
)

// DefaultTextBufferSize is the capacity of the module's text input
// buffer, including the NUL terminator.
const DefaultTextBufferSize = 32

// Event is a raw keyboard event as reported by the host surface.
type Event struct {
	Key       string // logical key name, "a" or "ArrowUp"
	Code      string // physical key code, "KeyA" or "ArrowUp"
	Composing bool   // part of an IME composition
	Handled   bool   // already consumed by the host
}

// Sink receives translated events in module terms.
type Sink interface {
	KeyDown(key, scancode uint32)
	KeyUp(key, scancode uint32)
	TextInput(text []byte)
}

// Option configures a Translator.
type Option func(*Translator)

// WithCodes sets the module enumeration table.
func WithCodes(c *ModuleCodes) Option {
	return func(t *Translator) { t.codes = c }
}

// WithTextBufferSize sets the text buffer capacity. Values below 1 are
// ignored.
func WithTextBufferSize(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.bufSize = n
		}
	}
}

// WithFocused sets the initial focus state. Translators start focused.
func WithFocused(focused bool) Option {
	return func(t *Translator) { t.focused = focused }
}

// Translator turns raw key events into module calls. It is safe for
// concurrent use; the Sink is invoked with the translator lock held so
// calls arrive in event order.
type Translator struct {
	mu      sync.Mutex
	sink    Sink
	codes   *ModuleCodes
	bufSize int
	focused bool
	held    map[Scancode]Key
}

// NewTranslator creates a translator delivering to sink.
func NewTranslator(sink Sink, opts ...Option) *Translator {
	t := &Translator{
		sink:    sink,
		bufSize: DefaultTextBufferSize,
		focused: true,
		held:    make(map[Scancode]Key),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate maps an event to its Key and Scancode. Unmapped names map to
// the Unknown variants.
func Translate(ev Event) (Key, Scancode) {
	return KeyFromName(ev.Key), ScancodeFromCode(ev.Code)
}

// KeyDown delivers a key press and, for text-producing keys, the key's
// text. It reports whether anything reached the sink.
func (t *Translator) KeyDown(ev Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.focused || ev.Handled {
		return false
	}
	key, sc := Translate(ev)
	t.held[sc] = key
	t.sink.KeyDown(t.codes.Key(key), t.codes.Scancode(sc))

	if ev.Composing || !producesText(ev.Key) {
		return true
	}
	if text := truncateText(ev.Key, t.bufSize-1); len(text) > 0 {
		t.sink.TextInput(text)
	}
	return true
}

// KeyUp delivers a key release.
func (t *Translator) KeyUp(ev Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.focused || ev.Handled {
		return false
	}
	key, sc := Translate(ev)
	delete(t.held, sc)
	t.sink.KeyUp(t.codes.Key(key), t.codes.Scancode(sc))
	return true
}

// SetFocused updates focus. Losing focus releases every held key.
func (t *Translator) SetFocused(focused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.focused == focused {
		return
	}
	t.focused = focused
	if focused {
		return
	}
	for _, sc := range slices.Sorted(maps.Keys(t.held)) {
		t.sink.KeyUp(t.codes.Key(t.held[sc]), t.codes.Scancode(sc))
		delete(t.held, sc)
	}
}

// Focused reports whether key events are currently delivered.
func (t *Translator) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}

// Held returns the number of keys currently pressed.
func (t *Translator) Held() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.held)
}

// producesText reports whether a key-down for name should also deliver
// text input.
func producesText(name string) bool {
	switch name {
	case "", "Unidentified",
		"Alt", "AltGraph", "CapsLock", "Control", "Fn", "FnLock", "Hyper",
		"Meta", "NumLock", "ScrollLock", "Shift", "Super", "Symbol", "SymbolLock",
		"Enter", "Tab",
		"ArrowDown", "ArrowLeft", "ArrowRight", "ArrowUp",
		"OS", "Escape", "Backspace":
		return false
	}
	return true
}

// truncateText returns at most max bytes of s, never splitting a rune.
func truncateText(s string, max int) []byte {
	if max <= 0 {
		return nil
	}
	if len(s) <= max {
		return []byte(s)
	}
	n := 0
	for n < len(s) {
		_, size := utf8.DecodeRuneInString(s[n:])
		if n+size > max {
			break
		}
		n += size
	}
	return []byte(s[:n])
}
