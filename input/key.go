package input

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Key identifies the logical key after layout is applied. Printable keys
// carry their lowercased code point; named keys that have no text carry
// their scancode with keyScancodeMask set.
type Key uint32

const keyScancodeMask = 1 << 30

func keyFromScancode(s Scancode) Key { return Key(uint32(s) | keyScancodeMask) }

const (
	KeyUnknown   Key = 0
	KeyBackspace Key = '\b'
	KeyTab       Key = '\t'
	KeyReturn    Key = '\r'
	KeyEscape    Key = 0x1b
	KeySpace     Key = ' '
	KeyDelete    Key = 0x7f
)

var (
	KeyCapsLock     = keyFromScancode(ScancodeCapsLock)
	KeyF1           = keyFromScancode(ScancodeF1)
	KeyF12          = keyFromScancode(ScancodeF12)
	KeyPrintScreen  = keyFromScancode(ScancodePrintScreen)
	KeyScrollLock   = keyFromScancode(ScancodeScrollLock)
	KeyPause        = keyFromScancode(ScancodePause)
	KeyInsert       = keyFromScancode(ScancodeInsert)
	KeyHome         = keyFromScancode(ScancodeHome)
	KeyPageUp       = keyFromScancode(ScancodePageUp)
	KeyEnd          = keyFromScancode(ScancodeEnd)
	KeyPageDown     = keyFromScancode(ScancodePageDown)
	KeyRight        = keyFromScancode(ScancodeRight)
	KeyLeft         = keyFromScancode(ScancodeLeft)
	KeyDown         = keyFromScancode(ScancodeDown)
	KeyUp           = keyFromScancode(ScancodeUp)
	KeyNumLockClear = keyFromScancode(ScancodeNumLockClear)
	KeyApplication  = keyFromScancode(ScancodeApplication)
	KeyMenu         = keyFromScancode(ScancodeMenu)
	KeyHelp         = keyFromScancode(ScancodeHelp)
	KeyLCtrl        = keyFromScancode(ScancodeLCtrl)
	KeyLShift       = keyFromScancode(ScancodeLShift)
	KeyLAlt         = keyFromScancode(ScancodeLAlt)
	KeyLGUI         = keyFromScancode(ScancodeLGUI)
	KeyRAlt         = keyFromScancode(ScancodeRAlt)
)

// KeyFromName maps a logical key name ("a", "Enter", "ArrowLeft") to a
// Key. A single character maps to its lowercased code point; names
// outside the table map to KeyUnknown.
func KeyFromName(name string) Key {
	if r, size := utf8.DecodeRuneInString(name); size > 0 && size == len(name) && r != utf8.RuneError {
		if unicode.IsControl(r) {
			return KeyUnknown
		}
		return Key(unicode.ToLower(r))
	}

	if len(name) >= 2 && name[0] == 'F' {
		var n int
		if _, err := fmt.Sscanf(name, "F%d", &n); err == nil && fmt.Sprintf("F%d", n) == name {
			switch {
			case n >= 1 && n <= 12:
				return keyFromScancode(ScancodeF1 + Scancode(n-1))
			case n >= 13 && n <= 24:
				return keyFromScancode(ScancodeF13 + Scancode(n-13))
			}
		}
	}

	switch name {
	case "Backspace":
		return KeyBackspace
	case "Tab":
		return KeyTab
	case "Enter":
		return KeyReturn
	case "Escape", "Esc":
		return KeyEscape
	case "Spacebar":
		return KeySpace
	case "Delete", "Del":
		return KeyDelete
	case "CapsLock":
		return KeyCapsLock
	case "PrintScreen":
		return KeyPrintScreen
	case "ScrollLock":
		return KeyScrollLock
	case "Pause":
		return KeyPause
	case "Insert":
		return KeyInsert
	case "Home":
		return KeyHome
	case "PageUp":
		return KeyPageUp
	case "End":
		return KeyEnd
	case "PageDown":
		return KeyPageDown
	case "ArrowRight", "Right":
		return KeyRight
	case "ArrowLeft", "Left":
		return KeyLeft
	case "ArrowDown", "Down":
		return KeyDown
	case "ArrowUp", "Up":
		return KeyUp
	case "NumLock", "Clear":
		return KeyNumLockClear
	case "ContextMenu", "Apps":
		return KeyMenu
	case "Help":
		return KeyHelp
	case "Control":
		return KeyLCtrl
	case "Shift":
		return KeyLShift
	case "Alt":
		return KeyLAlt
	case "AltGraph":
		return KeyRAlt
	case "Meta", "OS", "Super", "Hyper":
		return KeyLGUI
	default:
		return KeyUnknown
	}
}

var namedKeys = map[Key]string{
	KeyUnknown:      "UNKNOWN",
	KeyBackspace:    "BACKSPACE",
	KeyTab:          "TAB",
	KeyReturn:       "RETURN",
	KeyEscape:       "ESCAPE",
	KeySpace:        "SPACE",
	KeyDelete:       "DELETE",
	KeyCapsLock:     "CAPSLOCK",
	KeyPrintScreen:  "PRINTSCREEN",
	KeyScrollLock:   "SCROLLLOCK",
	KeyPause:        "PAUSE",
	KeyInsert:       "INSERT",
	KeyHome:         "HOME",
	KeyPageUp:       "PAGEUP",
	KeyEnd:          "END",
	KeyPageDown:     "PAGEDOWN",
	KeyRight:        "RIGHT",
	KeyLeft:         "LEFT",
	KeyDown:         "DOWN",
	KeyUp:           "UP",
	KeyNumLockClear: "NUMLOCKCLEAR",
	KeyMenu:         "MENU",
	KeyHelp:         "HELP",
	KeyLCtrl:        "LCTRL",
	KeyLShift:       "LSHIFT",
	KeyLAlt:         "LALT",
	KeyLGUI:         "LGUI",
	KeyRAlt:         "RALT",
}

// String returns the name used by the module's KEYCODE_* exports: named
// keys by table, ASCII letters and digits as "A" and "_1", function keys
// as "F5".
func (k Key) String() string {
	if name, ok := namedKeys[k]; ok {
		return name
	}
	switch {
	case k >= 'a' && k <= 'z':
		return string(rune(k - 'a' + 'A'))
	case k >= '0' && k <= '9':
		return "_" + string(rune(k))
	case k&keyScancodeMask != 0:
		return Scancode(k &^ keyScancodeMask).String()
	}
	return fmt.Sprintf("Key(%d)", uint32(k))
}

// moduleKeys lists the keys probed for KEYCODE_* overrides.
func moduleKeys() []Key {
	keys := make([]Key, 0, len(namedKeys)+60)
	for k := range namedKeys {
		keys = append(keys, k)
	}
	for r := 'a'; r <= 'z'; r++ {
		keys = append(keys, Key(r))
	}
	for r := '0'; r <= '9'; r++ {
		keys = append(keys, Key(r))
	}
	for i := Scancode(0); i < 12; i++ {
		keys = append(keys, keyFromScancode(ScancodeF1+i), keyFromScancode(ScancodeF13+i))
	}
	return keys
}
