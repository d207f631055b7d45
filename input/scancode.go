package input

import "fmt"

// Scancode identifies a physical key position. Values follow the SDL2
// scancode numbering, which is what the module's own enumeration uses
// unless it exports overrides.
type Scancode uint32

const ScancodeUnknown Scancode = 0

const (
	ScancodeA Scancode = iota + 4
	ScancodeB
	ScancodeC
	ScancodeD
	ScancodeE
	ScancodeF
	ScancodeG
	ScancodeH
	ScancodeI
	ScancodeJ
	ScancodeK
	ScancodeL
	ScancodeM
	ScancodeN
	ScancodeO
	ScancodeP
	ScancodeQ
	ScancodeR
	ScancodeS
	ScancodeT
	ScancodeU
	ScancodeV
	ScancodeW
	ScancodeX
	ScancodeY
	ScancodeZ
	Scancode1
	Scancode2
	Scancode3
	Scancode4
	Scancode5
	Scancode6
	Scancode7
	Scancode8
	Scancode9
	Scancode0
	ScancodeReturn
	ScancodeEscape
	ScancodeBackspace
	ScancodeTab
	ScancodeSpace
	ScancodeMinus
	ScancodeEquals
	ScancodeLeftBracket
	ScancodeRightBracket
	ScancodeBackslash
	ScancodeNonUSHash
	ScancodeSemicolon
	ScancodeApostrophe
	ScancodeGrave
	ScancodeComma
	ScancodePeriod
	ScancodeSlash
	ScancodeCapsLock
	ScancodeF1
	ScancodeF2
	ScancodeF3
	ScancodeF4
	ScancodeF5
	ScancodeF6
	ScancodeF7
	ScancodeF8
	ScancodeF9
	ScancodeF10
	ScancodeF11
	ScancodeF12
	ScancodePrintScreen
	ScancodeScrollLock
	ScancodePause
	ScancodeInsert
	ScancodeHome
	ScancodePageUp
	ScancodeDelete
	ScancodeEnd
	ScancodePageDown
	ScancodeRight
	ScancodeLeft
	ScancodeDown
	ScancodeUp
	ScancodeNumLockClear
	ScancodeKPDivide
	ScancodeKPMultiply
	ScancodeKPMinus
	ScancodeKPPlus
	ScancodeKPEnter
	ScancodeKP1
	ScancodeKP2
	ScancodeKP3
	ScancodeKP4
	ScancodeKP5
	ScancodeKP6
	ScancodeKP7
	ScancodeKP8
	ScancodeKP9
	ScancodeKP0
	ScancodeKPPeriod
	ScancodeNonUSBackslash
	ScancodeApplication
	ScancodePower
	ScancodeKPEquals
	ScancodeF13
	ScancodeF14
	ScancodeF15
	ScancodeF16
	ScancodeF17
	ScancodeF18
	ScancodeF19
	ScancodeF20
	ScancodeF21
	ScancodeF22
	ScancodeF23
	ScancodeF24
	ScancodeExecute
	ScancodeHelp
	ScancodeMenu
	ScancodeSelect
	ScancodeStop
	ScancodeAgain
	ScancodeUndo
	ScancodeCut
	ScancodeCopy
	ScancodePaste
	ScancodeFind
	ScancodeMute
	ScancodeVolumeUp
	ScancodeVolumeDown
)

const (
	ScancodeKPComma Scancode = 133
	ScancodeLang1   Scancode = 144
	ScancodeLang2   Scancode = 145

	ScancodeLCtrl  Scancode = 224
	ScancodeLShift Scancode = 225
	ScancodeLAlt   Scancode = 226
	ScancodeLGUI   Scancode = 227
	ScancodeRCtrl  Scancode = 228
	ScancodeRShift Scancode = 229
	ScancodeRAlt   Scancode = 230
	ScancodeRGUI   Scancode = 231

	ScancodeAudioNext   Scancode = 258
	ScancodeAudioPrev   Scancode = 259
	ScancodeAudioStop   Scancode = 260
	ScancodeAudioPlay   Scancode = 261
	ScancodeAudioMute   Scancode = 262
	ScancodeMediaSelect Scancode = 263
	ScancodeMail        Scancode = 265
	ScancodeACSearch    Scancode = 268
	ScancodeACHome      Scancode = 269
	ScancodeACBack      Scancode = 270
	ScancodeACForward   Scancode = 271
	ScancodeACStop      Scancode = 272
	ScancodeACRefresh   Scancode = 273
	ScancodeACBookmarks Scancode = 274
	ScancodeEject       Scancode = 281
	ScancodeApp1        Scancode = 283
	ScancodeApp2        Scancode = 284
)

// scancodeNames are the suffixes of the module's SCANCODE_* exports.
var scancodeNames = map[Scancode]string{
	ScancodeUnknown:        "UNKNOWN",
	ScancodeReturn:         "RETURN",
	ScancodeEscape:         "ESCAPE",
	ScancodeBackspace:      "BACKSPACE",
	ScancodeTab:            "TAB",
	ScancodeSpace:          "SPACE",
	ScancodeMinus:          "MINUS",
	ScancodeEquals:         "EQUALS",
	ScancodeLeftBracket:    "LEFTBRACKET",
	ScancodeRightBracket:   "RIGHTBRACKET",
	ScancodeBackslash:      "BACKSLASH",
	ScancodeNonUSHash:      "NONUSHASH",
	ScancodeSemicolon:      "SEMICOLON",
	ScancodeApostrophe:     "APOSTROPHE",
	ScancodeGrave:          "GRAVE",
	ScancodeComma:          "COMMA",
	ScancodePeriod:         "PERIOD",
	ScancodeSlash:          "SLASH",
	ScancodeCapsLock:       "CAPSLOCK",
	ScancodeF1:             "F1",
	ScancodeF2:             "F2",
	ScancodeF3:             "F3",
	ScancodeF4:             "F4",
	ScancodeF5:             "F5",
	ScancodeF6:             "F6",
	ScancodeF7:             "F7",
	ScancodeF8:             "F8",
	ScancodeF9:             "F9",
	ScancodeF10:            "F10",
	ScancodeF11:            "F11",
	ScancodeF12:            "F12",
	ScancodePrintScreen:    "PRINTSCREEN",
	ScancodeScrollLock:     "SCROLLLOCK",
	ScancodePause:          "PAUSE",
	ScancodeInsert:         "INSERT",
	ScancodeHome:           "HOME",
	ScancodePageUp:         "PAGEUP",
	ScancodeDelete:         "DELETE",
	ScancodeEnd:            "END",
	ScancodePageDown:       "PAGEDOWN",
	ScancodeRight:          "RIGHT",
	ScancodeLeft:           "LEFT",
	ScancodeDown:           "DOWN",
	ScancodeUp:             "UP",
	ScancodeNumLockClear:   "NUMLOCKCLEAR",
	ScancodeKPDivide:       "KP_DIVIDE",
	ScancodeKPMultiply:     "KP_MULTIPLY",
	ScancodeKPMinus:        "KP_MINUS",
	ScancodeKPPlus:         "KP_PLUS",
	ScancodeKPEnter:        "KP_ENTER",
	ScancodeKP1:            "KP_1",
	ScancodeKP2:            "KP_2",
	ScancodeKP3:            "KP_3",
	ScancodeKP4:            "KP_4",
	ScancodeKP5:            "KP_5",
	ScancodeKP6:            "KP_6",
	ScancodeKP7:            "KP_7",
	ScancodeKP8:            "KP_8",
	ScancodeKP9:            "KP_9",
	ScancodeKP0:            "KP_0",
	ScancodeKPPeriod:       "KP_PERIOD",
	ScancodeNonUSBackslash: "NONUSBACKSLASH",
	ScancodeApplication:    "APPLICATION",
	ScancodePower:          "POWER",
	ScancodeKPEquals:       "KP_EQUALS",
	ScancodeF13:            "F13",
	ScancodeF14:            "F14",
	ScancodeF15:            "F15",
	ScancodeF16:            "F16",
	ScancodeF17:            "F17",
	ScancodeF18:            "F18",
	ScancodeF19:            "F19",
	ScancodeF20:            "F20",
	ScancodeF21:            "F21",
	ScancodeF22:            "F22",
	ScancodeF23:            "F23",
	ScancodeF24:            "F24",
	ScancodeExecute:        "EXECUTE",
	ScancodeHelp:           "HELP",
	ScancodeMenu:           "MENU",
	ScancodeSelect:         "SELECT",
	ScancodeStop:           "STOP",
	ScancodeAgain:          "AGAIN",
	ScancodeUndo:           "UNDO",
	ScancodeCut:            "CUT",
	ScancodeCopy:           "COPY",
	ScancodePaste:          "PASTE",
	ScancodeFind:           "FIND",
	ScancodeMute:           "MUTE",
	ScancodeVolumeUp:       "VOLUMEUP",
	ScancodeVolumeDown:     "VOLUMEDOWN",
	ScancodeKPComma:        "KP_COMMA",
	ScancodeLang1:          "LANG1",
	ScancodeLang2:          "LANG2",
	ScancodeLCtrl:          "LCTRL",
	ScancodeLShift:         "LSHIFT",
	ScancodeLAlt:           "LALT",
	ScancodeLGUI:           "LGUI",
	ScancodeRCtrl:          "RCTRL",
	ScancodeRShift:         "RSHIFT",
	ScancodeRAlt:           "RALT",
	ScancodeRGUI:           "RGUI",
	ScancodeAudioNext:      "AUDIONEXT",
	ScancodeAudioPrev:      "AUDIOPREV",
	ScancodeAudioStop:      "AUDIOSTOP",
	ScancodeAudioPlay:      "AUDIOPLAY",
	ScancodeAudioMute:      "AUDIOMUTE",
	ScancodeMediaSelect:    "MEDIASELECT",
	ScancodeMail:           "MAIL",
	ScancodeACSearch:       "AC_SEARCH",
	ScancodeACHome:         "AC_HOME",
	ScancodeACBack:         "AC_BACK",
	ScancodeACForward:      "AC_FORWARD",
	ScancodeACStop:         "AC_STOP",
	ScancodeACRefresh:      "AC_REFRESH",
	ScancodeACBookmarks:    "AC_BOOKMARKS",
	ScancodeEject:          "EJECT",
	ScancodeApp1:           "APP1",
	ScancodeApp2:           "APP2",
}

func init() {
	for i := Scancode(0); i < 26; i++ {
		scancodeNames[ScancodeA+i] = string(rune('A' + i))
	}
	for i := Scancode(0); i < 9; i++ {
		scancodeNames[Scancode1+i] = "_" + string(rune('1'+i))
	}
	scancodeNames[Scancode0] = "_0"
}

// String returns the SDL-style name, e.g. "A", "_1", "KP_ENTER".
func (s Scancode) String() string {
	if name, ok := scancodeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scancode(%d)", uint32(s))
}

// ScancodeFromCode maps a physical key code ("KeyA", "ArrowUp",
// "NumpadEnter") to a Scancode. Codes outside the table map to
// ScancodeUnknown.
func ScancodeFromCode(code string) Scancode {
	if len(code) == 4 && code[:3] == "Key" && code[3] >= 'A' && code[3] <= 'Z' {
		return ScancodeA + Scancode(code[3]-'A')
	}
	if len(code) == 6 && code[:5] == "Digit" && code[5] >= '0' && code[5] <= '9' {
		if code[5] == '0' {
			return Scancode0
		}
		return Scancode1 + Scancode(code[5]-'1')
	}
	if len(code) == 7 && code[:6] == "Numpad" && code[6] >= '0' && code[6] <= '9' {
		if code[6] == '0' {
			return ScancodeKP0
		}
		return ScancodeKP1 + Scancode(code[6]-'1')
	}

	switch code {
	case "Escape":
		return ScancodeEscape
	case "Minus":
		return ScancodeMinus
	case "Equal":
		return ScancodeEquals
	case "Backspace":
		return ScancodeBackspace
	case "Tab":
		return ScancodeTab
	case "BracketLeft":
		return ScancodeLeftBracket
	case "BracketRight":
		return ScancodeRightBracket
	case "Enter":
		return ScancodeReturn
	case "ControlLeft":
		return ScancodeLCtrl
	case "Semicolon":
		return ScancodeSemicolon
	case "Quote":
		return ScancodeApostrophe
	case "Backquote":
		return ScancodeGrave
	case "ShiftLeft":
		return ScancodeLShift
	case "Backslash":
		return ScancodeBackslash
	case "Comma":
		return ScancodeComma
	case "Period":
		return ScancodePeriod
	case "Slash":
		return ScancodeSlash
	case "ShiftRight":
		return ScancodeRShift
	case "NumpadMultiply":
		return ScancodeKPMultiply
	case "AltLeft":
		return ScancodeLAlt
	case "Space":
		return ScancodeSpace
	case "CapsLock":
		return ScancodeCapsLock
	case "F1":
		return ScancodeF1
	case "F2":
		return ScancodeF2
	case "F3":
		return ScancodeF3
	case "F4":
		return ScancodeF4
	case "F5":
		return ScancodeF5
	case "F6":
		return ScancodeF6
	case "F7":
		return ScancodeF7
	case "F8":
		return ScancodeF8
	case "F9":
		return ScancodeF9
	case "F10":
		return ScancodeF10
	case "F11":
		return ScancodeF11
	case "F12":
		return ScancodeF12
	case "F13":
		return ScancodeF13
	case "F14":
		return ScancodeF14
	case "F15":
		return ScancodeF15
	case "F16":
		return ScancodeF16
	case "F17":
		return ScancodeF17
	case "F18":
		return ScancodeF18
	case "F19":
		return ScancodeF19
	case "F20":
		return ScancodeF20
	case "F21":
		return ScancodeF21
	case "F22":
		return ScancodeF22
	case "F23":
		return ScancodeF23
	case "F24":
		return ScancodeF24
	case "Pause":
		return ScancodePause
	case "ScrollLock":
		return ScancodeScrollLock
	case "NumpadSubtract":
		return ScancodeKPMinus
	case "NumpadAdd":
		return ScancodeKPPlus
	case "NumpadDecimal":
		return ScancodeKPPeriod
	case "PrintScreen":
		return ScancodePrintScreen
	case "IntlBackslash":
		return ScancodeNonUSBackslash
	case "NumpadEqual":
		return ScancodeKPEquals
	case "Lang1":
		return ScancodeLang1
	case "Lang2":
		return ScancodeLang2
	case "NumpadComma":
		return ScancodeKPComma
	case "MediaTrackPrevious":
		return ScancodeAudioPrev
	case "MediaTrackNext":
		return ScancodeAudioNext
	case "NumpadEnter":
		return ScancodeKPEnter
	case "ControlRight":
		return ScancodeRCtrl
	case "AudioVolumeMute", "VolumeMute":
		return ScancodeAudioMute
	case "MediaPlayPause":
		return ScancodeAudioPlay
	case "MediaStop":
		return ScancodeAudioStop
	case "AudioVolumeDown", "VolumeDown":
		return ScancodeVolumeDown
	case "AudioVolumeUp", "VolumeUp":
		return ScancodeVolumeUp
	case "BrowserHome":
		return ScancodeACHome
	case "NumpadDivide":
		return ScancodeKPDivide
	case "AltRight":
		return ScancodeRAlt
	case "NumLock":
		return ScancodeNumLockClear
	case "Home":
		return ScancodeHome
	case "ArrowUp":
		return ScancodeUp
	case "PageUp":
		return ScancodePageUp
	case "ArrowLeft":
		return ScancodeLeft
	case "ArrowRight":
		return ScancodeRight
	case "End":
		return ScancodeEnd
	case "ArrowDown":
		return ScancodeDown
	case "PageDown":
		return ScancodePageDown
	case "Insert":
		return ScancodeInsert
	case "Delete":
		return ScancodeDelete
	case "MetaLeft", "MetaRight", "OSLeft", "OSRight":
		return ScancodeApplication
	case "ContextMenu":
		return ScancodeMenu
	case "Power":
		return ScancodePower
	case "BrowserSearch":
		return ScancodeACSearch
	case "BrowserFavorites":
		return ScancodeACBookmarks
	case "BrowserRefresh":
		return ScancodeACRefresh
	case "BrowserStop":
		return ScancodeACStop
	case "BrowserForward":
		return ScancodeACForward
	case "BrowserBack":
		return ScancodeACBack
	case "LaunchMediaPlayer", "MediaSelect":
		return ScancodeMediaSelect
	case "LaunchApp1":
		return ScancodeApp1
	case "LaunchMail":
		return ScancodeMail
	case "Eject":
		return ScancodeEject
	case "LaunchApp2":
		return ScancodeApp2
	case "Cut":
		return ScancodeCut
	case "Copy":
		return ScancodeCopy
	case "Paste":
		return ScancodePaste
	case "Undo":
		return ScancodeUndo
	case "Find":
		return ScancodeFind
	case "Help":
		return ScancodeHelp
	case "Select":
		return ScancodeSelect
	default:
		return ScancodeUnknown
	}
}
