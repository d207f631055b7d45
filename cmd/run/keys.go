package main

import (
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasm-playhost/input"
)

// playerKeys are the bindings the player keeps for itself. Every other
// key goes to the module.
type playerKeys struct {
	Quit  key.Binding
	Help  key.Binding
	Focus key.Binding
}

func defaultPlayerKeys() playerKeys {
	return playerKeys{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "toggle help"),
		),
		Focus: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "toggle input focus"),
		),
	}
}

func (k playerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

func (k playerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit, k.Focus, k.Help}}
}

var namedKeys = map[tea.KeyType]input.Event{
	tea.KeyEnter:     {Key: "Enter", Code: "Enter"},
	tea.KeyTab:       {Key: "Tab", Code: "Tab"},
	tea.KeyBackspace: {Key: "Backspace", Code: "Backspace"},
	tea.KeyEsc:       {Key: "Escape", Code: "Escape"},
	tea.KeySpace:     {Key: " ", Code: "Space"},
	tea.KeyUp:        {Key: "ArrowUp", Code: "ArrowUp"},
	tea.KeyDown:      {Key: "ArrowDown", Code: "ArrowDown"},
	tea.KeyLeft:      {Key: "ArrowLeft", Code: "ArrowLeft"},
	tea.KeyRight:     {Key: "ArrowRight", Code: "ArrowRight"},
	tea.KeyHome:      {Key: "Home", Code: "Home"},
	tea.KeyEnd:       {Key: "End", Code: "End"},
	tea.KeyPgUp:      {Key: "PageUp", Code: "PageUp"},
	tea.KeyPgDown:    {Key: "PageDown", Code: "PageDown"},
	tea.KeyDelete:    {Key: "Delete", Code: "Delete"},
	tea.KeyInsert:    {Key: "Insert", Code: "Insert"},
	tea.KeyF1:        {Key: "F1", Code: "F1"},
	tea.KeyF2:        {Key: "F2", Code: "F2"},
	tea.KeyF3:        {Key: "F3", Code: "F3"},
	tea.KeyF4:        {Key: "F4", Code: "F4"},
	tea.KeyF5:        {Key: "F5", Code: "F5"},
	tea.KeyF6:        {Key: "F6", Code: "F6"},
	tea.KeyF7:        {Key: "F7", Code: "F7"},
	tea.KeyF8:        {Key: "F8", Code: "F8"},
	tea.KeyF9:        {Key: "F9", Code: "F9"},
	tea.KeyF10:       {Key: "F10", Code: "F10"},
	tea.KeyF11:       {Key: "F11", Code: "F11"},
	tea.KeyF12:       {Key: "F12", Code: "F12"},
}

// Physical keys of the US layout for punctuation, shifted or not.
var punctuationCodes = map[rune]string{
	'-': "Minus", '_': "Minus",
	'=': "Equal", '+': "Equal",
	'[': "BracketLeft", '{': "BracketLeft",
	']': "BracketRight", '}': "BracketRight",
	'\\': "Backslash", '|': "Backslash",
	';': "Semicolon", ':': "Semicolon",
	'\'': "Quote", '"': "Quote",
	',': "Comma", '<': "Comma",
	'.': "Period", '>': "Period",
	'/': "Slash", '?': "Slash",
	'`': "Backquote", '~': "Backquote",
	'!': "Digit1", '@': "Digit2", '#': "Digit3", '$': "Digit4", '%': "Digit5",
	'^': "Digit6", '&': "Digit7", '*': "Digit8", '(': "Digit9", ')': "Digit0",
}

// keyEvent converts a terminal key press into the browser-style event the
// input translator expects. Terminals only report presses; the player
// synthesizes the release.
func keyEvent(msg tea.KeyMsg) (input.Event, bool) {
	if msg.Paste {
		return input.Event{}, false
	}
	if ev, ok := namedKeys[msg.Type]; ok {
		return ev, true
	}
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return input.Event{}, false
	}

	r := msg.Runes[0]
	ev := input.Event{Key: string(r)}
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		ev.Code = "Key" + string(unicode.ToUpper(r))
	case r >= '0' && r <= '9':
		ev.Code = "Digit" + string(r)
	default:
		ev.Code = punctuationCodes[r]
		if ev.Code == "" {
			ev.Code = "Unidentified"
		}
	}
	return ev, true
}
