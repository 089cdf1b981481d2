package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines key bindings for the review TUI
type keyMap struct {
	Up          key
	Down        key
	Top         key
	Bottom      key
	Toggle      key
	BlockMedium key
	ShowHelp    key
	Quit        key
	ForceQuit   key
}

// key represents a key binding with help text
type key struct {
	tea.Key
	help string
}

// shortHelp returns key bindings for the status bar
func (k keyMap) shortHelp() []key {
	return []key{k.Toggle, k.BlockMedium, k.ShowHelp, k.Quit}
}

// fullHelp returns all key bindings
func (k keyMap) fullHelp() []key {
	return []key{
		k.Up, k.Down,
		k.Top, k.Bottom,
		k.Toggle, k.BlockMedium,
		k.ShowHelp, k.Quit, k.ForceQuit,
	}
}

// Help generates the help view
func (k keyMap) Help() helpWrapper {
	return helpWrapper{
		keyMap: k,
	}
}

// helpWrapper wraps the keyMap for help display
type helpWrapper struct {
	keyMap keyMap
}

// String returns the full help text, one binding per line
func (h helpWrapper) String() string {
	var s string
	for _, k := range h.keyMap.fullHelp() {
		if k.help != "" {
			s += "  " + k.help + "\n"
		}
	}
	return s
}

// View returns the short help line
func (h helpWrapper) View() string {
	var s string
	for _, k := range h.keyMap.shortHelp() {
		s += "[" + k.help + "] "
	}
	return s
}

// defaultKeyMap creates the default key bindings
func defaultKeyMap() keyMap {
	return keyMap{
		Up: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'k'}},
			help: "↑/k up",
		},
		Down: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'j'}},
			help: "↓/j down",
		},
		Top: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'g'}},
			help: "gg first cell",
		},
		Bottom: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'G'}},
			help: "G last cell",
		},
		Toggle: key{
			Key:  tea.Key{Type: tea.KeyEnter},
			help: "enter details",
		},
		BlockMedium: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'m'}},
			help: "m block medium",
		},
		ShowHelp: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'?'}},
			help: "? help",
		},
		Quit: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'q'}},
			help: "q quit",
		},
		ForceQuit: key{
			Key:  tea.Key{Type: tea.KeyEsc},
			help: "esc quit",
		},
	}
}
