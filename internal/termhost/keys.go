package termhost

import "strings"

// specialKeys maps Bubble Tea key names to the bracketed notation the toolkit
// uses for bindings.
var specialKeys = map[string]string{
	"enter":     "<CR>",
	"esc":       "<Esc>",
	"escape":    "<Esc>",
	"tab":       "<Tab>",
	"backspace": "<BS>",
	"delete":    "<Del>",
	"space":     "<Space>",
	"up":        "<Up>",
	"down":      "<Down>",
	"left":      "<Left>",
	"right":     "<Right>",
	"home":      "<Home>",
	"end":       "<End>",
	"pgup":      "<PageUp>",
	"pgdown":    "<PageDown>",
}

// Notation converts a Bubble Tea key string (tea.KeyPressMsg.String()) to
// the toolkit's key notation: "enter" becomes "<CR>", "ctrl+x" becomes
// "<C-x>", plain runes map to themselves.
func Notation(key string) string {
	var mods strings.Builder
	rest := key
	for {
		switch {
		case strings.HasPrefix(rest, "ctrl+"):
			mods.WriteString("C-")
			rest = strings.TrimPrefix(rest, "ctrl+")
		case strings.HasPrefix(rest, "alt+"):
			mods.WriteString("M-")
			rest = strings.TrimPrefix(rest, "alt+")
		case strings.HasPrefix(rest, "shift+"):
			mods.WriteString("S-")
			rest = strings.TrimPrefix(rest, "shift+")
		default:
			base := rest
			if special, ok := specialKeys[base]; ok {
				if mods.Len() == 0 {
					return special
				}
				// Re-wrap the bare name inside the modifier brackets.
				base = strings.Trim(special, "<>")
				return "<" + mods.String() + base + ">"
			}
			if mods.Len() == 0 {
				return base
			}
			return "<" + mods.String() + base + ">"
		}
	}
}
