package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/radio"
)

// MenuState is what the menu bar shows on its right side.
type MenuState struct {
	Session string // empty when idle
	Medium  radio.Medium
	Stealth bool
	Source  string // adapter name or "demo"
	Audio   bool   // buzzer currently sounding
	LED     bool   // indicator currently lit
}

// RenderMenuBar renders the top menu bar.
func RenderMenuBar(width int, st MenuState) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	keys := []struct{ key, label string }{
		{"D", "etect"},
		{"F", "ox"},
		{"B", "aseline"},
		{"X", ":stop"},
		{"M", "edium"},
		{"S", "tealth"},
		{"Q", "uit"},
	}

	var menu strings.Builder
	for _, k := range keys {
		menu.WriteString("  " + StyleMenuKey.Render("["+k.key+"]") + StyleMenuLabel.Render(k.label))
	}

	status := StyleStatusIdle.Render("IDLE")
	if st.Session != "" {
		status = StyleStatusActive.Render(strings.ToUpper(st.Session))
	}
	flags := StyleMenuLabel.Render(st.Medium.Label())
	if st.Stealth {
		flags += " " + StyleStatusIdle.Render("STEALTH")
	}
	source := StyleMenuLabel.Render("Radio: " + st.Source)
	right := status + "  " + flags + "  " + source + " "
	if st.Audio {
		right = StyleWatched.Render("BUZ") + " " + right
	}
	if st.LED {
		right = StyleWatched.Render("LED") + " " + right
	}

	// Width() includes the bar's padding.
	room := width - StyleMenuBar.GetHorizontalFrameSize()
	left := StyleMenuKey.Render(title) + menu.String()
	gap := room - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		// Drop the key hints rather than wrap onto a second row.
		left = StyleMenuKey.Render(title)
		gap = max(room-lipgloss.Width(left)-lipgloss.Width(right), 0)
	}
	return StyleMenuBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
