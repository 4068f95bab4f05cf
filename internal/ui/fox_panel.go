package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/foxhunt"
	"oui-spy.klederson.com/internal/radio"
)

// RenderFoxPanel renders the proximity readout that replaces the radar
// during a fox hunt. history holds recent RSSI samples, oldest first.
func RenderFoxPanel(st foxhunt.State, history []int, width, height int, now time.Time) string {
	innerW := innerWidth(width)
	lines := panelHeader("FOX HUNT", "[X] stop", innerW)
	lines = append(lines, "")

	if !st.Locked {
		msg := "SEARCHING"
		if st.Acquired {
			msg = "SIGNAL LOST"
		}
		lines = append(lines, center(StyleStatusIdle.Render(msg), innerW))
		if !st.LastSeen.IsZero() {
			lines = append(lines, center(StyleHelp.Render(fmt.Sprintf("last %s seen %s ago", st.Target, now.Sub(st.LastSeen).Truncate(time.Second))), innerW))
		}
		return framePanel(lines, width, height, true)
	}

	interval := foxhunt.Interval(st.RSSI)
	cadence := fmt.Sprintf("%dms", interval.Milliseconds())
	if st.RSSI >= config.FoxSaturationRSSI {
		cadence = "continuous"
	}
	pulse := " "
	if st.Beeping {
		pulse = StyleWatched.Render("*")
	}
	dist := radio.RSSIToDistance(float64(st.RSSI), config.MeasuredPower, config.PathLossExp)

	lines = append(lines,
		center(StyleStatusActive.Render("LOCKED ")+pulse, innerW),
		"",
		StyleLabel.Render("  Target    ")+StyleValue.Render(st.Target.String()),
		StyleLabel.Render("  RSSI      ")+lipgloss.NewStyle().Foreground(lipgloss.Color(proximityColor(st.RSSI))).Bold(true).Render(fmt.Sprintf("%d dBm", st.RSSI)),
		StyleLabel.Render("  Distance  ")+StyleValue.Render(fmt.Sprintf("~%.1fm", dist)),
		StyleLabel.Render("  Cadence   ")+StyleValue.Render(cadence),
		"",
		StyleLabel.Render("  Signal    ")+renderSignalBar(st.RSSI, max(innerW-14, 10)),
		"",
	)
	if len(history) > 0 {
		lines = append(lines,
			StyleLabel.Render("  RSSI History:"),
			"  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(renderSparkline(history, max(innerW-4, 10))),
		)
	}
	return framePanel(lines, width, height, true)
}

func center(s string, w int) string {
	pad := (w - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
