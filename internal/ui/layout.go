package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ComposeLayout joins the left and right panels horizontally, with menu bar
// on top and status bar on bottom.
func ComposeLayout(menuBar, left, right, statusBar string) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}

// framePanel borders lines and clamps the result to exactly height rows.
// lipgloss Height() only sets a minimum; it won't truncate overflow.
func framePanel(lines []string, width, height int, active bool) string {
	innerH := height - 2
	if innerH < 1 {
		innerH = 1
	}
	if len(lines) > innerH {
		lines = lines[:innerH]
	}
	for len(lines) < innerH {
		lines = append(lines, "")
	}

	sty := StylePanelBorder
	if active {
		sty = StylePanelActive
	}
	rendered := sty.Width(width - 2).Height(innerH).Render(strings.Join(lines, "\n"))

	out := strings.Split(rendered, "\n")
	if len(out) > height {
		out = out[:height]
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

// panelHeader is the title line plus separator every panel starts with.
func panelHeader(title, hint string, innerW int) []string {
	t := StylePanelTitle.Render(title)
	h := StyleHelp.Render(hint)
	gap := innerW - lipgloss.Width(t) - lipgloss.Width(h)
	if gap < 1 {
		gap = 1
	}
	return []string{
		t + strings.Repeat(" ", gap) + h,
		StyleSeparator.Render(strings.Repeat("-", innerW)),
	}
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	if len(s) < w {
		return s + strings.Repeat(" ", w-len(s))
	}
	return s
}

func innerWidth(width int) int {
	if w := width - 4; w > 10 {
		return w
	}
	return 10
}
