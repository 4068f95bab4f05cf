package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"oui-spy.klederson.com/internal/session"
)

// Notice is the last message shown at the right of the status bar.
type Notice struct {
	Text string
	Err  bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, st session.Status, notice Notice, now time.Time) string {
	var state string
	switch {
	case st.Mode != session.Stopped:
		state = StyleStatusActive.Render("[" + strings.ToUpper(st.Mode.String()) + "]")
	case st.Baseline:
		state = StyleStatusActive.Render("[BASELINE]")
	case st.LastFailure != nil:
		state = StyleStatusError.Render("[FAILED]")
	default:
		state = StyleStatusIdle.Render("[IDLE]")
	}

	info := fmt.Sprintf(" Filters: %d", st.Filters)
	if !st.Since.IsZero() {
		info += fmt.Sprintf("  Up: %s", now.Sub(st.Since).Truncate(time.Second))
	}
	switch {
	case st.Mode == session.Detecting:
		info += fmt.Sprintf("  Hits: %d  Alerts: %d", st.Detect.Hits, st.Detect.Alerts)
	case st.Mode == session.FoxHunting && st.Fox.Locked:
		info += fmt.Sprintf("  Lock: %s %ddBm", st.Fox.Target, st.Fox.RSSI)
	case st.Baseline:
		left := st.BaselineConfig.Duration - now.Sub(st.Since)
		if left < 0 {
			left = 0
		}
		info += fmt.Sprintf("  Devices: %d  Left: %s", st.BaselineDevices, left.Truncate(time.Second))
	}

	content := state + StyleStatusBar.Foreground(ColorGreen).Render(info)

	msg := notice.Text
	if msg == "" && st.LastFailure != nil {
		msg, notice.Err = st.LastFailure.Error(), true
	}
	if msg != "" {
		sty := StyleMenuLabel
		if notice.Err {
			sty = StyleStatusError
		}
		content += "  " + sty.Render(msg)
	}

	gap := max(width-StyleStatusBar.GetHorizontalFrameSize()-lipgloss.Width(content), 0)
	// A long notice is cut rather than wrapped.
	return StyleStatusBar.Width(width).MaxHeight(1).Render(content + strings.Repeat(" ", gap))
}
