package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"oui-spy.klederson.com/internal/adv"
	"oui-spy.klederson.com/internal/baseline"
	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/radio"
)

type field struct{ label, value string }

// RenderDetailPanel renders one baseline record with its decoded
// advertisement. decodeErr explains why elements is empty.
func RenderDetailPanel(rec baseline.Record, elements []adv.Element, decodeErr error, width, height int) string {
	innerW := innerWidth(width)
	lines := panelHeader("DEVICE DETAIL", "[ESC]", innerW)
	lines = append(lines, "")

	name := rec.Name
	if name == "" {
		name = "UNKNOWN"
	}
	dist := radio.RSSIToDistance(float64(rec.RSSI), config.MeasuredPower, config.PathLossExp)
	fields := []field{
		{"Name", name},
		{"MAC", rec.Address.String()},
		{"OUI", rec.Address.OUI()},
		{"Source", rec.Sources.Label()},
		{"RSSI", fmt.Sprintf("%d dBm (max)", rec.RSSI)},
		{"Distance", fmt.Sprintf("~%.1fm", dist)},
		{"Seen", fmt.Sprintf("%d times over %s", rec.Sightings, rec.LastSeen.Sub(rec.FirstSeen).Round(100*time.Millisecond))},
	}
	if w := rec.WiFi; w != nil {
		fields = append(fields,
			field{"Channel", fmt.Sprintf("%d (%d MHz %s)", w.Channel, w.Frequency, w.Band())},
			field{"Auth", string(w.Auth)},
			field{"Ciphers", fmt.Sprintf("%s / %s", orDash(w.PairwiseCipher), orDash(w.GroupCipher))},
		)
		if w.Hidden {
			fields = append(fields, field{"SSID", "hidden"})
		}
	}
	for _, f := range fields {
		lines = append(lines, StyleLabel.Render(fmt.Sprintf("  %-10s", f.label))+StyleValue.Render(f.value))
	}

	lines = append(lines, "")
	barWidth := max(innerW-22, 10)
	lines = append(lines, StyleLabel.Render("  Signal    ")+renderSignalBar(rec.RSSI, barWidth))
	lines = append(lines, "", StylePanelTitle.Render("ADVERTISEMENT"))

	switch {
	case decodeErr != nil:
		lines = append(lines, StyleHelp.Render("  "+decodeErr.Error()))
	case len(elements) == 0:
		lines = append(lines, StyleHelp.Render("  no AD structures"))
	}
	for _, e := range elements {
		text := e.String()
		if len(text) > innerW-2 {
			text = text[:innerW-2]
		}
		lines = append(lines, "  "+StyleDeviceRSSI.Render(text))
	}
	return framePanel(lines, width, height, true)
}

func renderSignalBar(rssi int, width int) string {
	// -100..-30 dBm fills 0..width
	ratio := (float64(rssi) + 100.0) / 70.0
	ratio = math.Max(0, math.Min(1, ratio))
	filled := int(math.Round(ratio * float64(width)))

	bar := strings.Repeat("|", filled) + strings.Repeat("-", width-filled)
	filledPart := lipgloss.NewStyle().Foreground(lipgloss.Color(proximityColor(rssi))).Render(bar[:filled])
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(bar[filled:])
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

func proximityColor(rssi int) string {
	switch {
	case rssi >= config.FoxSaturationRSSI:
		return "#FF3300"
	case rssi >= -55:
		return "#FFAA00"
	case rssi >= -70:
		return "#00FF41"
	}
	return "#008F11"
}

func renderSparkline(values []int, width int) string {
	if len(values) == 0 {
		return ""
	}
	chars := []byte{'_', '.', '-', '~', '^'}

	if len(values) > width {
		values = values[len(values)-width:]
	}
	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = min(minV, v)
		maxV = max(maxV, v)
	}
	rng := max(maxV-minV, 1)

	var sb strings.Builder
	for _, v := range values {
		idx := (v - minV) * (len(chars) - 1) / rng
		sb.WriteByte(chars[idx])
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
