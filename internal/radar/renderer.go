package radar

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/radio"
)

var (
	colorBright     = lipgloss.Color("#00FF41")
	colorMid        = lipgloss.Color("#008F11")
	colorDim        = lipgloss.Color("#004A0A")
	colorDeviceBLE  = lipgloss.Color("#00FFAA")
	colorDeviceWiFi = lipgloss.Color("#FFCC00")
	colorDeviceBoth = lipgloss.Color("#33FF66")
	colorTarget     = lipgloss.Color("#FF3300")

	styleCenter   = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleRing     = lipgloss.NewStyle().Foreground(colorMid)
	styleDot      = lipgloss.NewStyle().Foreground(colorDim)
	styleLit      = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleLabelDim = lipgloss.NewStyle().Foreground(colorMid)
	styleTarget   = lipgloss.NewStyle().Foreground(colorTarget).Bold(true)
)

const maxLabelLen = 8

// Blip is one device drawn on the radar. Distance comes from RSSI, the
// angle from the address.
type Blip struct {
	Address radio.Address
	Label   string
	Medium  radio.Medium
	RSSI    int
	Target  bool // watch-list hit
}

// Symbol is the glyph drawn at the blip position.
func (b *Blip) Symbol() string {
	switch {
	case b.Target:
		return "@"
	case b.Medium == radio.MediumBoth:
		return "#"
	case b.Medium == radio.MediumWiFi:
		return "W"
	}
	return "*"
}

func (b *Blip) style() lipgloss.Style {
	switch {
	case b.Target:
		return styleTarget
	case b.Medium == radio.MediumBoth:
		return lipgloss.NewStyle().Foreground(colorDeviceBoth).Bold(true)
	case b.Medium == radio.MediumWiFi:
		return lipgloss.NewStyle().Foreground(colorDeviceWiFi).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(colorDeviceBLE).Bold(true)
}

type blipPos struct {
	col, row int
	blip     *Blip
	label    string
	labelCol int
	labelRow int
}

// Render produces the complete radar display as a styled string.
func Render(width, height int, blips []Blip, sweep *Sweep) string {
	if width < 10 || height < 5 {
		return ""
	}

	centerX := width / 2
	centerY := height / 2
	radius := float64(min(centerX-1, int(float64(centerY-1)/config.AspectRatio)))
	if radius < 3 {
		radius = 3
	}

	ringRadii := make([]float64, config.RingCount)
	for i := range ringRadii {
		ringRadii[i] = radius * float64(i+1) / float64(config.RingCount)
	}

	positions := place(blips, centerX, centerY, radius, width)

	type labelCell struct {
		idx     int
		charIdx int
	}
	labels := make(map[int]labelCell)
	cells := make(map[int]int, len(positions))
	for i, p := range positions {
		cells[p.row*width+p.col] = i
		for ci := 0; ci < len(p.label); ci++ {
			labels[p.labelRow*width+p.labelCol+ci] = labelCell{idx: i, charIdx: ci}
		}
	}

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			key := row*width + col
			angle := CellAngle(col, row, centerX, centerY)
			if i, ok := cells[key]; ok {
				sb.WriteString(renderBlip(positions[i].blip, sweep, angle))
				continue
			}
			if lc, ok := labels[key]; ok {
				p := positions[lc.idx]
				sb.WriteString(renderLabel(p.blip, sweep, angle, p.label[lc.charIdx]))
				continue
			}
			sb.WriteString(renderCell(col, row, centerX, centerY, radius, ringRadii, sweep))
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// place computes blip positions and drops labels that would collide.
func place(blips []Blip, centerX, centerY int, radius float64, width int) []blipPos {
	type segment struct{ start, end int }
	occupied := make(map[int][]segment)
	free := func(row, col, n int) bool {
		for _, seg := range occupied[row] {
			if col < seg.end && col+n > seg.start {
				return false
			}
		}
		return true
	}

	out := make([]blipPos, 0, len(blips))
	for i := range blips {
		b := &blips[i]
		r := RSSIToRadius(b.RSSI, radius)
		angle := Bearing(b.Address)
		dc := centerX + int(math.Round(r*math.Sin(angle)))
		dr := centerY - int(math.Round(r*math.Cos(angle)*config.AspectRatio))

		label := Callsign(b)
		lc := dc + 2
		if lc+len(label) >= width {
			lc = dc - len(label) - 1
		}
		if lc < 0 {
			lc = 0
		}
		lr := dr
		switch {
		case free(dr, lc, len(label)):
		case free(dr+1, lc, len(label)):
			lr = dr + 1
		case free(dr-1, lc, len(label)):
			lr = dr - 1
		default:
			label = ""
		}

		out = append(out, blipPos{col: dc, row: dr, blip: b, label: label, labelCol: lc, labelRow: lr})
		occupied[dr] = append(occupied[dr], segment{dc, dc + 1})
		if label != "" {
			occupied[lr] = append(occupied[lr], segment{lc, lc + len(label)})
		}
	}
	return out
}

// Callsign is the short label shown next to a blip: its name, or a hash
// tag taken from the address bearing.
func Callsign(b *Blip) string {
	if b.Label != "" {
		name := b.Label
		if len(name) > maxLabelLen {
			name = name[:maxLabelLen]
		}
		return name
	}
	return fmt.Sprintf("#%02X%X", b.Address[4], b.Address[5]&0x0F)
}

func renderBlip(b *Blip, sweep *Sweep, angle float64) string {
	if !b.Target && sweep.Intensity(angle) > 0.5 {
		return styleLit.Render(b.Symbol())
	}
	return b.style().Render(b.Symbol())
}

func renderLabel(b *Blip, sweep *Sweep, angle float64, ch byte) string {
	s := string(ch)
	switch {
	case b.Target:
		return styleTarget.Render(s)
	case sweep.Intensity(angle) > 0.5:
		return styleLit.Render(s)
	case b.Label == "":
		return styleLabelDim.Render(s)
	}
	return b.style().UnsetBold().Render(s)
}

func renderCell(col, row, centerX, centerY int, radius float64, ringRadii []float64, sweep *Sweep) string {
	dist := CellDistance(col, row, centerX, centerY)
	angle := CellAngle(col, row, centerX, centerY)

	if dist > radius+0.5 {
		return " "
	}
	if col == centerX && row == centerY {
		return styleCenter.Render("+")
	}
	if col == centerX && dist <= radius {
		return renderSweepChar('|', sweep, angle)
	}
	if row == centerY && dist <= radius {
		return renderSweepChar('-', sweep, angle)
	}
	for _, ringR := range ringRadii {
		if math.Abs(dist-ringR) < 0.8 {
			return renderSweepChar(RingChar(angle), sweep, angle)
		}
	}
	if dist <= radius {
		return renderSweepChar('.', sweep, angle)
	}
	return " "
}

func renderSweepChar(ch rune, sweep *Sweep, angle float64) string {
	color := sweepColor(sweep.Intensity(angle))
	if color == "" {
		if ch == '.' {
			return styleDot.Render(".")
		}
		return styleRing.Render(string(ch))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(ch))
}

func sweepColor(intensity float64) string {
	switch {
	case intensity <= 0:
		return ""
	case intensity > 0.8:
		return "#00FF41"
	case intensity > 0.5:
		return "#00CC33"
	case intensity > 0.3:
		return "#00AA22"
	}
	return "#005511"
}

// RenderLegend produces the radar legend line.
func RenderLegend(width int) string {
	legend := "   " +
		lipgloss.NewStyle().Foreground(colorDeviceBLE).Render("* BLE") + "  " +
		lipgloss.NewStyle().Foreground(colorDeviceWiFi).Render("W Wi-Fi") + "  " +
		lipgloss.NewStyle().Foreground(colorDeviceBoth).Render("# both") + "  " +
		styleTarget.Render("@ target")

	pad := (width - lipgloss.Width(legend)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + legend
}
