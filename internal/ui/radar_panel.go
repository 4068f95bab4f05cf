package ui

import "strings"

// RenderRadarPanel wraps radar content with a titled border.
// The radar itself is rendered by the caller so ui does not import radar.
func RenderRadarPanel(width, height int, title, radarContent, legend string) string {
	lines := panelHeader(title, "", innerWidth(width))
	lines = append(lines, strings.Split(radarContent, "\n")...)
	lines = append(lines, legend)
	return framePanel(lines, width, height, false)
}
