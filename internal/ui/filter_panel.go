package ui

import (
	"fmt"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/filter"
)

// InputState is the inline editor used to add a filter.
type InputState struct {
	Active bool
	Text   string
}

// RenderFilterPanel renders the watch-list with the add-filter prompt.
func RenderFilterPanel(entries []filter.Entry, width, height, cursor int, in InputState) string {
	innerW := innerWidth(width)
	title := fmt.Sprintf("FILTERS [%d/%d]", len(entries), config.FilterCapacity)
	lines := panelHeader(title, "[N]ew [C]lear", innerW)

	if in.Active {
		lines = append(lines, StyleInput.Render(" > "+in.Text+"_"), StyleHelp.Render("   6 or 12 hex digits, ENTER to add, ESC to cancel"))
	} else {
		lines = append(lines, "", "")
	}

	space := height - 2 - len(lines)
	if space < 1 {
		space = 1
	}
	if len(entries) == 0 {
		lines = append(lines, StyleHelp.Render(" Watch-list empty."), StyleHelp.Render(" Detection and fox hunt need at least one filter."))
		return framePanel(lines, width, height, true)
	}

	viewStart := 0
	if cursor >= space {
		viewStart = cursor - space + 1
	}
	for i := viewStart; i < len(entries) && i-viewStart < space; i++ {
		e := entries[i]
		kind := "ADDR"
		if e.IsPrefix() {
			kind = "OUI "
		}
		raw := fmt.Sprintf("%3d  %s  %s", i+1, kind, e.Pretty())
		if i == cursor {
			lines = append(lines, StyleCursorRow.Render(truncRaw(raw, innerW)))
			continue
		}
		lines = append(lines, StyleLabel.Render(fmt.Sprintf("%3d  %s  ", i+1, kind))+StyleValue.Render(e.Pretty()))
	}
	return framePanel(lines, width, height, true)
}
