package ui

import (
	"fmt"

	"oui-spy.klederson.com/internal/baseline"
	"oui-spy.klederson.com/internal/filter"
)

const linesPerRecord = 4 // 3 content + 1 blank

// RenderDeviceList renders the scrollable baseline result list. Records
// already on the watch-list are marked with '!'.
func RenderDeviceList(snap *baseline.Snapshot, watch []filter.Entry, width, height, cursor int) string {
	innerW := innerWidth(width)

	title := "BASELINE"
	if snap != nil {
		wifi, ble, both := snap.CountBySource()
		title = fmt.Sprintf("BASELINE [%d] W:%d B:%d both:%d", len(snap.Records), wifi, ble, both)
	}
	lines := panelHeader(title, "[O]UI [A]ddr [ENTER]", innerW)

	space := height - 2 - len(lines)
	if space < 1 {
		space = 1
	}

	if snap == nil || len(snap.Records) == 0 {
		lines = append(lines, "",
			StyleHelp.Render(" No baseline results."),
			StyleHelp.Render(" Press B to run a survey."))
		return framePanel(lines, width, height, true)
	}

	maxVisible := space / linesPerRecord
	if maxVisible < 1 {
		maxVisible = 1
	}
	viewStart := 0
	if cursor >= maxVisible {
		viewStart = cursor - maxVisible + 1
	}

	used := 0
	for i := viewStart; i < len(snap.Records) && used < space; i++ {
		rec := &snap.Records[i]
		watched := filter.MatchAddress(rec.Address, watch)
		for _, l := range renderRecord(rec, innerW, i == cursor, watched) {
			if used >= space {
				break
			}
			lines = append(lines, l)
			used++
		}
	}
	return framePanel(lines, width, height, true)
}

func renderRecord(r *baseline.Record, maxW int, isCursor, watched bool) []string {
	name := r.Name
	if name == "" {
		name = "<unnamed>"
	}
	if nameMax := max(maxW-18, 4); len(name) > nameMax {
		name = name[:nameMax]
	}
	mark := " "
	if watched {
		mark = "!"
	}
	pay := ""
	if r.HasPayload() {
		pay = " +adv"
	}
	tag := "[" + r.Sources.Label() + "]"

	extra := ""
	if r.WiFi != nil {
		extra = fmt.Sprintf("  ch%d %s", r.WiFi.Channel, r.WiFi.Auth)
		if b := r.WiFi.Band(); b != "" {
			extra = fmt.Sprintf("  %s ch%d %s", b, r.WiFi.Channel, r.WiFi.Auth)
		}
	}
	mac := r.Address.String()
	rssi := fmt.Sprintf("%ddBm", r.RSSI)
	seen := fmt.Sprintf("x%d", r.Sightings)

	if isCursor {
		raw1 := truncRaw(fmt.Sprintf(">> %s %s %s%s", mark, name, tag, pay), maxW)
		raw2 := truncRaw("      "+mac, maxW)
		raw3 := truncRaw(fmt.Sprintf("      %s  %s%s", rssi, seen, extra), maxW)
		return []string{StyleCursorRow.Render(raw1), StyleCursorRow.Render(raw2), StyleCursorRow.Render(raw3), ""}
	}

	medium := MediumStyle(r.Sources)
	markStr := mark
	if watched {
		markStr = StyleWatched.Render(mark)
	}
	line1 := fmt.Sprintf("   %s %s %s%s", markStr, StyleDeviceName.Render(name), medium.Render(tag), StyleHelp.Render(pay))
	line2 := "      " + StyleDeviceMAC.Render(mac)
	line3 := fmt.Sprintf("      %s  %s", StyleDeviceRSSI.Render(rssi), StyleHelp.Render(seen)) + medium.Render(extra)
	return []string{line1, line2, line3, ""}
}
