package app

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"oui-spy.klederson.com/internal/actuator"
	"oui-spy.klederson.com/internal/adv"
	"oui-spy.klederson.com/internal/baseline"
	"oui-spy.klederson.com/internal/clock"
	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/filter"
	"oui-spy.klederson.com/internal/radar"
	"oui-spy.klederson.com/internal/radio"
	"oui-spy.klederson.com/internal/session"
	"oui-spy.klederson.com/internal/ui"
)

// maxBlips bounds the baseline records drawn on the radar; records are
// sorted strongest first.
const maxBlips = 48

type view int

const (
	viewFilters view = iota
	viewBaseline
	viewDetail
)

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	coord   *session.Coordinator
	clk     clock.Clock
	sweep   *radar.Sweep
	history *RSSIRing
	lastFox time.Time // LastSeen of the newest pushed sample
	outputs *actuator.Status
}

// Options configures the reporting model.
type Options struct {
	Source   string          // shown in the menu bar
	Baseline baseline.Config // survey started by B; Medium is the initial selection
	Clock    clock.Clock
	Outputs  *actuator.Status // mirrored actuator state; may be nil
}

// AppModel is the root Bubble Tea model for OUI-Spy.
type AppModel struct {
	width  int
	height int

	source      string
	medium      radio.Medium
	stealth     bool
	baselineCfg baseline.Config

	view   view
	cursor int
	input  ui.InputState
	notice ui.Notice

	shared *shared

	// Cached per tick or per event
	status    session.Status
	filters   []filter.Entry
	snap      *baseline.Snapshot
	detail    []adv.Element
	detailErr error
}

// New creates the model for coord.
func New(coord *session.Coordinator, opts Options) AppModel {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Baseline.Medium == 0 {
		opts.Baseline = baseline.DefaultConfig()
	}
	m := AppModel{
		source:      opts.Source,
		medium:      opts.Baseline.Medium,
		baselineCfg: opts.Baseline,
		shared: &shared{
			coord:   coord,
			clk:     opts.Clock,
			sweep:   radar.NewSweep(opts.Clock.Now()),
			history: NewRSSIRing(config.RSSIHistory),
			outputs: opts.Outputs,
		},
	}
	m.refreshFilters()
	m.snap = coord.LastBaseline()
	m.status = coord.Status()
	return m
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForEvent(m.shared.coord.Events()),
	)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.input.Active {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)

	case TickMsg:
		now := m.shared.clk.Now()
		m.shared.sweep.Update(now)
		m.status = m.shared.coord.Status()
		m.sampleFox()
		return m, tickCmd()

	case EventMsg:
		m.handleEvent(session.Event(msg))
		return m, waitForEvent(m.shared.coord.Events())
	}

	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.shared.coord
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if err := c.Stop(); err != nil && !errors.Is(err, session.ErrNotRunning) {
			m.notify(err)
		}
		return m, tea.Quit

	case "d", "D":
		m.notify(c.StartDetection(m.medium, m.stealth))

	case "f", "F":
		m.shared.history.Reset()
		m.shared.lastFox = time.Time{}
		m.notify(c.StartFoxHunt(m.stealth))

	case "b", "B":
		cfg := m.baselineCfg
		cfg.Medium = m.medium
		m.notify(c.StartBaseline(cfg))

	case "x", "X":
		m.notify(c.Stop())

	case "m", "M":
		m.medium = nextMedium(m.medium)
		m.notice = ui.Notice{Text: "medium " + m.medium.Label()}

	case "s", "S":
		m.stealth = !m.stealth
		m.notice = ui.Notice{Text: fmt.Sprintf("stealth %t (next session)", m.stealth)}

	case "t", "T":
		c.Beep()

	case "tab":
		if m.view == viewFilters {
			m.view = viewBaseline
		} else {
			m.view = viewFilters
		}
		m.cursor = 0

	case "esc":
		if m.view == viewDetail {
			m.view = viewBaseline
		}

	case "n", "N":
		if m.view == viewFilters {
			m.input = ui.InputState{Active: true}
		}

	case "c", "C":
		if m.view == viewFilters {
			if err := c.ClearFilters(); err != nil {
				m.notify(err)
			} else {
				m.notice = ui.Notice{Text: "filters cleared"}
			}
			m.refreshFilters()
		}

	case "o", "O", "a", "A":
		if rec, ok := m.selected(); ok && m.view != viewFilters {
			full := msg.String() == "a" || msg.String() == "A"
			if e, err := c.Promote(rec.Address, full); err != nil {
				m.notify(err)
			} else {
				m.notice = ui.Notice{Text: "watching " + e.Pretty()}
			}
			m.refreshFilters()
		}

	case "enter":
		if rec, ok := m.selected(); ok && m.view == viewBaseline {
			m.detail, m.detailErr = c.DecodePayload(rec.Address)
			m.view = viewDetail
		}

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}

	case "home":
		m.cursor = 0

	case "end":
		if n := m.listLen(); n > 0 {
			m.cursor = n - 1
		}
	}

	return m, nil
}

func (m AppModel) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.input = ui.InputState{}
		return m.handleKey(msg)
	case tea.KeyEsc:
		m.input = ui.InputState{}
	case tea.KeyEnter:
		if e, err := m.shared.coord.AddFilter(m.input.Text); err != nil {
			m.notify(err)
		} else {
			m.notice = ui.Notice{Text: "added " + e.Pretty()}
			m.input = ui.InputState{}
		}
		m.refreshFilters()
	case tea.KeyBackspace:
		if n := len(m.input.Text); n > 0 {
			m.input.Text = m.input.Text[:n-1]
		}
	case tea.KeyRunes:
		if len(m.input.Text) < 17 {
			m.input.Text += string(msg.Runes)
		}
	}
	return m, nil
}

func (m *AppModel) handleEvent(e session.Event) {
	switch e.Kind {
	case session.EventSessionStarted:
		m.notice = ui.Notice{Text: string(e.Session) + " started"}
	case session.EventSessionStopped:
		m.notice = ui.Notice{Text: string(e.Session) + " stopped"}
	case session.EventSessionFailed:
		m.notice = ui.Notice{Text: fmt.Sprintf("%s aborted: %v", e.Session, e.Err), Err: true}
	case session.EventAlert:
		m.notice = ui.Notice{Text: fmt.Sprintf("ALERT %s %s %ddBm", e.Alert.Address, e.Alert.Medium.Label(), e.Alert.RSSI), Err: true}
	case session.EventAcquired:
		m.notice = ui.Notice{Text: "target acquired " + e.Target.String()}
	case session.EventLost:
		m.notice = ui.Notice{Text: "target lost " + e.Target.String()}
	case session.EventBaselineDone:
		m.snap = e.Snapshot
		m.view = viewBaseline
		m.cursor = 0
		if e.Snapshot != nil {
			m.notice = ui.Notice{Text: fmt.Sprintf("baseline done: %d devices", len(e.Snapshot.Records))}
		}
	}
}

// sampleFox records a new RSSI point whenever the lock saw the target again.
func (m *AppModel) sampleFox() {
	fox := m.status.Fox
	if m.status.Mode != session.FoxHunting || !fox.Locked || !fox.LastSeen.After(m.shared.lastFox) {
		return
	}
	m.shared.history.Push(fox.RSSI)
	m.shared.lastFox = fox.LastSeen
}

func (m *AppModel) notify(err error) {
	if err != nil {
		m.notice = ui.Notice{Text: err.Error(), Err: true}
	}
}

func (m *AppModel) refreshFilters() {
	entries, err := m.shared.coord.Filters()
	if err != nil {
		m.notify(err)
		return
	}
	m.filters = entries
	if m.view == viewFilters && m.cursor >= len(entries) {
		m.cursor = max(len(entries)-1, 0)
	}
}

func (m AppModel) listLen() int {
	switch m.view {
	case viewFilters:
		return len(m.filters)
	case viewBaseline:
		if m.snap != nil {
			return len(m.snap.Records)
		}
	}
	return 0
}

func (m AppModel) selected() (baseline.Record, bool) {
	if m.snap == nil || m.cursor < 0 || m.cursor >= len(m.snap.Records) {
		return baseline.Record{}, false
	}
	return m.snap.Records[m.cursor], true
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing OUI-Spy..."
	}
	now := m.shared.clk.Now()

	menuH := 1
	statusH := 1
	bodyH := m.height - menuH - statusH
	if bodyH < 5 {
		bodyH = 5
	}

	leftW := m.width * 3 / 5
	if leftW < 30 {
		leftW = 30
	}
	rightW := m.width - leftW
	if rightW < 24 {
		rightW = 24
		leftW = m.width - rightW
	}

	menu := ui.MenuState{
		Session: m.sessionLabel(),
		Medium:  m.medium,
		Stealth: m.stealth,
		Source:  m.source,
	}
	if o := m.shared.outputs; o != nil {
		menu.Audio, menu.LED = o.State()
	}
	menuBar := ui.RenderMenuBar(m.width, menu)

	var left string
	if m.status.Mode == session.FoxHunting {
		left = ui.RenderFoxPanel(m.status.Fox, m.shared.history.Values(), leftW, bodyH, now)
	} else {
		innerW := max(leftW-4, 5)
		innerH := max(bodyH-5, 3) // border, header, legend
		content := radar.Render(innerW, innerH, m.blips(now), m.shared.sweep)
		title := "RADAR"
		if m.snap != nil {
			title = fmt.Sprintf("RADAR  baseline %s", m.snap.Finished.Format("15:04:05"))
		}
		left = ui.RenderRadarPanel(leftW, bodyH, title, content, radar.RenderLegend(innerW))
	}

	var right string
	switch m.view {
	case viewFilters:
		right = ui.RenderFilterPanel(m.filters, rightW, bodyH, m.cursor, m.input)
	case viewBaseline:
		right = ui.RenderDeviceList(m.snap, m.filters, rightW, bodyH, m.cursor)
	case viewDetail:
		rec, _ := m.selected()
		right = ui.RenderDetailPanel(rec, m.detail, m.detailErr, rightW, bodyH)
	}

	statusBar := ui.RenderStatusBar(m.width, m.status, m.notice, now)
	return ui.ComposeLayout(menuBar, left, right, statusBar)
}

func (m AppModel) sessionLabel() string {
	switch {
	case m.status.Mode != session.Stopped:
		return m.status.Mode.String()
	case m.status.Baseline:
		return string(session.KindBaseline)
	}
	return ""
}

// blips draws the strongest baseline records plus, while detecting, the
// live watch-list hit.
func (m AppModel) blips(now time.Time) []radar.Blip {
	var out []radar.Blip
	if m.snap != nil {
		for i := range m.snap.Records {
			if i == maxBlips {
				break
			}
			r := &m.snap.Records[i]
			out = append(out, radar.Blip{
				Address: r.Address,
				Label:   r.Name,
				Medium:  r.Sources,
				RSSI:    r.RSSI,
				Target:  filter.MatchAddress(r.Address, m.filters),
			})
		}
	}
	d := m.status.Detect
	if m.status.Mode == session.Detecting && !d.LastSeen.IsZero() && now.Sub(d.LastSeen) <= config.StaleWindow {
		out = append(out, radar.Blip{
			Address: d.LastAddress,
			Medium:  d.LastMedium,
			RSSI:    d.LastRSSI,
			Target:  true,
		})
	}
	return out
}

func nextMedium(cur radio.Medium) radio.Medium {
	switch cur {
	case radio.MediumWiFi:
		return radio.MediumBLE
	case radio.MediumBLE:
		return radio.MediumBoth
	}
	return radio.MediumWiFi
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// waitForEvent blocks on the coordinator's event channel; Update re-arms it
// after every delivered event.
func waitForEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg(e)
	}
}
