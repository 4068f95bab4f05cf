package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"oui-spy.klederson.com/internal/actuator"
	"oui-spy.klederson.com/internal/baseline"
	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/filter"
	"oui-spy.klederson.com/internal/kv"
	"oui-spy.klederson.com/internal/logger"
	"oui-spy.klederson.com/internal/radio"
	"oui-spy.klederson.com/internal/session"
)

// env is what every command is built from: config, logger and the
// persisted watch-list, plus the radio side once armed.
type env struct {
	cfg      *config.File
	log      *slog.Logger
	closeLog func() error
	db       kv.Store
	filters  *filter.Store

	act     actuator.Actuator
	outputs *actuator.Status
	coord   *session.Coordinator
	source  string
}

// openEnv loads config and the filter store. tui routes console logging
// away from the terminal the TUI draws on.
func openEnv(tui bool) (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDemo {
		cfg.Radio.Demo = true
	}
	if flagAdapter != "" {
		cfg.Radio.Adapter = flagAdapter
	}

	rt := &env{cfg: cfg, closeLog: func() error { return nil }}
	switch out := strings.ToLower(cfg.Logger.Output); {
	case tui && (out == "" || out == "stdout" || out == "stderr"):
		rt.log = logger.Discard()
	default:
		rt.log, rt.closeLog, err = logger.New(cfg.Logger)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Storage.Path == ":memory:" {
		rt.db = kv.NewMemory()
	} else if rt.db, err = kv.OpenSQLite(cfg.Storage.Path); err != nil {
		rt.closeLog()
		return nil, err
	}

	rt.filters = filter.NewStore(kv.NewIndexed(rt.db, cfg.Storage.Namespace), rt.log)
	n, err := rt.filters.Load()
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.log.Info("filters loaded", "count", n, "path", cfg.Storage.Path)
	return rt, nil
}

// setup opens the env and arms actuator, radio and coordinator.
func setup(tui bool) (*env, error) {
	rt, err := openEnv(tui)
	if err != nil {
		return nil, err
	}
	if rt.act, err = actuator.Open(rt.cfg.Actuator, rt.log); err != nil {
		rt.Close()
		return nil, err
	}

	var r radio.Radio
	if rt.cfg.Radio.Demo {
		entries, _ := rt.filters.Entries()
		d := radio.NewDemo(time.Now().UnixNano(), demoTarget(entries))
		r = radio.Radio{BLE: d, WiFi: d}
		rt.source = "demo"
	} else {
		r.BLE = radio.NewBLEScanner()
		if radio.WiFiScannerAvailable() {
			r.WiFi = radio.NewWiFiScanner(rt.cfg.Radio.WiFiInterface)
		} else {
			rt.log.Warn("no Wi-Fi scanner found, Wi-Fi sessions unavailable")
		}
		rt.source = rt.cfg.Radio.Adapter
	}

	rt.outputs = &actuator.Status{}
	rt.coord = session.New(session.Options{
		Radio:         r,
		Filters:       rt.filters,
		Actuator:      actuator.Tee(rt.act, rt.outputs),
		Tone:          actuator.ConfiguredTone(rt.cfg.Actuator),
		Logger:        rt.log,
		WiFiScanPause: rt.cfg.Radio.WiFiScanPause,
	})
	return rt, nil
}

func (rt *env) Close() {
	if rt.coord != nil {
		_ = rt.coord.Stop()
	}
	if rt.act != nil {
		if err := rt.act.Close(); err != nil {
			rt.log.Warn("actuator close", "error", err)
		}
	}
	if err := rt.db.Close(); err != nil {
		rt.log.Warn("storage close", "error", err)
	}
	rt.closeLog()
}

func (rt *env) baselineDefaults() baseline.Config {
	cfg := baseline.DefaultConfig()
	if m, err := radio.ParseMedium(rt.cfg.Baseline.Medium); err == nil {
		cfg.Medium = m
	}
	if rt.cfg.Baseline.Duration > 0 {
		cfg.Duration = rt.cfg.Baseline.Duration
	}
	if rt.cfg.Baseline.RSSIFloor != 0 {
		cfg.RSSIFloor = rt.cfg.Baseline.RSSIFloor
	}
	cfg.CapturePayloads = rt.cfg.Baseline.CapturePayloads
	return cfg
}

// demoTarget picks a watched address for the demo radio to emit, so detect
// and fox hunt have something to find.
func demoTarget(entries []filter.Entry) *radio.Address {
	for _, e := range entries {
		s := string(e)
		if e.IsPrefix() {
			s += "000001"
		}
		if a, err := radio.ParseAddress(s); err == nil {
			return &a
		}
	}
	return nil
}

// follow prints events until the session ends, fails, or ctx is done, in
// which case the session is stopped first.
func (rt *env) follow(ctx context.Context, out io.Writer) error {
	events := rt.coord.Events()
	for {
		select {
		case <-ctx.Done():
			err := rt.coord.Stop()
			for {
				select {
				case e := <-events:
					printEvent(out, e)
				default:
					if errors.Is(err, session.ErrNotRunning) {
						return nil
					}
					return err
				}
			}
		case e := <-events:
			printEvent(out, e)
			switch e.Kind {
			case session.EventSessionFailed:
				return e.Err
			case session.EventSessionStopped:
				return nil
			}
		}
	}
}

func printEvent(out io.Writer, e session.Event) {
	ts := e.At.Format("15:04:05.000")
	switch e.Kind {
	case session.EventAlert:
		fmt.Fprintf(out, "%s ALERT    %s %-9s %4d dBm\n", ts, e.Alert.Address, e.Alert.Medium.Label(), e.Alert.RSSI)
	case session.EventAcquired, session.EventLost:
		fmt.Fprintf(out, "%s %-8s %s\n", ts, strings.ToUpper(e.Kind.String()), e.Target)
	case session.EventBaselineDone:
		n := 0
		if e.Snapshot != nil {
			n = len(e.Snapshot.Records)
		}
		fmt.Fprintf(out, "%s DONE     %d devices\n", ts, n)
	case session.EventSessionFailed:
		fmt.Fprintf(out, "%s FAILED   %s: %v\n", ts, e.Session, e.Err)
	default:
		fmt.Fprintf(out, "%s %-8s %s\n", ts, strings.ToUpper(strings.TrimPrefix(e.Kind.String(), "session-")), e.Session)
	}
}

func withDuration(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func newDetectCmd() *cobra.Command {
	var (
		medium   string
		stealth  bool
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Alert while any watch-listed device is present",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := radio.ParseMedium(medium)
			if err != nil {
				return err
			}
			rt, err := setup(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.coord.Boot()
			if err := rt.coord.StartDetection(m, stealth); err != nil {
				return err
			}
			ctx, cancel := withDuration(cmd.Context(), duration)
			defer cancel()
			return rt.follow(ctx, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&medium, "medium", "ble", "Radio to watch: wifi, ble or both")
	cmd.Flags().BoolVar(&stealth, "stealth", false, "Silence the buzzer; the LED still signals")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 = until interrupted)")
	return cmd
}

func newFoxHuntCmd() *cobra.Command {
	var (
		stealth  bool
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:     "foxhunt",
		Aliases: []string{"fox"},
		Short:   "Home in on a watch-listed BLE device by pulse cadence",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.coord.Boot()
			if err := rt.coord.StartFoxHunt(stealth); err != nil {
				return err
			}
			ctx, cancel := withDuration(cmd.Context(), duration)
			defer cancel()
			return rt.follow(ctx, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&stealth, "stealth", false, "Silence the buzzer; the LED still signals")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 = until interrupted)")
	return cmd
}

func newBaselineCmd() *cobra.Command {
	var (
		medium   string
		duration time.Duration
		floor    int
		payloads bool
		decode   bool
		csvPath  string
	)
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Survey every device in range for a fixed time",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			bc := rt.baselineDefaults()
			if cmd.Flags().Changed("medium") {
				if bc.Medium, err = radio.ParseMedium(medium); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("duration") {
				bc.Duration = duration
			}
			if cmd.Flags().Changed("floor") {
				bc.RSSIFloor = floor
			}
			if cmd.Flags().Changed("payloads") || decode {
				bc.CapturePayloads = payloads || decode
			}

			rt.coord.Boot()
			if err := rt.coord.StartBaseline(bc); err != nil {
				return err
			}
			if err := rt.follow(cmd.Context(), cmd.ErrOrStderr()); err != nil {
				return err
			}

			snap := rt.coord.LastBaseline()
			if snap == nil {
				return session.ErrNoResults
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSnapshot(snap))
			if decode {
				printPayloads(out, snap)
			}
			if csvPath != "" {
				return writeCSV(csvPath, out, snap)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&medium, "medium", "wifi", "Radio to survey: wifi, ble or both")
	cmd.Flags().DurationVar(&duration, "duration", config.BaselineDefaultDuration, "Survey length (5s to 10m)")
	cmd.Flags().IntVar(&floor, "floor", config.RSSIFloorMin, "Discard sightings weaker than this (dBm)")
	cmd.Flags().BoolVar(&payloads, "payloads", false, "Capture raw BLE advertisements")
	cmd.Flags().BoolVar(&decode, "decode", false, "Capture and print decoded BLE advertisements")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write results as CSV to this file (- for stdout)")
	return cmd
}

func renderSnapshot(snap *baseline.Snapshot) string {
	rows := make([][]string, 0, len(snap.Records))
	for _, r := range snap.Records {
		name, channel, auth := r.Name, "", ""
		if r.WiFi != nil {
			channel, auth = strconv.Itoa(r.WiFi.Channel), string(r.WiFi.Auth)
		}
		adv := ""
		if r.HasPayload() {
			adv = strconv.Itoa(r.Payload.Len())
		}
		rows = append(rows, []string{
			r.Address.String(), r.Sources.Label(), strconv.Itoa(r.RSSI), name,
			channel, auth, strconv.Itoa(r.Sightings), adv,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("MAC", "SOURCE", "RSSI", "NAME", "CH", "AUTH", "SEEN", "ADV").
		Rows(rows...)

	wifi, ble, both := snap.CountBySource()
	st := snap.Stats
	summary := fmt.Sprintf("survey %s  %s  %d devices (wifi %d, ble %d, both %d)  below floor %d  dropped %d  payloads %d/%dB",
		snap.ID, snap.Finished.Sub(snap.Started).Round(time.Second), len(snap.Records), wifi, ble, both,
		st.BelowFloor, st.Dropped, st.PayloadDevices, st.PayloadBytes)
	return t.String() + "\n" + summary
}

func printPayloads(out io.Writer, snap *baseline.Snapshot) {
	for _, r := range snap.Records {
		els, ok := snap.Decode(r.Address)
		if !ok {
			continue
		}
		fmt.Fprintf(out, "\n%s %s\n", r.Address, r.Name)
		for _, e := range els {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}
}

func writeCSV(path string, stdout io.Writer, snap *baseline.Snapshot) error {
	if path == "-" {
		return baseline.WriteCSV(stdout, snap)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := baseline.WriteCSV(f, snap); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func newFiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Manage the watch-list of OUI prefixes and addresses",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the watch-list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openEnv(false)
			if err != nil {
				return err
			}
			defer rt.Close()
			entries, err := rt.filters.Entries()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for i, e := range entries {
				kind := "address"
				if e.IsPrefix() {
					kind = "oui"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), kind, e.Pretty()})
			}
			t := table.New().Border(lipgloss.NormalBorder()).Headers("#", "KIND", "PATTERN").Rows(rows...)
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d filters\n", len(entries), config.FilterCapacity)
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add PATTERN...",
		Short: "Add 6-digit OUI prefixes or 12-digit addresses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openEnv(false)
			if err != nil {
				return err
			}
			defer rt.Close()
			var errs []error
			for _, a := range args {
				e, err := rt.filters.Add(a)
				if err != nil {
					errs = append(errs, err)
					fmt.Fprintf(cmd.ErrOrStderr(), "rejected %s: %v\n", a, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", e.Pretty())
			}
			return errors.Join(errs...)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openEnv(false)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.filters.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "filters cleared")
			return nil
		},
	}

	replace := &cobra.Command{
		Use:   "replace FILE",
		Short: "Replace the watch-list with one pattern per line of FILE (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read filters: %w", err)
			}

			rt, err := openEnv(false)
			if err != nil {
				return err
			}
			defer rt.Close()
			res, err := rt.filters.Replace(string(data))
			if err != nil {
				return err
			}
			for _, r := range res.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %q: %v\n", r.Line, r.Text, r.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d filters, rejected %d lines\n", len(res.Stored), len(res.Rejected))
			return nil
		},
	}

	cmd.AddCommand(list, add, clearCmd, replace)
	return cmd
}

func newBeepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "beep",
		Short: "Play the test beep on the configured actuator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(false)
			if err != nil {
				return err
			}
			defer rt.Close()
			rt.coord.Beep()
			return nil
		},
	}
}
