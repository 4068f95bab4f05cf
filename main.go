package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"oui-spy.klederson.com/internal/app"
)

var (
	flagConfig  string
	flagDemo    bool
	flagAdapter string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oui-spy",
		Short: "OUI-Spy - radio proximity sensing for watch-listed hardware addresses",
		Long: `OUI-Spy listens on Bluetooth Low Energy and Wi-Fi for hardware addresses
on a watch-list of manufacturer prefixes (OUIs) and full addresses.

Detection raises an audible alert while a watched device is present, fox hunt
turns signal strength into a Geiger-style pulse cadence for homing in on one
device, and baseline surveys inventory everything around you so new devices
can be promoted onto the watch-list.

Requires sudo or CAP_NET_ADMIN capability for real Bluetooth scanning.
Use --demo flag for demonstration mode without radio hardware.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "oui-spy.yaml", "YAML config file (missing file uses defaults)")
	rootCmd.PersistentFlags().BoolVar(&flagDemo, "demo", false, "Run with a synthetic radio (no hardware required)")
	rootCmd.PersistentFlags().StringVar(&flagAdapter, "adapter", "", "Bluetooth adapter label (overrides config)")

	rootCmd.AddCommand(
		newDetectCmd(),
		newFoxHuntCmd(),
		newBaselineCmd(),
		newFiltersCmd(),
		newBeepCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	rt, err := setup(true)
	if err != nil {
		if !flagDemo {
			fmt.Fprintln(os.Stderr, "Try one of:")
			fmt.Fprintln(os.Stderr, "  sudo ./oui-spy")
			fmt.Fprintln(os.Stderr, "  sudo setcap cap_net_admin+ep ./oui-spy")
			fmt.Fprintln(os.Stderr, "  ./oui-spy --demo    (demo mode, no hardware needed)")
		}
		return err
	}
	defer rt.Close()

	model := app.New(rt.coord, app.Options{
		Source:   rt.source,
		Baseline: rt.baselineDefaults(),
		Outputs:  rt.outputs,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithFPS(30),
	)

	rt.coord.Boot()
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
