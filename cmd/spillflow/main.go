package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"spillflow/cmd/spillflow/ui"
	"spillflow/internal/analytics"
	"spillflow/internal/catalog"
	"spillflow/internal/config"
	"spillflow/internal/platform"
	"spillflow/internal/storebridge"
	"spillflow/internal/theme"
)

var (
	// Global flags
	verbose    bool
	configPath string
	themeName  string
	platformID string
	devMode    bool
	watch      bool
	logFile    string

	logger *zap.Logger
)

// rootCmd runs the onboarding flow in the terminal.
var rootCmd = &cobra.Command{
	Use:   "spillflow",
	Short: "spillflow - terminal onboarding flows with an optional paywall",
	Long: `spillflow renders an onboarding flow in the terminal: an intro panel,
a sequence of content steps, and optionally a paywall backed by a store
catalog.

The flow is described by a YAML file (see flow.yaml). Run without
arguments to start the flow; use --watch to hot-reload the file while
editing it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		// The TUI owns stdout, so logs go to a file (or nowhere).
		if logFile != "" {
			cfg.OutputPaths = []string{logFile}
			cfg.ErrorOutputPaths = []string{logFile}
		} else {
			cfg.OutputPaths = nil
			cfg.ErrorOutputPaths = nil
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runFlow,
}

// validateCmd checks a flow file without running it.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a flow configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		fmt.Printf("%s: ok (%d steps, paywall: %v, %d SKUs)\n",
			configPath, len(cfg.Steps), cfg.Paywall != nil, len(cfg.SKUs()))
		return nil
	},
}

func runFlow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	var sink analytics.Sink = analytics.Nop{}
	var tracker *analytics.Tracker
	if cfg.APIKey != "" || cfg.Dev {
		tracker = analytics.NewTracker(cfg.APIKey, "spillflow-cli", cfg.Dev,
			analytics.WithTrackerLogger(logger))
		sink = tracker
	}

	bridge := demoBridge(cfg)
	model := ui.New(cfg, bridge, bridge, sink, logger)
	defer model.Fetcher().Teardown()

	if watch {
		w, err := config.NewWatcher(configPath, logger, func(next *config.FlowConfig) {
			applyFlagOverrides(next)
			model.ApplyReload(next)
		})
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", configPath, err)
		}
		if err := w.Start(context.Background()); err != nil {
			return err
		}
		defer w.Stop()
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("flow exited with error: %w", err)
	}

	if tracker != nil {
		tracker.Flush()
	}
	return nil
}

func applyFlagOverrides(cfg *config.FlowConfig) {
	if themeName != "" {
		cfg.Theme = theme.Name(themeName)
	}
	if platformID != "" {
		cfg.Platform = platform.ID(platformID)
	}
	if devMode {
		cfg.Dev = true
	}
}

// demoBridge seeds an in-memory store with the flow's SKUs so the paywall
// has a catalog to fetch. A real embedder supplies its own bridge.
func demoBridge(cfg *config.FlowConfig) *storebridge.Fake {
	var entries []catalog.Entry
	for i, sku := range cfg.SKUs() {
		e := catalog.Entry{
			ID:             sku,
			Title:          sku,
			LocalizedPrice: fmt.Sprintf("$%d.99", 4+5*i),
		}
		// Alternate kinds so both query paths get exercised.
		if i%2 == 0 {
			e.SubscriptionPeriod = "P1M"
		}
		entries = append(entries, e)
	}
	bridge := storebridge.NewFake(entries...)
	bridge.SetLatency(300 * time.Millisecond)
	return bridge
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "flow.yaml", "path to the flow configuration file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "write logs to this file")
	rootCmd.Flags().StringVar(&themeName, "theme", "", "override the theme (light or dark)")
	rootCmd.Flags().StringVar(&platformID, "platform", "", "override the platform (ios, android, web)")
	rootCmd.Flags().BoolVar(&devMode, "dev", false, "dev mode: log analytics instead of sending")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "hot-reload the flow file on change")
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
