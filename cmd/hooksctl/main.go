// Command hooksctl drives lists, forms and validation against YAML fixtures.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	statehooks "github.com/devesharp/statehooks"
	"github.com/devesharp/statehooks/extensions"
	"github.com/devesharp/statehooks/pkg/config"
	"github.com/devesharp/statehooks/pkg/logging"
)

// app holds what every command shares once flags are parsed
type app struct {
	configPath  string
	logLevel    string
	dumpMetrics bool

	cfg      config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "hooksctl",
		Short:         "Run resolver engines, lists and forms against YAML fixtures",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !a.dumpMetrics {
				return nil
			}
			return a.writeMetrics(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().BoolVar(&a.dumpMetrics, "metrics", false, "Print Prometheus metrics to stderr when done")

	root.AddCommand(newListCmd(a))
	root.AddCommand(newFormCmd(a))
	root.AddCommand(newValidateCmd(a))

	return root
}

func (a *app) setup(stderr io.Writer) error {
	a.cfg = config.Default()
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}

	logger, err := logging.New(a.cfg.Log, stderr)
	if err != nil {
		return err
	}
	a.logger = logger
	a.registry = prometheus.NewRegistry()
	return nil
}

// engineOptions wires logging and metrics into an engine. Call it once per
// engine: the metrics collectors register with the shared registry.
func (a *app) engineOptions() []statehooks.EngineOption {
	return []statehooks.EngineOption{
		statehooks.WithLogger(a.logger),
		statehooks.WithExtension(extensions.NewLoggingExtension(a.logger)),
		statehooks.WithExtension(extensions.NewMetricsExtension(a.registry)),
	}
}

func (a *app) writeMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	return writeFamilies(w, families)
}

func writeFamilies(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
