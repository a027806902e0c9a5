package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/internal/config"
	"github.com/gogpu/retouch/internal/logging"
)

// globals holds state shared by every subcommand once the root command's
// pre-run has loaded the configuration.
type globals struct {
	configPath string
	logLevel   string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "retouch",
		Short:         "Non-destructive image editing engine",
		Long:          "retouch replays edit operations (filters, adjustments, transforms, crops) against an image to preview or export the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = g.logLevel
			}
			g.cfg = cfg
			g.logger = logging.NewLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
			retouch.SetLogger(g.logger)
			g.logger.Debug("configuration loaded", "path", g.configPath, "workers", cfg.Workers, "max_history", cfg.MaxHistory)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", os.Getenv(config.EnvPrefix+"CONFIG"), "Path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newInfoCommand(g),
		newPreviewCommand(g),
		newExportCommand(g),
		newServeCommand(g),
	)
	return cmd
}

// engine creates an engine from the loaded configuration plus extra.
func (g *globals) engine(extra ...retouch.Option) *retouch.Engine {
	return retouch.New(append(g.cfg.Options(), extra...)...)
}

// printer formats numbers with digit grouping for human-readable output.
var printer = message.NewPrinter(language.English)

func dims(w, h int) string {
	return fmt.Sprintf("%d×%d", w, h)
}
