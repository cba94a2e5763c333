// Command professor is a research assistant: it searches the web for a topic,
// reads the sources and asks a language model to synthesize an answer.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/professor/internal/config"
)

var version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	natsURL    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "professor",
		Short: "Professor - AI research assistant",
		Long: `Professor researches a topic on the web and writes an answer from what it finds.

It searches for sources, extracts their readable text, packs it into a bounded
context and asks a language model to synthesize a response in the requested style.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", config.DefaultConfigFile, "path to the YAML config file")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&g.natsURL, "nats-url", "", "NATS server URL (enables queue intake and status events)")

	root.AddCommand(newServeCmd(g), newRunCmd(g))
	return root
}

// loadConfig applies changed command-line flags on top of defaults, YAML and env.
func loadConfig(cmd *cobra.Command, g *globalFlags, extra func(*config.CLIFlags)) (*config.Config, error) {
	flags := config.CLIFlags{ConfigPath: &g.configPath}
	if cmd.Flags().Changed("log-level") {
		flags.LogLevel = &g.logLevel
	}
	if cmd.Flags().Changed("nats-url") {
		flags.NatsURL = &g.natsURL
	}
	if extra != nil {
		extra(&flags)
	}

	cfg, path, err := config.LoadWithCLI(flags)
	if err != nil {
		return nil, err
	}
	slog.Debug("config loaded", "path", path)
	return cfg, nil
}
