package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/gradebench/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		clog.FatalContextf(ctx, "gradebench: %v", err)
	}
}

// cli holds state shared by every subcommand
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "gradebench",
		Short: "Run LLM grading experiments and aggregate their verdicts",
		Long: `gradebench sends science problems to chat providers, grades the answers
with a separate grading call and collects the "VERDICT:" scores into a flat
log that can be grouped per subject and summarized.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")

	root.AddCommand(
		c.newCollectCmd(),
		c.newGroupCmd(),
		c.newSummaryCmd(),
		c.newRunCmd(),
		c.newGradeDirCmd(),
		c.newServeCmd(),
	)
	return root
}

// setup loads configuration and installs the logger on the command context.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, resolveConfigPath(c.configPath))
	if err != nil {
		return err
	}
	c.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	log := clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	cmd.SetContext(clog.WithLogger(ctx, log))
	return nil
}

// resolveConfigPath returns flag, then CONFIG_PATH, then ./config.yaml when
// it exists. Empty means defaults and environment only.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}
