package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/adlint/internal/config"
	"github.com/ajitpratap0/adlint/internal/gaps"
	"github.com/ajitpratap0/adlint/internal/schema"
	"github.com/ajitpratap0/adlint/internal/validator"
	"github.com/ajitpratap0/adlint/internal/workspace"
)

var cfg *config.Config

// exitError carries a process exit code without printing a message.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:           "adlint",
		Short:         "adlint validates architecture description documents kept as YAML",
		Long:          "adlint checks an architecture's YAML collections for structural errors, broken references, bad links and coverage gaps, and reports every finding in one ordered report.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if root, _ := cmd.Flags().GetString("root"); root != "" {
				cfg.Specs.Root = root
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().String("root", "", "specs root directory (overrides specs.root)")

	rootCmd.AddCommand(
		validateCmd(),
		buildCmd(),
		watchCmd(),
		schemaCmd(),
		listCmd(),
		adviseCmd(),
		serveCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newEngine builds the validation engine from the loaded configuration.
func newEngine(logger *slog.Logger) (*validator.Engine, error) {
	reg := schema.Default()
	opts := []validator.Option{
		validator.WithLogger(logger),
		validator.WithConcurrency(cfg.Specs.Concurrency),
		validator.WithLinkPolicy(validator.LinkPolicy{
			Schemes:    cfg.Validation.LinkSchemes,
			Extensions: cfg.Validation.LinkExtensions,
		}),
	}
	if cfg.Validation.RulesFile != "" {
		rules, err := gaps.LoadFile(cfg.Validation.RulesFile, reg)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded gap rules", "file", cfg.Validation.RulesFile, "rules", len(rules))
		opts = append(opts, validator.WithRules(rules))
	}
	engine, err := validator.New(reg, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating validator: %w", err)
	}
	return engine, nil
}

func newWorkspace(engine *validator.Engine) *workspace.Workspace {
	return workspace.New(cfg.Specs.Root, engine.Registry())
}
