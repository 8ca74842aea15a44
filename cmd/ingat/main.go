// Package main is the ingat CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/cli"
	"github.com/hyperjump/ingat/internal/config"
	"github.com/hyperjump/ingat/pkg/utils"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ingat",
		Short: "ingat - local vector memory with retrieval-augmented chat",
		Long: `ingat stores documents with their embeddings in SQLite, keeps an exact
in-memory vector index over them, and answers questions with a language
model using the most similar documents as context.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newShellCmd(),
		newAddCmd(),
		newChatCmd(),
		newDirectCmd(),
		newSearchCmd(),
		newCountCmd(),
		newListCmd(),
		newGetCmd(),
		newIngestCmd(),
		newStatusCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat(cmd) == cli.OutputJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingat version %s\n", version)
			return nil
		},
	}
}

func outputFormat(cmd *cobra.Command) cli.OutputFormat {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return cli.FormatFor(jsonOut)
}

// setup loads the config named by the command's flags, builds the logger and
// initializes all components. Callers must Close the result.
func setup(ctx context.Context, cmd *cobra.Command) (*Components, error) {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolvedPath),
		zap.Bool("debug", debugMode),
	)

	c, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return c, nil
}

// joinArgs joins positional args so multi-word input works with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
