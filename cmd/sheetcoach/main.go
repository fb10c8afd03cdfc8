package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/briangreenhill/sheetcoach/internal/config"
)

var version = "v0.1.0"

var (
	// Global flags
	envFile  string
	dryStore bool
	limit    int

	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sheetcoach",
	Short: "Turn your workout log into the next workout",
	Long: `sheetcoach reads the most recent workouts you logged in a spreadsheet tab,
asks a language model for tips and the next workout, and appends the plan
back to the same tab.

Run "sheetcoach serve" for the one-button web UI or "sheetcoach run" for a
single run in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		if limit > 0 {
			cfg.WorkoutLimit = limit
		}
		logger = zerolog.New(os.Stdout).Level(cfg.Level()).With().Timestamp().Logger()
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web UI",
	RunE:  runServe,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and append one plan, then print it",
	RunE:  runOnce,
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the system prompt sent to the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), systemPrompt())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "sheetcoach "+version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&dryStore, "dry-store", false, "read from the configured store but append to an in-memory copy")
	rootCmd.PersistentFlags().IntVarP(&limit, "limit", "n", 0, "number of logged workouts to send (overrides WORKOUT_LIMIT)")

	rootCmd.AddCommand(serveCmd, runCmd, promptCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
