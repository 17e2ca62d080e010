package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kasirlokal/backend/internal/config"
)

var (
	verbose bool
	envFile string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kasirlokal",
	Short: "Point-of-sale ledger backend",
	Long: `kasirlokal serves the point-of-sale HTTP API: product catalog, cart,
checkout, transaction history, settings and sales reports.

Without a subcommand it starts the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
		} else {
			// a missing .env is fine
			_ = godotenv.Load()
		}
		cfg = config.Load()

		if logger != nil {
			return nil
		}
		built, err := buildLogger(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment from this file instead of .env")

	rootCmd.AddCommand(serveCmd, exportCmd, seedCmd, clearCmd)
}

func buildLogger(level string, debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	atom, err := zap.ParseAtomicLevel(level)
	if err != nil {
		atom = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if debug {
		atom = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zcfg.Level = atom
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
