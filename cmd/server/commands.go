package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kasirlokal/backend/internal/httpapi"
	"kasirlokal/backend/internal/seed"
	"kasirlokal/backend/internal/service"
)

var (
	exportOut string
	clearPIN  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write products, transactions and settings to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		snapshot, err := a.service.Export(cmd.Context())
		if err != nil {
			return err
		}
		path := exportOut
		if path == "" {
			path = service.ExportFilename(snapshot.ExportedAt)
		}

		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return fmt.Errorf("encode export: %w", err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		logger.Info("export written",
			zap.String("path", path),
			zap.Int("products", len(snapshot.Products)),
			zap.Int("transactions", len(snapshot.Transactions)),
		)
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample catalog and sales into an empty store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := seed.Sample(cmd.Context(), a.service)
		if err != nil {
			return err
		}
		if result.Skipped {
			fmt.Fprintln(cmd.OutOrStdout(), "catalog not empty, nothing seeded")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products and %d transactions\n", result.Products, result.Transactions)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all products, transactions and the cart, and reset settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, err := httpapi.NewAuthManager(cfg.AuthSecret, 0, cfg.ManagerPIN, nil)
		if err != nil {
			return err
		}
		if !auth.ValidateManagerPIN(clearPIN) {
			return errors.New("invalid manager pin")
		}

		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.service.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "all data cleared")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default pos-data-export-YYYY-MM-DD.json)")
	clearCmd.Flags().StringVar(&clearPIN, "pin", "", "manager PIN")
	_ = clearCmd.MarkFlagRequired("pin")
}
