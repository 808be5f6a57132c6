//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-reconcile.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-reconcile/internal/config"
	"github.com/pgEdge/pgedge-reconcile/internal/datagen"
	"github.com/pgEdge/pgedge-reconcile/internal/db"
	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/storage"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
	"github.com/pgEdge/pgedge-reconcile/internal/warehouse"
	"github.com/pgEdge/pgedge-reconcile/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-reconcile",
		Short: "Sales and inventory reconciliation for a PostgreSQL warehouse",
		Long: `pgedge-reconcile compares recorded sales against inventory stock
movements in a PostgreSQL warehouse, reports variances per product and day,
proposes and applies stock corrections, and keeps warehouse storage under
its quota by archiving aged fact rows.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-reconcile.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(tablesCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func connect(ctx context.Context) (*pgxpool.Pool, *warehouse.Warehouse, error) {
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, warehouse.New(pool), nil
}

// storageOptions builds manager options from the loaded configuration.
func storageOptions(c *config.Config) (storage.Options, error) {
	quota, err := c.QuotaBytes()
	if err != nil {
		return storage.Options{}, fmt.Errorf("invalid quota: %w", err)
	}
	opts := storage.DefaultOptions()
	opts.QuotaBytes = quota
	opts.WarningFraction = c.Storage.WarningFraction
	opts.CriticalFraction = c.Storage.CriticalFraction
	opts.BatchSize = c.Storage.ArchiveBatchSize
	opts.ArchiveSuffix = c.Storage.ArchiveSuffix
	return opts, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List managed warehouse tables",
	Long: `List the fact tables managed by pgedge-reconcile with their
identifier and date columns and estimated row sizes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Managed fact tables:")
		cmd.Println()
		for _, def := range tables.All() {
			cmd.Printf("  %-22s - %s (id: %s, date: %s, ~%s/row)\n",
				def.Name, def.Description, def.IDColumn, def.DateColumn,
				datagen.FormatSize(def.BaseRowSize))
		}
		cmd.Println()
		cmd.Printf("Product dimension: %s\n", tables.DimProducts)
	},
}
