//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-reconcile/internal/db"
	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the warehouse schema",
	Long: `Create the product dimension and the managed fact tables in the
target database and record the initialization in the metadata table.
Existing tables are kept unless --drop-existing is given.

Example:
  pgedge-reconcile init --connection "postgres://..."`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing tables (and their archives) before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, wh, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	exists, err := db.MetadataExists(ctx, pool)
	if err != nil {
		return err
	}
	if exists && !initDropExisting {
		initializedAt, _ := db.GetMetadataValue(ctx, pool, "initialized_at")
		logging.Info().
			Str("initialized_at", initializedAt).
			Msg("Warehouse already initialized; creating missing tables only")
	}

	if initDropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := wh.DropSchema(ctx, cfg.Storage.ArchiveSuffix); err != nil {
			return err
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	logging.Info().Msg("Creating schema")
	if err := wh.CreateSchema(ctx); err != nil {
		return err
	}

	names := append(tables.List(), tables.DimProducts)
	if exists && !initDropExisting {
		for _, name := range names {
			if err := db.RecordTableCreated(ctx, pool, name); err != nil {
				return err
			}
		}
	} else if err := db.SaveMetadata(ctx, pool, names); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Strs("tables", names).
		Msg("Warehouse initialization complete")
	return nil
}
