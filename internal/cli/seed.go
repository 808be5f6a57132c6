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
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-reconcile/internal/datagen"
	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
	"github.com/pgEdge/pgedge-reconcile/internal/warehouse"
)

var (
	seedEndDate   string
	seedDays      int
	seedProducts  int
	seedLocations int
	seedNoiseRate float64
	seedSeed      uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the warehouse with demo data",
	Long: `Generate products, sales, inventory snapshots and costs for a window
of days ending at --end-date. A share of product-days (--noise-rate) gets
inventory stock sold that disagrees with the recorded sales, so that
'sync' has variances to report. Identifiers continue from the highest ones
already stored.

Example:
  pgedge-reconcile seed --days 30 --products 100 --noise-rate 0.1`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedEndDate, "end-date", "",
		"last day to generate (YYYY-MM-DD, default: today)")
	seedCmd.Flags().IntVar(&seedDays, "days", 0,
		"number of days to generate")
	seedCmd.Flags().IntVar(&seedProducts, "products", 0,
		"number of products to create")
	seedCmd.Flags().IntVar(&seedLocations, "locations", 0,
		"number of stock locations per product")
	seedCmd.Flags().Float64Var(&seedNoiseRate, "noise-rate", -1,
		"probability that a product-day carries an inventory discrepancy")
	seedCmd.Flags().Uint64Var(&seedSeed, "seed", 0,
		"random seed for reproducible data (0 = random)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedDays > 0 {
		cfg.Seed.Days = seedDays
	}
	if seedProducts > 0 {
		cfg.Seed.Products = seedProducts
	}
	if seedLocations > 0 {
		cfg.Seed.Locations = seedLocations
	}
	if seedNoiseRate >= 0 {
		cfg.Seed.NoiseRate = seedNoiseRate
	}
	if seedSeed != 0 {
		cfg.Seed.Seed = seedSeed
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Seed.Days < 1 {
		return fmt.Errorf("days must be at least 1")
	}

	end := model.Day(time.Now())
	if seedEndDate != "" {
		var err error
		if end, err = parseDate(seedEndDate); err != nil {
			return err
		}
	}

	seedCfg := datagen.DefaultSeedConfig()
	seedCfg.Start = end.AddDate(0, 0, -(cfg.Seed.Days - 1))
	seedCfg.End = end
	seedCfg.Products = cfg.Seed.Products
	seedCfg.Retailers = cfg.Seed.Retailers
	seedCfg.Locations = cfg.Seed.Locations
	seedCfg.NoiseRate = cfg.Seed.NoiseRate
	seedCfg.MaxNoise = cfg.Seed.MaxNoise
	seedCfg.CancelRate = cfg.Seed.CancelRate
	seedCfg.Seed = cfg.Seed.Seed

	ctx, cancel := signalContext()
	defer cancel()

	pool, wh, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	ids, err := highWaterMarks(ctx, wh)
	if err != nil {
		return err
	}

	seeder, err := datagen.NewSeeder(seedCfg, ids)
	if err != nil {
		return err
	}
	stats, err := seeder.Run(ctx, wh)
	if err != nil {
		return fmt.Errorf("failed to seed warehouse: %w", err)
	}

	logging.Info().
		Int64("products", stats.Products).
		Int64("sales", stats.Sales).
		Int64("inventory", stats.Inventory).
		Int64("operating_costs", stats.OperatingCosts).
		Int64("marketing_costs", stats.MarketingCosts).
		Msg("Seeding complete")
	return nil
}

// highWaterMarks seeds an IDGenerator from the highest stored identifier
// of every managed table and the product dimension.
func highWaterMarks(ctx context.Context, wh *warehouse.Warehouse) (*datagen.IDGenerator, error) {
	ids := datagen.NewIDGenerator()
	columns := map[string]string{tables.DimProducts: "product_id"}
	for _, def := range tables.All() {
		columns[def.Name] = def.IDColumn
	}
	for table, column := range columns {
		id, err := wh.MaxID(ctx, table, column)
		if err != nil {
			return nil, err
		}
		if err := ids.SeedFromID(id); err != nil {
			logging.Warn().
				Str("table", table).
				Str("id", id).
				Msg("Ignoring unparseable high-water mark")
		}
	}
	return ids, nil
}
