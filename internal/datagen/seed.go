//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-reconcile/internal/logging"
	"github.com/pgEdge/pgedge-reconcile/internal/model"
	"github.com/pgEdge/pgedge-reconcile/internal/tables"
)

// ErrInvalidSeedConfig is returned when a SeedConfig cannot produce data.
var ErrInvalidSeedConfig = errors.New("invalid seed configuration")

var operatingCategories = []string{"Rent", "Utilities", "Payroll", "Logistics", "Maintenance"}

// SeedConfig controls the shape of generated warehouse data.
type SeedConfig struct {
	Start     time.Time
	End       time.Time
	Products  int
	Retailers int
	Locations int
	Campaigns int

	// MaxSalesPerDay bounds the transactions generated per product and day.
	MaxSalesPerDay int

	// NoiseRate is the probability that a product-day's inventory
	// stock_sold disagrees with its sales, by up to MaxNoise units.
	NoiseRate float64
	MaxNoise  int64

	// CancelRate is the probability that a transaction is Cancelled.
	CancelRate float64

	// Seed makes generation reproducible when non-zero.
	Seed uint64

	Batch BatchInsertConfig
}

// DefaultSeedConfig returns a 30 day window ending today.
func DefaultSeedConfig() SeedConfig {
	end := model.Day(time.Now())
	return SeedConfig{
		Start:          end.AddDate(0, 0, -29),
		End:            end,
		Products:       50,
		Retailers:      10,
		Locations:      3,
		Campaigns:      5,
		MaxSalesPerDay: 3,
		NoiseRate:      0.2,
		MaxNoise:       5,
		CancelRate:     0.05,
		Batch:          DefaultBatchConfig(),
	}
}

// Validate checks the configuration.
func (c SeedConfig) Validate() error {
	switch {
	case c.Start.IsZero() || c.End.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidSeedConfig)
	case c.Start.After(c.End):
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidSeedConfig,
			c.Start.Format(model.DateLayout), c.End.Format(model.DateLayout))
	case c.Products <= 0 || c.Retailers <= 0 || c.Locations <= 0 || c.Campaigns <= 0:
		return fmt.Errorf("%w: products, retailers, locations and campaigns must be positive", ErrInvalidSeedConfig)
	case c.MaxSalesPerDay < 0 || c.MaxNoise < 0:
		return fmt.Errorf("%w: negative limits", ErrInvalidSeedConfig)
	case c.NoiseRate < 0 || c.NoiseRate > 1 || c.CancelRate < 0 || c.CancelRate > 1:
		return fmt.Errorf("%w: rates must be between 0 and 1", ErrInvalidSeedConfig)
	}
	return nil
}

// DayData is everything generated for one calendar day.
type DayData struct {
	Sales          []model.SalesRecord
	Inventory      []model.InventoryRecord
	OperatingCosts []model.OperatingCostRecord
	MarketingCosts []model.MarketingCostRecord
}

// Sink receives generated rows. *warehouse.Warehouse implements it.
type Sink interface {
	InsertProducts(ctx context.Context, products []model.Product) (int64, error)
	InsertSales(ctx context.Context, sales []model.SalesRecord) (int64, error)
	InsertInventory(ctx context.Context, inventory []model.InventoryRecord) (int64, error)
	InsertOperatingCosts(ctx context.Context, costs []model.OperatingCostRecord) (int64, error)
	InsertMarketingCosts(ctx context.Context, costs []model.MarketingCostRecord) (int64, error)
}

// SeedStats counts the rows written by Run.
type SeedStats struct {
	Products       int64
	Sales          int64
	Inventory      int64
	OperatingCosts int64
	MarketingCosts int64
}

// Seeder generates products and daily fact rows.
type Seeder struct {
	cfg      SeedConfig
	faker    *Faker
	ids      *IDGenerator
	products []model.Product
}

// NewSeeder creates a seeder drawing identifiers from ids.
func NewSeeder(cfg SeedConfig, ids *IDGenerator) (*Seeder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Batch.BatchSize <= 0 {
		cfg.Batch = DefaultBatchConfig()
	}
	cfg.Start = model.Day(cfg.Start)
	cfg.End = model.Day(cfg.End)

	f := NewFaker()
	if cfg.Seed != 0 {
		f = NewFakerWithSeed(cfg.Seed)
	}
	if ids == nil {
		ids = NewIDGenerator()
	}
	return &Seeder{cfg: cfg, faker: f, ids: ids}, nil
}

// Products returns the product dimension, generating it on first use.
func (s *Seeder) Products() []model.Product {
	if s.products != nil {
		return s.products
	}
	s.products = make([]model.Product, 0, s.cfg.Products)
	for i := 0; i < s.cfg.Products; i++ {
		id := s.ids.Next(PrefixProduct)
		s.products = append(s.products, model.Product{
			ProductID:   id,
			SKU:         "SKU-" + s.faker.Digits(8),
			ProductName: Truncate(s.faker.ProductName(), 120),
			Category:    Truncate(s.faker.ProductCategory(), 60),
			Brand:       Truncate(s.faker.Brand(), 60),
			UnitPrice:   s.faker.Money(5, 500),
		})
	}
	return s.products
}

// Day generates the fact rows of one calendar day.
func (s *Seeder) Day(date time.Time) DayData {
	date = model.Day(date)
	var data DayData

	for _, p := range s.Products() {
		soldByLocation := make([]int64, s.cfg.Locations)
		n := s.faker.Int(0, s.cfg.MaxSalesPerDay)
		for i := 0; i < n; i++ {
			qty := s.faker.Int64(1, 20)
			status := ChooseWeighted(s.faker,
				[]string{model.DeliveryDelivered, model.DeliveryInTransit, model.DeliveryPending},
				[]int{80, 15, 5})
			if s.faker.Chance(s.cfg.CancelRate) {
				status = model.DeliveryCancelled
			} else {
				soldByLocation[s.faker.Int(0, s.cfg.Locations-1)] += qty
			}
			data.Sales = append(data.Sales, model.SalesRecord{
				ID:             s.ids.Next(tablePrefix(tables.FactSales)),
				Date:           date,
				ProductID:      p.ProductID,
				RetailerID:     FormatID(PrefixRetailer, int64(s.faker.Int(1, s.cfg.Retailers))),
				Quantity:       qty,
				UnitPrice:      p.UnitPrice,
				TotalAmount:    p.UnitPrice.Mul(decimal.NewFromInt(qty)),
				DeliveryStatus: status,
			})
		}

		if s.cfg.MaxNoise > 0 && s.faker.Chance(s.cfg.NoiseRate) {
			loc := s.faker.Int(0, s.cfg.Locations-1)
			noise := s.faker.Int64(1, s.cfg.MaxNoise)
			if s.faker.Chance(0.5) {
				noise = -noise
			}
			soldByLocation[loc] += noise
			if soldByLocation[loc] < 0 {
				soldByLocation[loc] = 0
			}
		}

		unitCost := p.UnitPrice.Mul(decimal.NewFromFloat(0.6)).Round(2)
		for loc, sold := range soldByLocation {
			received := s.faker.Int64(0, 50)
			lost := s.faker.Int64(0, 2)
			opening := sold + lost + s.faker.Int64(50, 500)
			closing := opening + received - sold - lost
			data.Inventory = append(data.Inventory, model.InventoryRecord{
				ID:            s.ids.Next(tablePrefix(tables.FactInventory)),
				Date:          date,
				ProductID:     p.ProductID,
				LocationID:    FormatID(PrefixLocation, int64(loc+1)),
				OpeningStock:  opening,
				ClosingStock:  closing,
				StockReceived: received,
				StockSold:     sold,
				StockLost:     lost,
				UnitCost:      unitCost,
				TotalValue:    unitCost.Mul(decimal.NewFromInt(closing)),
			})
		}
	}

	for i, n := 0, s.faker.Int(1, 3); i < n; i++ {
		data.OperatingCosts = append(data.OperatingCosts, model.OperatingCostRecord{
			ID:       s.ids.Next(tablePrefix(tables.FactOperatingCosts)),
			Date:     date,
			Category: Choose(s.faker, operatingCategories),
			Amount:   s.faker.Money(100, 5000),
		})
	}
	for i, n := 0, s.faker.Int(0, 2); i < n; i++ {
		data.MarketingCosts = append(data.MarketingCosts, model.MarketingCostRecord{
			ID:         s.ids.Next(tablePrefix(tables.FactMarketingCosts)),
			Date:       date,
			CampaignID: FormatID(PrefixCampaign, int64(s.faker.Int(1, s.cfg.Campaigns))),
			Channel:    s.faker.Channel(),
			Amount:     s.faker.Money(50, 2500),
		})
	}
	return data
}

// Run writes the product dimension and every day of the window into sink,
// flushing fact rows once BatchSize sales or inventory rows are buffered.
func (s *Seeder) Run(ctx context.Context, sink Sink) (SeedStats, error) {
	var stats SeedStats

	n, err := sink.InsertProducts(ctx, s.Products())
	if err != nil {
		return stats, err
	}
	stats.Products = n

	days := int64(s.cfg.End.Sub(s.cfg.Start).Hours()/24) + 1
	progress := NewProgressReporter(tables.FactSales, 0, s.cfg.Batch.ProgressInterval)
	logging.Info().
		Str("start", s.cfg.Start.Format(model.DateLayout)).
		Str("end", s.cfg.End.Format(model.DateLayout)).
		Int64("days", days).
		Int("products", len(s.products)).
		Msg("Seeding warehouse")

	var buf DayData
	flush := func() error {
		if err := s.flush(ctx, sink, &buf, &stats); err != nil {
			return err
		}
		progress.Update(stats.Sales - progress.Rows())
		return nil
	}

	for day := s.cfg.Start; !day.After(s.cfg.End); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		d := s.Day(day)
		buf.Sales = append(buf.Sales, d.Sales...)
		buf.Inventory = append(buf.Inventory, d.Inventory...)
		buf.OperatingCosts = append(buf.OperatingCosts, d.OperatingCosts...)
		buf.MarketingCosts = append(buf.MarketingCosts, d.MarketingCosts...)

		if len(buf.Sales) >= s.cfg.Batch.BatchSize || len(buf.Inventory) >= s.cfg.Batch.BatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	progress.Done()
	return stats, nil
}

func (s *Seeder) flush(ctx context.Context, sink Sink, buf *DayData, stats *SeedStats) error {
	n, err := sink.InsertSales(ctx, buf.Sales)
	if err != nil {
		return err
	}
	stats.Sales += n

	if n, err = sink.InsertInventory(ctx, buf.Inventory); err != nil {
		return err
	}
	stats.Inventory += n

	if n, err = sink.InsertOperatingCosts(ctx, buf.OperatingCosts); err != nil {
		return err
	}
	stats.OperatingCosts += n

	if n, err = sink.InsertMarketingCosts(ctx, buf.MarketingCosts); err != nil {
		return err
	}
	stats.MarketingCosts += n

	*buf = DayData{}
	return nil
}

func tablePrefix(name string) string {
	def, err := tables.Get(name)
	if err != nil {
		return "UNK"
	}
	return def.IDPrefix
}
