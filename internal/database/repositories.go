package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pricewise/offer-service/internal/compare"
	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
	"github.com/pricewise/offer-service/internal/trend"
)

// NewRepositories wires the pgx-backed repositories against one pool.
func NewRepositories(pool *pgxpool.Pool) compare.Repositories {
	return compare.Repositories{
		Items:     &ItemRepository{pool: pool},
		Offers:    &OfferRepository{pool: pool},
		Suppliers: &SupplierRepository{pool: pool},
		History:   &HistoryRepository{pool: pool},
	}
}

// ItemRepository loads inventory items from Postgres.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// FindByID returns (nil, nil) when the item does not exist.
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*pricing.InventoryItem, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, canonical_dimension, canonical_unit, equivalence_factor,
		       shelf_life_sensitive, usage_rate_per_day, created_at, updated_at
		FROM inventory_items
		WHERE id = $1
	`, id)

	var item pricing.InventoryItem
	err := row.Scan(
		&item.ID, &item.Name, &item.CanonicalDimension, &item.CanonicalUnit,
		&item.EquivalenceFactor, &item.ShelfLifeSensitive, &item.UsageRatePerDay,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying inventory item %s: %w", id, err)
	}
	return &item, nil
}

// OfferRepository loads price offers from Postgres.
type OfferRepository struct {
	pool *pgxpool.Pool
}

// FindWhere returns offers matching the filter, newest first.
func (r *OfferRepository) FindWhere(ctx context.Context, filter compare.OfferFilter) ([]*pricing.Offer, error) {
	query := `
		SELECT id, inventory_item_id, supplier_id, total_price, amount, amount_unit,
		       amount_canonical, currency, shipping_cost, shipping_included,
		       is_tax_included, tax_rate, quality_rating, source, observed_at,
		       price_per_canonical_excl_shipping, price_per_canonical_incl_shipping
		FROM offers
		WHERE 1=1
	`
	args := []any{}
	if filter.InventoryItemID != "" {
		args = append(args, filter.InventoryItemID)
		query += fmt.Sprintf(" AND inventory_item_id = $%d", len(args))
	}
	if filter.SupplierID != "" {
		args = append(args, filter.SupplierID)
		query += fmt.Sprintf(" AND supplier_id = $%d", len(args))
	}
	if !filter.ObservedAfter.IsZero() {
		args = append(args, filter.ObservedAfter)
		query += fmt.Sprintf(" AND observed_at >= $%d", len(args))
	}
	query += " ORDER BY observed_at DESC, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying offers: %w", err)
	}
	defer rows.Close()

	offers := []*pricing.Offer{}
	for rows.Next() {
		var o pricing.Offer
		err := rows.Scan(
			&o.ID, &o.InventoryItemID, &o.SupplierID, &o.TotalPrice, &o.Amount,
			&o.AmountUnit, &o.AmountCanonical, &o.Currency, &o.ShippingCost,
			&o.ShippingIncluded, &o.IsTaxIncluded, &o.TaxRate, &o.QualityRating,
			&o.Source, &o.ObservedAt,
			&o.PricePerCanonicalExclShipping, &o.PricePerCanonicalInclShipping,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning offer: %w", err)
		}
		offers = append(offers, &o)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating offers: %w", rows.Err())
	}
	return offers, nil
}

// SupplierRepository loads suppliers from Postgres.
type SupplierRepository struct {
	pool *pgxpool.Pool
}

// FindAll returns every supplier ordered by name.
func (r *SupplierRepository) FindAll(ctx context.Context) ([]*pricing.Supplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, notes, created_at
		FROM suppliers
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []*pricing.Supplier{}
	for rows.Next() {
		var s pricing.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Notes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning supplier: %w", err)
		}
		suppliers = append(suppliers, &s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating suppliers: %w", rows.Err())
	}
	return suppliers, nil
}

// HistoryRepository loads and maintains historical price observations.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository returns a standalone history repository, used where
// only the observation store is needed.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// FindWhere returns observations matching the filter, oldest first.
func (r *HistoryRepository) FindWhere(ctx context.Context, filter compare.HistoryFilter) ([]pricing.HistoricalPrice, error) {
	query := `
		SELECT id, item_id, COALESCE(supplier_id, ''), price, currency, unit,
		       quantity, source, observed_at, COALESCE(confidence, 0), COALESCE(note, '')
		FROM historical_prices
		WHERE item_id = $1
	`
	args := []any{filter.ItemID}

	if filter.Period != "" {
		start, end, err := trend.PeriodBoundaries(filter.Period)
		if err != nil {
			return nil, err
		}
		args = append(args, start)
		query += fmt.Sprintf(" AND observed_at >= $%d", len(args))
		args = append(args, end)
		query += fmt.Sprintf(" AND observed_at <= $%d", len(args))
	}
	if filter.SupplierID != "" {
		args = append(args, filter.SupplierID)
		query += fmt.Sprintf(" AND supplier_id = $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	query += " ORDER BY observed_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying historical prices: %w", err)
	}
	defer rows.Close()

	history := []pricing.HistoricalPrice{}
	for rows.Next() {
		var h pricing.HistoricalPrice
		err := rows.Scan(
			&h.ID, &h.ItemID, &h.SupplierID, &h.Price, &h.Currency, &h.Unit,
			&h.Quantity, &h.Source, &h.ObservedAt,
			&h.Metadata.Confidence, &h.Metadata.Note,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning historical price: %w", err)
		}
		history = append(history, h)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating historical prices: %w", rows.Err())
	}
	return history, nil
}

// BestPrice returns the lowest unit price observed for an item in a period.
// The bool is false when no observations exist.
func (r *HistoryRepository) BestPrice(ctx context.Context, itemID string, period pricing.TimePeriod) (float64, bool, error) {
	start, end, err := trend.PeriodBoundaries(period)
	if err != nil {
		return 0, false, err
	}

	var best *float64
	err = r.pool.QueryRow(ctx, `
		SELECT MIN(price / CASE WHEN quantity > 0 THEN quantity ELSE 1 END)
		FROM historical_prices
		WHERE item_id = $1 AND observed_at >= $2 AND observed_at <= $3
	`, itemID, start, end).Scan(&best)
	if err != nil {
		return 0, false, fmt.Errorf("querying best price for item %s: %w", itemID, err)
	}
	if best == nil {
		return 0, false, nil
	}
	return *best, true, nil
}

// Statistics aggregates an item's price series for a period. The aggregation
// runs in-process so median and volatility match the comparison results.
func (r *HistoryRepository) Statistics(ctx context.Context, itemID string, period pricing.TimePeriod) (stats.PriceStatistics, error) {
	history, err := r.FindWhere(ctx, compare.HistoryFilter{ItemID: itemID, Period: period})
	if err != nil {
		return stats.PriceStatistics{}, err
	}
	return stats.Calculate(history, period)
}

// CleanupOldData deletes observations older than the retention window and
// returns how many rows were removed.
func (r *HistoryRepository) CleanupOldData(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays <= 0 {
		return 0, fmt.Errorf("retention window must be positive, got %d days", olderThanDays)
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	result, err := r.pool.Exec(ctx, `
		DELETE FROM historical_prices
		WHERE observed_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired historical prices: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// InsertBatch stores a set of observations in one round trip. Used by the
// spreadsheet importer and the offer capture flow.
func (r *HistoryRepository) InsertBatch(ctx context.Context, prices []pricing.HistoricalPrice) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, h := range prices {
		var supplierID *string
		if h.SupplierID != "" {
			supplierID = &h.SupplierID
		}
		batch.Queue(`
			INSERT INTO historical_prices
				(id, item_id, supplier_id, price, currency, unit, quantity,
				 source, observed_at, confidence, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO NOTHING
		`, h.ID, h.ItemID, supplierID, h.Price, h.Currency, h.Unit, h.Quantity,
			h.Source, h.ObservedAt, h.Metadata.Confidence, h.Metadata.Note)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range prices {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("inserting historical price: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
