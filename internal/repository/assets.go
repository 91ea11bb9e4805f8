package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/avolkov/cryptofolio/internal/models"
)

// PostgresAssetRepository implements asset persistence against the crypto
// table.
type PostgresAssetRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAssetRepository creates a new PostgresAssetRepository using
// the provided *sql.DB.
func NewPostgresAssetRepository(db *sql.DB) *PostgresAssetRepository {
	return &PostgresAssetRepository{DB: db}
}

// Create inserts a new asset and returns its id. Returns
// models.ErrNameTaken if an asset with the same name exists.
func (r *PostgresAssetRepository) Create(ctx context.Context, name, creator string, price int64) (int64, error) {
	var assetID int64
	err := r.DB.QueryRowContext(
		ctx,
		`INSERT INTO crypto (name, creator, price) VALUES ($1, $2, $3) RETURNING id`,
		name, creator, price,
	).Scan(&assetID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return 0, models.ErrNameTaken
	}
	if err != nil {
		return 0, fmt.Errorf("insert asset: %w", err)
	}
	return assetID, nil
}

// Delete removes an asset by name. Returns models.ErrUnknownAsset if no
// row was deleted. Lots referencing the asset are left alone.
func (r *PostgresAssetRepository) Delete(ctx context.Context, name string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM crypto WHERE name = $1`, name)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrUnknownAsset
	}
	return nil
}

// GetPrice returns the current price of the named asset, or
// models.ErrUnknownAsset.
func (r *PostgresAssetRepository) GetPrice(ctx context.Context, name string) (int64, error) {
	var price int64
	err := r.DB.QueryRowContext(ctx, `SELECT price FROM crypto WHERE name = $1`, name).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrUnknownAsset
	}
	return price, err
}

// AdjustPrice shifts the named asset's price by delta, flooring at zero,
// and returns the new price. A single UPDATE so concurrent adjusters
// never lose a step and readers never observe a torn value. Returns
// models.ErrUnknownAsset if the asset does not exist.
func (r *PostgresAssetRepository) AdjustPrice(ctx context.Context, name string, delta int64) (int64, error) {
	var price int64
	err := r.DB.QueryRowContext(ctx,
		`UPDATE crypto SET price = GREATEST(0, price + $1) WHERE name = $2 RETURNING price`,
		delta, name).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrUnknownAsset
	}
	return price, err
}

// ListNames returns the names of all registered assets.
func (r *PostgresAssetRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name FROM crypto ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListPrices returns every asset's name and current price.
func (r *PostgresAssetRepository) ListPrices(ctx context.Context) ([]models.AssetPrice, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name, price FROM crypto ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()

	var prices []models.AssetPrice
	for rows.Next() {
		var p models.AssetPrice
		if err := rows.Scan(&p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// SearchNames returns asset names containing the given substring.
func (r *PostgresAssetRepository) SearchNames(ctx context.Context, substring string) ([]string, error) {
	pattern := "%" + substring + "%"
	rows, err := r.DB.QueryContext(ctx, `SELECT name FROM crypto WHERE name LIKE $1 ORDER BY id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
