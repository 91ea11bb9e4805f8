package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/avolkov/cryptofolio/internal/ledger"
	"github.com/avolkov/cryptofolio/internal/models"
)

// PostgresPortfolioRepository implements portfolio and lot persistence.
// Buy and Sell run inside a transaction holding a row lock on the
// portfolio, so concurrent trades against the same portfolio serialize
// while trades on different portfolios proceed independently.
type PostgresPortfolioRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresPortfolioRepository creates a new PostgresPortfolioRepository
// using the provided *sql.DB.
func NewPostgresPortfolioRepository(db *sql.DB) *PostgresPortfolioRepository {
	return &PostgresPortfolioRepository{DB: db}
}

// Create inserts a new portfolio with the given starting balance and
// returns its id. Returns models.ErrNameTaken on a name collision.
func (r *PostgresPortfolioRepository) Create(ctx context.Context, owner, name, password string, money int64) (int64, error) {
	var portfolioID int64
	err := r.DB.QueryRowContext(
		ctx,
		`INSERT INTO portfolios (owner, name, password, money) VALUES ($1, $2, $3, $4) RETURNING id`,
		owner, name, password, money,
	).Scan(&portfolioID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return 0, models.ErrNameTaken
	}
	if err != nil {
		return 0, fmt.Errorf("insert portfolio: %w", err)
	}
	return portfolioID, nil
}

// GetByName fetches a portfolio by its unique name. Returns
// models.ErrUnknownPortfolio if absent.
func (r *PostgresPortfolioRepository) GetByName(ctx context.Context, name string) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT id, owner, name, password, money, created_at FROM portfolios WHERE name = $1`,
		name,
	).Scan(&p.ID, &p.Owner, &p.Name, &p.Password, &p.Money, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUnknownPortfolio
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a portfolio and all of its lots in one transaction.
// Leaving the lots behind would leak them once the portfolio row is gone.
func (r *PostgresPortfolioRepository) Delete(ctx context.Context, portfolioID int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lots WHERE portfolio_id = $1`, portfolioID); err != nil {
		return fmt.Errorf("delete lots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, portfolioID); err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Lots returns the live lots of a portfolio in creation order.
func (r *PostgresPortfolioRepository) Lots(ctx context.Context, portfolioID int64) ([]models.Lot, error) {
	rows, err := r.DB.QueryContext(
		ctx,
		`SELECT id, portfolio_id, asset, amount, price_bought, created_at FROM lots WHERE portfolio_id = $1 ORDER BY id`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	var lots []models.Lot
	for rows.Next() {
		var lot models.Lot
		if err := rows.Scan(&lot.ID, &lot.PortfolioID, &lot.Asset, &lot.Amount, &lot.PriceBought, &lot.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// Buy debits cost from the portfolio balance and appends one lot, as a
// single transaction. The balance row is locked first, so the funds
// check is made against the serialized state, not a stale read. Returns
// the new balance, or models.ErrInsufficientFunds with no mutation.
func (r *PostgresPortfolioRepository) Buy(ctx context.Context, portfolioID int64, cost int64, asset string, amount, unitPrice int64) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var money int64
	err = tx.QueryRowContext(
		ctx,
		`SELECT money FROM portfolios WHERE id = $1 FOR UPDATE`,
		portfolioID,
	).Scan(&money)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrUnknownPortfolio
	}
	if err != nil {
		return 0, fmt.Errorf("lock portfolio: %w", err)
	}

	if money < cost {
		return 0, models.ErrInsufficientFunds
	}

	newBalance := money - cost
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE portfolios SET money = $1 WHERE id = $2`,
		newBalance, portfolioID,
	); err != nil {
		return 0, fmt.Errorf("debit balance: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO lots (portfolio_id, asset, amount, price_bought) VALUES ($1, $2, $3, $4)`,
		portfolioID, asset, amount, unitPrice,
	); err != nil {
		return 0, fmt.Errorf("append lot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return newBalance, nil
}

// Sell depletes amount units of the asset oldest-lot-first and credits
// proceeds, as a single transaction. The depletion plan is computed from
// the locked in-transaction snapshot; if the holdings are short the
// transaction rolls back with models.ErrInsufficientHoldings and neither
// the balance nor any lot changes. Returns the new balance.
func (r *PostgresPortfolioRepository) Sell(ctx context.Context, portfolioID int64, asset string, amount, proceeds int64) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var money int64
	err = tx.QueryRowContext(
		ctx,
		`SELECT money FROM portfolios WHERE id = $1 FOR UPDATE`,
		portfolioID,
	).Scan(&money)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrUnknownPortfolio
	}
	if err != nil {
		return 0, fmt.Errorf("lock portfolio: %w", err)
	}

	rows, err := tx.QueryContext(
		ctx,
		`SELECT id, amount FROM lots WHERE portfolio_id = $1 AND asset = $2 ORDER BY id`,
		portfolioID, asset,
	)
	if err != nil {
		return 0, fmt.Errorf("read lots: %w", err)
	}
	var lots []models.Lot
	for rows.Next() {
		var lot models.Lot
		if err := rows.Scan(&lot.ID, &lot.Amount); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan: %w", err)
		}
		lots = append(lots, lot)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read lots: %w", err)
	}

	plan, err := ledger.Deplete(lots, amount)
	if err != nil {
		return 0, err
	}

	for _, change := range plan {
		if change.Remaining == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM lots WHERE id = $1`, change.LotID); err != nil {
				return 0, fmt.Errorf("delete lot: %w", err)
			}
			continue
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE lots SET amount = $1 WHERE id = $2`,
			change.Remaining, change.LotID,
		); err != nil {
			return 0, fmt.Errorf("shrink lot: %w", err)
		}
	}

	newBalance := money + proceeds
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE portfolios SET money = $1 WHERE id = $2`,
		newBalance, portfolioID,
	); err != nil {
		return 0, fmt.Errorf("credit balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return newBalance, nil
}
