package fiscalyear

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (FiscalYear, error)
	FindByDate(ctx context.Context, date time.Time) (FiscalYear, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCode(ctx context.Context, code string) (FiscalYear, error) {
	var fy FiscalYear
	err := r.db.QueryRow(ctx, `SELECT id, code, start_date, end_date FROM fiscal_years WHERE code = $1`, code).
		Scan(&fy.ID, &fy.Code, &fy.StartDate, &fy.EndDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FiscalYear{}, ErrNotFound
		}
		return FiscalYear{}, err
	}
	return fy, nil
}

// FindByDate returns the fiscal year whose range contains the supplied date.
func (r *repository) FindByDate(ctx context.Context, date time.Time) (FiscalYear, error) {
	var fy FiscalYear
	err := r.db.QueryRow(ctx, `SELECT id, code, start_date, end_date FROM fiscal_years
WHERE $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, date).
		Scan(&fy.ID, &fy.Code, &fy.StartDate, &fy.EndDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FiscalYear{}, ErrNotFound
		}
		return FiscalYear{}, err
	}
	return fy, nil
}
