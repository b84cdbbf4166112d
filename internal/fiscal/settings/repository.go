package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store reads and writes the settings singleton.
type Store interface {
	Get(ctx context.Context) (Settings, error)
	ReplaceVATAccounts(ctx context.Context, collected, deductible []int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL settings store.
func NewRepository(db *pgxpool.Pool) Store {
	return &repository{db: db}
}

// Get loads the singleton row. A missing row yields defaults rather than an
// error so a fresh install can compute declarations immediately.
func (r *repository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(stamp_duty_per_invoice, 1.0) FROM compliance_settings WHERE id = 1`).
		Scan(&s.StampDutyPerInvoice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{StampDutyPerInvoice: decimal.NewFromInt(1)}, nil
		}
		return Settings{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT account_id, kind FROM compliance_settings_vat_accounts ORDER BY account_id`)
	if err != nil {
		return Settings{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var accountID int64
		var kind string
		if err := rows.Scan(&accountID, &kind); err != nil {
			return Settings{}, err
		}
		switch kind {
		case "COLLECTED":
			s.VATCollectedAccounts = append(s.VATCollectedAccounts, accountID)
		case "DEDUCTIBLE":
			s.VATDeductibleAccounts = append(s.VATDeductibleAccounts, accountID)
		}
	}
	return s, rows.Err()
}

// ReplaceVATAccounts rebuilds the VAT account association lists.
func (r *repository) ReplaceVATAccounts(ctx context.Context, collected, deductible []int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `INSERT INTO compliance_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM compliance_settings_vat_accounts`); err != nil {
		return err
	}
	for _, id := range collected {
		if _, err := tx.Exec(ctx, `INSERT INTO compliance_settings_vat_accounts (account_id, kind) VALUES ($1, 'COLLECTED')`, id); err != nil {
			return err
		}
	}
	for _, id := range deductible {
		if _, err := tx.Exec(ctx, `INSERT INTO compliance_settings_vat_accounts (account_id, kind) VALUES ($1, 'DEDUCTIBLE')`, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
