// Package documents is the read-only query layer over posted transactional
// documents (sales invoices, purchase invoices, salary slips). It returns
// grouped tax aggregates; it never mutates documents.
package documents

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/accounts"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/declaration"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Posted documents are the only ground truth for declarations.
const statusPosted = "POSTED"

// Repository implements the declaration engine's DocumentStore port.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the document store.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type taxAggregateRow struct {
	AccountID   int64           `db:"account_id"`
	AccountName string          `db:"account_name"`
	Rate        decimal.Decimal `db:"rate"`
	BaseAmount  decimal.Decimal `db:"base_amount"`
	TaxAmount   decimal.Decimal `db:"tax_amount"`
}

func toAggregates(rows []taxAggregateRow) []declaration.TaxAggregate {
	out := make([]declaration.TaxAggregate, 0, len(rows))
	for _, r := range rows {
		out = append(out, declaration.TaxAggregate{
			AccountID:   r.AccountID,
			AccountName: r.AccountName,
			Rate:        r.Rate,
			BaseAmount:  r.BaseAmount,
			TaxAmount:   r.TaxAmount,
		})
	}
	return out
}

// SalesVATByRate sums VAT tax lines of posted sales invoices in the period,
// grouped by rate. Suspended-regime accounts are excluded unless requested.
func (r *Repository) SalesVATByRate(ctx context.Context, companyID int64, from, to time.Time, includeSuspended bool) ([]declaration.TaxAggregate, error) {
	kinds := []string{string(accounts.TaxKindVAT)}
	if includeSuspended {
		kinds = append(kinds, string(accounts.TaxKindVATSuspended))
	}
	builder := psql.Select(
		"MIN(a.id) AS account_id",
		"MIN(a.name) AS account_name",
		"t.rate AS rate",
		"COALESCE(SUM(t.base_amount), 0) AS base_amount",
		"COALESCE(SUM(t.tax_amount), 0) AS tax_amount",
	).
		From("sales_invoice_taxes t").
		Join("sales_invoices i ON i.id = t.invoice_id").
		Join("accounts a ON a.id = t.account_id").
		Where(sq.Eq{"i.company_id": companyID, "i.status": statusPosted}).
		Where(sq.GtOrEq{"i.posting_date": from}).
		Where(sq.LtOrEq{"i.posting_date": to}).
		Where(sq.Eq{"a.tax_kind": kinds}).
		GroupBy("t.rate").
		OrderBy("t.rate")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []taxAggregateRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, args...); err != nil {
		return nil, err
	}
	return toAggregates(rows), nil
}

// PurchaseVATByAccountRate sums positive-rate VAT tax lines of posted
// purchase invoices, grouped by account and rate.
func (r *Repository) PurchaseVATByAccountRate(ctx context.Context, companyID int64, from, to time.Time) ([]declaration.TaxAggregate, error) {
	builder := psql.Select(
		"a.id AS account_id",
		"a.name AS account_name",
		"t.rate AS rate",
		"COALESCE(SUM(t.base_amount), 0) AS base_amount",
		"COALESCE(SUM(t.tax_amount), 0) AS tax_amount",
	).
		From("purchase_invoice_taxes t").
		Join("purchase_invoices i ON i.id = t.invoice_id").
		Join("accounts a ON a.id = t.account_id").
		Where(sq.Eq{"i.company_id": companyID, "i.status": statusPosted}).
		Where(sq.GtOrEq{"i.posting_date": from}).
		Where(sq.LtOrEq{"i.posting_date": to}).
		Where(sq.Eq{"a.tax_kind": []string{string(accounts.TaxKindVAT), string(accounts.TaxKindVATSuspended)}}).
		Where(sq.Gt{"t.rate": 0}).
		GroupBy("a.id", "a.name", "t.rate").
		OrderBy("a.name", "t.rate")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []taxAggregateRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, args...); err != nil {
		return nil, err
	}
	return toAggregates(rows), nil
}

// PurchaseWithholdingByAccount sums purchase tax lines posted to
// withholding-tax accounts, grouped by account.
func (r *Repository) PurchaseWithholdingByAccount(ctx context.Context, companyID int64, from, to time.Time) ([]declaration.TaxAggregate, error) {
	builder := psql.Select(
		"a.id AS account_id",
		"a.name AS account_name",
		"0 AS rate",
		"COALESCE(SUM(t.base_amount), 0) AS base_amount",
		"COALESCE(SUM(t.tax_amount), 0) AS tax_amount",
	).
		From("purchase_invoice_taxes t").
		Join("purchase_invoices i ON i.id = t.invoice_id").
		Join("accounts a ON a.id = t.account_id").
		Where(sq.Eq{"i.company_id": companyID, "i.status": statusPosted}).
		Where(sq.GtOrEq{"i.posting_date": from}).
		Where(sq.LtOrEq{"i.posting_date": to}).
		Where(sq.Eq{"a.tax_kind": string(accounts.TaxKindWithholding)}).
		GroupBy("a.id", "a.name").
		OrderBy("a.name")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []taxAggregateRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, args...); err != nil {
		return nil, err
	}
	return toAggregates(rows), nil
}

// CountPostedSalesInvoices counts invoices issued in the period.
func (r *Repository) CountPostedSalesInvoices(ctx context.Context, companyID int64, from, to time.Time) (int, error) {
	builder := psql.Select("COUNT(*)").
		From("sales_invoices i").
		Where(sq.Eq{"i.company_id": companyID, "i.status": statusPosted}).
		Where(sq.GtOrEq{"i.posting_date": from}).
		Where(sq.LtOrEq{"i.posting_date": to})
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type levyRow struct {
	Component string          `db:"component"`
	Amount    decimal.Decimal `db:"amount"`
}

// PayrollLevyTotals sums posted salary slip lines for the levy components,
// for slips whose pay period falls within the requested period.
func (r *Repository) PayrollLevyTotals(ctx context.Context, companyID int64, from, to time.Time, components []string) ([]declaration.LevyAggregate, error) {
	if len(components) == 0 {
		return nil, nil
	}
	builder := psql.Select(
		"l.component AS component",
		"COALESCE(SUM(l.amount), 0) AS amount",
	).
		From("salary_slip_lines l").
		Join("salary_slips s ON s.id = l.slip_id").
		Where(sq.Eq{"s.company_id": companyID, "s.status": statusPosted}).
		Where(sq.GtOrEq{"s.start_date": from}).
		Where(sq.LtOrEq{"s.end_date": to}).
		Where(sq.Eq{"l.component": components}).
		GroupBy("l.component").
		OrderBy("l.component")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []levyRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]declaration.LevyAggregate, 0, len(rows))
	for _, row := range rows {
		out = append(out, declaration.LevyAggregate{Component: row.Component, Amount: row.Amount})
	}
	return out, nil
}

// SalesFODECTotal sums FODEC surtax lines of posted sales invoices.
func (r *Repository) SalesFODECTotal(ctx context.Context, companyID int64, from, to time.Time) (decimal.Decimal, error) {
	builder := psql.Select("COALESCE(SUM(t.tax_amount), 0)").
		From("sales_invoice_taxes t").
		Join("sales_invoices i ON i.id = t.invoice_id").
		Join("accounts a ON a.id = t.account_id").
		Where(sq.Eq{"i.company_id": companyID, "i.status": statusPosted}).
		Where(sq.GtOrEq{"i.posting_date": from}).
		Where(sq.LtOrEq{"i.posting_date": to}).
		Where(sq.Eq{"a.tax_kind": string(accounts.TaxKindFODEC)})
	query, args, err := builder.ToSql()
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
