package declaration

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/carthage-erp/carthage-erp/internal/platform/db"
)

// Detail rows are stored in one table per shape; VAT rows carry a section
// discriminator.
const (
	sectionCollected    = "COLLECTED"
	sectionDeductibleGS = "DEDUCTIBLE_GS"
	sectionDeductibleFA = "DEDUCTIBLE_FA"
)

// ErrPeriodTaken indicates a concurrent build created the declaration first.
var ErrPeriodTaken = errors.New("declaration: period already has a declaration")

// Repository provides PostgreSQL backed persistence for declarations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const declarationColumns = `id, company_id, fiscal_year, month, period_start, period_end, status,
fetch_suspended_vat, fetch_fodec, invoice_count,
total_vat_collected, total_vat_deductible, previous_month_credit, vat_due,
total_withholding_tax_due, total_stamp_duty_due, total_other_taxes_due, grand_total_payable,
created_at, updated_at, submitted_at`

func scanDeclaration(row pgx.Row) (*Declaration, error) {
	var d Declaration
	err := row.Scan(&d.ID, &d.CompanyID, &d.FiscalYear, &d.Month, &d.PeriodStart, &d.PeriodEnd, &d.Status,
		&d.FetchSuspendedVAT, &d.FetchFODEC, &d.NumberOfInvoicesIssued,
		&d.TotalVATCollected, &d.TotalVATDeductible, &d.PreviousMonthCredit, &d.VATDue,
		&d.TotalWithholdingTaxDue, &d.TotalStampDutyDue, &d.TotalOtherTaxesDue, &d.GrandTotalPayable,
		&d.CreatedAt, &d.UpdatedAt, &d.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindByPeriod loads a declaration by its natural key, nil when absent.
func (r *Repository) FindByPeriod(ctx context.Context, companyID int64, fiscalYear string, month Month) (*Declaration, error) {
	d, err := scanDeclaration(r.pool.QueryRow(ctx,
		`SELECT `+declarationColumns+` FROM vat_declarations WHERE company_id=$1 AND fiscal_year=$2 AND month=$3`,
		companyID, fiscalYear, int(month)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadDetails(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get loads a declaration with its detail rows.
func (r *Repository) Get(ctx context.Context, id int64) (*Declaration, error) {
	d, err := scanDeclaration(r.pool.QueryRow(ctx,
		`SELECT `+declarationColumns+` FROM vat_declarations WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadDetails(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repository) loadDetails(ctx context.Context, d *Declaration) error {
	rows, err := r.pool.Query(ctx,
		`SELECT section, account, rate, base_amount, vat_amount FROM vat_declaration_vat_details
WHERE declaration_id=$1 ORDER BY section, position`, d.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var section string
		var detail VATDetail
		if err := rows.Scan(&section, &detail.Account, &detail.Rate, &detail.BaseAmount, &detail.VATAmount); err != nil {
			return err
		}
		switch section {
		case sectionCollected:
			d.VATCollected = append(d.VATCollected, detail)
		case sectionDeductibleGS:
			d.VATDeductibleGS = append(d.VATDeductibleGS, detail)
		case sectionDeductibleFA:
			d.VATDeductibleFA = append(d.VATDeductibleFA, detail)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	whRows, err := r.pool.Query(ctx,
		`SELECT tax_type, base_amount, tax_amount FROM vat_declaration_withholding_details
WHERE declaration_id=$1 ORDER BY position`, d.ID)
	if err != nil {
		return err
	}
	defer whRows.Close()
	for whRows.Next() {
		var detail WithholdingDetail
		if err := whRows.Scan(&detail.TaxType, &detail.BaseAmount, &detail.TaxAmount); err != nil {
			return err
		}
		d.Withholding = append(d.Withholding, detail)
	}
	if err := whRows.Err(); err != nil {
		return err
	}

	otRows, err := r.pool.Query(ctx,
		`SELECT kind, label, tax_amount FROM vat_declaration_other_taxes
WHERE declaration_id=$1 ORDER BY position`, d.ID)
	if err != nil {
		return err
	}
	defer otRows.Close()
	for otRows.Next() {
		var detail OtherTaxDetail
		if err := otRows.Scan(&detail.Kind, &detail.Label, &detail.TaxAmount); err != nil {
			return err
		}
		d.OtherTaxes = append(d.OtherTaxes, detail)
	}
	return otRows.Err()
}

// Save upserts the header and replaces every detail row in one transaction.
func (r *Repository) Save(ctx context.Context, d *Declaration) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return r.save(ctx, tx, d)
	})
}

func (r *Repository) save(ctx context.Context, tx pgx.Tx, d *Declaration) error {
	if d.ID == 0 {
		err := tx.QueryRow(ctx, `INSERT INTO vat_declarations
(company_id, fiscal_year, month, period_start, period_end, status,
 fetch_suspended_vat, fetch_fodec, invoice_count,
 total_vat_collected, total_vat_deductible, previous_month_credit, vat_due,
 total_withholding_tax_due, total_stamp_duty_due, total_other_taxes_due, grand_total_payable,
 created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19) RETURNING id`,
			d.CompanyID, d.FiscalYear, int(d.Month), d.PeriodStart, d.PeriodEnd, d.Status,
			d.FetchSuspendedVAT, d.FetchFODEC, d.NumberOfInvoicesIssued,
			d.TotalVATCollected, d.TotalVATDeductible, d.PreviousMonthCredit, d.VATDue,
			d.TotalWithholdingTaxDue, d.TotalStampDutyDue, d.TotalOtherTaxesDue, d.GrandTotalPayable,
			d.CreatedAt, d.UpdatedAt).Scan(&d.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrPeriodTaken
			}
			return err
		}
	} else {
		tag, err := tx.Exec(ctx, `UPDATE vat_declarations SET
period_start=$2, period_end=$3, status=$4, fetch_suspended_vat=$5, fetch_fodec=$6, invoice_count=$7,
total_vat_collected=$8, total_vat_deductible=$9, previous_month_credit=$10, vat_due=$11,
total_withholding_tax_due=$12, total_stamp_duty_due=$13, total_other_taxes_due=$14, grand_total_payable=$15,
updated_at=$16
WHERE id=$1 AND status='DRAFT'`,
			d.ID, d.PeriodStart, d.PeriodEnd, d.Status, d.FetchSuspendedVAT, d.FetchFODEC, d.NumberOfInvoicesIssued,
			d.TotalVATCollected, d.TotalVATDeductible, d.PreviousMonthCredit, d.VATDue,
			d.TotalWithholdingTaxDue, d.TotalStampDutyDue, d.TotalOtherTaxesDue, d.GrandTotalPayable,
			d.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadySubmitted
		}
	}

	for _, table := range []string{"vat_declaration_vat_details", "vat_declaration_withholding_details", "vat_declaration_other_taxes"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE declaration_id=$1`, d.ID); err != nil {
			return err
		}
	}

	insertVAT := func(section string, details []VATDetail) error {
		for i, detail := range details {
			if _, err := tx.Exec(ctx, `INSERT INTO vat_declaration_vat_details
(declaration_id, section, account, rate, base_amount, vat_amount, position)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				d.ID, section, detail.Account, detail.Rate, detail.BaseAmount, detail.VATAmount, i); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insertVAT(sectionCollected, d.VATCollected); err != nil {
		return err
	}
	if err := insertVAT(sectionDeductibleGS, d.VATDeductibleGS); err != nil {
		return err
	}
	if err := insertVAT(sectionDeductibleFA, d.VATDeductibleFA); err != nil {
		return err
	}
	for i, detail := range d.Withholding {
		if _, err := tx.Exec(ctx, `INSERT INTO vat_declaration_withholding_details
(declaration_id, tax_type, base_amount, tax_amount, position) VALUES ($1,$2,$3,$4,$5)`,
			d.ID, detail.TaxType, detail.BaseAmount, detail.TaxAmount, i); err != nil {
			return err
		}
	}
	for i, detail := range d.OtherTaxes {
		if _, err := tx.Exec(ctx, `INSERT INTO vat_declaration_other_taxes
(declaration_id, kind, label, tax_amount, position) VALUES ($1,$2,$3,$4,$5)`,
			d.ID, detail.Kind, detail.Label, detail.TaxAmount, i); err != nil {
			return err
		}
	}

	return nil
}

// Submit marks a draft declaration as submitted.
func (r *Repository) Submit(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vat_declarations SET status='SUBMITTED', submitted_at=$2, updated_at=$2 WHERE id=$1 AND status='DRAFT'`,
		id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

// SubmittedVATDue returns the vat_due stored on the submitted declaration for
// the key, if one exists.
func (r *Repository) SubmittedVATDue(ctx context.Context, companyID int64, fiscalYear string, month Month) (decimal.Decimal, bool, error) {
	var due decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT vat_due FROM vat_declarations WHERE company_id=$1 AND fiscal_year=$2 AND month=$3 AND status='SUBMITTED'`,
		companyID, fiscalYear, int(month)).Scan(&due)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return due, true, nil
}
