package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL provisioning store.
func NewRepository(db *pgxpool.Pool) Store {
	return &repository{db: db}
}

func (r *repository) CompanyExists(ctx context.Context, companyID int64) (bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM companies WHERE id = $1`, companyID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) AccountCount(ctx context.Context, companyID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE company_id = $1`, companyID).Scan(&n)
	return n, err
}

// ImportChart installs the chart template in one transaction. Parent rows
// precede children in the template, so parent ids resolve in a single pass.
func (r *repository) ImportChart(ctx context.Context, companyID int64, rows []ChartAccount) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idsByCode := make(map[string]int64, len(rows))
	for _, acc := range rows {
		var parentID *int64
		if acc.ParentCode != "" {
			id, ok := idsByCode[acc.ParentCode]
			if !ok {
				return fmt.Errorf("account %s: parent %s not inserted", acc.Code, acc.ParentCode)
			}
			parentID = &id
		}
		var taxKind *string
		if acc.TaxKind != "" {
			taxKind = &acc.TaxKind
		}
		var id int64
		err := tx.QueryRow(ctx, `INSERT INTO accounts (company_id, code, name, is_group, parent_id, root_type, tax_kind)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
			companyID, acc.Code, acc.Name, acc.IsGroup, parentID, acc.RootType, taxKind).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert account %s: %w", acc.Code, err)
		}
		idsByCode[acc.Code] = id
	}
	return tx.Commit(ctx)
}

func (r *repository) UpsertComponent(ctx context.Context, def ComponentDef) error {
	_, err := r.db.Exec(ctx, `INSERT INTO salary_components
  (name, abbr, type, tax_applicable, variable_on_taxable, exclude_from_total, timesheet_based)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (name) DO UPDATE SET
  abbr = EXCLUDED.abbr,
  type = EXCLUDED.type,
  tax_applicable = EXCLUDED.tax_applicable,
  variable_on_taxable = EXCLUDED.variable_on_taxable,
  exclude_from_total = EXCLUDED.exclude_from_total,
  timesheet_based = EXCLUDED.timesheet_based`,
		def.Name, def.Abbr, string(def.Type), def.TaxApplicable,
		def.VariableOnTaxable, def.ExcludeFromTotal, def.TimesheetBased)
	return err
}

func (r *repository) BindComponentAccount(ctx context.Context, component string, companyID, accountID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO salary_component_accounts (component_name, company_id, account_id)
VALUES ($1, $2, $3)
ON CONFLICT (component_name, company_id) DO UPDATE SET account_id = EXCLUDED.account_id`,
		component, companyID, accountID)
	return err
}

func (r *repository) UpsertSlab(ctx context.Context, def SlabDef) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var slabID int64
	err = tx.QueryRow(ctx, `INSERT INTO income_tax_slabs (name, effective_from)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET effective_from = EXCLUDED.effective_from
RETURNING id`, def.Name, def.EffectiveFrom).Scan(&slabID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM income_tax_slab_brackets WHERE slab_id = $1`, slabID); err != nil {
		return err
	}
	for i, b := range def.Brackets {
		_, err := tx.Exec(ctx, `INSERT INTO income_tax_slab_brackets (slab_id, position, from_amount, to_amount, percent)
VALUES ($1, $2, $3, $4, $5)`, slabID, i, b.From, b.To, b.Percent)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *repository) UpsertStructure(ctx context.Context, companyID int64, def StructureDef) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var structureID int64
	err = tx.QueryRow(ctx, `INSERT INTO salary_structures
  (company_id, name, timesheet_based, pay_component, income_tax_slab)
VALUES ($1, $2, $3, $4, NULLIF($5, ''))
ON CONFLICT (company_id, name) DO UPDATE SET
  timesheet_based = EXCLUDED.timesheet_based,
  pay_component = EXCLUDED.pay_component,
  income_tax_slab = EXCLUDED.income_tax_slab
RETURNING id`, companyID, def.Name, def.TimesheetBased, nullable(def.PayComponent), def.IncomeTaxSlab).Scan(&structureID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM salary_structure_lines WHERE structure_id = $1`, structureID); err != nil {
		return err
	}
	insert := func(kind string, lines []StructureLine) error {
		for i, line := range lines {
			_, err := tx.Exec(ctx, `INSERT INTO salary_structure_lines
  (structure_id, kind, position, component_name, formula, condition, default_amount)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)`,
				structureID, kind, i, line.Component, line.Formula, line.Condition, line.DefaultAmount)
			if err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert("EARNING", def.Earnings); err != nil {
		return err
	}
	if err := insert("DEDUCTION", def.Deductions); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repository) UpsertTaxTemplate(ctx context.Context, companyID int64, def TaxTemplateDef, accountIDs map[string]int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var templateID int64
	err = tx.QueryRow(ctx, `INSERT INTO tax_templates (company_id, title, kind)
VALUES ($1, $2, $3)
ON CONFLICT (company_id, title) DO UPDATE SET kind = EXCLUDED.kind
RETURNING id`, companyID, def.Title, string(def.Kind)).Scan(&templateID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tax_template_lines WHERE template_id = $1`, templateID); err != nil {
		return err
	}
	for i, line := range def.Lines {
		accountID, ok := accountIDs[line.AccountRole]
		if !ok {
			return fmt.Errorf("template %q: unresolved account %q", def.Title, line.AccountRole)
		}
		_, err := tx.Exec(ctx, `INSERT INTO tax_template_lines
  (template_id, position, account_id, rate, fixed_amount, description)
VALUES ($1, $2, $3, $4, $5, $6)`,
			templateID, i, accountID, line.Rate, line.FixedAmount, line.Description)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *repository) SetStampDutyPerInvoice(ctx context.Context, amount string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO compliance_settings (id, stamp_duty_per_invoice)
VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET stamp_duty_per_invoice = EXCLUDED.stamp_duty_per_invoice`, amount)
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
