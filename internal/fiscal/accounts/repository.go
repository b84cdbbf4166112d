package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RoleAccount returns the account bound to the role for the company.
func (r *Repository) RoleAccount(ctx context.Context, companyID int64, role Role) (int64, error) {
	var accountID int64
	err := r.pool.QueryRow(ctx,
		`SELECT account_id FROM company_account_roles WHERE company_id=$1 AND role=$2`,
		companyID, string(role)).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRoleNotBound
		}
		return 0, err
	}
	return accountID, nil
}

// VATFixedAssetsAccount reports the designated VAT-on-fixed-assets account.
// A missing binding is a normal outcome; the deductible partition then sends
// everything to goods/services.
func (r *Repository) VATFixedAssetsAccount(ctx context.Context, companyID int64) (int64, bool, error) {
	id, err := r.RoleAccount(ctx, companyID, RoleVATFixedAssets)
	if err != nil {
		if errors.Is(err, ErrRoleNotBound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

// BindRole sets or replaces the designated account for a role.
func (r *Repository) BindRole(ctx context.Context, b RoleBinding) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO company_account_roles (company_id, role, account_id)
VALUES ($1, $2, $3)
ON CONFLICT (company_id, role) DO UPDATE SET account_id = EXCLUDED.account_id`,
		b.CompanyID, string(b.Role), b.AccountID)
	return err
}

// FindByName returns the first non-group account whose name contains the
// fragment, used only during provisioning to migrate legacy charts.
func (r *Repository) FindByName(ctx context.Context, companyID int64, fragment string) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, code, name, is_group FROM accounts
WHERE company_id=$1 AND is_group=false AND name ILIKE '%' || $2 || '%' ORDER BY code LIMIT 1`,
		companyID, fragment).Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.IsGroup)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrRoleNotBound
		}
		return Account{}, err
	}
	return a, nil
}

// FindGroup returns the group account whose name contains the fragment.
func (r *Repository) FindGroup(ctx context.Context, companyID int64, fragment string) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, code, name, is_group FROM accounts
WHERE company_id=$1 AND is_group=true AND name ILIKE '%' || $2 || '%' ORDER BY code LIMIT 1`,
		companyID, fragment).Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.IsGroup)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrRoleNotBound
		}
		return Account{}, err
	}
	return a, nil
}

// ListChildren returns the non-group accounts under a parent account.
func (r *Repository) ListChildren(ctx context.Context, parentID int64) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, code, name, is_group FROM accounts
WHERE parent_id=$1 AND is_group=false ORDER BY code`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.IsGroup); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
