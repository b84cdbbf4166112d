// Package accounts resolves the designated account roles a company is
// configured with. Roles are bound once at provisioning time; declaration
// runs never search accounts by display name.
package accounts

import "errors"

// Role identifies a designated account purpose on a company.
type Role string

const (
	RoleCNSSLiability        Role = "CNSS_LIABILITY"
	RoleTaxLiability         Role = "TAX_LIABILITY"
	RoleSalaryExpense        Role = "SALARY_EXPENSE"
	RoleSocialChargesExpense Role = "SOCIAL_CHARGES_EXPENSE"
	RoleVATFixedAssets       Role = "VAT_FIXED_ASSETS"
)

// TaxKind classifies what a tax account collects. Collectors select tax
// lines by kind, never by name pattern.
type TaxKind string

const (
	TaxKindVAT          TaxKind = "VAT"
	TaxKindVATSuspended TaxKind = "VAT_SUSPENDED"
	TaxKindFODEC        TaxKind = "FODEC"
	TaxKindWithholding  TaxKind = "WITHHOLDING"
	TaxKindStampDuty    TaxKind = "STAMP_DUTY"
)

// Account is a ledger account of a company's chart.
type Account struct {
	ID            int64
	CompanyID     int64
	Code          string
	Name          string
	IsGroup       bool
	ParentID      *int64
	TaxKind       *TaxKind
	RootType      string
	ReportType    string
	AccountNumber string
}

// RoleBinding ties a role to a concrete account.
type RoleBinding struct {
	CompanyID int64
	Role      Role
	AccountID int64
}

// ErrRoleNotBound indicates the company has no account for the role.
var ErrRoleNotBound = errors.New("accounts: role not bound")
