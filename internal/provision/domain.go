// Package provision configures a company for operation under Tunisian fiscal
// and payroll rules: chart of accounts, designated account roles, payroll
// components and structures, tax templates and compliance settings. Every
// step is idempotent so a company can be re-provisioned safely.
package provision

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ChartAccount is one row of the chart-of-accounts template.
type ChartAccount struct {
	Code       string
	Name       string
	ParentCode string
	IsGroup    bool
	RootType   string
	TaxKind    string
}

// ComponentType distinguishes payroll earnings from deductions.
type ComponentType string

const (
	ComponentEarning   ComponentType = "EARNING"
	ComponentDeduction ComponentType = "DEDUCTION"
)

// ComponentDef describes a salary component created globally.
type ComponentDef struct {
	Name              string
	Abbr              string
	Type              ComponentType
	TaxApplicable     bool
	VariableOnTaxable bool
	ExcludeFromTotal  bool
	TimesheetBased    bool
}

// StructureLine is one earning or deduction row of a salary structure.
type StructureLine struct {
	Component     string
	Formula       string
	Condition     string
	DefaultAmount decimal.Decimal
}

// StructureDef describes a company salary structure.
type StructureDef struct {
	Name           string
	TimesheetBased bool
	PayComponent   string
	IncomeTaxSlab  string
	Earnings       []StructureLine
	Deductions     []StructureLine
}

// SlabBracket is one progressive income-tax bracket.
type SlabBracket struct {
	From    decimal.Decimal
	To      decimal.Decimal
	Percent decimal.Decimal
}

// SlabDef describes an income tax slab.
type SlabDef struct {
	Name          string
	EffectiveFrom string
	Brackets      []SlabBracket
}

// TemplateKind distinguishes sales from purchase tax templates.
type TemplateKind string

const (
	TemplateSales    TemplateKind = "SALES"
	TemplatePurchase TemplateKind = "PURCHASE"
)

// TemplateLine is one charge row of a tax template.
type TemplateLine struct {
	AccountRole string // account name fragment resolved at provisioning time
	Rate        decimal.Decimal
	FixedAmount decimal.Decimal
	Description string
}

// TaxTemplateDef describes a sales or purchase taxes-and-charges template.
type TaxTemplateDef struct {
	Title string
	Kind  TemplateKind
	Lines []TemplateLine
}

var (
	// ErrCompanyNotFound indicates the company does not exist.
	ErrCompanyNotFound = errors.New("provision: company not found")
	// ErrChartImport indicates the chart of accounts could not be installed.
	ErrChartImport = errors.New("provision: chart of accounts import failed")
)
