package declaration

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates declaration lifecycle states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
)

// OtherTaxKind tags the origin of an other-taxes line.
type OtherTaxKind string

const (
	OtherTaxPayrollLevy    OtherTaxKind = "PAYROLL_LEVY"
	OtherTaxLocalAuthority OtherTaxKind = "LOCAL_AUTHORITY"
	OtherTaxFODEC          OtherTaxKind = "FODEC"
)

// VATDetail is one aggregated VAT line, collected or deductible.
type VATDetail struct {
	Account    string          `json:"account"`
	Rate       decimal.Decimal `json:"vat_rate"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	VATAmount  decimal.Decimal `json:"vat_amount"`
}

// WithholdingDetail is one aggregated withholding-tax line keyed by account.
type WithholdingDetail struct {
	TaxType    string          `json:"tax_type"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
}

// OtherTaxDetail is one line of the heterogeneous other-taxes section.
// Kind drives behaviour; Label is the display string only.
type OtherTaxDetail struct {
	Kind      OtherTaxKind    `json:"kind"`
	Label     string          `json:"tax_type"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

// Declaration is the periodic VAT/withholding/stamp-duty declaration for one
// company, fiscal year and month. Detail rows and scalar totals are derived
// from posted documents and fully replaced on every recomputation.
type Declaration struct {
	ID         int64  `json:"id"`
	CompanyID  int64  `json:"company_id"`
	FiscalYear string `json:"fiscal_year"`
	Month      Month  `json:"month"`

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	Status            Status `json:"status"`
	FetchSuspendedVAT bool   `json:"fetch_suspended_vat"`
	FetchFODEC        bool   `json:"fetch_fodec"`

	VATCollected    []VATDetail         `json:"vat_collected_details"`
	VATDeductibleGS []VATDetail         `json:"vat_deductible_details_gs"`
	VATDeductibleFA []VATDetail         `json:"vat_deductible_details_fa"`
	Withholding     []WithholdingDetail `json:"withholding_tax_details"`
	OtherTaxes      []OtherTaxDetail    `json:"other_taxes_details"`

	NumberOfInvoicesIssued int `json:"number_of_invoices_issued"`

	TotalVATCollected      decimal.Decimal `json:"total_vat_collected"`
	TotalVATDeductible     decimal.Decimal `json:"total_vat_deductible"`
	PreviousMonthCredit    decimal.Decimal `json:"previous_month_credit"`
	VATDue                 decimal.Decimal `json:"vat_due"`
	TotalWithholdingTaxDue decimal.Decimal `json:"total_withholding_tax_due"`
	TotalStampDutyDue      decimal.Decimal `json:"total_stamp_duty_due"`
	TotalOtherTaxesDue     decimal.Decimal `json:"total_other_taxes_due"`
	GrandTotalPayable      decimal.Decimal `json:"grand_total_payable"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// ClearDetails drops every derived row ahead of a recomputation run.
func (d *Declaration) ClearDetails() {
	d.VATCollected = nil
	d.VATDeductibleGS = nil
	d.VATDeductibleFA = nil
	d.Withholding = nil
	d.OtherTaxes = nil
	d.NumberOfInvoicesIssued = 0
}

// TaxAggregate is a grouped tax-line summary returned by the document store.
type TaxAggregate struct {
	AccountID   int64
	AccountName string
	Rate        decimal.Decimal
	BaseAmount  decimal.Decimal
	TaxAmount   decimal.Decimal
}

// LevyAggregate is a payroll levy total grouped by salary component.
type LevyAggregate struct {
	Component string
	Amount    decimal.Decimal
}

// Salary components collected as payroll levies into the other-taxes section.
var payrollLevyComponents = []string{
	"Contribution Sociale de Solidarité (CSS)",
	"Impôt sur le Revenu (IRPP)",
	"Taxe de Formation Professionnelle (TFP)",
	"Fonds de Logement Social (FOPROLOS)",
}

// LocalAuthorityTaxLabel names the TCL line in other-taxes details.
const LocalAuthorityTaxLabel = "Taxe sur les Collectivités Locales (TCL)"

// FODECLabel names the optional FODEC surtax line.
const FODECLabel = "FODEC"

// localAuthorityTaxRate is the TCL rate applied to the VAT-collected base.
var localAuthorityTaxRate = decimal.New(2, -3) // 0.2%

// defaultStampDutyPerInvoice applies when settings carry no rate.
var defaultStampDutyPerInvoice = decimal.NewFromInt(1)

var (
	// ErrCompanyRequired signals a build request without a company.
	ErrCompanyRequired = errors.New("declaration: company is required")
	// ErrFiscalYearRequired signals a build request without a fiscal year.
	ErrFiscalYearRequired = errors.New("declaration: fiscal year is required")
	// ErrMonthRequired signals a build request without a month.
	ErrMonthRequired = errors.New("declaration: month is required")
	// ErrUnknownMonth indicates the month name could not be parsed.
	ErrUnknownMonth = errors.New("declaration: unknown month name")
	// ErrPeriodOutsideFiscalYear indicates the resolved month does not fall
	// inside the fiscal year's date range.
	ErrPeriodOutsideFiscalYear = errors.New("declaration: month outside fiscal year range")
	// ErrNotFound indicates the declaration does not exist.
	ErrNotFound = errors.New("declaration: not found")
	// ErrAlreadySubmitted is returned when mutating a submitted declaration.
	ErrAlreadySubmitted = errors.New("declaration: already submitted")
)
