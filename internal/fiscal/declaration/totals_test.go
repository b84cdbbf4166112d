package declaration

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestCalculateTotals(t *testing.T) {
	d := &Declaration{
		VATCollected: []VATDetail{
			{Rate: dec("19"), BaseAmount: dec("10000"), VATAmount: dec("1900")},
			{Rate: dec("7"), BaseAmount: dec("2000"), VATAmount: dec("140")},
		},
		VATDeductibleGS: []VATDetail{
			{Rate: dec("19"), BaseAmount: dec("1000"), VATAmount: dec("190")},
		},
		VATDeductibleFA: []VATDetail{
			{Rate: dec("19"), BaseAmount: dec("2000"), VATAmount: dec("380")},
		},
		Withholding: []WithholdingDetail{
			{BaseAmount: dec("500"), TaxAmount: dec("75")},
		},
		OtherTaxes: []OtherTaxDetail{
			{Kind: OtherTaxPayrollLevy, TaxAmount: dec("200")},
			{Kind: OtherTaxLocalAuthority, TaxAmount: dec("24")},
		},
		NumberOfInvoicesIssued: 12,
		PreviousMonthCredit:    dec("100"),
	}

	CalculateTotals(d, decimal.NewFromInt(1))

	requireDecimal(t, "2040", d.TotalVATCollected)
	requireDecimal(t, "570", d.TotalVATDeductible)
	requireDecimal(t, "1370", d.VATDue) // 2040 - (570 + 100)
	requireDecimal(t, "75", d.TotalWithholdingTaxDue)
	requireDecimal(t, "12", d.TotalStampDutyDue)
	requireDecimal(t, "224", d.TotalOtherTaxesDue)
	requireDecimal(t, "1681", d.GrandTotalPayable)
}

func TestCalculateTotalsNegativeVATDueExcluded(t *testing.T) {
	d := &Declaration{
		VATCollected: []VATDetail{
			{VATAmount: dec("100")},
		},
		VATDeductibleGS: []VATDetail{
			{VATAmount: dec("500")},
		},
		Withholding: []WithholdingDetail{
			{TaxAmount: dec("30")},
		},
		NumberOfInvoicesIssued: 2,
	}

	CalculateTotals(d, decimal.Zero)

	requireDecimal(t, "-400", d.VATDue)
	// The credit position never offsets the other categories.
	requireDecimal(t, "32", d.GrandTotalPayable)
}

func TestCalculateTotalsEmptyDeclaration(t *testing.T) {
	d := &Declaration{}

	CalculateTotals(d, decimal.Zero)

	requireDecimal(t, "0", d.TotalVATCollected)
	requireDecimal(t, "0", d.VATDue)
	requireDecimal(t, "0", d.TotalStampDutyDue)
	requireDecimal(t, "0", d.GrandTotalPayable)
}

func TestCalculateTotalsDefaultsStampDutyRate(t *testing.T) {
	d := &Declaration{NumberOfInvoicesIssued: 7}

	CalculateTotals(d, decimal.Zero)
	requireDecimal(t, "7", d.TotalStampDutyDue)

	CalculateTotals(d, dec("0.600"))
	requireDecimal(t, "4.2", d.TotalStampDutyDue)
}

func TestCalculateTotalsIsRepeatable(t *testing.T) {
	d := &Declaration{
		VATCollected:           []VATDetail{{VATAmount: dec("1900")}},
		NumberOfInvoicesIssued: 3,
	}

	CalculateTotals(d, decimal.NewFromInt(1))
	first := d.GrandTotalPayable

	CalculateTotals(d, decimal.NewFromInt(1))
	require.True(t, first.Equal(d.GrandTotalPayable))
}
