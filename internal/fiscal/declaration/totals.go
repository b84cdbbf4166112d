package declaration

import "github.com/shopspring/decimal"

// CalculateTotals recomputes every scalar total from the current detail rows.
// It is a pure function of the declaration and the stamp-duty rate and must
// run after any mutation of detail rows; absent rows count as zero.
func CalculateTotals(d *Declaration, stampDutyPerInvoice decimal.Decimal) {
	collected := decimal.Zero
	for _, row := range d.VATCollected {
		collected = collected.Add(row.VATAmount)
	}
	d.TotalVATCollected = collected

	deductible := decimal.Zero
	for _, row := range d.VATDeductibleGS {
		deductible = deductible.Add(row.VATAmount)
	}
	for _, row := range d.VATDeductibleFA {
		deductible = deductible.Add(row.VATAmount)
	}
	d.TotalVATDeductible = deductible

	d.VATDue = d.TotalVATCollected.Sub(d.TotalVATDeductible.Add(d.PreviousMonthCredit))

	withholding := decimal.Zero
	for _, row := range d.Withholding {
		withholding = withholding.Add(row.TaxAmount)
	}
	d.TotalWithholdingTaxDue = withholding

	if stampDutyPerInvoice.IsZero() {
		stampDutyPerInvoice = defaultStampDutyPerInvoice
	}
	d.TotalStampDutyDue = stampDutyPerInvoice.Mul(decimal.NewFromInt(int64(d.NumberOfInvoicesIssued)))

	other := decimal.Zero
	for _, row := range d.OtherTaxes {
		other = other.Add(row.TaxAmount)
	}
	d.TotalOtherTaxesDue = other

	// A VAT credit never offsets the other tax categories.
	vatPayable := decimal.Zero
	if d.VATDue.IsPositive() {
		vatPayable = d.VATDue
	}
	d.GrandTotalPayable = vatPayable.
		Add(d.TotalWithholdingTaxDue).
		Add(d.TotalStampDutyDue).
		Add(d.TotalOtherTaxesDue)
}
