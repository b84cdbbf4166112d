package declaration

import (
	"context"

	"github.com/shopspring/decimal"
)

// collectVATCollected aggregates VAT lines of posted sales invoices in the
// period, grouped by rate. Suspended-regime lines are excluded unless the
// declaration opts in.
func (s *Service) collectVATCollected(ctx context.Context, d *Declaration, p Period) error {
	rows, err := s.docs.SalesVATByRate(ctx, d.CompanyID, p.Start, p.End, d.FetchSuspendedVAT)
	if err != nil {
		return err
	}
	for _, row := range rows {
		d.VATCollected = append(d.VATCollected, VATDetail{
			Account:    row.AccountName,
			Rate:       row.Rate,
			BaseAmount: row.BaseAmount,
			VATAmount:  row.TaxAmount,
		})
	}
	return nil
}

// collectVATDeductible aggregates positive-rate VAT lines of posted purchase
// invoices grouped by account and rate, partitioned into fixed-asset and
// goods/services buckets against the company's designated VAT-on-assets
// account. Without a designation everything lands in goods/services.
func (s *Service) collectVATDeductible(ctx context.Context, d *Declaration, p Period) error {
	rows, err := s.docs.PurchaseVATByAccountRate(ctx, d.CompanyID, p.Start, p.End)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	assetsAccount, designated, err := s.roles.VATFixedAssetsAccount(ctx, d.CompanyID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		detail := VATDetail{
			Account:    row.AccountName,
			Rate:       row.Rate,
			BaseAmount: row.BaseAmount,
			VATAmount:  row.TaxAmount,
		}
		if designated && row.AccountID == assetsAccount {
			d.VATDeductibleFA = append(d.VATDeductibleFA, detail)
		} else {
			d.VATDeductibleGS = append(d.VATDeductibleGS, detail)
		}
	}
	return nil
}

// collectWithholding aggregates purchase tax lines posted to withholding-tax
// accounts, grouped by account.
func (s *Service) collectWithholding(ctx context.Context, d *Declaration, p Period) error {
	rows, err := s.docs.PurchaseWithholdingByAccount(ctx, d.CompanyID, p.Start, p.End)
	if err != nil {
		return err
	}
	for _, row := range rows {
		d.Withholding = append(d.Withholding, WithholdingDetail{
			TaxType:    row.AccountName,
			BaseAmount: row.BaseAmount,
			TaxAmount:  row.TaxAmount,
		})
	}
	return nil
}

// collectStampDuty stores the count of posted sales invoices issued in the
// period. The monetary total is derived later in CalculateTotals.
func (s *Service) collectStampDuty(ctx context.Context, d *Declaration, p Period) error {
	count, err := s.docs.CountPostedSalesInvoices(ctx, d.CompanyID, p.Start, p.End)
	if err != nil {
		return err
	}
	d.NumberOfInvoicesIssued = count
	return nil
}

// collectOtherTaxes concatenates payroll levies, the local authority tax and
// the optional FODEC surtax. It reuses the VAT-collected rows for the TCL
// base, so it must run after collectVATCollected.
func (s *Service) collectOtherTaxes(ctx context.Context, d *Declaration, p Period) error {
	levies, err := s.docs.PayrollLevyTotals(ctx, d.CompanyID, p.Start, p.End, payrollLevyComponents)
	if err != nil {
		return err
	}
	for _, levy := range levies {
		d.OtherTaxes = append(d.OtherTaxes, OtherTaxDetail{
			Kind:      OtherTaxPayrollLevy,
			Label:     levy.Component,
			TaxAmount: levy.Amount,
		})
	}

	collectedBase := decimal.Zero
	for _, row := range d.VATCollected {
		collectedBase = collectedBase.Add(row.BaseAmount)
	}
	// The TCL line is emitted even when zero.
	d.OtherTaxes = append(d.OtherTaxes, OtherTaxDetail{
		Kind:      OtherTaxLocalAuthority,
		Label:     LocalAuthorityTaxLabel,
		TaxAmount: collectedBase.Mul(localAuthorityTaxRate),
	})

	if d.FetchFODEC {
		fodec, err := s.docs.SalesFODECTotal(ctx, d.CompanyID, p.Start, p.End)
		if err != nil {
			return err
		}
		if !fodec.IsZero() {
			d.OtherTaxes = append(d.OtherTaxes, OtherTaxDetail{
				Kind:      OtherTaxFODEC,
				Label:     FODECLabel,
				TaxAmount: fodec,
			})
		}
	}
	return nil
}
