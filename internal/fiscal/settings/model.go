// Package settings holds the singleton compliance configuration consumed by
// declaration builds and provisioning.
package settings

import "github.com/shopspring/decimal"

// Settings is the platform-wide compliance configuration. It is read-only
// from the declaration engine's point of view and injected, never global.
type Settings struct {
	StampDutyPerInvoice   decimal.Decimal `json:"stamp_duty_per_invoice"`
	VATCollectedAccounts  []int64         `json:"vat_collected_accounts"`
	VATDeductibleAccounts []int64         `json:"vat_deductible_accounts"`
}
