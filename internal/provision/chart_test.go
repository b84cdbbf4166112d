package provision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/accounts"
)

func TestLoadChart(t *testing.T) {
	rows, err := LoadChart()
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	byCode := map[string]ChartAccount{}
	for _, acc := range rows {
		_, dup := byCode[acc.Code]
		require.False(t, dup, "duplicate code %s", acc.Code)
		byCode[acc.Code] = acc
		if acc.ParentCode != "" {
			_, ok := byCode[acc.ParentCode]
			require.True(t, ok, "parent %s of %s must precede it", acc.ParentCode, acc.Code)
		}
	}

	// The declaration engine depends on these designations existing in a
	// freshly imported chart.
	wantKinds := map[string]string{
		"43671": string(accounts.TaxKindVAT),
		"43672": string(accounts.TaxKindVATSuspended),
		"43661": string(accounts.TaxKindVAT),
		"43662": string(accounts.TaxKindVAT),
		"43681": string(accounts.TaxKindFODEC),
		"43682": string(accounts.TaxKindStampDuty),
	}
	for code, kind := range wantKinds {
		acc, ok := byCode[code]
		require.True(t, ok, "missing account %s", code)
		require.Equal(t, kind, acc.TaxKind, "account %s", code)
		require.False(t, acc.IsGroup)
	}

	withholding := 0
	for _, acc := range rows {
		if acc.TaxKind == string(accounts.TaxKindWithholding) {
			withholding++
		}
	}
	require.NotZero(t, withholding)
}
