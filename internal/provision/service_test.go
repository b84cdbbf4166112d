package provision

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/accounts"
)

type memoryStore struct {
	companies  map[int64]bool
	accounts   int
	chart      []ChartAccount
	components map[string]ComponentDef
	links      map[string]int64
	slabs      map[string]SlabDef
	structures map[string]StructureDef
	templates  map[string]TaxTemplateDef
	stampDuty  string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		companies:  map[int64]bool{1: true},
		components: map[string]ComponentDef{},
		links:      map[string]int64{},
		slabs:      map[string]SlabDef{},
		structures: map[string]StructureDef{},
		templates:  map[string]TaxTemplateDef{},
	}
}

func (m *memoryStore) CompanyExists(_ context.Context, companyID int64) (bool, error) {
	return m.companies[companyID], nil
}

func (m *memoryStore) AccountCount(context.Context, int64) (int, error) {
	return m.accounts, nil
}

func (m *memoryStore) ImportChart(_ context.Context, _ int64, rows []ChartAccount) error {
	m.chart = rows
	m.accounts = len(rows)
	return nil
}

func (m *memoryStore) UpsertComponent(_ context.Context, def ComponentDef) error {
	m.components[def.Name] = def
	return nil
}

func (m *memoryStore) BindComponentAccount(_ context.Context, component string, _, accountID int64) error {
	m.links[component] = accountID
	return nil
}

func (m *memoryStore) UpsertSlab(_ context.Context, def SlabDef) error {
	m.slabs[def.Name] = def
	return nil
}

func (m *memoryStore) UpsertStructure(_ context.Context, _ int64, def StructureDef) error {
	m.structures[def.Name] = def
	return nil
}

func (m *memoryStore) UpsertTaxTemplate(_ context.Context, _ int64, def TaxTemplateDef, _ map[string]int64) error {
	m.templates[def.Title] = def
	return nil
}

func (m *memoryStore) SetStampDutyPerInvoice(_ context.Context, amount string) error {
	m.stampDuty = amount
	return nil
}

// memoryDirectory serves name lookups from an installed chart snapshot.
type memoryDirectory struct {
	store    *memoryStore
	bindings map[accounts.Role]int64
}

func (d *memoryDirectory) find(fragment string, group bool) (accounts.Account, error) {
	for i, acc := range d.store.chart {
		if acc.IsGroup == group && strings.Contains(strings.ToLower(acc.Name), strings.ToLower(fragment)) {
			return accounts.Account{ID: int64(i + 1), Name: acc.Name, IsGroup: acc.IsGroup}, nil
		}
	}
	return accounts.Account{}, accounts.ErrRoleNotBound
}

func (d *memoryDirectory) FindByName(_ context.Context, _ int64, fragment string) (accounts.Account, error) {
	return d.find(fragment, false)
}

func (d *memoryDirectory) FindGroup(_ context.Context, _ int64, fragment string) (accounts.Account, error) {
	return d.find(fragment, true)
}

func (d *memoryDirectory) ListChildren(_ context.Context, parentID int64) ([]accounts.Account, error) {
	parent := d.store.chart[parentID-1]
	var out []accounts.Account
	for i, acc := range d.store.chart {
		if acc.ParentCode == parent.Code && !acc.IsGroup {
			out = append(out, accounts.Account{ID: int64(i + 1), Name: acc.Name})
		}
	}
	return out, nil
}

func (d *memoryDirectory) BindRole(_ context.Context, b accounts.RoleBinding) error {
	d.bindings[b.Role] = b.AccountID
	return nil
}

type memorySettings struct {
	collected  []int64
	deductible []int64
}

func (m *memorySettings) ReplaceVATAccounts(_ context.Context, collected, deductible []int64) error {
	m.collected = collected
	m.deductible = deductible
	return nil
}

func newProvisionFixture() (*Service, *memoryStore, *memoryDirectory, *memorySettings) {
	store := newMemoryStore()
	dir := &memoryDirectory{store: store, bindings: map[accounts.Role]int64{}}
	sw := &memorySettings{}
	svc := NewService(store, dir, sw, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, store, dir, sw
}

func TestProvisionCompanyFreshInstall(t *testing.T) {
	svc, store, dir, sw := newProvisionFixture()

	res, err := svc.ProvisionCompany(context.Background(), 1)
	require.NoError(t, err)

	require.True(t, res.ChartImported)
	require.NotEmpty(t, store.chart)

	require.Equal(t, len(roleNameFragments), res.RolesBound)
	require.Empty(t, res.SkippedRoles)
	require.Contains(t, dir.bindings, accounts.RoleVATFixedAssets)

	require.Len(t, store.components, len(salaryComponents))
	require.Contains(t, store.slabs, irppSlabName)
	require.Len(t, store.slabs[irppSlabName].Brackets, 6)
	require.Equal(t, 4, res.Structures)

	// 3 VAT rates, one sales and one purchase template each.
	require.Equal(t, 6, res.TaxTemplates)
	require.Contains(t, store.templates, "TVA 19% - TN")
	require.Contains(t, store.templates, "TVA 7% (Achats) - TN")

	require.Len(t, sw.collected, 2)
	require.Len(t, sw.deductible, 2)
	require.Equal(t, "1.000", store.stampDuty)
}

func TestProvisionCompanySkipsExistingChart(t *testing.T) {
	svc, store, _, _ := newProvisionFixture()
	store.accounts = 10

	res, err := svc.ProvisionCompany(context.Background(), 1)
	require.NoError(t, err)

	require.False(t, res.ChartImported)
	require.Empty(t, store.chart)
	// Name lookups find nothing without a chart; the run still completes.
	require.Equal(t, 0, res.RolesBound)
	require.Len(t, res.SkippedRoles, len(roleNameFragments))
	require.Equal(t, 0, res.TaxTemplates)
	require.Len(t, store.components, len(salaryComponents))
}

func TestProvisionCompanyUnknownCompany(t *testing.T) {
	svc, _, _, _ := newProvisionFixture()

	_, err := svc.ProvisionCompany(context.Background(), 99)
	require.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestProvisionCompanyIdempotent(t *testing.T) {
	svc, store, _, sw := newProvisionFixture()

	first, err := svc.ProvisionCompany(context.Background(), 1)
	require.NoError(t, err)
	firstCollected := append([]int64(nil), sw.collected...)

	second, err := svc.ProvisionCompany(context.Background(), 1)
	require.NoError(t, err)

	require.True(t, first.ChartImported)
	require.False(t, second.ChartImported)
	require.Equal(t, first.Components, second.Components)
	require.Equal(t, first.TaxTemplates, second.TaxTemplates)
	require.Equal(t, firstCollected, sw.collected)
	require.Len(t, store.chart, store.accounts)
}

func TestSalaryStructuresCarryEmployerCharges(t *testing.T) {
	for _, def := range salaryStructures() {
		found := map[string]bool{}
		for _, line := range def.Deductions {
			found[line.Component] = true
		}
		require.True(t, found[componentCNSSEmployer], "structure %q", def.Name)
		require.True(t, found[componentTFP], "structure %q", def.Name)
		require.True(t, found[componentFOPROLOS], "structure %q", def.Name)
	}
}
