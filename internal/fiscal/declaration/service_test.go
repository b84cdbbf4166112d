package declaration

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/fiscalyear"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/settings"
)

type declKey struct {
	companyID  int64
	fiscalYear string
	month      Month
}

type memoryDeclRepo struct {
	nextID int64
	byID   map[int64]*Declaration
	byKey  map[declKey]int64
}

func newMemoryDeclRepo() *memoryDeclRepo {
	return &memoryDeclRepo{nextID: 1, byID: map[int64]*Declaration{}, byKey: map[declKey]int64{}}
}

func (r *memoryDeclRepo) key(d *Declaration) declKey {
	return declKey{companyID: d.CompanyID, fiscalYear: d.FiscalYear, month: d.Month}
}

func (r *memoryDeclRepo) FindByPeriod(_ context.Context, companyID int64, fiscalYear string, month Month) (*Declaration, error) {
	id, ok := r.byKey[declKey{companyID: companyID, fiscalYear: fiscalYear, month: month}]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *memoryDeclRepo) Get(_ context.Context, id int64) (*Declaration, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memoryDeclRepo) Save(_ context.Context, d *Declaration) error {
	if d.ID == 0 {
		if id, ok := r.byKey[r.key(d)]; ok {
			d.ID = id
		} else {
			d.ID = r.nextID
			r.nextID++
		}
	}
	if existing, ok := r.byID[d.ID]; ok && existing.Status == StatusSubmitted {
		return ErrAlreadySubmitted
	}
	cp := *d
	r.byID[d.ID] = &cp
	r.byKey[r.key(d)] = d.ID
	return nil
}

func (r *memoryDeclRepo) Submit(_ context.Context, id int64, at time.Time) error {
	d, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if d.Status == StatusSubmitted {
		return ErrAlreadySubmitted
	}
	d.Status = StatusSubmitted
	d.SubmittedAt = &at
	return nil
}

func (r *memoryDeclRepo) SubmittedVATDue(_ context.Context, companyID int64, fiscalYear string, month Month) (decimal.Decimal, bool, error) {
	id, ok := r.byKey[declKey{companyID: companyID, fiscalYear: fiscalYear, month: month}]
	if !ok {
		return decimal.Zero, false, nil
	}
	d := r.byID[id]
	if d.Status != StatusSubmitted {
		return decimal.Zero, false, nil
	}
	return d.VATDue, true, nil
}

// stubDocs serves fixed aggregates regardless of period, which is enough for
// single-period scenarios.
type stubDocs struct {
	sales          []TaxAggregate
	suspendedSales []TaxAggregate
	purchases      []TaxAggregate
	withholding    []TaxAggregate
	invoiceCount   int
	levies         []LevyAggregate
	fodec          decimal.Decimal
}

func (s *stubDocs) SalesVATByRate(_ context.Context, _ int64, _, _ time.Time, includeSuspended bool) ([]TaxAggregate, error) {
	out := append([]TaxAggregate(nil), s.sales...)
	if includeSuspended {
		out = append(out, s.suspendedSales...)
	}
	return out, nil
}

func (s *stubDocs) PurchaseVATByAccountRate(context.Context, int64, time.Time, time.Time) ([]TaxAggregate, error) {
	return s.purchases, nil
}

func (s *stubDocs) PurchaseWithholdingByAccount(context.Context, int64, time.Time, time.Time) ([]TaxAggregate, error) {
	return s.withholding, nil
}

func (s *stubDocs) CountPostedSalesInvoices(context.Context, int64, time.Time, time.Time) (int, error) {
	return s.invoiceCount, nil
}

func (s *stubDocs) PayrollLevyTotals(context.Context, int64, time.Time, time.Time, []string) ([]LevyAggregate, error) {
	return s.levies, nil
}

func (s *stubDocs) SalesFODECTotal(context.Context, int64, time.Time, time.Time) (decimal.Decimal, error) {
	return s.fodec, nil
}

type stubYears struct {
	years []fiscalyear.FiscalYear
}

func (s *stubYears) GetByCode(_ context.Context, code string) (fiscalyear.FiscalYear, error) {
	for _, y := range s.years {
		if y.Code == code {
			return y, nil
		}
	}
	return fiscalyear.FiscalYear{}, fiscalyear.ErrNotFound
}

func (s *stubYears) FindByDate(_ context.Context, date time.Time) (fiscalyear.FiscalYear, error) {
	for _, y := range s.years {
		if y.Contains(date) {
			return y, nil
		}
	}
	return fiscalyear.FiscalYear{}, fiscalyear.ErrNotFound
}

type stubRoles struct {
	assetsAccount int64
	designated    bool
}

func (s *stubRoles) VATFixedAssetsAccount(context.Context, int64) (int64, bool, error) {
	return s.assetsAccount, s.designated, nil
}

type stubSettings struct {
	value settings.Settings
}

func (s *stubSettings) Get(context.Context) (settings.Settings, error) {
	return s.value, nil
}

type declFixture struct {
	svc   *Service
	repo  *memoryDeclRepo
	docs  *stubDocs
	roles *stubRoles
}

func newDeclFixture(years ...fiscalyear.FiscalYear) *declFixture {
	if len(years) == 0 {
		years = []fiscalyear.FiscalYear{
			fy("2025", day(2025, time.January, 1), day(2025, time.December, 31)),
		}
	}
	repo := newMemoryDeclRepo()
	docs := &stubDocs{}
	roles := &stubRoles{}
	svc := NewService(repo, docs, &stubYears{years: years}, roles,
		&stubSettings{value: settings.Settings{StampDutyPerInvoice: decimal.NewFromInt(1)}},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.WithNow(func() time.Time { return day(2025, time.April, 10) })
	return &declFixture{svc: svc, repo: repo, docs: docs, roles: roles}
}

func (f *declFixture) seedDocuments() {
	f.docs.sales = []TaxAggregate{
		{AccountID: 1, AccountName: "TVA collectée sur les débits", Rate: dec("19"), BaseAmount: dec("10000"), TaxAmount: dec("1900")},
	}
	f.docs.purchases = []TaxAggregate{
		{AccountID: 5, AccountName: "TVA sur autres biens et services", Rate: dec("19"), BaseAmount: dec("1000"), TaxAmount: dec("190")},
		{AccountID: 7, AccountName: "TVA sur immobilisations", Rate: dec("19"), BaseAmount: dec("2000"), TaxAmount: dec("380")},
	}
	f.docs.withholding = []TaxAggregate{
		{AccountID: 9, AccountName: "Etat, impôts et taxes retenus à la source", BaseAmount: dec("500"), TaxAmount: dec("75")},
	}
	f.docs.invoiceCount = 12
	f.docs.levies = []LevyAggregate{
		{Component: "Impôt sur le Revenu (IRPP)", Amount: dec("200")},
	}
}

func build(t *testing.T, f *declFixture, in BuildInput) *Declaration {
	t.Helper()
	d, err := f.svc.BuildDeclaration(context.Background(), in)
	require.NoError(t, err)
	return d
}

func marchInput() BuildInput {
	return BuildInput{CompanyID: 1, FiscalYear: "2025", Month: "March"}
}

func TestBuildDeclarationComputesTotals(t *testing.T) {
	f := newDeclFixture()
	f.seedDocuments()
	f.roles.assetsAccount = 7
	f.roles.designated = true

	d := build(t, f, marchInput())

	require.Equal(t, StatusDraft, d.Status)
	require.Equal(t, day(2025, time.March, 1), d.PeriodStart)
	require.Equal(t, day(2025, time.March, 31), d.PeriodEnd)

	require.Len(t, d.VATCollected, 1)
	require.Len(t, d.VATDeductibleGS, 1)
	require.Len(t, d.VATDeductibleFA, 1)
	require.Len(t, d.Withholding, 1)
	require.Equal(t, 12, d.NumberOfInvoicesIssued)

	requireDecimal(t, "1900", d.TotalVATCollected)
	requireDecimal(t, "570", d.TotalVATDeductible)
	requireDecimal(t, "0", d.PreviousMonthCredit)
	requireDecimal(t, "1330", d.VATDue)
	requireDecimal(t, "75", d.TotalWithholdingTaxDue)
	requireDecimal(t, "12", d.TotalStampDutyDue)

	// IRPP levy plus TCL at 0.2% of the 10000 collected base.
	require.Len(t, d.OtherTaxes, 2)
	require.Equal(t, OtherTaxLocalAuthority, d.OtherTaxes[1].Kind)
	requireDecimal(t, "20", d.OtherTaxes[1].TaxAmount)
	requireDecimal(t, "220", d.TotalOtherTaxesDue)

	requireDecimal(t, "1637", d.GrandTotalPayable)
}

func TestBuildDeclarationEmptyPeriod(t *testing.T) {
	f := newDeclFixture()

	d := build(t, f, marchInput())

	require.Empty(t, d.VATCollected)
	require.Empty(t, d.Withholding)
	require.Zero(t, d.NumberOfInvoicesIssued)

	// The TCL line appears even with nothing collected.
	require.Len(t, d.OtherTaxes, 1)
	require.Equal(t, OtherTaxLocalAuthority, d.OtherTaxes[0].Kind)
	requireDecimal(t, "0", d.OtherTaxes[0].TaxAmount)

	requireDecimal(t, "0", d.GrandTotalPayable)
}

func TestBuildDeclarationIdempotent(t *testing.T) {
	f := newDeclFixture()
	f.seedDocuments()

	first := build(t, f, marchInput())
	second := build(t, f, marchInput())

	require.Equal(t, first.ID, second.ID)
	require.Len(t, f.repo.byID, 1)
	require.Len(t, second.VATCollected, len(first.VATCollected))
	require.Len(t, second.OtherTaxes, len(first.OtherTaxes))
	requireDecimal(t, first.GrandTotalPayable.String(), second.GrandTotalPayable)
}

func TestBuildDeclarationUndesignatedAssetsAccount(t *testing.T) {
	f := newDeclFixture()
	f.seedDocuments()

	d := build(t, f, marchInput())

	require.Len(t, d.VATDeductibleGS, 2)
	require.Empty(t, d.VATDeductibleFA)
	requireDecimal(t, "570", d.TotalVATDeductible)
}

func TestBuildDeclarationSuspendedVATOptIn(t *testing.T) {
	f := newDeclFixture()
	f.seedDocuments()
	f.docs.suspendedSales = []TaxAggregate{
		{AccountID: 2, AccountName: "TVA collectée - régime suspensif", Rate: dec("19"), BaseAmount: dec("3000"), TaxAmount: dec("570")},
	}

	d := build(t, f, marchInput())
	require.Len(t, d.VATCollected, 1)

	in := marchInput()
	in.FetchSuspendedVAT = true
	d = build(t, f, in)
	require.Len(t, d.VATCollected, 2)
	requireDecimal(t, "2470", d.TotalVATCollected)
}

func TestBuildDeclarationFODECOptIn(t *testing.T) {
	f := newDeclFixture()
	f.docs.fodec = dec("150")

	d := build(t, f, marchInput())
	require.Len(t, d.OtherTaxes, 1) // TCL only

	in := marchInput()
	in.FetchFODEC = true
	d = build(t, f, in)
	require.Len(t, d.OtherTaxes, 2)
	require.Equal(t, OtherTaxFODEC, d.OtherTaxes[1].Kind)

	// A zero FODEC total is suppressed even when requested.
	f.docs.fodec = decimal.Zero
	d = build(t, f, in)
	require.Len(t, d.OtherTaxes, 1)
}

func TestBuildDeclarationCreditCarryForward(t *testing.T) {
	f := newDeclFixture()

	// February ends in a 400 credit position once submitted.
	f.docs.purchases = []TaxAggregate{
		{AccountID: 5, AccountName: "TVA sur autres biens et services", Rate: dec("19"), BaseAmount: dec("2105.26"), TaxAmount: dec("400")},
	}
	feb := build(t, f, BuildInput{CompanyID: 1, FiscalYear: "2025", Month: "February"})
	requireDecimal(t, "-400", feb.VATDue)
	_, err := f.svc.SubmitDeclaration(context.Background(), feb.ID)
	require.NoError(t, err)

	f.docs.purchases = nil
	f.docs.sales = []TaxAggregate{
		{AccountID: 1, AccountName: "TVA collectée sur les débits", Rate: dec("19"), BaseAmount: dec("5000"), TaxAmount: dec("950")},
	}
	march := build(t, f, marchInput())

	requireDecimal(t, "400", march.PreviousMonthCredit)
	requireDecimal(t, "550", march.VATDue) // 950 - (0 + 400)
}

func TestBuildDeclarationIgnoresDraftCredit(t *testing.T) {
	f := newDeclFixture()

	f.docs.purchases = []TaxAggregate{
		{AccountID: 5, AccountName: "TVA sur autres biens et services", Rate: dec("19"), BaseAmount: dec("1000"), TaxAmount: dec("190")},
	}
	feb := build(t, f, BuildInput{CompanyID: 1, FiscalYear: "2025", Month: "February"})
	requireDecimal(t, "-190", feb.VATDue)

	// February stays a draft, so March carries no credit.
	march := build(t, f, marchInput())
	requireDecimal(t, "0", march.PreviousMonthCredit)
}

func TestBuildDeclarationCreditAcrossFiscalYears(t *testing.T) {
	f := newDeclFixture(
		fy("2024-2025", day(2024, time.July, 1), day(2025, time.June, 30)),
		fy("2025-2026", day(2025, time.July, 1), day(2026, time.June, 30)),
	)

	f.docs.purchases = []TaxAggregate{
		{AccountID: 5, AccountName: "TVA sur autres biens et services", Rate: dec("19"), BaseAmount: dec("1000"), TaxAmount: dec("190")},
	}
	june := build(t, f, BuildInput{CompanyID: 1, FiscalYear: "2024-2025", Month: "June"})
	requireDecimal(t, "-190", june.VATDue)
	_, err := f.svc.SubmitDeclaration(context.Background(), june.ID)
	require.NoError(t, err)

	f.docs.purchases = nil
	july := build(t, f, BuildInput{CompanyID: 1, FiscalYear: "2025-2026", Month: "July"})

	require.Equal(t, day(2025, time.July, 1), july.PeriodStart)
	requireDecimal(t, "190", july.PreviousMonthCredit)
}

func TestBuildDeclarationSubmittedIsImmutable(t *testing.T) {
	f := newDeclFixture()

	d := build(t, f, marchInput())
	_, err := f.svc.SubmitDeclaration(context.Background(), d.ID)
	require.NoError(t, err)

	_, err = f.svc.BuildDeclaration(context.Background(), marchInput())
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestBuildDeclarationValidation(t *testing.T) {
	f := newDeclFixture()
	ctx := context.Background()

	_, err := f.svc.BuildDeclaration(ctx, BuildInput{FiscalYear: "2025", Month: "March"})
	require.ErrorIs(t, err, ErrCompanyRequired)

	_, err = f.svc.BuildDeclaration(ctx, BuildInput{CompanyID: 1, Month: "March"})
	require.ErrorIs(t, err, ErrFiscalYearRequired)

	_, err = f.svc.BuildDeclaration(ctx, BuildInput{CompanyID: 1, FiscalYear: "2025"})
	require.ErrorIs(t, err, ErrMonthRequired)

	_, err = f.svc.BuildDeclaration(ctx, BuildInput{CompanyID: 1, FiscalYear: "2025", Month: "Thermidor"})
	require.ErrorIs(t, err, ErrUnknownMonth)

	_, err = f.svc.BuildDeclaration(ctx, BuildInput{CompanyID: 1, FiscalYear: "1999", Month: "March"})
	require.ErrorIs(t, err, fiscalyear.ErrNotFound)
}

func TestSubmitDeclaration(t *testing.T) {
	f := newDeclFixture()

	d := build(t, f, marchInput())
	require.Equal(t, StatusDraft, d.Status)

	submitted, err := f.svc.SubmitDeclaration(context.Background(), d.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	_, err = f.svc.SubmitDeclaration(context.Background(), d.ID)
	require.ErrorIs(t, err, ErrAlreadySubmitted)

	_, err = f.svc.SubmitDeclaration(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetDeclaration(t *testing.T) {
	f := newDeclFixture()

	d := build(t, f, marchInput())

	got, err := f.svc.GetDeclaration(context.Background(), d.ID)
	require.NoError(t, err)
	require.Equal(t, d.ID, got.ID)

	_, err = f.svc.GetDeclaration(context.Background(), 0)
	require.ErrorIs(t, err, ErrNotFound)
}
