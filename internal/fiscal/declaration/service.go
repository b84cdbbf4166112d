package declaration

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/fiscalyear"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/settings"
	"github.com/carthage-erp/carthage-erp/internal/shared"
)

// RepositoryPort defines declaration persistence.
type RepositoryPort interface {
	FindByPeriod(ctx context.Context, companyID int64, fiscalYear string, month Month) (*Declaration, error)
	Get(ctx context.Context, id int64) (*Declaration, error)
	Save(ctx context.Context, d *Declaration) error
	Submit(ctx context.Context, id int64, at time.Time) error
	// SubmittedVATDue returns the stored vat_due of the submitted declaration
	// for the given key, reporting presence separately.
	SubmittedVATDue(ctx context.Context, companyID int64, fiscalYear string, month Month) (decimal.Decimal, bool, error)
}

// DocumentStore is the read-only query capability over posted transactional
// documents. Implementations must treat empty results as a normal outcome.
type DocumentStore interface {
	SalesVATByRate(ctx context.Context, companyID int64, from, to time.Time, includeSuspended bool) ([]TaxAggregate, error)
	PurchaseVATByAccountRate(ctx context.Context, companyID int64, from, to time.Time) ([]TaxAggregate, error)
	PurchaseWithholdingByAccount(ctx context.Context, companyID int64, from, to time.Time) ([]TaxAggregate, error)
	CountPostedSalesInvoices(ctx context.Context, companyID int64, from, to time.Time) (int, error)
	PayrollLevyTotals(ctx context.Context, companyID int64, from, to time.Time, components []string) ([]LevyAggregate, error)
	SalesFODECTotal(ctx context.Context, companyID int64, from, to time.Time) (decimal.Decimal, error)
}

// FiscalYearStore resolves fiscal years by code or covering date.
type FiscalYearStore interface {
	GetByCode(ctx context.Context, code string) (fiscalyear.FiscalYear, error)
	FindByDate(ctx context.Context, date time.Time) (fiscalyear.FiscalYear, error)
}

// AccountRoleStore resolves company account designations.
type AccountRoleStore interface {
	VATFixedAssetsAccount(ctx context.Context, companyID int64) (int64, bool, error)
}

// SettingsStore exposes the compliance settings snapshot.
type SettingsStore interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// AuditRecorder persists audit trail entries. Optional; recording failures
// never fail the operation they describe.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service builds, reads and submits VAT declarations.
type Service struct {
	repo     RepositoryPort
	docs     DocumentStore
	years    FiscalYearStore
	roles    AccountRoleStore
	settings SettingsStore
	audit    AuditRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a declaration Service.
func NewService(repo RepositoryPort, docs DocumentStore, years FiscalYearStore, roles AccountRoleStore, settingsStore SettingsStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		docs:     docs,
		years:    years,
		roles:    roles,
		settings: settingsStore,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithAudit enables audit trail recording.
func (s *Service) WithAudit(audit AuditRecorder) {
	s.audit = audit
}

func (s *Service) recordAudit(ctx context.Context, action string, d *Declaration) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "vat_declaration",
		EntityID: strconv.FormatInt(d.ID, 10),
		Meta: map[string]any{
			"company_id":  d.CompanyID,
			"fiscal_year": d.FiscalYear,
			"month":       d.Month.String(),
		},
		At: s.now(),
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

// BuildInput selects the declaration to compute.
type BuildInput struct {
	CompanyID         int64
	FiscalYear        string
	Month             string
	FetchSuspendedVAT bool
	FetchFODEC        bool
}

// BuildDeclaration resolves the period, clears prior detail rows, runs the
// collection passes against posted documents and persists the recomputed
// draft. Recomputation fully replaces prior results; running it twice against
// an unchanged document store yields identical output.
func (s *Service) BuildDeclaration(ctx context.Context, in BuildInput) (*Declaration, error) {
	if in.CompanyID == 0 {
		return nil, ErrCompanyRequired
	}
	if in.FiscalYear == "" {
		return nil, ErrFiscalYearRequired
	}
	if in.Month == "" {
		return nil, ErrMonthRequired
	}
	month, err := ParseMonth(in.Month)
	if err != nil {
		return nil, err
	}
	fy, err := s.years.GetByCode(ctx, in.FiscalYear)
	if err != nil {
		return nil, err
	}
	period, err := ResolvePeriod(fy, month)
	if err != nil {
		return nil, err
	}

	d, err := s.repo.FindByPeriod(ctx, in.CompanyID, in.FiscalYear, month)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = &Declaration{
			CompanyID:  in.CompanyID,
			FiscalYear: in.FiscalYear,
			Month:      month,
			CreatedAt:  s.now(),
		}
	} else if d.Status == StatusSubmitted {
		return nil, ErrAlreadySubmitted
	}
	d.Status = StatusDraft
	d.PeriodStart = period.Start
	d.PeriodEnd = period.End
	d.FetchSuspendedVAT = in.FetchSuspendedVAT
	d.FetchFODEC = in.FetchFODEC
	d.ClearDetails()

	// The first four passes are independent; each writes a distinct field of
	// the declaration. Other taxes needs the VAT-collected rows for its base.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.collectVATCollected(gctx, d, period) })
	g.Go(func() error { return s.collectVATDeductible(gctx, d, period) })
	g.Go(func() error { return s.collectWithholding(gctx, d, period) })
	g.Go(func() error { return s.collectStampDuty(gctx, d, period) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := s.collectOtherTaxes(ctx, d, period); err != nil {
		return nil, err
	}
	if err := s.fetchPreviousMonthCredit(ctx, d, period); err != nil {
		return nil, err
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	CalculateTotals(d, cfg.StampDutyPerInvoice)

	d.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "declaration.build", d)
	s.logger.Info("declaration built",
		slog.Int64("company_id", d.CompanyID),
		slog.String("fiscal_year", d.FiscalYear),
		slog.String("month", d.Month.String()),
		slog.String("grand_total_payable", d.GrandTotalPayable.String()))
	return d, nil
}

// fetchPreviousMonthCredit carries a negative vat_due of the prior month's
// submitted declaration forward as a non-negative credit. Only submitted
// declarations qualify; absence of one leaves the credit at zero.
func (s *Service) fetchPreviousMonthCredit(ctx context.Context, d *Declaration, p Period) error {
	d.PreviousMonthCredit = decimal.Zero
	prevRef := p.Start.AddDate(0, -1, 0)
	fy, err := s.years.FindByDate(ctx, prevRef)
	if err != nil {
		if errors.Is(err, fiscalyear.ErrNotFound) {
			return nil
		}
		return err
	}
	due, found, err := s.repo.SubmittedVATDue(ctx, d.CompanyID, fy.Code, MonthOf(prevRef))
	if err != nil {
		return err
	}
	if found && due.IsNegative() {
		d.PreviousMonthCredit = due.Abs()
	}
	return nil
}

// GetDeclaration loads one declaration by identifier.
func (s *Service) GetDeclaration(ctx context.Context, id int64) (*Declaration, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// SubmitDeclaration finalises a draft. Submitted declarations are immutable
// and serve as credit sources for later periods.
func (s *Service) SubmitDeclaration(ctx context.Context, id int64) (*Declaration, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == StatusSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if err := s.repo.Submit(ctx, id, s.now()); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "declaration.submit", d)
	s.logger.Info("declaration submitted",
		slog.Int64("id", id),
		slog.Int64("company_id", d.CompanyID),
		slog.String("month", d.Month.String()))
	return s.repo.Get(ctx, id)
}
