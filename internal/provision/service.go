package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/accounts"
)

// Store defines provisioning persistence.
type Store interface {
	CompanyExists(ctx context.Context, companyID int64) (bool, error)
	AccountCount(ctx context.Context, companyID int64) (int, error)
	ImportChart(ctx context.Context, companyID int64, rows []ChartAccount) error
	UpsertComponent(ctx context.Context, def ComponentDef) error
	BindComponentAccount(ctx context.Context, component string, companyID, accountID int64) error
	UpsertSlab(ctx context.Context, def SlabDef) error
	UpsertStructure(ctx context.Context, companyID int64, def StructureDef) error
	UpsertTaxTemplate(ctx context.Context, companyID int64, def TaxTemplateDef, accountIDs map[string]int64) error
	SetStampDutyPerInvoice(ctx context.Context, amount string) error
}

// AccountDirectory is the account lookup and role binding capability.
type AccountDirectory interface {
	FindByName(ctx context.Context, companyID int64, fragment string) (accounts.Account, error)
	FindGroup(ctx context.Context, companyID int64, fragment string) (accounts.Account, error)
	ListChildren(ctx context.Context, parentID int64) ([]accounts.Account, error)
	BindRole(ctx context.Context, b accounts.RoleBinding) error
}

// SettingsWriter rebuilds the compliance settings VAT account lists.
type SettingsWriter interface {
	ReplaceVATAccounts(ctx context.Context, collected, deductible []int64) error
}

// Service installs the Tunisian fiscal and payroll configuration onto a
// company. A missing chart aborts the run; every later step is best effort
// and logs what it skipped so a partial legacy setup can still be completed.
type Service struct {
	store    Store
	accounts AccountDirectory
	settings SettingsWriter
	logger   *slog.Logger
}

// NewService constructs a provisioning Service.
func NewService(store Store, dir AccountDirectory, settingsWriter SettingsWriter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, accounts: dir, settings: settingsWriter, logger: logger}
}

// Result reports what a provisioning run installed.
type Result struct {
	ChartImported bool     `json:"chart_imported"`
	RolesBound    int      `json:"roles_bound"`
	Components    int      `json:"components"`
	Structures    int      `json:"structures"`
	TaxTemplates  int      `json:"tax_templates"`
	SkippedRoles  []string `json:"skipped_roles,omitempty"`
	SkippedLinks  []string `json:"skipped_links,omitempty"`
	VATCollected  int      `json:"vat_collected_accounts"`
	VATDeductible int      `json:"vat_deductible_accounts"`
}

// ProvisionCompany runs the full setup sequence for one company. Re-running
// it against an already provisioned company is a no-op update.
func (s *Service) ProvisionCompany(ctx context.Context, companyID int64) (*Result, error) {
	exists, err := s.store.CompanyExists(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("check company: %w", err)
	}
	if !exists {
		return nil, ErrCompanyNotFound
	}

	res := &Result{}
	if err := s.ensureChart(ctx, companyID, res); err != nil {
		return nil, err
	}
	s.bindRoles(ctx, companyID, res)
	if err := s.installPayroll(ctx, companyID, res); err != nil {
		return nil, err
	}
	if err := s.installTaxTemplates(ctx, companyID, res); err != nil {
		return nil, err
	}
	if err := s.rebuildSettings(ctx, companyID, res); err != nil {
		return nil, err
	}

	s.logger.Info("company provisioned",
		slog.Int64("company_id", companyID),
		slog.Bool("chart_imported", res.ChartImported),
		slog.Int("roles_bound", res.RolesBound),
		slog.Int("components", res.Components),
		slog.Int("structures", res.Structures),
		slog.Int("tax_templates", res.TaxTemplates))
	return res, nil
}

// ensureChart imports the chart template only when the company has no
// accounts yet; an existing chart, however shaped, is left untouched.
func (s *Service) ensureChart(ctx context.Context, companyID int64, res *Result) error {
	count, err := s.store.AccountCount(ctx, companyID)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if count > 0 {
		s.logger.Debug("chart already present, skipping import",
			slog.Int64("company_id", companyID), slog.Int("accounts", count))
		return nil
	}
	rows, err := LoadChart()
	if err != nil {
		return err
	}
	if err := s.store.ImportChart(ctx, companyID, rows); err != nil {
		return fmt.Errorf("%w: %v", ErrChartImport, err)
	}
	res.ChartImported = true
	return nil
}

// bindRoles resolves each designated role by account name fragment. This is
// the only place names are matched; declaration runs read the bindings.
func (s *Service) bindRoles(ctx context.Context, companyID int64, res *Result) {
	for role, fragment := range roleNameFragments {
		acc, err := s.accounts.FindByName(ctx, companyID, fragment)
		if err != nil {
			if errors.Is(err, accounts.ErrRoleNotBound) {
				s.logger.Warn("no account matches role, skipping",
					slog.Int64("company_id", companyID), slog.String("role", string(role)))
				res.SkippedRoles = append(res.SkippedRoles, string(role))
				continue
			}
			s.logger.Error("role lookup failed",
				slog.String("role", string(role)), slog.Any("error", err))
			res.SkippedRoles = append(res.SkippedRoles, string(role))
			continue
		}
		if err := s.accounts.BindRole(ctx, accounts.RoleBinding{
			CompanyID: companyID, Role: role, AccountID: acc.ID,
		}); err != nil {
			s.logger.Error("role binding failed",
				slog.String("role", string(role)), slog.Any("error", err))
			res.SkippedRoles = append(res.SkippedRoles, string(role))
			continue
		}
		res.RolesBound++
	}
}

func (s *Service) installPayroll(ctx context.Context, companyID int64, res *Result) error {
	for _, def := range salaryComponents {
		if err := s.store.UpsertComponent(ctx, def); err != nil {
			return fmt.Errorf("component %q: %w", def.Name, err)
		}
		res.Components++
		role, ok := componentAccountRoles[def.Name]
		if !ok {
			continue
		}
		acc, err := s.accounts.FindByName(ctx, companyID, roleNameFragments[role])
		if err != nil {
			s.logger.Warn("component account not found, leaving unlinked",
				slog.String("component", def.Name), slog.String("role", string(role)))
			res.SkippedLinks = append(res.SkippedLinks, def.Name)
			continue
		}
		if err := s.store.BindComponentAccount(ctx, def.Name, companyID, acc.ID); err != nil {
			return fmt.Errorf("link component %q: %w", def.Name, err)
		}
	}

	if err := s.store.UpsertSlab(ctx, irppSlab); err != nil {
		return fmt.Errorf("income tax slab: %w", err)
	}
	for _, def := range salaryStructures() {
		if err := s.store.UpsertStructure(ctx, companyID, def); err != nil {
			return fmt.Errorf("structure %q: %w", def.Name, err)
		}
		res.Structures++
	}
	return nil
}

func (s *Service) installTaxTemplates(ctx context.Context, companyID int64, res *Result) error {
	accountIDs := map[string]int64{}
	for _, def := range taxTemplates() {
		resolved := map[string]int64{}
		complete := true
		for _, line := range def.Lines {
			id, ok := accountIDs[line.AccountRole]
			if !ok {
				acc, err := s.accounts.FindByName(ctx, companyID, line.AccountRole)
				if err != nil {
					s.logger.Warn("tax template account not found, skipping template",
						slog.String("template", def.Title), slog.String("account", line.AccountRole))
					res.SkippedLinks = append(res.SkippedLinks, def.Title)
					complete = false
					break
				}
				id = acc.ID
				accountIDs[line.AccountRole] = id
			}
			resolved[line.AccountRole] = id
		}
		if !complete {
			continue
		}
		if err := s.store.UpsertTaxTemplate(ctx, companyID, def, resolved); err != nil {
			return fmt.Errorf("template %q: %w", def.Title, err)
		}
		res.TaxTemplates++
	}
	return nil
}

// rebuildSettings points the compliance settings at the chart's VAT account
// groups and restates the stamp duty default.
func (s *Service) rebuildSettings(ctx context.Context, companyID int64, res *Result) error {
	collected, err := s.vatChildren(ctx, companyID, collectedVATParentFragment)
	if err != nil {
		return err
	}
	deductible, err := s.vatChildren(ctx, companyID, deductibleVATParentFragment)
	if err != nil {
		return err
	}
	if err := s.settings.ReplaceVATAccounts(ctx, collected, deductible); err != nil {
		return fmt.Errorf("replace vat accounts: %w", err)
	}
	if err := s.store.SetStampDutyPerInvoice(ctx, "1.000"); err != nil {
		return fmt.Errorf("set stamp duty: %w", err)
	}
	res.VATCollected = len(collected)
	res.VATDeductible = len(deductible)
	return nil
}

func (s *Service) vatChildren(ctx context.Context, companyID int64, parentFragment string) ([]int64, error) {
	parent, err := s.accounts.FindGroup(ctx, companyID, parentFragment)
	if err != nil {
		if errors.Is(err, accounts.ErrRoleNotBound) {
			s.logger.Warn("vat parent group not found",
				slog.Int64("company_id", companyID), slog.String("fragment", parentFragment))
			return nil, nil
		}
		return nil, err
	}
	children, err := s.accounts.ListChildren(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
