package provision

import (
	"github.com/shopspring/decimal"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/accounts"
)

// Account name fragments used once at provisioning time to bind typed roles.
// Declaration runs only ever see the resolved bindings.
var roleNameFragments = map[accounts.Role]string{
	accounts.RoleCNSSLiability:        "CNSS",
	accounts.RoleTaxLiability:         "Etat, impôts et taxes retenus à la source",
	accounts.RoleSalaryExpense:        "Salaires",
	accounts.RoleSocialChargesExpense: "Cotisations de sécurité sociale sur salaires",
	accounts.RoleVATFixedAssets:       "TVA sur immobilisations",
}

// Salary component names referenced by structures and the declaration engine.
const (
	componentBaseSalary    = "Salaire de Base"
	componentTimesheetPay  = "Paiement par Feuille de Temps"
	componentCommission    = "Commission sur Ventes"
	componentSIVPAllowance = "Indemnité SIVP"
	componentTransport     = "Indemnité de Transport"
	componentAttendance    = "Prime de Présence"
	componentOtherBonuses  = "Autres Primes (Imposables)"
	componentCNSSEmployee  = "CNSS - Cotisation Salariale (9.18%)"
	componentProfExpenses  = "Frais Professionnels"
	componentHeadOfFamily  = "Déduction - Chef de Famille"
	componentChildStandard = "Déduction - Enfant Standard"
	componentChildHigherEd = "Déduction - Enfant Supérieur"
	componentChildDisabled = "Déduction - Enfant Handicapé"
	componentIRPP          = "Impôt sur le Revenu (IRPP)"
	componentCSS           = "Contribution Sociale de Solidarité (CSS)"
	componentSalaryAdvance = "Avance sur Salaire"
	componentCNSSEmployer  = "CNSS - Part Patronale (16.57%)"
	componentTFP           = "Taxe de Formation Professionnelle (TFP)"
	componentFOPROLOS      = "Fonds de Logement Social (FOPROLOS)"
)

var salaryComponents = []ComponentDef{
	{Name: componentBaseSalary, Abbr: "SB", Type: ComponentEarning, TaxApplicable: true},
	{Name: componentTimesheetPay, Abbr: "H", Type: ComponentEarning, TaxApplicable: true, TimesheetBased: true},
	{Name: componentCommission, Abbr: "COMM", Type: ComponentEarning, TaxApplicable: true},
	{Name: componentSIVPAllowance, Abbr: "SIVP", Type: ComponentEarning},
	{Name: componentTransport, Abbr: "IND-T", Type: ComponentEarning},
	{Name: componentAttendance, Abbr: "PR-P", Type: ComponentEarning, TaxApplicable: true},
	{Name: componentOtherBonuses, Abbr: "PR-I", Type: ComponentEarning, TaxApplicable: true},
	{Name: componentCNSSEmployee, Abbr: "CNSS-S", Type: ComponentDeduction, TaxApplicable: true},
	{Name: componentProfExpenses, Abbr: "FP", Type: ComponentDeduction, TaxApplicable: true},
	{Name: componentHeadOfFamily, Abbr: "DED-CF", Type: ComponentDeduction, TaxApplicable: true},
	{Name: componentChildStandard, Abbr: "DED-ES", Type: ComponentDeduction, TaxApplicable: true},
	{Name: componentChildHigherEd, Abbr: "DED-ESUP", Type: ComponentDeduction, TaxApplicable: true},
	{Name: componentChildDisabled, Abbr: "DED-EH", Type: ComponentDeduction, TaxApplicable: true},
	{Name: componentIRPP, Abbr: "IRPP", Type: ComponentDeduction, VariableOnTaxable: true},
	{Name: componentCSS, Abbr: "CSS", Type: ComponentDeduction},
	{Name: componentSalaryAdvance, Abbr: "AVANCE", Type: ComponentDeduction},
	{Name: componentCNSSEmployer, Abbr: "CNSS-P", Type: ComponentDeduction, ExcludeFromTotal: true},
	{Name: componentTFP, Abbr: "TFP", Type: ComponentDeduction, ExcludeFromTotal: true},
	{Name: componentFOPROLOS, Abbr: "FOPROLOS", Type: ComponentDeduction, ExcludeFromTotal: true},
}

// componentAccountRoles maps each component to the company account role its
// bookings post against.
var componentAccountRoles = map[string]accounts.Role{
	componentBaseSalary:    accounts.RoleSalaryExpense,
	componentTimesheetPay:  accounts.RoleSalaryExpense,
	componentCommission:    accounts.RoleSalaryExpense,
	componentSIVPAllowance: accounts.RoleSalaryExpense,
	componentTransport:     accounts.RoleSalaryExpense,
	componentAttendance:    accounts.RoleSalaryExpense,
	componentOtherBonuses:  accounts.RoleSalaryExpense,
	componentCNSSEmployee:  accounts.RoleCNSSLiability,
	componentIRPP:          accounts.RoleTaxLiability,
	componentCSS:           accounts.RoleTaxLiability,
	componentCNSSEmployer:  accounts.RoleCNSSLiability,
	componentTFP:           accounts.RoleTaxLiability,
	componentFOPROLOS:      accounts.RoleTaxLiability,
}

const irppSlabName = "Barème IRPP Tunisie - 2025"

var irppSlab = SlabDef{
	Name:          irppSlabName,
	EffectiveFrom: "2025-01-01",
	Brackets: []SlabBracket{
		{From: dec("0"), To: dec("8000"), Percent: dec("0")},
		{From: dec("8000.01"), To: dec("20000"), Percent: dec("26")},
		{From: dec("20000.01"), To: dec("30000"), Percent: dec("28")},
		{From: dec("30000.01"), To: dec("50000"), Percent: dec("32")},
		{From: dec("50000.01"), To: dec("80000"), Percent: dec("34")},
		{From: dec("80000.01"), To: dec("99999999"), Percent: dec("35")},
	},
}

// statutoryDeductions shared by every contributory structure.
var statutoryDeductions = []StructureLine{
	{Component: componentCNSSEmployee, Formula: "base * 0.0918"},
	{Component: componentProfExpenses, Formula: "min(base * 0.10, 2000 / 12)"},
	{Component: componentIRPP},
	{Component: componentCSS, Formula: "taxable_earning * 0.01"},
	{Component: componentSalaryAdvance},
}

// employerCharges are employer-side levies excluded from the net total.
var employerCharges = []StructureLine{
	{Component: componentCNSSEmployer, Formula: "base * 0.1657"},
	{Component: componentTFP, Formula: "base * 0.02"},
	{Component: componentFOPROLOS, Formula: "base * 0.01"},
}

func salaryStructures() []StructureDef {
	familyDeductions := []StructureLine{
		{Component: componentHeadOfFamily, Condition: "employee.head_of_household == 1", Formula: "300 / 12"},
		{Component: componentChildStandard, Condition: "employee.standard_children > 0", Formula: "employee.standard_children * 100"},
		{Component: componentChildHigherEd, Condition: "employee.he_children > 0", Formula: "employee.he_children * (2000 / 12)"},
		{Component: componentChildDisabled, Condition: "employee.disabled_children > 0", Formula: "employee.disabled_children * (2000 / 12)"},
	}
	return []StructureDef{
		{
			Name:          "Structure Salariale Standard",
			IncomeTaxSlab: irppSlabName,
			Earnings: []StructureLine{
				{Component: componentBaseSalary, Formula: "base", DefaultAmount: dec("1000")},
				{Component: componentTransport, DefaultAmount: dec("70")},
				{Component: componentAttendance},
				{Component: componentOtherBonuses},
			},
			Deductions: concatLines(statutoryDeductions[:2], familyDeductions, statutoryDeductions[2:], employerCharges),
		},
		{
			Name:           "Structure Salariale Horaire",
			IncomeTaxSlab:  irppSlabName,
			TimesheetBased: true,
			PayComponent:   componentTimesheetPay,
			Earnings: []StructureLine{
				{Component: componentTransport, DefaultAmount: dec("70")},
			},
			Deductions: concatLines(statutoryDeductions, employerCharges),
		},
		{
			Name:          "Structure Salariale Vente (Commission)",
			IncomeTaxSlab: irppSlabName,
			Earnings: []StructureLine{
				{Component: componentBaseSalary, Formula: "base", DefaultAmount: dec("1000")},
				{Component: componentCommission},
			},
			Deductions: concatLines(statutoryDeductions, employerCharges),
		},
		{
			// SIVP interns carry no employee-side contributions.
			Name: "Structure Salariale SIVP",
			Earnings: []StructureLine{
				{Component: componentSIVPAllowance},
			},
			Deductions: employerCharges,
		},
	}
}

func taxTemplates() []TaxTemplateDef {
	var out []TaxTemplateDef
	for _, rate := range []string{"19", "13", "7"} {
		out = append(out, TaxTemplateDef{
			Title: "TVA " + rate + "% - TN",
			Kind:  TemplateSales,
			Lines: []TemplateLine{
				{AccountRole: "TVA collectée sur les débits", Rate: dec(rate), Description: "TVA @ " + rate + "%"},
				{AccountRole: "Droit de timbre fiscal", FixedAmount: dec("1"), Description: "Timbre Fiscal"},
			},
		})
		out = append(out, TaxTemplateDef{
			Title: "TVA " + rate + "% (Achats) - TN",
			Kind:  TemplatePurchase,
			Lines: []TemplateLine{
				{AccountRole: "TVA sur autres biens et services", Rate: dec(rate), Description: "TVA Déductible @ " + rate + "%"},
			},
		})
	}
	return out
}

// VAT account list parents in the chart; children become the settings lists.
const (
	collectedVATParentFragment  = "Taxes sur le chiffre d'affaires collectées par l'entreprise"
	deductibleVATParentFragment = "Taxes sur le chiffre d'affaires déductibles"
)

func concatLines(groups ...[]StructureLine) []StructureLine {
	var out []StructureLine
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
