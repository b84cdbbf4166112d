package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/declaration"
)

var declareCmd = &cobra.Command{
	Use:   "declare",
	Short: "Build and submit VAT declarations",
}

var declareBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compute or recompute a draft declaration",
	Example: `  # March declaration of fiscal year 2025 for company 1
  carthagectl declare build --company 1 --year 2025 --month March

  # French month names work too
  carthagectl declare build --company 1 --year 2025-2026 --month Février --fodec`,
	RunE: runDeclareBuild,
}

var declareSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a draft declaration, making it immutable",
	RunE:  runDeclareSubmit,
}

func init() {
	rootCmd.AddCommand(declareCmd)
	declareCmd.AddCommand(declareBuildCmd, declareSubmitCmd)

	declareBuildCmd.Flags().Int64("company", 0, "Company ID")
	declareBuildCmd.Flags().String("year", "", "Fiscal year code")
	declareBuildCmd.Flags().String("month", "", "Declaration month (English or French name)")
	declareBuildCmd.Flags().Bool("suspended", false, "Include suspended-regime VAT")
	declareBuildCmd.Flags().Bool("fodec", false, "Include the FODEC surtax")
	_ = declareBuildCmd.MarkFlagRequired("company")
	_ = declareBuildCmd.MarkFlagRequired("year")
	_ = declareBuildCmd.MarkFlagRequired("month")

	declareSubmitCmd.Flags().Int64("id", 0, "Declaration ID")
	_ = declareSubmitCmd.MarkFlagRequired("id")
}

func runDeclareBuild(cmd *cobra.Command, _ []string) error {
	companyID, _ := cmd.Flags().GetInt64("company")
	year, _ := cmd.Flags().GetString("year")
	month, _ := cmd.Flags().GetString("month")
	suspended, _ := cmd.Flags().GetBool("suspended")
	fodec, _ := cmd.Flags().GetBool("fodec")

	rt, closeFn, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	d, err := rt.declaration.BuildDeclaration(cmd.Context(), declaration.BuildInput{
		CompanyID:         companyID,
		FiscalYear:        year,
		Month:             month,
		FetchSuspendedVAT: suspended,
		FetchFODEC:        fodec,
	})
	if err != nil {
		return err
	}
	return printJSON(d)
}

func runDeclareSubmit(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetInt64("id")

	rt, closeFn, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	d, err := rt.declaration.SubmitDeclaration(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printJSON(d)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
