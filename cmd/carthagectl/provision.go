package main

import (
	"encoding/json"
	"os"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/carthage-erp/carthage-erp/jobs"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Install the Tunisian fiscal configuration on a company",
	Long: `Imports the chart of accounts (if the company has none), binds the
designated account roles, installs payroll components and structures, the
IRPP slab, the TVA tax templates and rebuilds the compliance settings.

Safe to re-run; an existing chart is never overwritten.`,
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	provisionCmd.Flags().Int64("company", 0, "Company ID to provision")
	provisionCmd.Flags().Bool("enqueue", false, "Enqueue as a background job instead of running inline")
	_ = provisionCmd.MarkFlagRequired("company")
}

func runProvision(cmd *cobra.Command, _ []string) error {
	companyID, _ := cmd.Flags().GetInt64("company")
	enqueue, _ := cmd.Flags().GetBool("enqueue")
	ctx := cmd.Context()

	rt, closeFn, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if enqueue {
		client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: rt.cfg.RedisAddr})
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		info, err := client.EnqueueProvisionCompany(ctx, companyID)
		if err != nil {
			return err
		}
		cmd.Printf("enqueued %s id=%s queue=%s\n", jobs.TaskProvisionCompany, info.ID, info.Queue)
		return nil
	}

	res, err := rt.provision.ProvisionCompany(ctx, companyID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
