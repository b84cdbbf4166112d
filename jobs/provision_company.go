package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/carthage-erp/carthage-erp/internal/provision"
)

// ProvisionCompanyJob runs the provisioning service from the queue.
type ProvisionCompanyJob struct {
	Service *provision.Service
	Logger  *slog.Logger
}

// NewProvisionCompanyJob initialises the provisioning handler.
func NewProvisionCompanyJob(service *provision.Service, logger *slog.Logger) *ProvisionCompanyJob {
	return &ProvisionCompanyJob{Service: service, Logger: logger}
}

// Handle executes one provisioning run.
func (j *ProvisionCompanyJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("provision job: handler not configured")
	}
	var payload ProvisionCompanyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CompanyID == 0 {
		return asynq.SkipRetry
	}

	res, err := j.Service.ProvisionCompany(ctx, payload.CompanyID)
	if err != nil {
		if errors.Is(err, provision.ErrCompanyNotFound) {
			j.Logger.Warn("provisioning skipped, company missing",
				slog.String("job_id", payload.JobID),
				slog.Int64("company_id", payload.CompanyID))
			return asynq.SkipRetry
		}
		return err
	}
	j.Logger.Info("provisioning finished",
		slog.String("job_id", payload.JobID),
		slog.Int64("company_id", payload.CompanyID),
		slog.Int("roles_bound", res.RolesBound),
		slog.Int("tax_templates", res.TaxTemplates))
	return nil
}
