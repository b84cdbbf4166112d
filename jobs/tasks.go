// Package jobs wires the Asynq background workers: company provisioning and
// the nightly refresh of draft declarations.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProvisionCompany installs the fiscal configuration on a company.
	TaskProvisionCompany = "provision:company"
	// TaskDeclarationRefresh recomputes the open draft declarations.
	TaskDeclarationRefresh = "declaration:refresh"
)

// ProvisionCompanyPayload identifies the company to provision.
type ProvisionCompanyPayload struct {
	JobID     string `json:"job_id"`
	CompanyID int64  `json:"company_id"`
}

// NewProvisionCompanyTask constructs an Asynq task.
func NewProvisionCompanyTask(companyID int64) (*asynq.Task, error) {
	data, err := json.Marshal(ProvisionCompanyPayload{
		JobID:     uuid.NewString(),
		CompanyID: companyID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProvisionCompany, data, asynq.Queue(QueueDefault)), nil
}

// DeclarationRefreshPayload scopes a refresh run. A zero CompanyID means
// every company with a draft declaration.
type DeclarationRefreshPayload struct {
	JobID        string    `json:"job_id"`
	CompanyID    int64     `json:"company_id,omitempty"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewDeclarationRefreshTask constructs an Asynq task.
func NewDeclarationRefreshTask(companyID int64, at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(DeclarationRefreshPayload{
		JobID:        uuid.NewString(),
		CompanyID:    companyID,
		ScheduledFor: at,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeclarationRefresh, data, asynq.Queue(QueueDefault)), nil
}
