package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/declaration"
)

// DeclarationRefreshJob recomputes draft declarations so their figures track
// documents posted after the initial build. Submitted declarations are never
// touched.
type DeclarationRefreshJob struct {
	Pool    *pgxpool.Pool
	Service *declaration.Service
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewDeclarationRefreshJob initialises the refresh handler.
func NewDeclarationRefreshJob(pool *pgxpool.Pool, service *declaration.Service, logger *slog.Logger) *DeclarationRefreshJob {
	return &DeclarationRefreshJob{
		Pool:    pool,
		Service: service,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type draftRef struct {
	companyID         int64
	fiscalYear        string
	month             declaration.Month
	fetchSuspendedVAT bool
	fetchFODEC        bool
}

// Handle rebuilds each open draft in scope.
func (j *DeclarationRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil || j.Pool == nil {
		return errors.New("declaration refresh: handler not configured")
	}
	var payload DeclarationRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.clock()
	drafts, err := j.listDrafts(ctx, payload.CompanyID)
	if err != nil {
		return err
	}

	refreshed, failed := 0, 0
	for _, d := range drafts {
		_, err := j.Service.BuildDeclaration(ctx, declaration.BuildInput{
			CompanyID:         d.companyID,
			FiscalYear:        d.fiscalYear,
			Month:             d.month.String(),
			FetchSuspendedVAT: d.fetchSuspendedVAT,
			FetchFODEC:        d.fetchFODEC,
		})
		if err != nil {
			// A draft submitted between listing and rebuild is fine.
			if errors.Is(err, declaration.ErrAlreadySubmitted) {
				continue
			}
			failed++
			j.Logger.Error("draft refresh failed",
				slog.String("job_id", payload.JobID),
				slog.Int64("company_id", d.companyID),
				slog.String("month", d.month.String()),
				slog.Any("error", err))
			continue
		}
		refreshed++
	}
	j.Logger.Info("declaration refresh finished",
		slog.String("job_id", payload.JobID),
		slog.Int("refreshed", refreshed),
		slog.Int("failed", failed),
		slog.Duration("took", time.Since(start)))
	if failed > 0 && refreshed == 0 {
		return errors.New("declaration refresh: all drafts failed")
	}
	return nil
}

func (j *DeclarationRefreshJob) listDrafts(ctx context.Context, companyID int64) ([]draftRef, error) {
	query := `SELECT company_id, fiscal_year, month, fetch_suspended_vat, fetch_fodec
FROM vat_declarations WHERE status = 'DRAFT'`
	args := []any{}
	if companyID != 0 {
		query += ` AND company_id = $1`
		args = append(args, companyID)
	}
	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []draftRef
	for rows.Next() {
		var d draftRef
		var month int
		if err := rows.Scan(&d.companyID, &d.fiscalYear, &month, &d.fetchSuspendedVAT, &d.fetchFODEC); err != nil {
			return nil, err
		}
		d.month = declaration.Month(month)
		out = append(out, d)
	}
	return out, rows.Err()
}
