// Package declarationhttp exposes the declaration engine over JSON endpoints.
package declarationhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/declaration"
	"github.com/carthage-erp/carthage-erp/internal/fiscal/fiscalyear"
	"github.com/carthage-erp/carthage-erp/internal/platform/httpx"
)

type declarationService interface {
	BuildDeclaration(ctx context.Context, in declaration.BuildInput) (*declaration.Declaration, error)
	GetDeclaration(ctx context.Context, id int64) (*declaration.Declaration, error)
	SubmitDeclaration(ctx context.Context, id int64) (*declaration.Declaration, error)
}

// Handler wires the declaration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  declarationService
	validate *validator.Validate
}

// NewHandler constructs a declaration HTTP handler.
func NewHandler(logger *slog.Logger, service declarationService) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers routes on the supplied router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/declarations", h.Build)
	r.Get("/declarations/{id}", h.Get)
	r.Post("/declarations/{id}/submit", h.Submit)
}

type buildRequest struct {
	CompanyID         int64  `json:"company_id" validate:"required,gt=0"`
	FiscalYear        string `json:"fiscal_year" validate:"required"`
	Month             string `json:"month" validate:"required"`
	FetchSuspendedVAT bool   `json:"fetch_suspended_vat"`
	FetchFODEC        bool   `json:"fetch_fodec"`
}

// Build recomputes a draft declaration for the selected period.
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	d, err := h.service.BuildDeclaration(r.Context(), declaration.BuildInput{
		CompanyID:         req.CompanyID,
		FiscalYear:        req.FiscalYear,
		Month:             req.Month,
		FetchSuspendedVAT: req.FetchSuspendedVAT,
		FetchFODEC:        req.FetchFODEC,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// Get returns one declaration with its detail rows.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid declaration id")
		return
	}
	d, err := h.service.GetDeclaration(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// Submit finalises a draft declaration.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid declaration id")
		return
	}
	d, err := h.service.SubmitDeclaration(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, declaration.ErrCompanyRequired),
		errors.Is(err, declaration.ErrFiscalYearRequired),
		errors.Is(err, declaration.ErrMonthRequired),
		errors.Is(err, declaration.ErrUnknownMonth):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, declaration.ErrPeriodOutsideFiscalYear),
		errors.Is(err, fiscalyear.ErrNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Configuration Error", err.Error())
	case errors.Is(err, declaration.ErrAlreadySubmitted):
		httpx.Problem(w, http.StatusConflict, "Already Submitted", err.Error())
	case errors.Is(err, declaration.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("declaration request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
