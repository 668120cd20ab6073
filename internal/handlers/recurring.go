package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/recurring-engine/internal/dto"
	"github.com/GregMSThompson/recurring-engine/internal/errs"
	"github.com/GregMSThompson/recurring-engine/internal/middleware"
	"github.com/GregMSThompson/recurring-engine/internal/models"
	"github.com/GregMSThompson/recurring-engine/internal/response"
)

// LifecycleService covers template create/read/update/skip/delete.
type LifecycleService interface {
	Create(ctx context.Context, uid string, req dto.CreateTemplateRequest) (*models.RecurrenceTemplate, error)
	Get(ctx context.Context, uid, templateID string) (*models.RecurrenceTemplate, error)
	List(ctx context.Context, uid string, activeOnly bool) ([]*dto.TemplateWithUpcoming, error)
	ListInstances(ctx context.Context, uid, templateID string, includeDeleted bool) ([]*models.TransactionInstance, error)
	Update(ctx context.Context, uid, templateID string, patch dto.UpdateTemplateRequest, propagateToFuture bool) (*models.RecurrenceTemplate, error)
	AddSkipDates(ctx context.Context, uid, templateID string, dates []string) (*models.RecurrenceTemplate, error)
	Delete(ctx context.Context, uid, templateID string, scope dto.DeleteScope) error
}

// PreviewService projects occurrences for a draft template.
type PreviewService interface {
	Preview(ctx context.Context, req dto.PreviewRequest) ([]dto.PreviewOccurrence, error)
}

// GeneratorService is the on-demand trigger surface of the engine.
type GeneratorService interface {
	RunPass(ctx context.Context, horizon time.Time) (dto.GenerationReport, error)
}

type recurringHandlers struct {
	ResponseHandler response.ResponseHandler
	LifecycleSvc    LifecycleService
	PreviewSvc      PreviewService
	GeneratorSvc    GeneratorService
	HorizonMonths   int
}

func NewRecurringHandlers(deps *Deps) *recurringHandlers {
	months := deps.HorizonMonths
	if months <= 0 {
		months = 3
	}
	return &recurringHandlers{
		ResponseHandler: deps.ResponseHandler,
		LifecycleSvc:    deps.LifecycleSvc,
		PreviewSvc:      deps.PreviewSvc,
		GeneratorSvc:    deps.GeneratorSvc,
		HorizonMonths:   months,
	}
}

func (h *recurringHandlers) RecurringRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateTemplate)
	r.Get("/", h.ListTemplates)
	r.Post("/preview", h.Preview)   // must be before /{templateId}
	r.Post("/generate", h.Generate) // operator trigger
	r.Get("/{templateId}", h.GetTemplate)
	r.Put("/{templateId}", h.UpdateTemplate)
	r.Post("/{templateId}/skip-dates", h.AddSkipDates)
	r.Delete("/{templateId}", h.DeleteTemplate)
	r.Get("/{templateId}/instances", h.ListInstances)
	return r
}

func (h *recurringHandlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	uid := middleware.UID(r.Context())
	tpl, err := h.LifecycleSvc.Create(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, tpl)
}

func (h *recurringHandlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	activeOnly := r.URL.Query().Get("all") != "true"
	templates, err := h.LifecycleSvc.List(r.Context(), uid, activeOnly)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, templates)
}

func (h *recurringHandlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateId")
	uid := middleware.UID(r.Context())
	tpl, err := h.LifecycleSvc.Get(r.Context(), uid, templateID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tpl)
}

func (h *recurringHandlers) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateId")
	var req dto.UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	uid := middleware.UID(r.Context())
	propagate := r.URL.Query().Get("propagate") == "true"
	tpl, err := h.LifecycleSvc.Update(r.Context(), uid, templateID, req, propagate)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tpl)
}

func (h *recurringHandlers) AddSkipDates(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateId")
	var req dto.SkipDatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	uid := middleware.UID(r.Context())
	tpl, err := h.LifecycleSvc.AddSkipDates(r.Context(), uid, templateID, req.Dates)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tpl)
}

func (h *recurringHandlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateId")
	uid := middleware.UID(r.Context())
	scope := dto.DeleteScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = dto.ScopeTemplateOnly
	}
	if err := h.LifecycleSvc.Delete(r.Context(), uid, templateID, scope); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *recurringHandlers) ListInstances(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateId")
	uid := middleware.UID(r.Context())
	includeDeleted := r.URL.Query().Get("includeDeleted") == "true"
	instances, err := h.LifecycleSvc.ListInstances(r.Context(), uid, templateID, includeDeleted)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, instances)
}

func (h *recurringHandlers) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	occurrences, err := h.PreviewSvc.Preview(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, occurrences)
}

// Generate triggers a generation pass on demand. Safe to call at any
// time: the pass is idempotent.
func (h *recurringHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	horizon := time.Now().UTC().AddDate(0, h.HorizonMonths, 0)
	report, err := h.GeneratorSvc.RunPass(r.Context(), horizon)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, report)
}
