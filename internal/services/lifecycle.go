package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/recurring-engine/internal/dto"
	"github.com/GregMSThompson/recurring-engine/internal/errs"
	"github.com/GregMSThompson/recurring-engine/internal/models"
	"github.com/GregMSThompson/recurring-engine/internal/recurrence"
	"github.com/GregMSThompson/recurring-engine/pkg/logger"
)

// lifecycleTemplateStore is the template storage interface for lifecycle
// operations. The multi-document methods are atomic units: they commit
// whole or roll back whole.
type lifecycleTemplateStore interface {
	Create(ctx context.Context, uid string, tpl *models.RecurrenceTemplate) error
	Get(ctx context.Context, uid, templateID string) (*models.RecurrenceTemplate, error)
	List(ctx context.Context, uid string, activeOnly bool) ([]*models.RecurrenceTemplate, error)
	Update(ctx context.Context, uid, templateID string, apply func(*models.RecurrenceTemplate) error) (*models.RecurrenceTemplate, error)
	UpdateWithPropagation(ctx context.Context, uid, templateID string, apply func(*models.RecurrenceTemplate) error, fromDate string) (*models.RecurrenceTemplate, error)
	AppendSkipDates(ctx context.Context, uid, templateID string, dates []string, today string) (*models.RecurrenceTemplate, error)
	DeleteScoped(ctx context.Context, uid, templateID string, scope dto.DeleteScope, today string) error
}

// lifecycleInstanceStore is the instance read interface for the manager UI.
type lifecycleInstanceStore interface {
	ListByTemplate(ctx context.Context, uid, templateID string, includeDeleted bool) ([]*models.TransactionInstance, error)
}

// lifecycleGenerator runs the single-template pass after create.
type lifecycleGenerator interface {
	RunForTemplate(ctx context.Context, uid, templateID string, horizon time.Time) (int, error)
}

type lifecycleService struct {
	templates     lifecycleTemplateStore
	instances     lifecycleInstanceStore
	generator     lifecycleGenerator
	horizonMonths int
	now           func() time.Time
}

func NewLifecycleService(templates lifecycleTemplateStore, instances lifecycleInstanceStore, generator lifecycleGenerator, horizonMonths int) *lifecycleService {
	if horizonMonths <= 0 {
		horizonMonths = 3
	}
	return &lifecycleService{
		templates:     templates,
		instances:     instances,
		generator:     generator,
		horizonMonths: horizonMonths,
		now:           time.Now,
	}
}

// Create validates and persists a new template, then immediately runs a
// single-template generation pass so near-term occurrences appear without
// waiting for the next scheduled sweep.
func (s *lifecycleService) Create(ctx context.Context, uid string, req dto.CreateTemplateRequest) (*models.RecurrenceTemplate, error) {
	if _, err := validateTemplateInput(req); err != nil {
		return nil, err
	}

	now := s.now()
	tpl := &models.RecurrenceTemplate{
		TemplateID:  uuid.New().String(),
		OwnerUID:    uid,
		Kind:        req.Kind,
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Interval:    req.Interval,
		DayOfWeek:   req.DayOfWeek,
		DayOfMonth:  req.DayOfMonth,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		SkipDates:   req.SkipDates,
		Notes:       req.Notes,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.templates.Create(ctx, uid, tpl); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	created, err := s.generator.RunForTemplate(ctx, uid, tpl.TemplateID, s.horizon())
	if err != nil {
		// The template exists; the scheduled sweep will pick it up.
		log.Warn("initial generation pass failed", "template_id", tpl.TemplateID, "error", err)
	} else {
		log.Info("template created", "template_id", tpl.TemplateID, "interval", tpl.Interval, "instances_created", created)
	}

	return tpl, nil
}

func (s *lifecycleService) Get(ctx context.Context, uid, templateID string) (*models.RecurrenceTemplate, error) {
	return s.templates.Get(ctx, uid, templateID)
}

// List returns the caller's templates, each annotated with its next
// projected occurrence dates.
func (s *lifecycleService) List(ctx context.Context, uid string, activeOnly bool) ([]*dto.TemplateWithUpcoming, error) {
	templates, err := s.templates.List(ctx, uid, activeOnly)
	if err != nil {
		return nil, err
	}

	today := recurrence.Truncate(s.now().UTC())
	out := make([]*dto.TemplateWithUpcoming, 0, len(templates))
	for _, tpl := range templates {
		entry := &dto.TemplateWithUpcoming{RecurrenceTemplate: *tpl}
		if tpl.Active {
			entry.Upcoming = upcomingDates(tpl, defaultPreviewCount, today)
		}
		out = append(out, entry)
	}
	return out, nil
}

// ListInstances returns the generated instances for one of the caller's
// templates.
func (s *lifecycleService) ListInstances(ctx context.Context, uid, templateID string, includeDeleted bool) ([]*models.TransactionInstance, error) {
	if _, err := s.templates.Get(ctx, uid, templateID); err != nil {
		return nil, err
	}
	return s.instances.ListByTemplate(ctx, uid, templateID, includeDeleted)
}

// Update applies a partial patch. With propagateToFuture, the template's
// new amount/description/category are also written onto its live instances
// dated today or later; past instances stay as recorded.
func (s *lifecycleService) Update(ctx context.Context, uid, templateID string, patch dto.UpdateTemplateRequest, propagateToFuture bool) (*models.RecurrenceTemplate, error) {
	apply := func(tpl *models.RecurrenceTemplate) error {
		return applyPatch(tpl, patch)
	}

	if propagateToFuture {
		today := recurrence.Format(recurrence.Truncate(s.now().UTC()))
		return s.templates.UpdateWithPropagation(ctx, uid, templateID, apply, today)
	}
	return s.templates.Update(ctx, uid, templateID, apply)
}

// AddSkipDates appends excluded dates and soft-deletes any already
// generated future instance that now matches one.
func (s *lifecycleService) AddSkipDates(ctx context.Context, uid, templateID string, dates []string) (*models.RecurrenceTemplate, error) {
	if len(dates) == 0 {
		return nil, errs.NewValidationError("at least one skip date is required")
	}
	for _, d := range dates {
		if _, err := recurrence.Parse(d); err != nil {
			return nil, errs.NewValidationError("skip dates must be YYYY-MM-DD dates")
		}
	}

	today := recurrence.Format(recurrence.Truncate(s.now().UTC()))
	return s.templates.AppendSkipDates(ctx, uid, templateID, dates, today)
}

// Delete retires or removes the template with the given scope.
func (s *lifecycleService) Delete(ctx context.Context, uid, templateID string, scope dto.DeleteScope) error {
	if !scope.Valid() {
		return errs.NewValidationError("scope must be one of template_only, future, current_and_future, all")
	}
	today := recurrence.Format(recurrence.Truncate(s.now().UTC()))
	return s.templates.DeleteScoped(ctx, uid, templateID, scope, today)
}

func (s *lifecycleService) horizon() time.Time {
	return recurrence.Truncate(s.now().UTC()).AddDate(0, s.horizonMonths, 0)
}

// applyPatch mutates the template with the patch fields, then re-validates
// the resulting state against the template invariants. Changing the
// interval clears stale anchors unless the patch supplies new ones.
func applyPatch(tpl *models.RecurrenceTemplate, patch dto.UpdateTemplateRequest) error {
	if patch.Interval != nil && *patch.Interval != tpl.Interval {
		tpl.Interval = *patch.Interval
		tpl.DayOfWeek = nil
		tpl.DayOfMonth = nil
	}
	if patch.DayOfWeek != nil {
		tpl.DayOfWeek = patch.DayOfWeek
	}
	if patch.DayOfMonth != nil {
		tpl.DayOfMonth = patch.DayOfMonth
	}
	if patch.Amount != nil {
		tpl.Amount = *patch.Amount
	}
	if patch.Description != nil {
		tpl.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		tpl.CategoryID = *patch.CategoryID
	}
	if patch.EndDate != nil {
		tpl.EndDate = patch.EndDate
	}
	if patch.Notes != nil {
		tpl.Notes = *patch.Notes
	}

	_, err := validateTemplateInput(dto.CreateTemplateRequest{
		Kind:        tpl.Kind,
		Amount:      tpl.Amount,
		Description: tpl.Description,
		CategoryID:  tpl.CategoryID,
		Interval:    tpl.Interval,
		DayOfWeek:   tpl.DayOfWeek,
		DayOfMonth:  tpl.DayOfMonth,
		StartDate:   tpl.StartDate,
		EndDate:     tpl.EndDate,
		SkipDates:   tpl.SkipDates,
	})
	return err
}

// upcomingDates projects the template's next n occurrence dates from today
// forward. Best effort; a malformed stored template yields no annotation.
func upcomingDates(tpl *models.RecurrenceTemplate, n int, today time.Time) []string {
	bounds, err := parseTemplateBounds(tpl)
	if err != nil {
		return nil
	}

	after := today.AddDate(0, 0, -1)
	if bounds.start.After(today) {
		after = bounds.rule.PreviousIntervalStart(bounds.start)
	}
	horizon := today.AddDate(previewHorizonYears, 0, 0)

	dates := recurrence.Expand(bounds.rule, after, horizon, bounds.end, tpl.SkipDates)
	if len(dates) > n {
		dates = dates[:n]
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = recurrence.Format(d)
	}
	return out
}
