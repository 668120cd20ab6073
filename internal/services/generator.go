package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/recurring-engine/internal/dto"
	"github.com/GregMSThompson/recurring-engine/internal/models"
	"github.com/GregMSThompson/recurring-engine/internal/recurrence"
	"github.com/GregMSThompson/recurring-engine/pkg/logger"
)

// generatorTemplateStore is the template storage interface for the engine.
type generatorTemplateStore interface {
	ListActive(ctx context.Context) ([]*models.RecurrenceTemplate, error)
	Get(ctx context.Context, uid, templateID string) (*models.RecurrenceTemplate, error)
}

// generatorInstanceStore is the instance storage interface for the engine.
type generatorInstanceStore interface {
	LatestOccurrence(ctx context.Context, uid, templateID string) (string, error)
	CreateMissing(ctx context.Context, uid string, batch []models.TransactionInstance) (int, error)
}

type generatorService struct {
	templates generatorTemplateStore
	instances generatorInstanceStore
	workers   int
	now       func() time.Time
}

func NewGeneratorService(templates generatorTemplateStore, instances generatorInstanceStore, workers int) *generatorService {
	if workers <= 0 {
		workers = 1
	}
	return &generatorService{
		templates: templates,
		instances: instances,
		workers:   workers,
		now:       time.Now,
	}
}

// RunPass materializes occurrences for every active template up to the
// horizon. Templates are processed independently on a bounded worker pool;
// one template's failure is recorded and does not stop the others. The
// pass is idempotent: instances that already exist are skipped.
func (s *generatorService) RunPass(ctx context.Context, horizon time.Time) (dto.GenerationReport, error) {
	started := time.Now()
	log := logger.FromContext(ctx)

	report := dto.GenerationReport{Horizon: recurrence.Format(horizon)}

	templates, err := s.templates.ListActive(ctx)
	if err != nil {
		return report, err
	}
	report.TemplatesProcessed = len(templates)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, tpl := range templates {
		tpl := tpl
		g.Go(func() error {
			created, err := s.generateForTemplate(ctx, tpl, horizon)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, dto.TemplateFailure{
					TemplateID: tpl.TemplateID,
					OwnerUID:   tpl.OwnerUID,
					Error:      err.Error(),
				})
				return nil
			}
			report.InstancesCreated += created
			return nil
		})
	}
	g.Wait()

	report.Duration = time.Since(started)
	log.Info("generation pass completed",
		"templates_processed", report.TemplatesProcessed,
		"instances_created", report.InstancesCreated,
		"failures", len(report.Failures),
		"horizon", report.Horizon,
		"duration", report.Duration.String(),
	)
	for _, f := range report.Failures {
		log.Error("template generation failed", "template_id", f.TemplateID, "error", f.Error)
	}

	return report, nil
}

// RunForTemplate runs a generation pass for a single template, used right
// after create so the caller sees near-term occurrences without waiting
// for the scheduled sweep. Inactive templates generate nothing.
func (s *generatorService) RunForTemplate(ctx context.Context, uid, templateID string, horizon time.Time) (int, error) {
	tpl, err := s.templates.Get(ctx, uid, templateID)
	if err != nil {
		return 0, err
	}
	if !tpl.Active {
		return 0, nil
	}
	return s.generateForTemplate(ctx, tpl, horizon)
}

func (s *generatorService) generateForTemplate(ctx context.Context, tpl *models.RecurrenceTemplate, horizon time.Time) (int, error) {
	bounds, err := parseTemplateBounds(tpl)
	if err != nil {
		return 0, err
	}

	// Resume where generation left off: the latest occurrence ever
	// written for this template, live or soft-deleted. A brand-new
	// template starts one interval before its start date so the start
	// date itself is produced.
	latest, err := s.instances.LatestOccurrence(ctx, tpl.OwnerUID, tpl.TemplateID)
	if err != nil {
		return 0, err
	}
	after := bounds.rule.PreviousIntervalStart(bounds.start)
	if latest != "" {
		cursor, err := recurrence.Parse(latest)
		if err != nil {
			return 0, err
		}
		after = cursor
	}

	today := recurrence.Truncate(s.now().UTC())
	dates := eligibleOccurrences(bounds, after, horizon, today, tpl.SkipDates)
	if len(dates) == 0 {
		return 0, nil
	}

	batch := make([]models.TransactionInstance, len(dates))
	for i, d := range dates {
		batch[i] = snapshotInstance(tpl, d)
	}
	return s.instances.CreateMissing(ctx, tpl.OwnerUID, batch)
}

// snapshotInstance copies the template's current values onto an instance
// for one occurrence date. Later template edits must not rewrite history.
func snapshotInstance(tpl *models.RecurrenceTemplate, date time.Time) models.TransactionInstance {
	return models.TransactionInstance{
		TemplateID:  tpl.TemplateID,
		Kind:        tpl.Kind,
		Amount:      tpl.Amount,
		Description: tpl.Description,
		CategoryID:  tpl.CategoryID,
		Date:        recurrence.Format(date),
		Notes:       "Auto-generated from recurring template",
	}
}

// parseTemplateBounds derives rule and date bounds from a stored template.
func parseTemplateBounds(tpl *models.RecurrenceTemplate) (templateBounds, error) {
	var b templateBounds

	rule, err := templateRule(tpl)
	if err != nil {
		return b, err
	}
	start, err := recurrence.Parse(tpl.StartDate)
	if err != nil {
		return b, err
	}
	var end *time.Time
	if tpl.EndDate != nil {
		e, err := recurrence.Parse(*tpl.EndDate)
		if err != nil {
			return b, err
		}
		end = &e
	}

	b.rule = rule
	b.start = start
	b.end = end
	return b, nil
}
