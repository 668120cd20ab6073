package services

import (
	"context"
	"time"

	"github.com/GregMSThompson/recurring-engine/internal/dto"
	"github.com/GregMSThompson/recurring-engine/internal/recurrence"
)

const (
	defaultPreviewCount = 3
	maxPreviewCount     = 36
	previewHorizonYears = 2
)

// previewService projects the next occurrences of a draft template. Pure
// computation; the draft need not be persisted and no store is touched.
type previewService struct {
	now func() time.Time
}

func NewPreviewService() *previewService {
	return &previewService{now: time.Now}
}

// Preview validates the draft like Create would and returns its next
// occurrences with the draft's amount/description/category echoed as a
// snapshot. The dates match what the Generation Engine would materialize
// for the same template values.
func (s *previewService) Preview(ctx context.Context, req dto.PreviewRequest) ([]dto.PreviewOccurrence, error) {
	bounds, err := validateTemplateInput(req.CreateTemplateRequest)
	if err != nil {
		return nil, err
	}

	count := req.Count
	if count <= 0 {
		count = defaultPreviewCount
	}
	if count > maxPreviewCount {
		count = maxPreviewCount
	}

	today := recurrence.Truncate(s.now().UTC())
	horizon := bounds.start.AddDate(previewHorizonYears, 0, 0)
	if today.After(bounds.start) {
		horizon = today.AddDate(previewHorizonYears, 0, 0)
	}

	after := bounds.rule.PreviousIntervalStart(bounds.start)
	dates := eligibleOccurrences(bounds, after, horizon, today, req.SkipDates)
	if len(dates) > count {
		dates = dates[:count]
	}

	out := make([]dto.PreviewOccurrence, len(dates))
	for i, d := range dates {
		out[i] = dto.PreviewOccurrence{
			Date:        recurrence.Format(d),
			Kind:        req.Kind,
			Amount:      req.Amount,
			Description: req.Description,
			CategoryID:  req.CategoryID,
		}
	}
	return out, nil
}
