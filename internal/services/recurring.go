package services

import (
	"fmt"
	"time"

	"github.com/GregMSThompson/recurring-engine/internal/dto"
	"github.com/GregMSThompson/recurring-engine/internal/errs"
	"github.com/GregMSThompson/recurring-engine/internal/models"
	"github.com/GregMSThompson/recurring-engine/internal/recurrence"
)

const maxDescriptionLen = 255

// ruleFor builds the recurrence rule for an interval and its anchors.
// Anchors on the wrong interval kind are rejected rather than ignored.
func ruleFor(interval string, dayOfWeek, dayOfMonth *int) (recurrence.Rule, error) {
	switch interval {
	case models.IntervalDaily:
		if dayOfWeek != nil || dayOfMonth != nil {
			return recurrence.Rule{}, errs.NewValidationError("daily interval takes no day anchor")
		}
		return recurrence.Daily(), nil

	case models.IntervalWeekly:
		if dayOfMonth != nil {
			return recurrence.Rule{}, errs.NewValidationError("weekly interval takes dayOfWeek, not dayOfMonth")
		}
		if dayOfWeek == nil {
			return recurrence.WeeklyAny(), nil
		}
		rule, err := recurrence.Weekly(*dayOfWeek)
		if err != nil {
			return recurrence.Rule{}, errs.NewValidationError(err.Error())
		}
		return rule, nil

	case models.IntervalMonthly:
		if dayOfWeek != nil {
			return recurrence.Rule{}, errs.NewValidationError("monthly interval takes dayOfMonth, not dayOfWeek")
		}
		if dayOfMonth == nil {
			return recurrence.MonthlyAny(), nil
		}
		rule, err := recurrence.Monthly(*dayOfMonth)
		if err != nil {
			return recurrence.Rule{}, errs.NewValidationError(err.Error())
		}
		return rule, nil

	default:
		return recurrence.Rule{}, errs.NewValidationError(fmt.Sprintf("unknown interval %q", interval))
	}
}

// templateRule converts a stored template into its recurrence rule.
func templateRule(tpl *models.RecurrenceTemplate) (recurrence.Rule, error) {
	return ruleFor(tpl.Interval, tpl.DayOfWeek, tpl.DayOfMonth)
}

// templateBounds holds the parsed, validated date bounds of a template.
type templateBounds struct {
	rule  recurrence.Rule
	start time.Time
	end   *time.Time
}

// validateTemplateInput checks a create/preview payload against the
// template invariants and returns the parsed rule and bounds.
func validateTemplateInput(req dto.CreateTemplateRequest) (templateBounds, error) {
	var b templateBounds

	if req.Kind != models.KindIncome && req.Kind != models.KindExpense {
		return b, errs.NewValidationError("kind must be income or expense")
	}
	if req.Amount <= 0 {
		return b, errs.NewValidationError("amount must be positive")
	}
	if req.Description == "" {
		return b, errs.NewValidationError("description is required")
	}
	if len(req.Description) > maxDescriptionLen {
		return b, errs.NewValidationError("description is too long")
	}

	rule, err := ruleFor(req.Interval, req.DayOfWeek, req.DayOfMonth)
	if err != nil {
		return b, err
	}

	start, err := recurrence.Parse(req.StartDate)
	if err != nil {
		return b, errs.NewValidationError("startDate must be a YYYY-MM-DD date")
	}

	var end *time.Time
	if req.EndDate != nil {
		e, err := recurrence.Parse(*req.EndDate)
		if err != nil {
			return b, errs.NewValidationError("endDate must be a YYYY-MM-DD date")
		}
		if !e.After(start) {
			return b, errs.NewValidationError("endDate must be after startDate")
		}
		end = &e
	}

	for _, s := range req.SkipDates {
		if _, err := recurrence.Parse(s); err != nil {
			return b, errs.NewValidationError(fmt.Sprintf("skip date %q must be a YYYY-MM-DD date", s))
		}
	}

	b.rule = rule
	b.start = start
	b.end = end
	return b, nil
}

// eligibleOccurrences expands a template's occurrences after the cursor up
// to the horizon and drops dates already in the past, with one exception:
// the template's own start date stays eligible so a freshly created
// template materializes its first occurrence even when it is backdated.
// The Preview Service and the Generation Engine both route through this
// function; their outputs agreeing is a contract.
func eligibleOccurrences(b templateBounds, afterExclusive, horizon, today time.Time, skipDates []string) []time.Time {
	expanded := recurrence.Expand(b.rule, afterExclusive, horizon, b.end, skipDates)

	out := expanded[:0]
	for _, d := range expanded {
		if d.Before(b.start) {
			continue
		}
		if d.Before(today) && !d.Equal(b.start) {
			continue
		}
		out = append(out, d)
	}
	return out
}
