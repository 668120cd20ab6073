package dto

import (
	"time"

	"github.com/GregMSThompson/recurring-engine/internal/models"
)

// CreateTemplateRequest is the payload for creating a recurrence template.
type CreateTemplateRequest struct {
	Kind        string   `json:"kind"`
	Amount      float64  `json:"amount"`
	Description string   `json:"description"`
	CategoryID  string   `json:"categoryId,omitempty"`
	Interval    string   `json:"interval"`
	DayOfWeek   *int     `json:"dayOfWeek,omitempty"`
	DayOfMonth  *int     `json:"dayOfMonth,omitempty"`
	StartDate   string   `json:"startDate"`
	EndDate     *string  `json:"endDate,omitempty"`
	SkipDates   []string `json:"skipDates,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// UpdateTemplateRequest is a partial template patch. Nil fields are left
// unchanged.
type UpdateTemplateRequest struct {
	Amount      *float64 `json:"amount,omitempty"`
	Description *string  `json:"description,omitempty"`
	CategoryID  *string  `json:"categoryId,omitempty"`
	Interval    *string  `json:"interval,omitempty"`
	DayOfWeek   *int     `json:"dayOfWeek,omitempty"`
	DayOfMonth  *int     `json:"dayOfMonth,omitempty"`
	EndDate     *string  `json:"endDate,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// SkipDatesRequest appends calendar dates excluded from generation.
type SkipDatesRequest struct {
	Dates []string `json:"dates"`
}

// DeleteScope controls how far a template delete reaches across its
// generated history.
type DeleteScope string

const (
	// ScopeTemplateOnly retires the template; every instance is kept.
	ScopeTemplateOnly DeleteScope = "template_only"
	// ScopeFuture retires the template and soft-deletes live instances
	// dated today or later.
	ScopeFuture DeleteScope = "future"
	// ScopeCurrentAndFuture retires the template and soft-deletes live
	// instances dated on or after the first of the current month.
	ScopeCurrentAndFuture DeleteScope = "current_and_future"
	// ScopeAll removes the template and hard-deletes every linked
	// instance. Irreversible.
	ScopeAll DeleteScope = "all"
)

// Valid reports whether the scope is one of the four supported values.
func (s DeleteScope) Valid() bool {
	switch s {
	case ScopeTemplateOnly, ScopeFuture, ScopeCurrentAndFuture, ScopeAll:
		return true
	}
	return false
}

// PreviewRequest asks for the next occurrences of a draft template that
// may not be persisted yet.
type PreviewRequest struct {
	CreateTemplateRequest
	Count int `json:"count,omitempty"`
}

// PreviewOccurrence is one projected occurrence with the template's
// current values echoed as a snapshot.
type PreviewOccurrence struct {
	Date        string  `json:"date"`
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"categoryId,omitempty"`
}

// TemplateFailure records one template whose generation batch failed.
// The rest of the pass is unaffected.
type TemplateFailure struct {
	TemplateID string `json:"templateId"`
	OwnerUID   string `json:"ownerUid"`
	Error      string `json:"error"`
}

// GenerationReport summarizes one generation pass.
type GenerationReport struct {
	TemplatesProcessed int               `json:"templatesProcessed"`
	InstancesCreated   int               `json:"instancesCreated"`
	Failures           []TemplateFailure `json:"failures,omitempty"`
	Duration           time.Duration     `json:"durationNs"`
	Horizon            string            `json:"horizon"`
}

// TemplateWithUpcoming decorates a template with its next projected
// occurrence dates for the manager UI.
type TemplateWithUpcoming struct {
	models.RecurrenceTemplate
	Upcoming []string `json:"upcoming,omitempty"`
}
