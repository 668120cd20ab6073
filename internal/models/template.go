package models

import (
	"time"
)

// Interval values for RecurrenceTemplate.
const (
	IntervalDaily   = "daily"
	IntervalWeekly  = "weekly"
	IntervalMonthly = "monthly"
)

// Transaction kinds shared by templates and instances.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// RecurrenceTemplate is a persisted recurrence rule. Generated instances
// snapshot amount/description/category at generation time; editing a
// template never rewrites history.
type RecurrenceTemplate struct {
	TemplateID  string     `firestore:"templateId" json:"templateId"`
	OwnerUID    string     `firestore:"ownerUid" json:"ownerUid"`
	Kind        string     `firestore:"kind" json:"kind"` // "income" | "expense"
	Amount      float64    `firestore:"amount" json:"amount"`
	Description string     `firestore:"description" json:"description"`
	CategoryID  string     `firestore:"categoryId" json:"categoryId,omitempty"`
	Interval    string     `firestore:"interval" json:"interval"`
	DayOfWeek   *int       `firestore:"dayOfWeek" json:"dayOfWeek,omitempty"`   // 0-6, weekly only
	DayOfMonth  *int       `firestore:"dayOfMonth" json:"dayOfMonth,omitempty"` // 1-31, monthly only
	StartDate   string     `firestore:"startDate" json:"startDate"`             // YYYY-MM-DD, inclusive
	EndDate     *string    `firestore:"endDate" json:"endDate,omitempty"`       // YYYY-MM-DD, inclusive
	SkipDates   []string   `firestore:"skipDates" json:"skipDates,omitempty"`
	Notes       string     `firestore:"notes" json:"notes,omitempty"`
	Active      bool       `firestore:"active" json:"active"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt" json:"updatedAt"`
}
