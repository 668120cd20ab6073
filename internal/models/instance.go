package models

import (
	"time"
)

// TransactionInstance is one materialized transaction. Instances generated
// from a template carry its id in TemplateID; one-off transactions created
// elsewhere leave it empty.
type TransactionInstance struct {
	InstanceID  string     `firestore:"instanceId" json:"instanceId"`
	TemplateID  string     `firestore:"templateId" json:"templateId,omitempty"`
	Kind        string     `firestore:"kind" json:"kind"`
	Amount      float64    `firestore:"amount" json:"amount"`
	Description string     `firestore:"description" json:"description"`
	CategoryID  string     `firestore:"categoryId" json:"categoryId,omitempty"`
	Date        string     `firestore:"date" json:"date"` // YYYY-MM-DD occurrence date
	Notes       string     `firestore:"notes" json:"notes,omitempty"`
	DeletedAt   *time.Time `firestore:"deletedAt" json:"deletedAt,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
}

// Live reports whether the instance has not been soft-deleted.
func (i *TransactionInstance) Live() bool {
	return i.DeletedAt == nil
}
