package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/recurring-engine/internal/errs"
	"github.com/GregMSThompson/recurring-engine/internal/models"
)

const instancesCollection = "transactions"

type instanceStore struct {
	client *firestore.Client
}

func NewInstanceStore(client *firestore.Client) *instanceStore {
	return &instanceStore{client: client}
}

func (s *instanceStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection(instancesCollection)
}

// GeneratedInstanceID derives the document id for a generated instance.
// One id per (template, occurrence date) is the uniqueness guarantee that
// makes repeated generation passes safe: a second insert for the same pair
// lands on the same document and is skipped. A soft-deleted instance keeps
// its id, so a removed occurrence is never resurrected.
func GeneratedInstanceID(templateID, date string) string {
	return "tpl_" + templateID + "_" + date
}

// LatestOccurrence returns the maximum occurrence date ever generated for
// the template, across live and soft-deleted instances, or "" when none
// exist. This is the generation resume cursor.
func (s *instanceStore) LatestOccurrence(ctx context.Context, uid, templateID string) (string, error) {
	docs, err := s.collection(uid).
		Where("templateId", "==", templateID).
		OrderBy("date", firestore.Desc).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return "", errs.NewDatabaseError("read", "failed to read latest occurrence", err)
	}
	if len(docs) == 0 {
		return "", nil
	}
	date, err := docs[0].DataAt("date")
	if err != nil {
		return "", errs.NewDatabaseError("read", "failed to read latest occurrence date", err)
	}
	ds, ok := date.(string)
	if !ok {
		return "", errs.NewDatabaseError("read", "latest occurrence date is not a string", nil)
	}
	return ds, nil
}

// CreateMissing inserts the batch in one transaction, creating only the
// instances whose (template, date) document does not exist yet. Existing
// documents are treated as already satisfied, not as errors. Returns the
// number actually created. The batch either commits whole or not at all.
func (s *instanceStore) CreateMissing(ctx context.Context, uid string, batch []models.TransactionInstance) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	coll := s.collection(uid)
	refs := make([]*firestore.DocumentRef, len(batch))
	for i, inst := range batch {
		refs[i] = coll.Doc(GeneratedInstanceID(inst.TemplateID, inst.Date))
	}

	var created int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = 0
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}
		now := time.Now()
		for i, snap := range snaps {
			if snap.Exists() {
				continue
			}
			inst := batch[i]
			inst.InstanceID = refs[i].ID
			inst.CreatedAt = now
			if err := tx.Create(refs[i], inst); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, errs.NewDatabaseError("create", "failed to create instance batch", err)
	}
	return created, nil
}

// ListByTemplate returns the template's instances ordered by date.
func (s *instanceStore) ListByTemplate(ctx context.Context, uid, templateID string, includeDeleted bool) ([]*models.TransactionInstance, error) {
	q := s.collection(uid).Where("templateId", "==", templateID)
	if !includeDeleted {
		q = q.Where("deletedAt", "==", nil)
	}
	docs, err := q.OrderBy("date", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list instances", err)
	}
	instances := make([]*models.TransactionInstance, 0, len(docs))
	for _, d := range docs {
		var inst models.TransactionInstance
		if err := d.DataTo(&inst); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse instance data", err)
		}
		instances = append(instances, &inst)
	}
	return instances, nil
}

// CountByTemplate returns live and soft-deleted instance counts for the
// template.
func (s *instanceStore) CountByTemplate(ctx context.Context, uid, templateID string) (live, deleted int, err error) {
	docs, err := s.collection(uid).
		Where("templateId", "==", templateID).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, 0, errs.NewDatabaseError("read", "failed to count instances", err)
	}
	for _, d := range docs {
		del, err := d.DataAt("deletedAt")
		if err == nil && del != nil {
			deleted++
			continue
		}
		live++
	}
	return live, deleted, nil
}
