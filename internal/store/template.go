package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/recurring-engine/internal/dto"
	"github.com/GregMSThompson/recurring-engine/internal/errs"
	"github.com/GregMSThompson/recurring-engine/internal/models"
	"github.com/GregMSThompson/recurring-engine/pkg/logger"
)

const templatesCollection = "recurring_templates"

type templateStore struct {
	client *firestore.Client
}

func NewTemplateStore(client *firestore.Client) *templateStore {
	return &templateStore{client: client}
}

func (s *templateStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection(templatesCollection)
}

func (s *templateStore) instances(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection(instancesCollection)
}

func (s *templateStore) Create(ctx context.Context, uid string, tpl *models.RecurrenceTemplate) error {
	_, err := s.collection(uid).Doc(tpl.TemplateID).Create(ctx, tpl)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("template already exists")
		}
		return errs.NewDatabaseError("create", "failed to create template", err)
	}
	return nil
}

func (s *templateStore) Get(ctx context.Context, uid, templateID string) (*models.RecurrenceTemplate, error) {
	doc, err := s.collection(uid).Doc(templateID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("template not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get template", err)
	}
	var tpl models.RecurrenceTemplate
	if err := doc.DataTo(&tpl); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse template data", err)
	}
	return &tpl, nil
}

func (s *templateStore) List(ctx context.Context, uid string, activeOnly bool) ([]*models.RecurrenceTemplate, error) {
	q := s.collection(uid).Query
	if activeOnly {
		q = q.Where("active", "==", true)
	}
	docs, err := q.OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list templates", err)
	}
	templates := make([]*models.RecurrenceTemplate, 0, len(docs))
	for _, d := range docs {
		var tpl models.RecurrenceTemplate
		if err := d.DataTo(&tpl); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse template data", err)
		}
		templates = append(templates, &tpl)
	}
	return templates, nil
}

// ListActive returns every active template across all users. Input for a
// generation sweep; the owner uid travels on the model.
func (s *templateStore) ListActive(ctx context.Context) ([]*models.RecurrenceTemplate, error) {
	docs, err := s.client.CollectionGroup(templatesCollection).
		Where("active", "==", true).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list active templates", err)
	}
	templates := make([]*models.RecurrenceTemplate, 0, len(docs))
	for _, d := range docs {
		var tpl models.RecurrenceTemplate
		if err := d.DataTo(&tpl); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse template data", err)
		}
		templates = append(templates, &tpl)
	}
	return templates, nil
}

// Update applies a mutation to the template inside a transaction. Firestore
// serializes concurrent transactions touching the same document, which
// gives the per-template serialization lifecycle operations need.
func (s *templateStore) Update(ctx context.Context, uid, templateID string, apply func(*models.RecurrenceTemplate) error) (*models.RecurrenceTemplate, error) {
	var updated models.RecurrenceTemplate

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.collection(uid).Doc(templateID)
		tpl, err := getTemplateTx(tx, ref)
		if err != nil {
			return err
		}
		if err := apply(tpl); err != nil {
			return err
		}
		tpl.UpdatedAt = time.Now()
		updated = *tpl
		return tx.Set(ref, tpl)
	})
	if err != nil {
		if typed(err) {
			return nil, err
		}
		return nil, errs.NewDatabaseError("update", "failed to update template", err)
	}
	return &updated, nil
}

// UpdateWithPropagation applies a template patch and rewrites the snapshot
// fields (kind, amount, description, category) on every live instance dated
// fromDate or later, as a single atomic unit.
func (s *templateStore) UpdateWithPropagation(ctx context.Context, uid, templateID string, apply func(*models.RecurrenceTemplate) error, fromDate string) (*models.RecurrenceTemplate, error) {
	var updated models.RecurrenceTemplate

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.collection(uid).Doc(templateID)
		tpl, err := getTemplateTx(tx, ref)
		if err != nil {
			return err
		}
		if err := apply(tpl); err != nil {
			return err
		}
		tpl.UpdatedAt = time.Now()

		// All reads must precede writes inside a Firestore transaction.
		docs, err := tx.Documents(s.instances(uid).
			Where("templateId", "==", templateID).
			Where("deletedAt", "==", nil).
			Where("date", ">=", fromDate)).GetAll()
		if err != nil {
			return err
		}

		for _, d := range docs {
			if err := tx.Update(d.Ref, []firestore.Update{
				{Path: "kind", Value: tpl.Kind},
				{Path: "amount", Value: tpl.Amount},
				{Path: "description", Value: tpl.Description},
				{Path: "categoryId", Value: tpl.CategoryID},
			}); err != nil {
				return err
			}
		}

		updated = *tpl
		return tx.Set(ref, tpl)
	})
	if err != nil {
		return nil, wrapTxErr("failed to propagate template update", err)
	}
	return &updated, nil
}

// AppendSkipDates adds skip dates to the template and soft-deletes any
// already-generated live future instance now matching one, atomically.
// Past instances are left untouched.
func (s *templateStore) AppendSkipDates(ctx context.Context, uid, templateID string, dates []string, today string) (*models.RecurrenceTemplate, error) {
	var updated models.RecurrenceTemplate

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.collection(uid).Doc(templateID)
		tpl, err := getTemplateTx(tx, ref)
		if err != nil {
			return err
		}

		existing := make(map[string]struct{}, len(tpl.SkipDates))
		for _, d := range tpl.SkipDates {
			existing[d] = struct{}{}
		}
		added := make(map[string]struct{}, len(dates))
		for _, d := range dates {
			if _, ok := existing[d]; ok {
				continue
			}
			tpl.SkipDates = append(tpl.SkipDates, d)
			existing[d] = struct{}{}
			added[d] = struct{}{}
		}
		tpl.UpdatedAt = time.Now()

		docs, err := tx.Documents(s.instances(uid).
			Where("templateId", "==", templateID).
			Where("deletedAt", "==", nil).
			Where("date", ">=", today)).GetAll()
		if err != nil {
			return err
		}

		now := time.Now()
		for _, d := range docs {
			date, _ := d.DataAt("date")
			ds, ok := date.(string)
			if !ok {
				continue
			}
			if _, skip := added[ds]; !skip {
				continue
			}
			if err := tx.Update(d.Ref, []firestore.Update{
				{Path: "deletedAt", Value: now},
			}); err != nil {
				return err
			}
		}

		updated = *tpl
		return tx.Set(ref, tpl)
	})
	if err != nil {
		return nil, wrapTxErr("failed to append skip dates", err)
	}
	return &updated, nil
}

// DeleteScoped retires or removes the template together with the
// scope-appropriate slice of its instances, as a single atomic unit.
func (s *templateStore) DeleteScoped(ctx context.Context, uid, templateID string, scope dto.DeleteScope, today string) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.collection(uid).Doc(templateID)
		tpl, err := getTemplateTx(tx, ref)
		if err != nil {
			return err
		}

		switch scope {
		case dto.ScopeTemplateOnly:
			// History fully preserved.

		case dto.ScopeFuture, dto.ScopeCurrentAndFuture:
			from := today
			if scope == dto.ScopeCurrentAndFuture {
				from = today[:8] + "01"
			}
			docs, err := tx.Documents(s.instances(uid).
				Where("templateId", "==", templateID).
				Where("deletedAt", "==", nil).
				Where("date", ">=", from)).GetAll()
			if err != nil {
				return err
			}
			now := time.Now()
			for _, d := range docs {
				if err := tx.Update(d.Ref, []firestore.Update{
					{Path: "deletedAt", Value: now},
				}); err != nil {
					return err
				}
			}

		case dto.ScopeAll:
			docs, err := tx.Documents(s.instances(uid).
				Where("templateId", "==", templateID)).GetAll()
			if err != nil {
				return err
			}
			for _, d := range docs {
				if err := tx.Delete(d.Ref); err != nil {
					return err
				}
			}
			return tx.Delete(ref)
		}

		tpl.Active = false
		tpl.UpdatedAt = time.Now()
		return tx.Set(ref, tpl)
	})
	if err != nil {
		return wrapTxErr("failed to delete template", err)
	}

	log := logger.FromContext(ctx)
	log.Info("template deleted", "template_id", templateID, "scope", string(scope))
	return nil
}

func getTemplateTx(tx *firestore.Transaction, ref *firestore.DocumentRef) (*models.RecurrenceTemplate, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("template not found")
		}
		return nil, err
	}
	var tpl models.RecurrenceTemplate
	if err := doc.DataTo(&tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// typed reports whether err is one of this package's caller-facing error
// types and should pass through unwrapped.
func typed(err error) bool {
	switch err.(type) {
	case *errs.NotFoundError, *errs.ValidationError, *errs.AlreadyExistsError:
		return true
	}
	return false
}

// wrapTxErr keeps typed errors surfaced from inside a transaction and
// wraps everything else as an integrity failure: the transaction rolled
// back, nothing was applied.
func wrapTxErr(message string, err error) error {
	if typed(err) {
		return err
	}
	return errs.NewIntegrityError(message, err)
}
