package services

import (
	"testing"
	"time"

	"github.com/GregMSThompson/recurring-engine/internal/dto"
	"github.com/GregMSThompson/recurring-engine/internal/errs"
	"github.com/GregMSThompson/recurring-engine/internal/models"
	"github.com/GregMSThompson/recurring-engine/pkg/helpers"
)

func weeklyDraft(dayOfWeek int, startDate string) dto.PreviewRequest {
	return dto.PreviewRequest{
		CreateTemplateRequest: dto.CreateTemplateRequest{
			Kind:        models.KindExpense,
			Amount:      4.5,
			Description: "Coffee",
			Interval:    models.IntervalWeekly,
			DayOfWeek:   helpers.Ptr(dayOfWeek),
			StartDate:   startDate,
		},
	}
}

func TestPreviewWeeklyAnchorFromMidWeekStart(t *testing.T) {
	// 2024-03-01 is a Friday; the first Monday occurrence is 2024-03-04.
	svc := NewPreviewService()
	svc.now = fixedClock(2024, time.March, 1)

	req := weeklyDraft(1, "2024-03-01")
	req.Count = 3

	got, err := svc.Preview(helpers.TestCtx(), req)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	want := []string{"2024-03-04", "2024-03-11", "2024-03-18"}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i, occ := range got {
		if occ.Date != want[i] {
			t.Fatalf("occurrence[%d] = %s, want %s", i, occ.Date, want[i])
		}
	}
}

func TestPreviewEchoesSnapshotFields(t *testing.T) {
	svc := NewPreviewService()
	svc.now = fixedClock(2024, time.March, 1)

	req := weeklyDraft(1, "2024-03-01")
	req.CategoryID = "cat-7"
	req.Count = 1

	got, err := svc.Preview(helpers.TestCtx(), req)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(got))
	}
	occ := got[0]
	if occ.Amount != 4.5 || occ.Description != "Coffee" || occ.CategoryID != "cat-7" || occ.Kind != models.KindExpense {
		t.Fatalf("snapshot mismatch: %#v", occ)
	}
}

func TestPreviewDefaultsAndCapsCount(t *testing.T) {
	svc := NewPreviewService()
	svc.now = fixedClock(2024, time.March, 1)

	req := weeklyDraft(1, "2024-03-01")
	got, err := svc.Preview(helpers.TestCtx(), req)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if len(got) != defaultPreviewCount {
		t.Fatalf("default count = %d, want %d", len(got), defaultPreviewCount)
	}

	req.Count = 1000
	got, err = svc.Preview(helpers.TestCtx(), req)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if len(got) > maxPreviewCount {
		t.Fatalf("count = %d exceeds cap %d", len(got), maxPreviewCount)
	}
}

func TestPreviewRejectsInvalidDrafts(t *testing.T) {
	svc := NewPreviewService()

	cases := []struct {
		name   string
		mutate func(*dto.PreviewRequest)
	}{
		{"bad kind", func(r *dto.PreviewRequest) { r.Kind = "transfer" }},
		{"zero amount", func(r *dto.PreviewRequest) { r.Amount = 0 }},
		{"negative amount", func(r *dto.PreviewRequest) { r.Amount = -5 }},
		{"empty description", func(r *dto.PreviewRequest) { r.Description = "" }},
		{"bad interval", func(r *dto.PreviewRequest) { r.Interval = "yearly" }},
		{"weekday out of range", func(r *dto.PreviewRequest) { r.DayOfWeek = helpers.Ptr(7) }},
		{"anchor on wrong interval", func(r *dto.PreviewRequest) {
			r.Interval = models.IntervalDaily
			r.DayOfWeek = nil
			r.DayOfMonth = helpers.Ptr(15)
		}},
		{"bad start date", func(r *dto.PreviewRequest) { r.StartDate = "03/01/2024" }},
		{"end before start", func(r *dto.PreviewRequest) { r.EndDate = helpers.Ptr("2024-02-01") }},
		{"end equals start", func(r *dto.PreviewRequest) { r.EndDate = helpers.Ptr("2024-03-01") }},
		{"bad skip date", func(r *dto.PreviewRequest) { r.SkipDates = []string{"soon"} }},
	}

	for _, c := range cases {
		req := weeklyDraft(1, "2024-03-01")
		c.mutate(&req)
		_, err := svc.Preview(helpers.TestCtx(), req)
		if err == nil {
			t.Errorf("%s: expected validation error", c.name)
			continue
		}
		if _, ok := err.(*errs.ValidationError); !ok {
			t.Errorf("%s: error type = %T, want *errs.ValidationError", c.name, err)
		}
	}
}

// Preview and the Generation Engine must produce identical dates for the
// same template values. This equivalence is a contract, not an
// implementation detail.
func TestPreviewMatchesGeneratedInstances(t *testing.T) {
	clock := fixedClock(2024, time.January, 10)

	tpl := monthlyTemplate("tpl1", "uid1", 31, "2024-01-31")
	tpl.SkipDates = []string{"2024-03-31"}

	templates := &fakeTemplateStore{templates: []*models.RecurrenceTemplate{tpl}}
	instances := newFakeInstanceStore()
	gen := NewGeneratorService(templates, instances, 1)
	gen.now = clock

	horizon := date(2024, time.July, 1)
	if _, err := gen.RunPass(helpers.TestCtx(), horizon); err != nil {
		t.Fatalf("RunPass returned error: %v", err)
	}
	generated := instances.datesFor("tpl1")

	pv := NewPreviewService()
	pv.now = clock
	previewed, err := pv.Preview(helpers.TestCtx(), dto.PreviewRequest{
		CreateTemplateRequest: dto.CreateTemplateRequest{
			Kind:        tpl.Kind,
			Amount:      tpl.Amount,
			Description: tpl.Description,
			Interval:    tpl.Interval,
			DayOfMonth:  tpl.DayOfMonth,
			StartDate:   tpl.StartDate,
			SkipDates:   tpl.SkipDates,
		},
		Count: len(generated),
	})
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}

	if len(previewed) != len(generated) {
		t.Fatalf("preview produced %d dates, engine produced %d", len(previewed), len(generated))
	}
	for i, occ := range previewed {
		if occ.Date != generated[i] {
			t.Fatalf("date[%d]: preview %s, engine %s", i, occ.Date, generated[i])
		}
	}
}
