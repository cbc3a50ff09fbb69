package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sitecheck/internal/config"
	"sitecheck/internal/db"
	"sitecheck/internal/domain"
	"sitecheck/internal/engine"
	"sitecheck/internal/migrate"
	"sitecheck/internal/navigator"
	"sitecheck/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("proj-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if _, err := eng.InitProject(ctx, "proj-1", "12 Example St", "", "tester"); err != nil {
		t.Fatalf("init project: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func startInspection(t *testing.T, env testEnv, mode string) domain.Inspection {
	t.Helper()
	in, err := env.Engine.StartInspection(env.Ctx, engine.StartInspectionOptions{
		ProjectID:   "proj-1",
		ChecklistID: "residential-standard",
		Mode:        mode,
		ActorID:     "tester",
	})
	if err != nil {
		t.Fatalf("start inspection: %v", err)
	}
	return in
}

func TestStartInspectionInitialState(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")
	if in.Status != "started" {
		t.Fatalf("status = %s, want started", in.Status)
	}
	if in.CurrentSection == nil || *in.CurrentSection != "exterior" {
		t.Fatalf("current section = %v, want exterior", in.CurrentSection)
	}
	st, err := env.Engine.Status(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(st.Sections) != 5 {
		t.Fatalf("sections = %d, want 5", len(st.Sections))
	}
	if st.Sections[0].Status != "in_progress" {
		t.Fatalf("first section = %s, want in_progress", st.Sections[0].Status)
	}
	for _, s := range st.Sections[1:] {
		if s.Status != "pending" {
			t.Fatalf("section %s = %s, want pending", s.ID, s.Status)
		}
	}
	if st.Progress.Completed != 0 || st.Progress.Total != 5 || st.Progress.Percentage != 0 {
		t.Fatalf("progress = %+v", st.Progress)
	}
}

func TestNavigateForwardAndBack(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")

	res, err := env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionNext, "", "tester")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Inspection.Status != "in_progress" {
		t.Fatalf("inspection status = %s, want in_progress", res.Inspection.Status)
	}
	if res.PreviousSection != "exterior" || *res.Inspection.CurrentSection != "interior" {
		t.Fatalf("moved %s -> %v", res.PreviousSection, res.Inspection.CurrentSection)
	}
	res, err = env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionNext, "", "tester")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Progress.Completed != 2 || res.Progress.Total != 5 || res.Progress.Percentage != 40 {
		t.Fatalf("progress = %+v, want 2/5 40%%", res.Progress)
	}

	// back into a completed section does not demote it
	res, err = env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionBack, "", "tester")
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if *res.Inspection.CurrentSection != "interior" {
		t.Fatalf("current = %v, want interior", res.Inspection.CurrentSection)
	}
	if res.Progress.Completed != 2 {
		t.Fatalf("progress after back = %+v, want 2 completed", res.Progress)
	}
	// forward again restores the original pointer, progress unchanged
	res, err = env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionNext, "", "tester")
	if err != nil {
		t.Fatalf("next after back: %v", err)
	}
	if *res.Inspection.CurrentSection != "roof" || res.Progress.Completed != 2 {
		t.Fatalf("round trip: current=%v progress=%+v", res.Inspection.CurrentSection, res.Progress)
	}
}

func TestNavigateBoundaries(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")

	_, err := env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionBack, "", "tester")
	var be navigator.BoundaryError
	if !errors.As(err, &be) {
		t.Fatalf("back at first: %v, want BoundaryError", err)
	}

	for i := 0; i < 4; i++ {
		if _, err := env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionNext, "", "tester"); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	_, err = env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionNext, "", "tester")
	if !errors.As(err, &be) {
		t.Fatalf("next at last: %v, want BoundaryError", err)
	}
	// the failed transition must not disturb the stored pointer
	got, err := env.Engine.Repo.GetInspection(env.Ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentSection == nil || *got.CurrentSection != "services" {
		t.Fatalf("current = %v, want services", got.CurrentSection)
	}
}

func TestJump(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")

	res, err := env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionJump, "services", "tester")
	if err != nil {
		t.Fatalf("jump: %v", err)
	}
	if *res.Inspection.CurrentSection != "services" || res.Progress.Completed != 1 {
		t.Fatalf("jump: current=%v progress=%+v", res.Inspection.CurrentSection, res.Progress)
	}

	var ise navigator.InvalidSectionError
	_, err = env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionJump, "basement", "tester")
	if !errors.As(err, &ise) {
		t.Fatalf("jump to unknown: %v, want InvalidSectionError", err)
	}

	// jumping back into a completed section must not double-count it
	res, err = env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionJump, "exterior", "tester")
	if err != nil {
		t.Fatalf("jump back: %v", err)
	}
	sec, ok := res.State.Section("exterior")
	if !ok || sec.Status != navigator.StatusCompleted {
		t.Fatalf("exterior = %+v, want completed", sec)
	}
	if res.Progress.Completed != 2 {
		t.Fatalf("progress = %+v, want 2 completed", res.Progress)
	}
}

func TestSkipCountsTowardProgress(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")

	res, err := env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionSkip, "", "tester")
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	sec, _ := res.State.Section("exterior")
	if sec.Status != navigator.StatusSkipped {
		t.Fatalf("exterior = %s, want skipped", sec.Status)
	}
	if res.Progress.Completed != 1 || res.Progress.Percentage != 20 {
		t.Fatalf("progress = %+v, want 1/5 20%%", res.Progress)
	}
}

func TestSuggest(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")

	sug, err := env.Engine.Suggest(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if sug.SectionID != "exterior" || sug.Prompt == "" {
		t.Fatalf("suggestion = %+v", sug)
	}
	// exterior defines six items; hints are capped
	if len(sug.UnaddressedItems) != 5 {
		t.Fatalf("unaddressed = %v, want 5 hints", sug.UnaddressedItems)
	}
	if sug.NextSection == nil || sug.NextSection.ID != "interior" {
		t.Fatalf("next section = %+v, want interior", sug.NextSection)
	}
	if sug.RemainingSections != 4 {
		t.Fatalf("remaining = %d, want 4", sug.RemainingSections)
	}

	// a finding naming an item removes it from the hints
	if _, err := env.Engine.RecordFinding(env.Ctx, engine.FindingOptions{
		InspectionID: in.ID,
		Note:         "hairline cracks in cladding at SW corner",
		ItemLabel:    "cladding",
		ActorID:      "tester",
	}); err != nil {
		t.Fatalf("record finding: %v", err)
	}
	sug, err = env.Engine.Suggest(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	for _, item := range sug.UnaddressedItems {
		if item == "cladding" {
			t.Fatalf("cladding still suggested: %v", sug.UnaddressedItems)
		}
	}
}

func TestRecordFindingValidation(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")

	var ve engine.ValidationError
	_, err := env.Engine.RecordFinding(env.Ctx, engine.FindingOptions{InspectionID: in.ID, ActorID: "tester"})
	if !errors.As(err, &ve) {
		t.Fatalf("empty note: %v, want ValidationError", err)
	}

	var ise navigator.InvalidSectionError
	_, err = env.Engine.RecordFinding(env.Ctx, engine.FindingOptions{
		InspectionID: in.ID, SectionID: "basement", Note: "x", ActorID: "tester",
	})
	if !errors.As(err, &ise) {
		t.Fatalf("unknown section: %v, want InvalidSectionError", err)
	}

	f, err := env.Engine.RecordFinding(env.Ctx, engine.FindingOptions{
		InspectionID: in.ID, Note: "minor ponding at rear", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if f.SectionID != "exterior" {
		t.Fatalf("section = %s, want current section exterior", f.SectionID)
	}
}

func TestSimpleModeFinalize(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")

	if _, err := env.Engine.AddDocument(env.Ctx, engine.DocumentOptions{
		ProjectID: "proj-1", Type: "consent", Status: "outstanding", ActorID: "tester",
	}); err != nil {
		t.Fatalf("add document: %v", err)
	}
	if _, err := env.Engine.RecordChecklistItem(env.Ctx, engine.ChecklistItemOptions{
		InspectionID: in.ID, Category: "exterior", Label: "cladding", Decision: "pass", ActorID: "tester",
	}); err != nil {
		t.Fatalf("record item: %v", err)
	}

	gate, err := env.Engine.CanFinalize(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("can finalize: %v", err)
	}
	if gate.CanFinalize {
		t.Fatalf("expected blocked gate, got %+v", gate)
	}
	found := false
	for _, b := range gate.Blockers {
		if strings.Contains(b, "consent") && strings.Contains(b, "(outstanding)") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing document blocker: %v", gate.Blockers)
	}

	// finalize refuses while blocked
	if _, err := env.Engine.FinalizeInspection(env.Ctx, in.ID, "tester", false); err == nil {
		t.Fatal("expected finalize to refuse")
	}

	// clear the document and meet the section gate (3 of 5)
	docs, err := env.Engine.Repo.ListDocuments(env.Ctx, "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	received := "received"
	if _, err := env.Engine.UpdateDocument(env.Ctx, docs[0].ID, engine.DocumentUpdate{Status: &received}, "tester"); err != nil {
		t.Fatalf("update document: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionNext, "", "tester"); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}

	gate, err = env.Engine.CanFinalize(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("can finalize: %v", err)
	}
	if !gate.CanFinalize || len(gate.Blockers) != 0 {
		t.Fatalf("expected open gate, got %+v", gate)
	}

	done, err := env.Engine.FinalizeInspection(env.Ctx, in.ID, "tester", false)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if done.Status != "completed" || done.CompletedAt == nil || done.CurrentSection != nil {
		t.Fatalf("finalized = %+v", done)
	}

	// navigation after completion is rejected
	if _, err := env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionNext, "", "tester"); err == nil {
		t.Fatal("expected navigation on completed inspection to fail")
	}
}

func TestSectionGateBlocksFinalize(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")

	// 2 of 5 sections is below ceil(5 * 0.5) = 3
	for i := 0; i < 2; i++ {
		if _, err := env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionNext, "", "tester"); err != nil {
			t.Fatal(err)
		}
	}
	gate, err := env.Engine.CanFinalize(env.Ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gate.CanFinalize {
		t.Fatalf("expected section gate to block, got %+v", gate)
	}
	found := false
	for _, b := range gate.Blockers {
		if strings.Contains(b, "2 of 5 sections") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing section blocker: %v", gate.Blockers)
	}
}

func recordReview(t *testing.T, env testEnv, inspectionID, code, observations string) {
	t.Helper()
	if _, err := env.Engine.RecordClauseReview(env.Ctx, engine.ClauseReviewOptions{
		InspectionID: inspectionID,
		ClauseCode:   code,
		Observations: observations,
		ActorID:      "tester",
	}); err != nil {
		t.Fatalf("record clause %s: %v", code, err)
	}
}

func TestClauseReviewThreshold(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "clause_review")
	for i := 0; i < 3; i++ {
		if _, err := env.Engine.Navigate(env.Ctx, in.ID, navigator.ActionNext, "", "tester"); err != nil {
			t.Fatal(err)
		}
	}

	// 3 of 4 resolved is 75%, below the 80 threshold
	recordReview(t, env, in.ID, "B1", "foundations sound")
	recordReview(t, env, in.ID, "B2", "no durability concerns")
	recordReview(t, env, in.ID, "E1", "site drains to street")
	recordReview(t, env, in.ID, "E2", "")

	gate, err := env.Engine.CanFinalize(env.Ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gate.CanFinalize {
		t.Fatalf("75%% should block, got %+v", gate)
	}
	foundPct, foundItem := false, false
	for _, b := range gate.Blockers {
		if strings.Contains(b, "clause-completion: 75%") {
			foundPct = true
		}
		if strings.Contains(b, "E2") {
			foundItem = true
		}
	}
	if !foundPct || !foundItem {
		t.Fatalf("blockers = %v", gate.Blockers)
	}

	// a fifth resolved review lifts completion to exactly 80%
	recordReview(t, env, in.ID, "E3", "extraction fans in wet areas")
	gate, err = env.Engine.CanFinalize(env.Ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !gate.CanFinalize || len(gate.Blockers) != 0 {
		t.Fatalf("80%% should pass, got %+v", gate)
	}
}

func TestClauseReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "clause_review")

	var ve engine.ValidationError
	_, err := env.Engine.RecordClauseReview(env.Ctx, engine.ClauseReviewOptions{
		InspectionID: in.ID, ClauseCode: "Z9", ActorID: "tester",
	})
	if !errors.As(err, &ve) {
		t.Fatalf("unknown clause: %v, want ValidationError", err)
	}

	_, err = env.Engine.RecordClauseReview(env.Ctx, engine.ClauseReviewOptions{
		InspectionID: in.ID, ClauseCode: "B1", Applicability: "na", ActorID: "tester",
	})
	if !errors.As(err, &ve) {
		t.Fatalf("na without reason: %v, want ValidationError", err)
	}

	cr, err := env.Engine.RecordClauseReview(env.Ctx, engine.ClauseReviewOptions{
		InspectionID: in.ID, ClauseCode: "G12", Applicability: "na", NAReason: "no reticulated supply", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("record na clause: %v", err)
	}
	if cr.ClauseCategory != "services" {
		t.Fatalf("category = %s, want services from the catalog", cr.ClauseCategory)
	}

	// simple-mode inspections refuse clause reviews
	simple := startInspection(t, env, "simple")
	_, err = env.Engine.RecordClauseReview(env.Ctx, engine.ClauseReviewOptions{
		InspectionID: simple.ID, ClauseCode: "B1", Observations: "x", ActorID: "tester",
	})
	if !errors.As(err, &ve) {
		t.Fatalf("wrong mode: %v, want ValidationError", err)
	}
}

func TestSummaryByMode(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")
	if _, err := env.Engine.RecordChecklistItem(env.Ctx, engine.ChecklistItemOptions{
		InspectionID: in.ID, Category: "exterior", Label: "cladding", Decision: "fail", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.RecordChecklistItem(env.Ctx, engine.ChecklistItemOptions{
		InspectionID: in.ID, Category: "exterior", Label: "gutters", Decision: "pass", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	sum, err := env.Engine.Summary(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Items == nil || sum.Clauses != nil {
		t.Fatalf("summary kinds = %+v", sum)
	}
	if sum.Items.Total != 2 || sum.Items.Passed != 1 || sum.Items.Failed != 1 {
		t.Fatalf("items = %+v", sum.Items)
	}
	if len(sum.Items.FailedWithoutNotes) != 1 || sum.Items.FailedWithoutNotes[0] != "cladding" {
		t.Fatalf("failed without notes = %v, want [cladding]", sum.Items.FailedWithoutNotes)
	}
}

func TestFinalizeProject(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.AddDocument(env.Ctx, engine.DocumentOptions{
		ProjectID: "proj-1", Type: "title", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	gate, err := env.Engine.CanFinalizeProject(env.Ctx, "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	if gate.CanFinalize {
		t.Fatalf("required document should block, got %+v", gate)
	}
	if _, err := env.Engine.FinalizeProject(env.Ctx, "proj-1", "tester", false); err == nil {
		t.Fatal("expected project finalize to refuse")
	}

	docs, err := env.Engine.Repo.ListDocuments(env.Ctx, "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	received := "received"
	if _, err := env.Engine.UpdateDocument(env.Ctx, docs[0].ID, engine.DocumentUpdate{Status: &received}, "tester"); err != nil {
		t.Fatal(err)
	}
	p, err := env.Engine.FinalizeProject(env.Ctx, "proj-1", "tester", false)
	if err != nil {
		t.Fatalf("finalize project: %v", err)
	}
	if p.Status != "completed" || p.CompletedAt == nil {
		t.Fatalf("project = %+v", p)
	}
}

func TestReadsAfterFinalize(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")
	if _, err := env.Engine.FinalizeInspection(env.Ctx, in.ID, "tester", true); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	st, err := env.Engine.Status(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("status after finalize: %v", err)
	}
	if st.Inspection.Status != "completed" || st.Inspection.CurrentSection != nil {
		t.Fatalf("inspection = %+v", st.Inspection)
	}
	if len(st.Sections) != 5 || st.Progress.Total != 5 {
		t.Fatalf("sections = %d progress = %+v", len(st.Sections), st.Progress)
	}

	sum, err := env.Engine.Summary(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("summary after finalize: %v", err)
	}
	if sum.Mode != "simple" || sum.Items == nil {
		t.Fatalf("summary = %+v", sum)
	}

	if _, err := env.Engine.CanFinalize(env.Ctx, in.ID); err != nil {
		t.Fatalf("can-finalize after finalize: %v", err)
	}

	_, err = env.Engine.Suggest(env.Ctx, in.ID)
	var verr engine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("suggest after finalize = %v, want validation error", err)
	}
}

func TestDeleteChecklistItemRecordsEvent(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "simple")
	it, err := env.Engine.RecordChecklistItem(env.Ctx, engine.ChecklistItemOptions{
		InspectionID: in.ID,
		Category:     "exterior",
		Label:        "cladding",
		Decision:     "pass",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("record item: %v", err)
	}
	if err := env.Engine.DeleteChecklistItem(env.Ctx, it.ID, "tester"); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if _, err := env.Engine.Repo.GetChecklistItem(env.Ctx, it.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("get deleted item = %v, want not found", err)
	}
	events, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, "proj-1", "checklist_item.deleted", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].EntityID != it.ID || events[0].ActorID != "tester" {
		t.Fatalf("events = %+v", events)
	}
}

func TestDeleteClauseReviewRecordsEvent(t *testing.T) {
	env := newTestEnv(t)
	in := startInspection(t, env, "clause_review")
	cr, err := env.Engine.RecordClauseReview(env.Ctx, engine.ClauseReviewOptions{
		InspectionID: in.ID,
		ClauseCode:   "B1",
		Observations: "foundations sound",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("record review: %v", err)
	}
	if err := env.Engine.DeleteClauseReview(env.Ctx, cr.ID, "tester"); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	if _, err := env.Engine.Repo.GetClauseReview(env.Ctx, cr.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("get deleted review = %v, want not found", err)
	}
	events, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, "proj-1", "clause_review.deleted", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].EntityID != cr.ID || events[0].ActorID != "tester" {
		t.Fatalf("events = %+v", events)
	}
}

func TestDeleteDocumentRecordsEvent(t *testing.T) {
	env := newTestEnv(t)
	d, err := env.Engine.AddDocument(env.Ctx, engine.DocumentOptions{
		ProjectID: "proj-1",
		Type:      "title",
		ActorID:   "tester",
	})
	if err != nil {
		t.Fatalf("add document: %v", err)
	}
	if err := env.Engine.DeleteDocument(env.Ctx, d.ID, "tester"); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	if _, err := env.Engine.Repo.GetDocument(env.Ctx, d.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("get deleted document = %v, want not found", err)
	}
	events, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, "proj-1", "document.deleted", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].EntityID != d.ID || events[0].ActorID != "tester" {
		t.Fatalf("events = %+v", events)
	}
}
