package engine

import (
	"context"

	"github.com/google/uuid"

	"sitecheck/internal/domain"
	"sitecheck/internal/events"
)

func validDecision(d string) bool {
	return d == "pass" || d == "fail" || d == "na"
}

// ChecklistItemOptions are parameters for recording a checklist item.
type ChecklistItemOptions struct {
	ID           string
	InspectionID string
	Category     string
	Label        string
	Decision     string
	Notes        string
	SortOrder    int
	ActorID      string
}

// RecordChecklistItem stores one pass/fail/na decision on a simple-mode
// inspection.
func (e Engine) RecordChecklistItem(ctx context.Context, opts ChecklistItemOptions) (domain.ChecklistItem, error) {
	if opts.Category == "" {
		return domain.ChecklistItem{}, validationf("category is required")
	}
	if opts.Label == "" {
		return domain.ChecklistItem{}, validationf("label is required")
	}
	if !validDecision(opts.Decision) {
		return domain.ChecklistItem{}, validationf("decision must be pass, fail or na")
	}
	in, err := e.Repo.GetInspection(ctx, opts.InspectionID)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	now := e.nowStr()
	it := domain.ChecklistItem{
		ID:           opts.ID,
		InspectionID: in.ID,
		Category:     opts.Category,
		Label:        opts.Label,
		Decision:     opts.Decision,
		Notes:        opts.Notes,
		SortOrder:    opts.SortOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertChecklistItemTx(ctx, tx, it); err != nil {
		return domain.ChecklistItem{}, err
	}
	if err := e.Events.Append(ctx, tx, "checklist_item.recorded", in.ProjectID, "checklist_item", it.ID, opts.ActorID, events.EventPayload{
		"inspection_id": in.ID,
		"category":      it.Category,
		"decision":      it.Decision,
	}); err != nil {
		return domain.ChecklistItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ChecklistItem{}, err
	}
	return it, nil
}

// UpdateChecklistItem revises a recorded decision or its notes.
func (e Engine) UpdateChecklistItem(ctx context.Context, id string, decision, notes *string, actorID string) (domain.ChecklistItem, error) {
	it, err := e.Repo.GetChecklistItem(ctx, id)
	if err != nil {
		return it, err
	}
	if decision != nil {
		if !validDecision(*decision) {
			return it, validationf("decision must be pass, fail or na")
		}
		it.Decision = *decision
	}
	if notes != nil {
		it.Notes = *notes
	}
	it.UpdatedAt = e.nowStr()

	in, err := e.Repo.GetInspection(ctx, it.InspectionID)
	if err != nil {
		return it, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return it, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateChecklistItemTx(ctx, tx, it); err != nil {
		return it, err
	}
	if err := e.Events.Append(ctx, tx, "checklist_item.updated", in.ProjectID, "checklist_item", it.ID, actorID, events.EventPayload{
		"decision": it.Decision,
	}); err != nil {
		return it, err
	}
	if err := tx.Commit(); err != nil {
		return it, err
	}
	return it, nil
}

func (e Engine) DeleteChecklistItem(ctx context.Context, id, actorID string) error {
	it, err := e.Repo.GetChecklistItem(ctx, id)
	if err != nil {
		return err
	}
	in, err := e.Repo.GetInspection(ctx, it.InspectionID)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteChecklistItemTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "checklist_item.deleted", in.ProjectID, "checklist_item", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// ClauseReviewOptions are parameters for recording a clause review.
type ClauseReviewOptions struct {
	ID            string
	InspectionID  string
	ClauseCode    string
	Applicability string
	NAReason      string
	Observations  string
	RemedialWorks string
	DocumentIDs   []string
	ActorID       string
}

// RecordClauseReview stores one code-clause assessment. The clause must be in
// the configured catalog; its category is derived from there. Marking a
// clause NA requires a reason.
func (e Engine) RecordClauseReview(ctx context.Context, opts ClauseReviewOptions) (domain.ClauseReview, error) {
	if e.Config == nil {
		return domain.ClauseReview{}, validationf("no clause catalog configured")
	}
	def, ok := e.Config.Clauses.Catalog[opts.ClauseCode]
	if !ok {
		return domain.ClauseReview{}, validationf("unknown clause code %q", opts.ClauseCode)
	}
	if opts.Applicability == "" {
		opts.Applicability = "applicable"
	}
	if opts.Applicability != "applicable" && opts.Applicability != "na" {
		return domain.ClauseReview{}, validationf("applicability must be applicable or na")
	}
	if opts.Applicability == "na" && opts.NAReason == "" {
		return domain.ClauseReview{}, validationf("na_reason is required when applicability is na")
	}
	in, err := e.Repo.GetInspection(ctx, opts.InspectionID)
	if err != nil {
		return domain.ClauseReview{}, err
	}
	if in.Mode != "clause_review" {
		return domain.ClauseReview{}, validationf("inspection %s is not in clause_review mode", in.ID)
	}
	now := e.nowStr()
	cr := domain.ClauseReview{
		ID:             opts.ID,
		InspectionID:   in.ID,
		ClauseCode:     opts.ClauseCode,
		ClauseCategory: def.Category,
		Applicability:  opts.Applicability,
		NAReason:       opts.NAReason,
		Observations:   opts.Observations,
		RemedialWorks:  opts.RemedialWorks,
		DocumentIDs:    opts.DocumentIDs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if cr.ID == "" {
		cr.ID = uuid.New().String()
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ClauseReview{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertClauseReviewTx(ctx, tx, cr); err != nil {
		return domain.ClauseReview{}, err
	}
	if err := e.Events.Append(ctx, tx, "clause_review.recorded", in.ProjectID, "clause_review", cr.ID, opts.ActorID, events.EventPayload{
		"inspection_id": in.ID,
		"clause_code":   cr.ClauseCode,
		"applicability": cr.Applicability,
	}); err != nil {
		return domain.ClauseReview{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ClauseReview{}, err
	}
	return cr, nil
}

// ClauseReviewUpdate carries optional field updates for a clause review.
type ClauseReviewUpdate struct {
	Applicability *string
	NAReason      *string
	Observations  *string
	RemedialWorks *string
	DocumentIDs   []string
}

func (e Engine) UpdateClauseReview(ctx context.Context, id string, upd ClauseReviewUpdate, actorID string) (domain.ClauseReview, error) {
	cr, err := e.Repo.GetClauseReview(ctx, id)
	if err != nil {
		return cr, err
	}
	if upd.Applicability != nil {
		if *upd.Applicability != "applicable" && *upd.Applicability != "na" {
			return cr, validationf("applicability must be applicable or na")
		}
		cr.Applicability = *upd.Applicability
	}
	if upd.NAReason != nil {
		cr.NAReason = *upd.NAReason
	}
	if upd.Observations != nil {
		cr.Observations = *upd.Observations
	}
	if upd.RemedialWorks != nil {
		cr.RemedialWorks = *upd.RemedialWorks
	}
	if upd.DocumentIDs != nil {
		cr.DocumentIDs = upd.DocumentIDs
	}
	if cr.Applicability == "na" && cr.NAReason == "" {
		return cr, validationf("na_reason is required when applicability is na")
	}
	cr.UpdatedAt = e.nowStr()

	in, err := e.Repo.GetInspection(ctx, cr.InspectionID)
	if err != nil {
		return cr, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return cr, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateClauseReviewTx(ctx, tx, cr); err != nil {
		return cr, err
	}
	if err := e.Events.Append(ctx, tx, "clause_review.updated", in.ProjectID, "clause_review", cr.ID, actorID, events.EventPayload{
		"applicability": cr.Applicability,
	}); err != nil {
		return cr, err
	}
	if err := tx.Commit(); err != nil {
		return cr, err
	}
	return cr, nil
}

func (e Engine) DeleteClauseReview(ctx context.Context, id, actorID string) error {
	cr, err := e.Repo.GetClauseReview(ctx, id)
	if err != nil {
		return err
	}
	in, err := e.Repo.GetInspection(ctx, cr.InspectionID)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteClauseReviewTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "clause_review.deleted", in.ProjectID, "clause_review", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// DocumentOptions are parameters for tracking a document.
type DocumentOptions struct {
	ID                string
	ProjectID         string
	Type              string
	Description       string
	Status            string
	LinkedClauseCodes []string
	ActorID           string
}

func validDocumentStatus(s string) bool {
	switch s {
	case "required", "received", "outstanding", "na":
		return true
	}
	return false
}

// AddDocument starts tracking a compliance document on a project.
func (e Engine) AddDocument(ctx context.Context, opts DocumentOptions) (domain.Document, error) {
	if opts.Type == "" {
		return domain.Document{}, validationf("type is required")
	}
	if opts.Status == "" {
		opts.Status = "required"
	}
	if !validDocumentStatus(opts.Status) {
		return domain.Document{}, validationf("status must be required, received, outstanding or na")
	}
	if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
		return domain.Document{}, err
	}
	if opts.Description == "" && e.Config != nil {
		if def, ok := e.Config.Documents.Catalog[opts.Type]; ok {
			opts.Description = def.Description
		}
	}
	now := e.nowStr()
	d := domain.Document{
		ID:                opts.ID,
		ProjectID:         opts.ProjectID,
		Type:              opts.Type,
		Description:       opts.Description,
		Status:            opts.Status,
		LinkedClauseCodes: opts.LinkedClauseCodes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Document{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertDocumentTx(ctx, tx, d); err != nil {
		return domain.Document{}, err
	}
	if err := e.Events.Append(ctx, tx, "document.added", d.ProjectID, "document", d.ID, opts.ActorID, events.EventPayload{
		"type":   d.Type,
		"status": d.Status,
	}); err != nil {
		return domain.Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Document{}, err
	}
	return d, nil
}

// DocumentUpdate carries optional field updates for a document.
type DocumentUpdate struct {
	Status            *string
	Description       *string
	Verified          *bool
	LinkedClauseCodes []string
}

func (e Engine) UpdateDocument(ctx context.Context, id string, upd DocumentUpdate, actorID string) (domain.Document, error) {
	d, err := e.Repo.GetDocument(ctx, id)
	if err != nil {
		return d, err
	}
	if upd.Status != nil {
		if !validDocumentStatus(*upd.Status) {
			return d, validationf("status must be required, received, outstanding or na")
		}
		d.Status = *upd.Status
	}
	if upd.Description != nil {
		d.Description = *upd.Description
	}
	if upd.Verified != nil {
		d.Verified = *upd.Verified
	}
	if upd.LinkedClauseCodes != nil {
		d.LinkedClauseCodes = upd.LinkedClauseCodes
	}
	d.UpdatedAt = e.nowStr()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return d, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateDocumentTx(ctx, tx, d); err != nil {
		return d, err
	}
	if err := e.Events.Append(ctx, tx, "document.updated", d.ProjectID, "document", d.ID, actorID, events.EventPayload{
		"status":   d.Status,
		"verified": d.Verified,
	}); err != nil {
		return d, err
	}
	if err := tx.Commit(); err != nil {
		return d, err
	}
	return d, nil
}

func (e Engine) DeleteDocument(ctx context.Context, id, actorID string) error {
	d, err := e.Repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteDocumentTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "document.deleted", d.ProjectID, "document", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// PhotoOptions are parameters for attaching a photo reference.
type PhotoOptions struct {
	InspectionID string
	ItemID       string
	Caption      string
	ObjectKey    string
	ActorID      string
}

// AttachPhoto records a stored-object reference against an inspection,
// optionally tied to a checklist item or clause review.
func (e Engine) AttachPhoto(ctx context.Context, opts PhotoOptions) (domain.Photo, error) {
	if opts.ObjectKey == "" {
		return domain.Photo{}, validationf("object_key is required")
	}
	in, err := e.Repo.GetInspection(ctx, opts.InspectionID)
	if err != nil {
		return domain.Photo{}, err
	}
	p := domain.Photo{
		ID:           uuid.New().String(),
		InspectionID: in.ID,
		ItemID:       opts.ItemID,
		Caption:      opts.Caption,
		ObjectKey:    opts.ObjectKey,
		CreatedAt:    e.nowStr(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Photo{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertPhotoTx(ctx, tx, p); err != nil {
		return domain.Photo{}, err
	}
	if err := e.Events.Append(ctx, tx, "photo.attached", in.ProjectID, "photo", p.ID, opts.ActorID, events.EventPayload{
		"inspection_id": in.ID,
		"item_id":       p.ItemID,
	}); err != nil {
		return domain.Photo{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Photo{}, err
	}
	return p, nil
}
