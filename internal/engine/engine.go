package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sitecheck/internal/checklist"
	"sitecheck/internal/config"
	"sitecheck/internal/domain"
	"sitecheck/internal/events"
	"sitecheck/internal/navigator"
	"sitecheck/internal/progress"
	"sitecheck/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowStr() string {
	return e.now().UTC().Format(time.RFC3339)
}

// ValidationError reports malformed caller input, e.g. a missing NA reason.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e Engine) checklists() checklist.ConfigProvider {
	return checklist.NewProvider(e.Config)
}

// InitProject initializes a new project with migrations already run.
func (e Engine) InitProject(ctx context.Context, projectID, name, description, actorID string) (domain.Project, error) {
	if name == "" {
		name = projectID
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	p := domain.Project{
		ID:          projectID,
		Name:        name,
		Status:      "active",
		Description: description,
		CreatedAt:   e.nowStr(),
	}
	if err := e.Repo.InsertProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Repo.UpsertProjectConfigTx(ctx, tx, p.ID, config.Default(p.ID)); err != nil {
		return domain.Project{}, fmt.Errorf("insert project config: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "project.init", p.ID, "project", p.ID, actorID, events.EventPayload{"status": p.Status}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// StartInspectionOptions are parameters for starting an inspection.
type StartInspectionOptions struct {
	ID          string
	ProjectID   string
	ChecklistID string
	Mode        string
	ActorID     string
}

// StartInspection creates an inspection positioned on the first section.
func (e Engine) StartInspection(ctx context.Context, opts StartInspectionOptions) (domain.Inspection, error) {
	if e.Config == nil {
		return domain.Inspection{}, errors.New("config not loaded")
	}
	if opts.ProjectID == "" {
		return domain.Inspection{}, validationf("project is required")
	}
	if opts.Mode == "" {
		opts.Mode = "simple"
	}
	if opts.Mode != "simple" && opts.Mode != "clause_review" {
		return domain.Inspection{}, validationf("mode must be simple or clause_review")
	}
	if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
		return domain.Inspection{}, err
	}
	cl, err := e.checklists().Get(opts.ChecklistID)
	if err != nil {
		return domain.Inspection{}, err
	}
	state := navigator.New(cl)

	id := opts.ID
	now := e.nowStr()
	if id == "" {
		id = uuid.New().String()
	}
	in := domain.Inspection{
		ID:          id,
		ProjectID:   opts.ProjectID,
		ChecklistID: opts.ChecklistID,
		Mode:        opts.Mode,
		Status:      "started",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if state.Current != "" {
		cur := state.Current
		in.CurrentSection = &cur
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Inspection{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertInspectionTx(ctx, tx, in); err != nil {
		return domain.Inspection{}, err
	}
	for _, sec := range state.Sections {
		if err := e.Repo.UpsertInspectionSectionTx(ctx, tx, domain.InspectionSection{
			InspectionID: in.ID,
			SectionID:    sec.ID,
			Status:       string(sec.Status),
			UpdatedAt:    now,
		}); err != nil {
			return domain.Inspection{}, err
		}
	}
	if err := e.Events.Append(ctx, tx, "inspection.started", in.ProjectID, "inspection", in.ID, opts.ActorID, events.EventPayload{
		"checklist_id": in.ChecklistID,
		"mode":         in.Mode,
	}); err != nil {
		return domain.Inspection{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Inspection{}, err
	}
	return in, nil
}

// loadState restores navigator state for a persisted inspection. A nil
// current-section pointer is legitimate (completed inspections have none)
// and restores with no active section; a stored pointer missing from the
// (possibly changed) checklist definition reports InvalidSectionError.
func (e Engine) loadState(ctx context.Context, in domain.Inspection) (checklist.Checklist, navigator.State, error) {
	cl, err := e.checklists().Get(in.ChecklistID)
	if err != nil {
		return checklist.Checklist{}, navigator.State{}, err
	}
	current := ""
	if in.CurrentSection != nil {
		current = *in.CurrentSection
		if _, ok := e.checklists().Section(in.ChecklistID, current); !ok {
			return cl, navigator.State{}, navigator.InvalidSectionError{SectionID: current}
		}
	}
	raw, err := e.Repo.SectionStatuses(ctx, in.ID)
	if err != nil {
		return cl, navigator.State{}, err
	}
	statuses := make(map[string]navigator.Status, len(raw))
	for id, st := range raw {
		statuses[id] = navigator.Status(st)
	}
	return cl, navigator.Restore(cl, current, statuses), nil
}

// NavigationResult is the transition output returned to callers.
type NavigationResult struct {
	Inspection      domain.Inspection  `json:"inspection"`
	PreviousSection string             `json:"previous_section"`
	State           navigator.State    `json:"state"`
	Progress        navigator.Progress `json:"progress"`
}

// Navigate applies one navigator action and persists the outcome. target is
// only read for jump.
func (e Engine) Navigate(ctx context.Context, inspectionID string, action navigator.Action, target, actorID string) (NavigationResult, error) {
	if e.Config == nil {
		return NavigationResult{}, errors.New("config not loaded")
	}
	in, err := e.Repo.GetInspection(ctx, inspectionID)
	if err != nil {
		return NavigationResult{}, err
	}
	if in.Status == "completed" {
		return NavigationResult{}, validationf("inspection %s is already completed", in.ID)
	}
	_, state, err := e.loadState(ctx, in)
	if err != nil {
		return NavigationResult{}, err
	}
	next, result, err := navigator.Apply(state, action, target)
	if err != nil {
		return NavigationResult{}, err
	}

	now := e.nowStr()
	cur := next.Current
	in.CurrentSection = &cur
	if action != navigator.ActionBack {
		in.Status = "in_progress"
	}
	in.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return NavigationResult{}, err
	}
	defer tx.Rollback()

	for i, sec := range next.Sections {
		if sec.Status == state.Sections[i].Status {
			continue
		}
		if err := e.Repo.UpsertInspectionSectionTx(ctx, tx, domain.InspectionSection{
			InspectionID: in.ID,
			SectionID:    sec.ID,
			Status:       string(sec.Status),
			UpdatedAt:    now,
		}); err != nil {
			return NavigationResult{}, err
		}
	}
	if err := e.Repo.UpdateInspectionTx(ctx, tx, in); err != nil {
		return NavigationResult{}, err
	}
	if err := e.Events.Append(ctx, tx, "inspection.navigated", in.ProjectID, "inspection", in.ID, actorID, events.EventPayload{
		"action": string(action),
		"from":   result.From,
		"to":     result.To,
	}); err != nil {
		return NavigationResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return NavigationResult{}, err
	}
	return NavigationResult{
		Inspection:      in,
		PreviousSection: result.From,
		State:           next,
		Progress:        next.Progress(),
	}, nil
}

// SectionStatusView is one section's status plus its finding count.
type SectionStatusView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	FindingsCount int    `json:"findings_count"`
}

// InspectionStatus is the getStatus payload.
type InspectionStatus struct {
	Inspection domain.Inspection   `json:"inspection"`
	Sections   []SectionStatusView `json:"sections"`
	Progress   navigator.Progress  `json:"progress"`
}

func (e Engine) Status(ctx context.Context, inspectionID string) (InspectionStatus, error) {
	in, err := e.Repo.GetInspection(ctx, inspectionID)
	if err != nil {
		return InspectionStatus{}, err
	}
	_, state, err := e.loadState(ctx, in)
	if err != nil {
		return InspectionStatus{}, err
	}
	counts, err := e.Repo.SectionFindingCounts(ctx, in.ID)
	if err != nil {
		return InspectionStatus{}, err
	}
	st := InspectionStatus{Inspection: in, Progress: state.Progress()}
	for _, sec := range state.Sections {
		st.Sections = append(st.Sections, SectionStatusView{
			ID:            sec.ID,
			Name:          sec.Name,
			Status:        string(sec.Status),
			FindingsCount: counts[sec.ID],
		})
	}
	return st, nil
}

// Suggest returns the current section prompt, unaddressed item hints and the
// next section if one exists.
func (e Engine) Suggest(ctx context.Context, inspectionID string) (navigator.Suggestion, error) {
	in, err := e.Repo.GetInspection(ctx, inspectionID)
	if err != nil {
		return navigator.Suggestion{}, err
	}
	if in.CurrentSection == nil {
		return navigator.Suggestion{}, validationf("inspection %s has no active section", in.ID)
	}
	cl, state, err := e.loadState(ctx, in)
	if err != nil {
		return navigator.Suggestion{}, err
	}
	addressed, err := e.Repo.AddressedItemLabels(ctx, in.ID, state.Current)
	if err != nil {
		return navigator.Suggestion{}, err
	}
	return state.Suggest(cl, addressed)
}

// FindingOptions are parameters for recording a finding.
type FindingOptions struct {
	InspectionID string
	SectionID    string
	Note         string
	ItemLabel    string
	ActorID      string
}

// RecordFinding stores a free-text observation against a section. An empty
// section defaults to the inspection's current section.
func (e Engine) RecordFinding(ctx context.Context, opts FindingOptions) (domain.Finding, error) {
	if opts.Note == "" {
		return domain.Finding{}, validationf("note is required")
	}
	in, err := e.Repo.GetInspection(ctx, opts.InspectionID)
	if err != nil {
		return domain.Finding{}, err
	}
	sectionID := opts.SectionID
	if sectionID == "" && in.CurrentSection != nil {
		sectionID = *in.CurrentSection
	}
	if _, ok := e.checklists().Section(in.ChecklistID, sectionID); !ok {
		return domain.Finding{}, navigator.InvalidSectionError{SectionID: sectionID}
	}
	f := domain.Finding{
		ID:           uuid.New().String(),
		InspectionID: in.ID,
		SectionID:    sectionID,
		Note:         opts.Note,
		ItemLabel:    opts.ItemLabel,
		CreatedAt:    e.nowStr(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Finding{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertFindingTx(ctx, tx, f); err != nil {
		return domain.Finding{}, err
	}
	if err := e.Events.Append(ctx, tx, "finding.recorded", in.ProjectID, "finding", f.ID, opts.ActorID, events.EventPayload{
		"section_id": f.SectionID,
		"item_label": f.ItemLabel,
	}); err != nil {
		return domain.Finding{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Finding{}, err
	}
	return f, nil
}

func (e Engine) sectionGateRatio() float64 {
	if e.Config != nil && e.Config.Finalize.SectionGateRatio > 0 {
		return e.Config.Finalize.SectionGateRatio
	}
	return 0.5
}

func (e Engine) clauseThreshold() int {
	if e.Config != nil && e.Config.Finalize.ClauseCompletionThreshold > 0 {
		return e.Config.Finalize.ClauseCompletionThreshold
	}
	return 80
}

// CanFinalize evaluates the finalization gate for one inspection without
// changing anything. The section-progress gate and the item-completion gate
// are independent checks; both must pass.
func (e Engine) CanFinalize(ctx context.Context, inspectionID string) (progress.Gate, error) {
	in, err := e.Repo.GetInspection(ctx, inspectionID)
	if err != nil {
		return progress.Gate{}, err
	}
	_, state, err := e.loadState(ctx, in)
	if err != nil {
		return progress.Gate{}, err
	}
	docs, err := e.Repo.ListDocuments(ctx, in.ProjectID)
	if err != nil {
		return progress.Gate{}, err
	}

	var gate progress.Gate
	switch in.Mode {
	case "clause_review":
		reviews, err := e.Repo.ListClauseReviews(ctx, in.ID)
		if err != nil {
			return progress.Gate{}, err
		}
		gate = progress.EvaluateClauseReview(reviews, docs, e.clauseThreshold())
	default:
		items, err := e.Repo.ListChecklistItems(ctx, in.ID)
		if err != nil {
			return progress.Gate{}, err
		}
		gate = progress.EvaluateSimple(items, docs)
	}

	sp := state.Progress()
	if !progress.SectionGateMet(sp.Completed, sp.Total, e.sectionGateRatio()) {
		gate.Blockers = append(gate.Blockers, fmt.Sprintf(
			"sections: %d of %d sections completed (below minimum)", sp.Completed, sp.Total))
		gate.CanFinalize = false
	}
	return gate, nil
}

// CanFinalizeProject gates project completion on document completion alone.
func (e Engine) CanFinalizeProject(ctx context.Context, projectID string) (progress.Gate, error) {
	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		return progress.Gate{}, err
	}
	docs, err := e.Repo.ListDocuments(ctx, projectID)
	if err != nil {
		return progress.Gate{}, err
	}
	return progress.EvaluateProject(docs), nil
}

// FinalizeInspection marks an inspection completed. The gate must pass
// unless force is set.
func (e Engine) FinalizeInspection(ctx context.Context, inspectionID, actorID string, force bool) (domain.Inspection, error) {
	in, err := e.Repo.GetInspection(ctx, inspectionID)
	if err != nil {
		return in, err
	}
	if in.Status == "completed" {
		return in, validationf("inspection %s is already completed", in.ID)
	}
	if !force {
		gate, err := e.CanFinalize(ctx, inspectionID)
		if err != nil {
			return in, err
		}
		if !gate.CanFinalize {
			return in, validationf("inspection cannot be finalized: %d blocker(s)", len(gate.Blockers))
		}
	}
	now := e.nowStr()
	in.Status = "completed"
	in.CurrentSection = nil
	in.UpdatedAt = now
	in.CompletedAt = &now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return in, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateInspectionTx(ctx, tx, in); err != nil {
		return in, err
	}
	if err := e.Events.Append(ctx, tx, "inspection.completed", in.ProjectID, "inspection", in.ID, actorID, events.EventPayload{"forced": force}); err != nil {
		return in, err
	}
	if err := tx.Commit(); err != nil {
		return in, err
	}
	return in, nil
}

// FinalizeProject marks a project completed once its documents are resolved.
func (e Engine) FinalizeProject(ctx context.Context, projectID, actorID string, force bool) (domain.Project, error) {
	p, err := e.Repo.GetProject(ctx, projectID)
	if err != nil {
		return p, err
	}
	if p.Status == "completed" {
		return p, validationf("project %s is already completed", p.ID)
	}
	if !force {
		gate, err := e.CanFinalizeProject(ctx, projectID)
		if err != nil {
			return p, err
		}
		if !gate.CanFinalize {
			return p, validationf("project cannot be finalized: %d blocker(s)", len(gate.Blockers))
		}
	}
	now := e.nowStr()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return p, err
	}
	defer tx.Rollback()
	if err := e.Repo.CompleteProjectTx(ctx, tx, p.ID, now); err != nil {
		return p, err
	}
	if err := e.Events.Append(ctx, tx, "project.completed", p.ID, "project", p.ID, actorID, events.EventPayload{"forced": force}); err != nil {
		return p, err
	}
	if err := tx.Commit(); err != nil {
		return p, err
	}
	p.Status = "completed"
	p.CompletedAt = &now
	return p, nil
}
