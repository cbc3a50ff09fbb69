package engine

import (
	"context"

	"sitecheck/internal/navigator"
	"sitecheck/internal/progress"
)

// InspectionSummary aggregates the item kind matching the inspection's mode
// plus section progress. Exactly one of Items and Clauses is set.
type InspectionSummary struct {
	InspectionID string                         `json:"inspection_id"`
	Mode         string                         `json:"mode"`
	Sections     navigator.Progress             `json:"sections"`
	Items        *progress.ChecklistItemSummary `json:"items,omitempty"`
	Clauses      *progress.ClauseReviewSummary  `json:"clauses,omitempty"`
}

// Summary aggregates completion for one inspection.
func (e Engine) Summary(ctx context.Context, inspectionID string) (InspectionSummary, error) {
	in, err := e.Repo.GetInspection(ctx, inspectionID)
	if err != nil {
		return InspectionSummary{}, err
	}
	_, state, err := e.loadState(ctx, in)
	if err != nil {
		return InspectionSummary{}, err
	}
	out := InspectionSummary{
		InspectionID: in.ID,
		Mode:         in.Mode,
		Sections:     state.Progress(),
	}
	switch in.Mode {
	case "clause_review":
		reviews, err := e.Repo.ListClauseReviews(ctx, in.ID)
		if err != nil {
			return InspectionSummary{}, err
		}
		s := progress.SummarizeClauseReviews(reviews)
		out.Clauses = &s
	default:
		items, err := e.Repo.ListChecklistItems(ctx, in.ID)
		if err != nil {
			return InspectionSummary{}, err
		}
		s := progress.SummarizeChecklistItems(items)
		out.Items = &s
	}
	return out, nil
}

// DocumentSummary aggregates document tracking for a project.
func (e Engine) DocumentSummary(ctx context.Context, projectID string) (progress.DocumentSummary, error) {
	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		return progress.DocumentSummary{}, err
	}
	docs, err := e.Repo.ListDocuments(ctx, projectID)
	if err != nil {
		return progress.DocumentSummary{}, err
	}
	return progress.SummarizeDocuments(docs), nil
}
