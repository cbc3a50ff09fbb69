package progress_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"sitecheck/internal/domain"
	"sitecheck/internal/progress"
)

func TestPercentRounding(t *testing.T) {
	require.Equal(t, 0, progress.Percent(0, 0))
	require.Equal(t, 0, progress.Percent(0, 3))
	require.Equal(t, 33, progress.Percent(1, 3))
	require.Equal(t, 67, progress.Percent(2, 3))
	require.Equal(t, 50, progress.Percent(1, 2))
	require.Equal(t, 13, progress.Percent(1, 8))
	require.Equal(t, 100, progress.Percent(3, 3))
}

func doc(status string) domain.Document {
	return domain.Document{Type: "consent", Description: "Building consent", Status: status}
}

func TestDocumentPercentageExcludesNA(t *testing.T) {
	docs := []domain.Document{
		doc("received"), doc("received"), doc("outstanding"), doc("outstanding"), doc("na"),
	}
	s := progress.SummarizeDocuments(docs)
	require.Equal(t, 4, s.Total)
	require.Equal(t, 2, s.Resolved)
	require.Equal(t, 50, s.CompletionPercentage)
	require.Equal(t, 2, s.Received)
	require.Equal(t, 2, s.Outstanding)
	require.Equal(t, 1, s.NotApplicable)
}

func TestDocumentPercentageEmptyScope(t *testing.T) {
	// nothing tracked at all
	s := progress.SummarizeDocuments(nil)
	require.Equal(t, 100, s.CompletionPercentage)

	// everything explicitly out of scope
	s = progress.SummarizeDocuments([]domain.Document{doc("na"), doc("na")})
	require.Equal(t, 0, s.Total)
	require.Equal(t, 100, s.CompletionPercentage)
	require.Equal(t, 2, s.NotApplicable)
}

func TestChecklistItemSummary(t *testing.T) {
	items := []domain.ChecklistItem{
		{Category: "exterior", Label: "cladding", Decision: "pass"},
		{Category: "exterior", Label: "gutters", Decision: "fail", Notes: "rusted through on south side"},
		{Category: "exterior", Label: "flashings", Decision: "fail"},
		{Category: "interior", Label: "moisture", Decision: "na"},
		{Category: "interior", Label: "ventilation"},
	}
	s := progress.SummarizeChecklistItems(items)
	require.Equal(t, 5, s.Total)
	require.Equal(t, 4, s.Resolved)
	require.Equal(t, 80, s.CompletionPercentage)
	require.Equal(t, 1, s.Passed)
	require.Equal(t, 2, s.Failed)
	require.Equal(t, 1, s.NotApplicable)
	require.Equal(t, []string{"flashings"}, s.FailedWithoutNotes)
	require.Equal(t, progress.Tally{Total: 3, Resolved: 3}, s.ByCategory["exterior"])
	require.Equal(t, progress.Tally{Total: 2, Resolved: 1}, s.ByCategory["interior"])
}

func TestClauseReviewSummary(t *testing.T) {
	reviews := []domain.ClauseReview{
		{ClauseCode: "B1", ClauseCategory: "structure", Applicability: "applicable", Observations: "foundations level"},
		{ClauseCode: "B2", ClauseCategory: "durability", Applicability: "applicable"},
		{ClauseCode: "E1", ClauseCategory: "moisture", Applicability: "na", NAReason: "no surface water risk"},
		{ClauseCode: "E2", ClauseCategory: "moisture", Applicability: "applicable", Observations: "membrane intact",
			PhotoIDs: []string{"p1"}, RemedialWorks: "reseal parapet junction"},
	}
	s := progress.SummarizeClauseReviews(reviews)
	require.Equal(t, 4, s.Total)
	require.Equal(t, 3, s.Applicable)
	require.Equal(t, 1, s.NotApplicable)
	require.Equal(t, 2, s.WithObservations)
	require.Equal(t, 1, s.WithPhotos)
	require.Equal(t, 1, s.NeedingRemedialWorks)
	require.Equal(t, 3, s.Resolved)
	require.Equal(t, 75, s.CompletionPercentage)
}

func TestClauseReviewResolved(t *testing.T) {
	require.False(t, progress.ClauseReviewResolved(domain.ClauseReview{Applicability: "na"}))
	require.False(t, progress.ClauseReviewResolved(domain.ClauseReview{Applicability: "na", NAReason: "  \t"}))
	require.True(t, progress.ClauseReviewResolved(domain.ClauseReview{Applicability: "na", NAReason: "not built yet"}))
	require.False(t, progress.ClauseReviewResolved(domain.ClauseReview{Applicability: "applicable"}))
	require.True(t, progress.ClauseReviewResolved(domain.ClauseReview{Applicability: "applicable", Observations: "ok"}))
}

func TestSectionGateMet(t *testing.T) {
	require.True(t, progress.SectionGateMet(3, 5, 0.5))
	require.False(t, progress.SectionGateMet(2, 5, 0.5))
	require.True(t, progress.SectionGateMet(2, 4, 0.5))
	require.False(t, progress.SectionGateMet(1, 4, 0.5))
	require.True(t, progress.SectionGateMet(0, 0, 0.5))
}

func TestEvaluateSimple(t *testing.T) {
	items := []domain.ChecklistItem{
		{Category: "exterior", Label: "cladding", Decision: "pass"},
		{Category: "roof", Label: "ridge"},
	}
	docs := []domain.Document{
		{Type: "consent", Description: "Building consent", Status: "outstanding"},
	}
	g := progress.EvaluateSimple(items, docs)
	require.False(t, g.CanFinalize)
	require.Equal(t, []string{
		"consent: Building consent (outstanding)",
		"roof: ridge (pending)",
	}, g.Blockers)

	g = progress.EvaluateSimple(items[:1], nil)
	require.True(t, g.CanFinalize)
	require.Empty(t, g.Blockers)
}

func reviewSet(resolved, total int) []domain.ClauseReview {
	out := make([]domain.ClauseReview, 0, total)
	for i := 0; i < total; i++ {
		cr := domain.ClauseReview{
			ClauseCode:     fmt.Sprintf("C%d", i),
			ClauseCategory: "structure",
			Applicability:  "applicable",
		}
		if i < resolved {
			cr.Observations = "checked"
		}
		out = append(out, cr)
	}
	return out
}

func TestEvaluateClauseReviewThresholdBoundary(t *testing.T) {
	g := progress.EvaluateClauseReview(reviewSet(67, 100), nil, 80)
	require.False(t, g.CanFinalize)

	g = progress.EvaluateClauseReview(reviewSet(79, 100), nil, 80)
	require.False(t, g.CanFinalize)
	require.Contains(t, g.Blockers[len(g.Blockers)-1], "clause-completion: 79%")

	g = progress.EvaluateClauseReview(reviewSet(80, 100), nil, 80)
	require.True(t, g.CanFinalize)
	require.Empty(t, g.Blockers)

	// outstanding documents block even above the threshold
	g = progress.EvaluateClauseReview(reviewSet(80, 100), []domain.Document{
		{Type: "lim", Description: "Land information memorandum", Status: "required"},
	}, 80)
	require.False(t, g.CanFinalize)
	require.Equal(t, []string{"lim: Land information memorandum (required)"}, g.Blockers)
}

func TestEvaluateProject(t *testing.T) {
	g := progress.EvaluateProject(nil)
	require.True(t, g.CanFinalize)

	g = progress.EvaluateProject([]domain.Document{doc("received"), doc("na")})
	require.True(t, g.CanFinalize)

	g = progress.EvaluateProject([]domain.Document{doc("required")})
	require.False(t, g.CanFinalize)
	require.Equal(t, []string{"consent: Building consent (required)"}, g.Blockers)
}
