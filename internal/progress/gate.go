package progress

import (
	"fmt"
	"math"

	"sitecheck/internal/domain"
)

// Gate is the finalization verdict. Blockers is empty exactly when
// CanFinalize is true.
type Gate struct {
	CanFinalize bool     `json:"can_finalize"`
	Blockers    []string `json:"blockers"`
}

func newGate(blockers []string) Gate {
	if blockers == nil {
		blockers = []string{}
	}
	return Gate{CanFinalize: len(blockers) == 0, Blockers: blockers}
}

// SectionGateMet reports whether enough sections are completed or skipped:
// completed >= ceil(total*ratio). An empty checklist trivially passes.
func SectionGateMet(completed, total int, ratio float64) bool {
	need := int(math.Ceil(float64(total) * ratio))
	return completed >= need
}

// blockerLine renders the shared "<type-or-code>: <description> (<status>)"
// format used for every unresolved required item.
func blockerLine(code, description, status string) string {
	return fmt.Sprintf("%s: %s (%s)", code, description, status)
}

// DocumentBlockers lists documents still required or outstanding.
func DocumentBlockers(docs []domain.Document) []string {
	var out []string
	for _, d := range docs {
		if d.Status == "required" || d.Status == "outstanding" {
			out = append(out, blockerLine(d.Type, d.Description, d.Status))
		}
	}
	return out
}

// ChecklistItemBlockers lists items without a recorded decision.
func ChecklistItemBlockers(items []domain.ChecklistItem) []string {
	var out []string
	for _, it := range items {
		if !ChecklistItemResolved(it) {
			out = append(out, blockerLine(it.Category, it.Label, "pending"))
		}
	}
	return out
}

// ClauseReviewBlockers lists reviews missing observations or an NA reason.
func ClauseReviewBlockers(reviews []domain.ClauseReview) []string {
	var out []string
	for _, cr := range reviews {
		if !ClauseReviewResolved(cr) {
			out = append(out, blockerLine(cr.ClauseCode, cr.ClauseCategory, cr.Applicability))
		}
	}
	return out
}

// EvaluateSimple gates a simple-mode inspection: outstanding documents plus
// undecided checklist items block it.
func EvaluateSimple(items []domain.ChecklistItem, docs []domain.Document) Gate {
	blockers := append(DocumentBlockers(docs), ChecklistItemBlockers(items)...)
	return newGate(blockers)
}

// EvaluateClauseReview gates a clause-review-mode inspection on the aggregate
// completion percentage; 79 blocks, 80 passes. Unresolved reviews are listed
// as blockers only while the threshold is unmet, since the gate tolerates a
// resolved share at or above it. Outstanding documents always block.
func EvaluateClauseReview(reviews []domain.ClauseReview, docs []domain.Document, threshold int) Gate {
	blockers := DocumentBlockers(docs)
	summary := SummarizeClauseReviews(reviews)
	if summary.CompletionPercentage < threshold {
		blockers = append(blockers, ClauseReviewBlockers(reviews)...)
		blockers = append(blockers, fmt.Sprintf(
			"clause-completion: %d%% of clause reviews resolved, %d%% required (below threshold)",
			summary.CompletionPercentage, threshold))
	}
	return newGate(blockers)
}

// EvaluateProject gates project finalization on document completion alone,
// independent of inspection mode.
func EvaluateProject(docs []domain.Document) Gate {
	return newGate(DocumentBlockers(docs))
}
