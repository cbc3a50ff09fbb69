// Package progress aggregates reviewable items into completion summaries.
// The three item kinds (checklist items, clause reviews, documents) share one
// fold parameterized by a per-kind resolved predicate and denominator rule.
package progress

import (
	"math"

	"sitecheck/internal/domain"
)

// Rule defines how one item kind participates in aggregation. Resolved must
// be a pure function of the item itself so aggregation is order-free.
type Rule[T any] struct {
	Category func(T) string
	Resolved func(T) bool
	// Counted controls the percentage denominator; nil counts every item.
	Counted func(T) bool
	// EmptyPercent is returned when the denominator is zero.
	EmptyPercent int
	// Observe, when set, is called once per item for kind-specific tallies.
	Observe func(T)
}

// Tally is a per-category count pair.
type Tally struct {
	Total    int `json:"total"`
	Resolved int `json:"resolved"`
}

// Breakdown is the kind-independent aggregation output. ByCategory has no
// iteration-order guarantee; compare by key membership.
type Breakdown struct {
	Total                int              `json:"total"`
	Resolved             int              `json:"resolved"`
	ByCategory           map[string]Tally `json:"by_category"`
	CompletionPercentage int              `json:"completion_percentage"`
}

// Fold accumulates items in a single pass. Category entries are created
// lazily on first encounter; input order is irrelevant.
func Fold[T any](items []T, r Rule[T]) Breakdown {
	b := Breakdown{ByCategory: map[string]Tally{}}
	for _, item := range items {
		if r.Observe != nil {
			r.Observe(item)
		}
		if r.Counted != nil && !r.Counted(item) {
			continue
		}
		b.Total++
		t := b.ByCategory[r.Category(item)]
		t.Total++
		if r.Resolved(item) {
			b.Resolved++
			t.Resolved++
		}
		b.ByCategory[r.Category(item)] = t
	}
	if b.Total == 0 {
		b.CompletionPercentage = r.EmptyPercent
	} else {
		b.CompletionPercentage = Percent(b.Resolved, b.Total)
	}
	return b
}

// Percent is half-up rounding of resolved/total*100; total 0 yields 0.
func Percent(resolved, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(resolved)/float64(total)*100 + 0.5))
}

// ChecklistItemResolved reports whether a checklist item no longer needs
// inspector attention. Every recorded decision resolves; an empty decision
// means the item has not been addressed yet.
func ChecklistItemResolved(it domain.ChecklistItem) bool {
	switch it.Decision {
	case "pass", "fail", "na":
		return true
	}
	return false
}

// ClauseReviewResolved: NA needs a reason, applicable needs observations.
func ClauseReviewResolved(cr domain.ClauseReview) bool {
	if cr.Applicability == "na" {
		return !blank(cr.NAReason)
	}
	return cr.Applicability == "applicable" && !blank(cr.Observations)
}

// DocumentResolved: received and not-applicable documents need no chasing.
func DocumentResolved(d domain.Document) bool {
	return d.Status == "received" || d.Status == "na"
}

// DocumentCounted: only documents still in scope enter the percentage
// denominator; NA documents are excluded from numerator and denominator.
func DocumentCounted(d domain.Document) bool {
	return d.Status != "na"
}

func blank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// ChecklistItemSummary is the simple-mode item aggregate.
type ChecklistItemSummary struct {
	Breakdown
	Passed             int      `json:"passed"`
	Failed             int      `json:"failed"`
	NotApplicable      int      `json:"not_applicable"`
	FailedWithoutNotes []string `json:"failed_without_notes,omitempty"`
}

// SummarizeChecklistItems folds checklist items. Items with decision fail and
// blank notes still count as resolved but are flagged for follow-up.
func SummarizeChecklistItems(items []domain.ChecklistItem) ChecklistItemSummary {
	s := ChecklistItemSummary{}
	s.Breakdown = Fold(items, Rule[domain.ChecklistItem]{
		Category: func(it domain.ChecklistItem) string { return it.Category },
		Resolved: ChecklistItemResolved,
		Observe: func(it domain.ChecklistItem) {
			switch it.Decision {
			case "pass":
				s.Passed++
			case "fail":
				s.Failed++
				if blank(it.Notes) {
					s.FailedWithoutNotes = append(s.FailedWithoutNotes, it.Label)
				}
			case "na":
				s.NotApplicable++
			}
		},
	})
	return s
}

// ClauseReviewSummary is the clause-review-mode item aggregate.
type ClauseReviewSummary struct {
	Breakdown
	Applicable           int `json:"applicable"`
	NotApplicable        int `json:"not_applicable"`
	WithObservations     int `json:"with_observations"`
	WithPhotos           int `json:"with_photos"`
	NeedingRemedialWorks int `json:"needing_remedial_works"`
}

func SummarizeClauseReviews(reviews []domain.ClauseReview) ClauseReviewSummary {
	s := ClauseReviewSummary{}
	s.Breakdown = Fold(reviews, Rule[domain.ClauseReview]{
		Category: func(cr domain.ClauseReview) string { return cr.ClauseCategory },
		Resolved: ClauseReviewResolved,
		Observe: func(cr domain.ClauseReview) {
			switch cr.Applicability {
			case "applicable":
				s.Applicable++
			case "na":
				s.NotApplicable++
			}
			if !blank(cr.Observations) {
				s.WithObservations++
			}
			if len(cr.PhotoIDs) > 0 {
				s.WithPhotos++
			}
			if !blank(cr.RemedialWorks) {
				s.NeedingRemedialWorks++
			}
		},
	})
	return s
}

// DocumentSummary is the project-level document aggregate. Total counts only
// in-scope documents; NotApplicable reports the excluded ones.
type DocumentSummary struct {
	Breakdown
	Received      int `json:"received"`
	Required      int `json:"required"`
	Outstanding   int `json:"outstanding"`
	NotApplicable int `json:"not_applicable"`
	Verified      int `json:"verified"`
}

func SummarizeDocuments(docs []domain.Document) DocumentSummary {
	s := DocumentSummary{}
	s.Breakdown = Fold(docs, Rule[domain.Document]{
		Category:     func(d domain.Document) string { return d.Type },
		Resolved:     DocumentResolved,
		Counted:      DocumentCounted,
		EmptyPercent: 100,
		Observe: func(d domain.Document) {
			switch d.Status {
			case "received":
				s.Received++
			case "required":
				s.Required++
			case "outstanding":
				s.Outstanding++
			case "na":
				s.NotApplicable++
			}
			if d.Verified {
				s.Verified++
			}
		},
	})
	return s
}
