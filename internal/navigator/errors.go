package navigator

import "fmt"

// BoundaryError reports next/back attempted past a list end.
type BoundaryError struct {
	Action string
	Reason string
}

func (e BoundaryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Reason)
}

// InvalidSectionError reports a section id unknown to the checklist.
type InvalidSectionError struct {
	SectionID string
}

func (e InvalidSectionError) Error() string {
	return fmt.Sprintf("section %s not in checklist", e.SectionID)
}
