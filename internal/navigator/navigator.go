// Package navigator implements the section state machine for one inspection.
// It is pure: every transition takes a State and returns a new State, with
// persistence left to the caller.
package navigator

import (
	"math"

	"sitecheck/internal/checklist"
)

// Status is the per-section traversal status. Completed and skipped are
// terminal and sticky: navigation never demotes them, so section progress
// saturates instead of double-counting revisits.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

// Action is a navigation transition request.
type Action string

const (
	ActionNext Action = "next"
	ActionBack Action = "back"
	ActionSkip Action = "skip"
	ActionJump Action = "jump"
)

// SectionState is one section's traversal state.
type SectionState struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// State is the full navigator state for one inspection. Sections keep
// checklist definition order; Current is the pointer the inspector sits on.
// After a back into an already-terminal section the pointer and the single
// in_progress marker can diverge until the next forward move.
type State struct {
	Current  string         `json:"current"`
	Sections []SectionState `json:"sections"`
}

// Result describes what a transition did.
type Result struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Departed Status `json:"departed_status"`
}

// Progress is the section-level completion summary. Completed counts both
// completed and skipped sections.
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// SectionRef is a lightweight pointer to a checklist section.
type SectionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Suggestion tells the caller what to look at next.
type Suggestion struct {
	SectionID         string      `json:"section_id"`
	SectionName       string      `json:"section_name"`
	Prompt            string      `json:"prompt"`
	UnaddressedItems  []string    `json:"unaddressed_items"`
	NextSection       *SectionRef `json:"next_section,omitempty"`
	RemainingSections int         `json:"remaining_sections"`
}

// SuggestionItemLimit caps how many unaddressed item hints a suggestion lists.
const SuggestionItemLimit = 5

// New builds the initial state: first section in_progress, rest pending.
func New(cl checklist.Checklist) State {
	st := State{}
	for i, s := range cl.Sections {
		status := StatusPending
		if i == 0 {
			status = StatusInProgress
			st.Current = s.ID
		}
		st.Sections = append(st.Sections, SectionState{ID: s.ID, Name: s.Name, Status: status})
	}
	return st
}

// Restore rebuilds a state from persisted per-section statuses, keeping
// checklist order. Sections missing a persisted row default to pending.
func Restore(cl checklist.Checklist, current string, statuses map[string]Status) State {
	st := State{Current: current}
	for _, s := range cl.Sections {
		status, ok := statuses[s.ID]
		if !ok {
			status = StatusPending
		}
		st.Sections = append(st.Sections, SectionState{ID: s.ID, Name: s.Name, Status: status})
	}
	return st
}

func (s State) indexOf(id string) int {
	for i, sec := range s.Sections {
		if sec.ID == id {
			return i
		}
	}
	return -1
}

// Section returns the state of one section.
func (s State) Section(id string) (SectionState, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return SectionState{}, false
	}
	return s.Sections[i], true
}

func (s State) clone() State {
	out := State{Current: s.Current, Sections: make([]SectionState, len(s.Sections))}
	copy(out.Sections, s.Sections)
	return out
}

func terminal(st Status) bool {
	return st == StatusCompleted || st == StatusSkipped
}

// Apply runs one transition and returns the new state. The input state is
// never mutated. target is only read for ActionJump.
//
// Terminal statuses are never overwritten by navigating away or into a
// section: a completed section revisited via back or jump stays completed,
// so Progress never exceeds Total and a round trip of back then next leaves
// every status as it was.
func Apply(s State, action Action, target string) (State, Result, error) {
	cur := s.indexOf(s.Current)
	if cur < 0 {
		return s, Result{}, InvalidSectionError{SectionID: s.Current}
	}
	switch action {
	case ActionNext, ActionSkip:
		if cur >= len(s.Sections)-1 {
			return s, Result{}, BoundaryError{Action: string(action), Reason: "already at last section"}
		}
		departed := StatusCompleted
		if action == ActionSkip {
			departed = StatusSkipped
		}
		next := s.clone()
		if !terminal(next.Sections[cur].Status) {
			next.Sections[cur].Status = departed
		} else {
			departed = next.Sections[cur].Status
		}
		if !terminal(next.Sections[cur+1].Status) {
			next.Sections[cur+1].Status = StatusInProgress
		}
		next.Current = next.Sections[cur+1].ID
		return next, Result{From: s.Current, To: next.Current, Departed: departed}, nil

	case ActionBack:
		if cur == 0 {
			return s, Result{}, BoundaryError{Action: string(action), Reason: "already at first section"}
		}
		// Non-destructive peek: only the pointer moves. The departing
		// section drops its in_progress marker, the revisited section
		// keeps whatever terminal status it already earned.
		prev := s.clone()
		if prev.Sections[cur].Status == StatusInProgress {
			prev.Sections[cur].Status = StatusPending
		}
		if !terminal(prev.Sections[cur-1].Status) {
			prev.Sections[cur-1].Status = StatusInProgress
		}
		prev.Current = prev.Sections[cur-1].ID
		return prev, Result{From: s.Current, To: prev.Current, Departed: prev.Sections[cur].Status}, nil

	case ActionJump:
		ti := s.indexOf(target)
		if ti < 0 {
			return s, Result{}, InvalidSectionError{SectionID: target}
		}
		next := s.clone()
		departed := next.Sections[cur].Status
		if !terminal(departed) && cur != ti {
			departed = StatusCompleted
			next.Sections[cur].Status = departed
		}
		if !terminal(next.Sections[ti].Status) {
			next.Sections[ti].Status = StatusInProgress
		}
		next.Current = target
		return next, Result{From: s.Current, To: target, Departed: departed}, nil

	default:
		return s, Result{}, BoundaryError{Action: string(action), Reason: "unknown action"}
	}
}

// Progress counts completed and skipped sections. The count is derived from
// the status set, so revisits saturate rather than double-count.
func (s State) Progress() Progress {
	p := Progress{Total: len(s.Sections)}
	for _, sec := range s.Sections {
		if terminal(sec.Status) {
			p.Completed++
		}
	}
	p.Percentage = roundPercent(p.Completed, p.Total)
	return p
}

// Suggest builds the prompt for the current section. addressed holds item
// labels already referenced by a finding in that section.
func (s State) Suggest(cl checklist.Checklist, addressed map[string]bool) (Suggestion, error) {
	cur := s.indexOf(s.Current)
	if cur < 0 {
		return Suggestion{}, InvalidSectionError{SectionID: s.Current}
	}
	var def checklist.Section
	for _, sec := range cl.Sections {
		if sec.ID == s.Current {
			def = sec
			break
		}
	}
	sug := Suggestion{
		SectionID:        s.Current,
		SectionName:      s.Sections[cur].Name,
		Prompt:           def.Prompt,
		UnaddressedItems: []string{},
	}
	for _, item := range def.Items {
		if addressed[item] {
			continue
		}
		sug.UnaddressedItems = append(sug.UnaddressedItems, item)
		if len(sug.UnaddressedItems) == SuggestionItemLimit {
			break
		}
	}
	for i := cur + 1; i < len(s.Sections); i++ {
		if !terminal(s.Sections[i].Status) {
			sug.RemainingSections++
		}
	}
	if cur < len(s.Sections)-1 {
		sug.NextSection = &SectionRef{ID: s.Sections[cur+1].ID, Name: s.Sections[cur+1].Name}
	}
	return sug, nil
}

// Valid reports whether at most one section is in_progress and every
// in_progress section matches Current. Restore uses it as a sanity check.
func (s State) Valid() bool {
	if s.indexOf(s.Current) < 0 {
		return false
	}
	for _, sec := range s.Sections {
		if sec.Status == StatusInProgress && sec.ID != s.Current {
			return false
		}
	}
	return true
}

// roundPercent is half-up rounding of completed/total*100; total 0 yields 0.
func roundPercent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(completed)/float64(total)*100 + 0.5))
}
