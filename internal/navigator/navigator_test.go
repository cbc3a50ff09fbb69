package navigator_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"sitecheck/internal/checklist"
	"sitecheck/internal/navigator"
)

func threeSections() checklist.Checklist {
	return checklist.Checklist{
		ID:   "walkthrough",
		Name: "Walkthrough",
		Sections: []checklist.Section{
			{ID: "exterior", Name: "Exterior", Prompt: "Walk the outside.", Items: []string{"cladding", "gutters"}},
			{ID: "interior", Name: "Interior", Prompt: "Inspect each room.", Items: []string{"linings", "moisture"}},
			{ID: "roof", Name: "Roof", Prompt: "Inspect the roof.", Items: []string{"ridge", "underlay", "penetrations", "flashings", "cladding", "framing"}},
		},
	}
}

func TestNewState(t *testing.T) {
	st := navigator.New(threeSections())
	require.Equal(t, "exterior", st.Current)
	require.Equal(t, navigator.StatusInProgress, st.Sections[0].Status)
	require.Equal(t, navigator.StatusPending, st.Sections[1].Status)
	require.Equal(t, navigator.StatusPending, st.Sections[2].Status)
	require.True(t, st.Valid())
}

func TestNextWalk(t *testing.T) {
	st := navigator.New(threeSections())

	st, res, err := navigator.Apply(st, navigator.ActionNext, "")
	require.NoError(t, err)
	require.Equal(t, "exterior", res.From)
	require.Equal(t, "interior", res.To)
	require.Equal(t, navigator.StatusCompleted, res.Departed)
	require.Equal(t, navigator.Progress{Completed: 1, Total: 3, Percentage: 33}, st.Progress())

	st, _, err = navigator.Apply(st, navigator.ActionNext, "")
	require.NoError(t, err)
	require.Equal(t, "roof", st.Current)
	require.Equal(t, navigator.Progress{Completed: 2, Total: 3, Percentage: 67}, st.Progress())

	_, _, err = navigator.Apply(st, navigator.ActionNext, "")
	var be navigator.BoundaryError
	require.ErrorAs(t, err, &be)
	require.Equal(t, "next", be.Action)
}

func TestBackIsNonDestructive(t *testing.T) {
	st := navigator.New(threeSections())
	st, _, err := navigator.Apply(st, navigator.ActionNext, "")
	require.NoError(t, err)

	before := st.Progress()
	st, res, err := navigator.Apply(st, navigator.ActionBack, "")
	require.NoError(t, err)
	require.Equal(t, "exterior", st.Current)
	require.Equal(t, "interior", res.From)
	require.Equal(t, before, st.Progress())

	sec, ok := st.Section("exterior")
	require.True(t, ok)
	require.Equal(t, navigator.StatusCompleted, sec.Status)

	// forward again restores the pre-back state exactly
	st, _, err = navigator.Apply(st, navigator.ActionNext, "")
	require.NoError(t, err)
	require.Equal(t, "interior", st.Current)
	require.Equal(t, before, st.Progress())
	sec, _ = st.Section("interior")
	require.Equal(t, navigator.StatusInProgress, sec.Status)
}

func TestBackAtFirstSection(t *testing.T) {
	st := navigator.New(threeSections())
	_, _, err := navigator.Apply(st, navigator.ActionBack, "")
	var be navigator.BoundaryError
	require.ErrorAs(t, err, &be)
}

func TestSkipIsTerminal(t *testing.T) {
	st := navigator.New(threeSections())
	st, res, err := navigator.Apply(st, navigator.ActionSkip, "")
	require.NoError(t, err)
	require.Equal(t, navigator.StatusSkipped, res.Departed)
	require.Equal(t, 1, st.Progress().Completed)

	// revisiting a skipped section never promotes it back to in_progress
	st, _, err = navigator.Apply(st, navigator.ActionBack, "")
	require.NoError(t, err)
	sec, _ := st.Section("exterior")
	require.Equal(t, navigator.StatusSkipped, sec.Status)
	require.Equal(t, 1, st.Progress().Completed)
}

func TestJumpSaturates(t *testing.T) {
	st := navigator.New(threeSections())

	st, _, err := navigator.Apply(st, navigator.ActionJump, "roof")
	require.NoError(t, err)
	require.Equal(t, "roof", st.Current)
	require.Equal(t, 1, st.Progress().Completed)

	// repeated jumps between visited sections must not double-count
	st, _, err = navigator.Apply(st, navigator.ActionJump, "exterior")
	require.NoError(t, err)
	st, _, err = navigator.Apply(st, navigator.ActionJump, "roof")
	require.NoError(t, err)
	require.Equal(t, navigator.Progress{Completed: 1, Total: 3, Percentage: 33}, st.Progress())
	sec, _ := st.Section("exterior")
	require.Equal(t, navigator.StatusCompleted, sec.Status)
}

func TestJumpToSelf(t *testing.T) {
	st := navigator.New(threeSections())
	st, res, err := navigator.Apply(st, navigator.ActionJump, "exterior")
	require.NoError(t, err)
	require.Equal(t, "exterior", st.Current)
	require.Equal(t, navigator.StatusInProgress, res.Departed)
	require.Equal(t, 0, st.Progress().Completed)
}

func TestJumpUnknownSection(t *testing.T) {
	st := navigator.New(threeSections())
	_, _, err := navigator.Apply(st, navigator.ActionJump, "basement")
	var ise navigator.InvalidSectionError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, "basement", ise.SectionID)
}

func TestUnknownAction(t *testing.T) {
	st := navigator.New(threeSections())
	_, _, err := navigator.Apply(st, navigator.Action("teleport"), "")
	var be navigator.BoundaryError
	require.ErrorAs(t, err, &be)
}

func TestRestoreDefaultsToPending(t *testing.T) {
	cl := threeSections()
	st := navigator.Restore(cl, "interior", map[string]navigator.Status{
		"exterior": navigator.StatusCompleted,
		"interior": navigator.StatusInProgress,
	})
	require.True(t, st.Valid())
	sec, _ := st.Section("roof")
	require.Equal(t, navigator.StatusPending, sec.Status)
	require.Equal(t, 1, st.Progress().Completed)
}

func TestProgressRounding(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{3, 3, 100},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_of_%d", tc.completed, tc.total), func(t *testing.T) {
			var sections []checklist.Section
			statuses := map[string]navigator.Status{}
			current := ""
			for i := 0; i < tc.total; i++ {
				id := fmt.Sprintf("s%d", i)
				sections = append(sections, checklist.Section{ID: id, Name: id})
				if i < tc.completed {
					statuses[id] = navigator.StatusCompleted
				} else if current == "" {
					current = id
				}
			}
			if current == "" && tc.total > 0 {
				current = sections[tc.total-1].ID
			}
			st := navigator.Restore(checklist.Checklist{ID: "c", Sections: sections}, current, statuses)
			require.Equal(t, tc.want, st.Progress().Percentage)
		})
	}
}

func TestSuggest(t *testing.T) {
	cl := threeSections()
	st := navigator.New(cl)
	st, _, err := navigator.Apply(st, navigator.ActionJump, "roof")
	require.NoError(t, err)

	sug, err := st.Suggest(cl, map[string]bool{"ridge": true})
	require.NoError(t, err)
	require.Equal(t, "roof", sug.SectionID)
	require.Equal(t, "Inspect the roof.", sug.Prompt)
	// five of the six roof items remain and the cap fits exactly
	require.Len(t, sug.UnaddressedItems, navigator.SuggestionItemLimit)
	require.NotContains(t, sug.UnaddressedItems, "ridge")
	require.Nil(t, sug.NextSection)
	require.Equal(t, 0, sug.RemainingSections)
}

func TestSuggestMidList(t *testing.T) {
	cl := threeSections()
	st := navigator.New(cl)
	st, _, err := navigator.Apply(st, navigator.ActionNext, "")
	require.NoError(t, err)

	sug, err := st.Suggest(cl, nil)
	require.NoError(t, err)
	require.Equal(t, "interior", sug.SectionID)
	require.Equal(t, []string{"linings", "moisture"}, sug.UnaddressedItems)
	require.NotNil(t, sug.NextSection)
	require.Equal(t, "roof", sug.NextSection.ID)
	require.Equal(t, 1, sug.RemainingSections)
}
