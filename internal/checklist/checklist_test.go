package checklist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sitecheck/internal/config"
)

func TestProviderGet(t *testing.T) {
	p := NewProvider(config.Default("proj-1"))

	cl, err := p.Get("residential-standard")
	require.NoError(t, err)
	require.Equal(t, "residential-standard", cl.ID)
	require.Equal(t, []string{"exterior", "interior", "roof", "subfloor", "services"}, cl.SectionIDs())

	_, err = p.Get("commercial")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProviderSection(t *testing.T) {
	p := NewProvider(config.Default("proj-1"))

	s, ok := p.Section("residential-standard", "roof")
	require.True(t, ok)
	require.Equal(t, "Roof", s.Name)
	require.Contains(t, s.Items, "ridge")

	_, ok = p.Section("residential-standard", "basement")
	require.False(t, ok)

	_, ok = p.Section("commercial", "roof")
	require.False(t, ok)
}

func TestNilProvider(t *testing.T) {
	var p ConfigProvider
	_, err := p.Get("residential-standard")
	require.ErrorIs(t, err, ErrNotFound)
}
