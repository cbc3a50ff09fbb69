package checklist

import (
	"errors"

	"sitecheck/internal/config"
)

// ErrNotFound indicates the checklist id is not defined in config.
var ErrNotFound = errors.New("checklist not found")

// Section is one checklist subdivision the inspector traverses.
type Section struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Prompt string   `json:"prompt"`
	Items  []string `json:"items"`
}

// Checklist is a named, versioned, ordered list of sections.
type Checklist struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	Sections []Section `json:"sections"`
}

// Provider supplies checklist definitions. Read-only at runtime.
type Provider interface {
	Get(id string) (Checklist, error)
	Section(checklistID, sectionID string) (Section, bool)
}

// ConfigProvider serves checklists straight from project config.
type ConfigProvider struct {
	cfg *config.Config
}

func NewProvider(cfg *config.Config) ConfigProvider {
	return ConfigProvider{cfg: cfg}
}

func (p ConfigProvider) Get(id string) (Checklist, error) {
	if p.cfg == nil {
		return Checklist{}, ErrNotFound
	}
	def, ok := p.cfg.Checklists[id]
	if !ok {
		return Checklist{}, ErrNotFound
	}
	cl := Checklist{ID: id, Name: def.Name, Version: def.Version}
	for _, s := range def.Sections {
		cl.Sections = append(cl.Sections, Section{
			ID:     s.ID,
			Name:   s.Name,
			Prompt: s.Prompt,
			Items:  s.Items,
		})
	}
	return cl, nil
}

func (p ConfigProvider) Section(checklistID, sectionID string) (Section, bool) {
	cl, err := p.Get(checklistID)
	if err != nil {
		return Section{}, false
	}
	for _, s := range cl.Sections {
		if s.ID == sectionID {
			return s, true
		}
	}
	return Section{}, false
}

// SectionIDs returns the section ids of a checklist in definition order.
func (c Checklist) SectionIDs() []string {
	ids := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}
