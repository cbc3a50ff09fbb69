package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models sitecheck.yml.
type Config struct {
	Project struct {
		ID   string `yaml:"id"`
		Kind string `yaml:"kind"`
	} `yaml:"project"`
	Checklists map[string]Checklist `yaml:"checklists"`
	Clauses    struct {
		Catalog map[string]ClauseDef `yaml:"catalog"`
	} `yaml:"clauses"`
	Documents struct {
		Catalog map[string]struct {
			Description string `yaml:"description"`
		} `yaml:"catalog"`
	} `yaml:"documents"`
	Finalize struct {
		SectionGateRatio          float64 `yaml:"section_gate_ratio"`
		ClauseCompletionThreshold int     `yaml:"clause_completion_threshold"`
	} `yaml:"finalize"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// Checklist is a named ordered list of sections the inspector traverses.
type Checklist struct {
	Name     string       `yaml:"name"`
	Version  string       `yaml:"version"`
	Sections []SectionDef `yaml:"sections"`
}

type SectionDef struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Prompt string   `yaml:"prompt"`
	Items  []string `yaml:"items"`
}

// ClauseDef describes a building-code clause reviewable in clause_review mode.
type ClauseDef struct {
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Enabled        *bool    `yaml:"enabled"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with sitecheck project config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("config.project.id is required")
	}
	if c.Project.Kind != "inspection-project" {
		return fmt.Errorf("config.project.kind must be 'inspection-project'")
	}
	if len(c.Checklists) == 0 {
		return fmt.Errorf("config.checklists is required")
	}
	for id, cl := range c.Checklists {
		if id == "" {
			return fmt.Errorf("config.checklists contains empty checklist id")
		}
		if len(cl.Sections) == 0 {
			return fmt.Errorf("checklist %s has no sections", id)
		}
		seen := map[string]bool{}
		for _, s := range cl.Sections {
			if s.ID == "" {
				return fmt.Errorf("checklist %s has a section with empty id", id)
			}
			if seen[s.ID] {
				return fmt.Errorf("checklist %s has duplicate section %s", id, s.ID)
			}
			seen[s.ID] = true
		}
	}
	for code, def := range c.Clauses.Catalog {
		if code == "" {
			return fmt.Errorf("config.clauses.catalog contains empty clause code")
		}
		if def.Category == "" {
			return fmt.Errorf("clause %s has empty category", code)
		}
	}
	for docType := range c.Documents.Catalog {
		if docType == "" {
			return fmt.Errorf("config.documents.catalog contains empty document type")
		}
	}
	if c.Finalize.SectionGateRatio < 0 || c.Finalize.SectionGateRatio > 1 {
		return fmt.Errorf("config.finalize.section_gate_ratio must be within [0,1]")
	}
	if c.Finalize.ClauseCompletionThreshold < 0 || c.Finalize.ClauseCompletionThreshold > 100 {
		return fmt.Errorf("config.finalize.clause_completion_threshold must be within [0,100]")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "sitecheck.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(projectID string) string {
	return fmt.Sprintf(defaultTemplate, projectID)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a project.
func Default(projectID string) *Config {
	var cfg Config
	cfg.Project.ID = projectID
	cfg.Project.Kind = "inspection-project"
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, projectID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `project:
  id: %s
  kind: inspection-project

checklists:
  residential-standard:
    name: Residential standard inspection
    version: "1"
    sections:
      - id: exterior
        name: Exterior
        prompt: "Walk the outside of the building. Note cladding, joinery, drainage and ground levels."
        items: [cladding, flashings, joinery, ground-clearance, gutters, downpipes]
      - id: interior
        name: Interior
        prompt: "Inspect each habitable room. Note linings, moisture signs and ventilation."
        items: [wall-linings, ceilings, floors, windows, ventilation, moisture]
      - id: roof
        name: Roof
        prompt: "Inspect roof cladding and roof space where accessible."
        items: [roof-cladding, penetrations, ridge, underlay, framing]
      - id: subfloor
        name: Subfloor
        prompt: "Inspect subfloor space where accessible. Note piles, bearers and moisture."
        items: [piles, bearers, joists, ground-moisture, ventilation]
      - id: services
        name: Services
        prompt: "Inspect visible plumbing, electrical and heating services."
        items: [hot-water, switchboard, wiring, plumbing, heating]

clauses:
  catalog:
    B1:
      category: structure
      description: "Structure"
    B2:
      category: durability
      description: "Durability"
    E1:
      category: moisture
      description: "Surface water"
    E2:
      category: moisture
      description: "External moisture"
    E3:
      category: moisture
      description: "Internal moisture"
    G12:
      category: services
      description: "Water supplies"
    G13:
      category: services
      description: "Foul water"

documents:
  catalog:
    consent:
      description: "Building consent documentation"
    code-compliance:
      description: "Code compliance certificate"
    producer-statement:
      description: "Producer statement from a chartered engineer"
    title:
      description: "Certificate of title"
    lim:
      description: "Land information memorandum"

finalize:
  section_gate_ratio: 0.5
  clause_completion_threshold: 80
`
