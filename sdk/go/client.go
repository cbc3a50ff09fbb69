package sitechecksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Sitecheck HTTP API client.
type Client struct {
	BaseURL     string
	ProjectID   string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, projectID string) *Client {
	return &Client{
		BaseURL:   baseURL,
		ProjectID: projectID,
		Timeout:   10 * time.Second,
	}
}

// Inspection represents the API inspection model (partial).
type Inspection struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"project_id"`
	ChecklistID    string  `json:"checklist_id"`
	Mode           string  `json:"mode"`
	CurrentSection *string `json:"current_section,omitempty"`
	Status         string  `json:"status"`
	CompletedAt    *string `json:"completed_at,omitempty"`
}

// Progress is the section-level completion roll-up.
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// SectionStatus is one row of the status listing.
type SectionStatus struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	FindingsCount int    `json:"findings_count"`
}

// InspectionStatus is the full status response.
type InspectionStatus struct {
	Inspection Inspection      `json:"inspection"`
	Sections   []SectionStatus `json:"sections"`
	Progress   Progress        `json:"progress"`
}

// SectionRef is a lightweight pointer to a checklist section.
type SectionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Suggestion lists items still worth checking in the current section.
type Suggestion struct {
	SectionID         string      `json:"section_id"`
	SectionName       string      `json:"section_name"`
	Prompt            string      `json:"prompt"`
	UnaddressedItems  []string    `json:"unaddressed_items"`
	NextSection       *SectionRef `json:"next_section,omitempty"`
	RemainingSections int         `json:"remaining_sections"`
}

// NavigationResult is the navigate response.
type NavigationResult struct {
	Inspection      Inspection `json:"inspection"`
	PreviousSection string     `json:"previous_section"`
	Progress        Progress   `json:"progress"`
}

// Gate is a finalization check result.
type Gate struct {
	CanFinalize bool     `json:"can_finalize"`
	Blockers    []string `json:"blockers"`
}

// Finding represents a recorded observation.
type Finding struct {
	ID           string `json:"id"`
	InspectionID string `json:"inspection_id"`
	SectionID    string `json:"section_id"`
	Note         string `json:"note"`
	ItemLabel    string `json:"item_label,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// Document represents project paperwork tracked toward finalization.
type Document struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Verified    bool   `json:"verified"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// StartInspection starts a walk-through of the given checklist.
func (c *Client) StartInspection(ctx context.Context, checklistID, mode string) (Inspection, error) {
	body := map[string]any{
		"project_id":   c.ProjectID,
		"checklist_id": checklistID,
		"mode":         mode,
	}
	var resp Inspection
	err := c.do(ctx, http.MethodPost, "v0/inspections", body, &resp)
	return resp, err
}

// Navigate applies a navigation action. Section is only read for "jump".
func (c *Client) Navigate(ctx context.Context, inspectionID, action, section string) (NavigationResult, error) {
	body := map[string]any{"action": action}
	if section != "" {
		body["section"] = section
	}
	var resp NavigationResult
	endpoint := c.inspectionPath(inspectionID, "navigate")
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Next advances to the next section.
func (c *Client) Next(ctx context.Context, inspectionID string) (NavigationResult, error) {
	return c.Navigate(ctx, inspectionID, "next", "")
}

// Status returns sections and progress.
func (c *Client) Status(ctx context.Context, inspectionID string) (InspectionStatus, error) {
	var resp InspectionStatus
	err := c.do(ctx, http.MethodGet, c.inspectionPath(inspectionID, "status"), nil, &resp)
	return resp, err
}

// Suggest returns unaddressed items for the current section.
func (c *Client) Suggest(ctx context.Context, inspectionID string) (Suggestion, error) {
	var resp Suggestion
	err := c.do(ctx, http.MethodGet, c.inspectionPath(inspectionID, "suggest"), nil, &resp)
	return resp, err
}

// CanFinalize checks the finalization gate without closing the inspection.
func (c *Client) CanFinalize(ctx context.Context, inspectionID string) (Gate, error) {
	var resp Gate
	err := c.do(ctx, http.MethodGet, c.inspectionPath(inspectionID, "can-finalize"), nil, &resp)
	return resp, err
}

// Finalize closes the inspection when its gate passes, or unconditionally
// with force.
func (c *Client) Finalize(ctx context.Context, inspectionID string, force bool) (Inspection, error) {
	body := map[string]any{"force": force}
	var resp Inspection
	err := c.do(ctx, http.MethodPost, c.inspectionPath(inspectionID, "finalize"), body, &resp)
	return resp, err
}

// RecordFinding records an observation against a section. An empty section
// targets the inspection's current section.
func (c *Client) RecordFinding(ctx context.Context, inspectionID, section, note, itemLabel string) (Finding, error) {
	body := map[string]any{"note": note}
	if section != "" {
		body["section"] = section
	}
	if itemLabel != "" {
		body["item_label"] = itemLabel
	}
	var resp Finding
	err := c.do(ctx, http.MethodPost, c.inspectionPath(inspectionID, "findings"), body, &resp)
	return resp, err
}

// AddDocument registers paperwork against the client's project.
func (c *Client) AddDocument(ctx context.Context, docType, status string) (Document, error) {
	body := map[string]any{"type": docType}
	if status != "" {
		body["status"] = status
	}
	var resp Document
	endpoint := fmt.Sprintf("v0/projects/%s/documents", url.PathEscape(c.ProjectID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) inspectionPath(id, p string) string {
	return fmt.Sprintf("v0/inspections/%s/%s", url.PathEscape(id), strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
