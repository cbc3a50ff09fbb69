package domain

type Project struct {
	ID          string  `json:"id"`
	ClientID    string  `json:"client_id,omitempty"`
	PropertyID  string  `json:"property_id,omitempty"`
	Name        string  `json:"name"`
	Status      string  `json:"status" enum:"active,completed,archived"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
}

type Property struct {
	ID           string `json:"id"`
	AddressLine  string `json:"address_line"`
	Suburb       string `json:"suburb,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type Client struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Inspection is a single walk-through of a checklist. CurrentSection is nil
// once no checklist section is active (after completion, or when the
// checklist definition changed underneath a stored pointer).
type Inspection struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"project_id"`
	ChecklistID    string  `json:"checklist_id"`
	Mode           string  `json:"mode" enum:"simple,clause_review"`
	CurrentSection *string `json:"current_section,omitempty"`
	Status         string  `json:"status" enum:"started,in_progress,completed"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
	UpdatedAt      string  `json:"updated_at" format:"date-time"`
	CompletedAt    *string `json:"completed_at,omitempty" format:"date-time"`
}

// InspectionSection is the persisted per-section status for one inspection.
type InspectionSection struct {
	InspectionID string `json:"inspection_id"`
	SectionID    string `json:"section_id"`
	Status       string `json:"status" enum:"pending,in_progress,completed,skipped"`
	UpdatedAt    string `json:"updated_at" format:"date-time"`
}

// Finding is a free-text observation tied to a section.
type Finding struct {
	ID           string `json:"id"`
	InspectionID string `json:"inspection_id"`
	SectionID    string `json:"section_id"`
	Note         string `json:"note"`
	ItemLabel    string `json:"item_label,omitempty"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type ChecklistItem struct {
	ID           string   `json:"id"`
	InspectionID string   `json:"inspection_id"`
	Category     string   `json:"category"`
	Label        string   `json:"label"`
	Decision     string   `json:"decision" enum:"pass,fail,na"`
	Notes        string   `json:"notes,omitempty"`
	SortOrder    int      `json:"sort_order"`
	PhotoIDs     []string `json:"photo_ids,omitempty"`
	CreatedAt    string   `json:"created_at" format:"date-time"`
	UpdatedAt    string   `json:"updated_at" format:"date-time"`
}

type ClauseReview struct {
	ID             string   `json:"id"`
	InspectionID   string   `json:"inspection_id"`
	ClauseCode     string   `json:"clause_code"`
	ClauseCategory string   `json:"clause_category"`
	Applicability  string   `json:"applicability" enum:"applicable,na"`
	NAReason       string   `json:"na_reason,omitempty"`
	Observations   string   `json:"observations,omitempty"`
	RemedialWorks  string   `json:"remedial_works,omitempty"`
	PhotoIDs       []string `json:"photo_ids,omitempty"`
	DocumentIDs    []string `json:"document_ids,omitempty"`
	CreatedAt      string   `json:"created_at" format:"date-time"`
	UpdatedAt      string   `json:"updated_at" format:"date-time"`
}

type Document struct {
	ID                string   `json:"id"`
	ProjectID         string   `json:"project_id"`
	Type              string   `json:"type"`
	Description       string   `json:"description,omitempty"`
	Status            string   `json:"status" enum:"required,received,outstanding,na"`
	Verified          bool     `json:"verified"`
	LinkedClauseCodes []string `json:"linked_clause_codes,omitempty"`
	CreatedAt         string   `json:"created_at" format:"date-time"`
	UpdatedAt         string   `json:"updated_at" format:"date-time"`
}

// Photo is a stored-object reference; upload and processing happen elsewhere.
type Photo struct {
	ID           string `json:"id"`
	InspectionID string `json:"inspection_id"`
	ItemID       string `json:"item_id,omitempty"`
	Caption      string `json:"caption,omitempty"`
	ObjectKey    string `json:"object_key"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
