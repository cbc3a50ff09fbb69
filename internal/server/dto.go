package server

// Request payloads

type CreateProjectRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type UpdateProjectRequest struct {
	Status      string  `json:"status,omitempty" enum:"active,completed,archived"`
	Description *string `json:"description,omitempty"`
}

type CreateClientRequest struct {
	ID    *string `json:"id,omitempty"`
	Name  string  `json:"name"`
	Email string  `json:"email,omitempty"`
	Phone string  `json:"phone,omitempty"`
}

type CreatePropertyRequest struct {
	ID           *string `json:"id,omitempty"`
	AddressLine  string  `json:"address_line"`
	Suburb       string  `json:"suburb,omitempty"`
	City         string  `json:"city,omitempty"`
	PostalCode   string  `json:"postal_code,omitempty"`
	PropertyType string  `json:"property_type,omitempty"`
}

type StartInspectionRequest struct {
	ID          *string `json:"id,omitempty"`
	ProjectID   string  `json:"project_id,omitempty"`
	ChecklistID string  `json:"checklist_id"`
	Mode        string  `json:"mode,omitempty" enum:"simple,clause_review"`
}

type NavigateRequest struct {
	Action  string `json:"action" enum:"next,back,skip,jump"`
	Section string `json:"section,omitempty"`
}

type FinalizeRequest struct {
	Force bool `json:"force,omitempty"`
}

type RecordFindingRequest struct {
	Section   string `json:"section,omitempty"`
	Note      string `json:"note"`
	ItemLabel string `json:"item_label,omitempty"`
}

type RecordChecklistItemRequest struct {
	ID        *string `json:"id,omitempty"`
	Category  string  `json:"category"`
	Label     string  `json:"label"`
	Decision  string  `json:"decision" enum:"pass,fail,na"`
	Notes     string  `json:"notes,omitempty"`
	SortOrder int     `json:"sort_order,omitempty"`
}

type UpdateChecklistItemRequest struct {
	Decision *string `json:"decision,omitempty" enum:"pass,fail,na"`
	Notes    *string `json:"notes,omitempty"`
}

type RecordClauseReviewRequest struct {
	ID            *string  `json:"id,omitempty"`
	ClauseCode    string   `json:"clause_code"`
	Applicability string   `json:"applicability,omitempty" enum:"applicable,na"`
	NAReason      string   `json:"na_reason,omitempty"`
	Observations  string   `json:"observations,omitempty"`
	RemedialWorks string   `json:"remedial_works,omitempty"`
	DocumentIDs   []string `json:"document_ids,omitempty"`
}

type UpdateClauseReviewRequest struct {
	Applicability *string  `json:"applicability,omitempty" enum:"applicable,na"`
	NAReason      *string  `json:"na_reason,omitempty"`
	Observations  *string  `json:"observations,omitempty"`
	RemedialWorks *string  `json:"remedial_works,omitempty"`
	DocumentIDs   []string `json:"document_ids,omitempty"`
}

type AddDocumentRequest struct {
	ID                *string  `json:"id,omitempty"`
	Type              string   `json:"type"`
	Description       string   `json:"description,omitempty"`
	Status            string   `json:"status,omitempty" enum:"required,received,outstanding,na"`
	LinkedClauseCodes []string `json:"linked_clause_codes,omitempty"`
}

type UpdateDocumentRequest struct {
	Status            *string  `json:"status,omitempty" enum:"required,received,outstanding,na"`
	Description       *string  `json:"description,omitempty"`
	Verified          *bool    `json:"verified,omitempty"`
	LinkedClauseCodes []string `json:"linked_clause_codes,omitempty"`
}

type AttachPhotoRequest struct {
	ItemID    string `json:"item_id,omitempty"`
	Caption   string `json:"caption,omitempty"`
	ObjectKey string `json:"object_key"`
}

type CreateAPIKeyRequest struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name,omitempty"`
}

// Response payloads

type APIKeyCreatedResponse struct {
	ID      string `json:"id"`
	ActorID string `json:"actor_id"`
	Name    string `json:"name,omitempty"`
	// Key is returned exactly once, at creation.
	Key       string `json:"key"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
