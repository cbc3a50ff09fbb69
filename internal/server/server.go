package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sitecheck/internal/checklist"
	"sitecheck/internal/domain"
	"sitecheck/internal/engine"
	"sitecheck/internal/navigator"
	"sitecheck/internal/progress"
	"sitecheck/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_section"`
	Message string         `json:"message" example:"section basement not in checklist"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Sitecheck API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Sitecheck API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerProjects(group, cfg.Engine)
	registerClients(group, cfg.Engine)
	registerProperties(group, cfg.Engine)
	registerInspections(group, cfg.Engine)
	registerFindings(group, cfg.Engine)
	registerChecklistItems(group, cfg.Engine)
	registerClauseReviews(group, cfg.Engine)
	registerDocuments(group, cfg.Engine)
	registerPhotos(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerAPIKeys(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	startWebhookDispatcher(cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) || errors.Is(err, checklist.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	var ise navigator.InvalidSectionError
	if errors.As(err, &ise) {
		return newAPIError(http.StatusBadRequest, "invalid_section", err.Error(), map[string]any{"section": ise.SectionID})
	}
	var be navigator.BoundaryError
	if errors.As(err, &be) {
		return newAPIError(http.StatusConflict, "boundary", err.Error(), map[string]any{"action": be.Action})
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	if b, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return b
	}
	return nil
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Sitecheck API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

var mutationErrors = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.ID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "id is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		desc := ""
		if input.Body.Description != nil {
			desc = *input.Body.Description
		}
		p, err := e.InitProject(ctx, input.Body.ID, input.Body.Name, desc, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Project `json:"body"`
	}, error) {
		items, err := e.Repo.ListProjects(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Project `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		p, err := e.Repo.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}",
		Summary:     "Update project",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := e.Repo.UpdateProject(ctx, input.ProjectID, input.Body.Status, input.Body.Description); err != nil {
			return nil, handleError(err)
		}
		p, err := e.Repo.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{project_id}",
		Summary:     "Delete project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct{}, error) {
		if err := e.Repo.DeleteProject(ctx, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-can-finalize",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/can-finalize",
		Summary:     "Project finalization gate",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body progress.Gate `json:"body"`
	}, error) {
		gate, err := e.CanFinalizeProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body progress.Gate `json:"body"`
		}{Body: gate}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "finalize-project",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/finalize",
		Summary:     "Finalize project",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string          `path:"project_id"`
		Body      FinalizeRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.FinalizeProject(ctx, input.ProjectID, actorID, input.Body.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-document-summary",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/documents/summary",
		Summary:     "Document completion summary",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body progress.DocumentSummary `json:"body"`
	}, error) {
		s, err := e.DocumentSummary(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body progress.DocumentSummary `json:"body"`
		}{Body: s}, nil
	})
}

func registerClients(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-client",
		Method:        http.MethodPost,
		Path:          "/clients",
		Summary:       "Create client",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateClientRequest `json:"body"`
	}) (*struct {
		Body domain.Client `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		c := domain.Client{
			ID:        uuid.New().String(),
			Name:      input.Body.Name,
			Email:     input.Body.Email,
			Phone:     input.Body.Phone,
			CreatedAt: e.Now().UTC().Format(time.RFC3339),
		}
		if input.Body.ID != nil && *input.Body.ID != "" {
			c.ID = *input.Body.ID
		}
		if err := e.Repo.InsertClient(ctx, c); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Client `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-clients",
		Method:      http.MethodGet,
		Path:        "/clients",
		Summary:     "List clients",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Client `json:"body"`
	}, error) {
		items, err := e.Repo.ListClients(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Client `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-client",
		Method:      http.MethodGet,
		Path:        "/clients/{client_id}",
		Summary:     "Get client",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ClientID string `path:"client_id"`
	}) (*struct {
		Body domain.Client `json:"body"`
	}, error) {
		c, err := e.Repo.GetClient(ctx, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Client `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-client",
		Method:      http.MethodDelete,
		Path:        "/clients/{client_id}",
		Summary:     "Delete client",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ClientID string `path:"client_id"`
	}) (*struct{}, error) {
		if err := e.Repo.DeleteClient(ctx, input.ClientID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerProperties(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-property",
		Method:        http.MethodPost,
		Path:          "/properties",
		Summary:       "Create property",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreatePropertyRequest `json:"body"`
	}) (*struct {
		Body domain.Property `json:"body"`
	}, error) {
		if input.Body.AddressLine == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "address_line is required", nil)
		}
		p := domain.Property{
			ID:           uuid.New().String(),
			AddressLine:  input.Body.AddressLine,
			Suburb:       input.Body.Suburb,
			City:         input.Body.City,
			PostalCode:   input.Body.PostalCode,
			PropertyType: input.Body.PropertyType,
			CreatedAt:    e.Now().UTC().Format(time.RFC3339),
		}
		if input.Body.ID != nil && *input.Body.ID != "" {
			p.ID = *input.Body.ID
		}
		if err := e.Repo.InsertProperty(ctx, p); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Property `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-properties",
		Method:      http.MethodGet,
		Path:        "/properties",
		Summary:     "List properties",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Property `json:"body"`
	}, error) {
		items, err := e.Repo.ListProperties(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Property `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-property",
		Method:      http.MethodGet,
		Path:        "/properties/{property_id}",
		Summary:     "Get property",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PropertyID string `path:"property_id"`
	}) (*struct {
		Body domain.Property `json:"body"`
	}, error) {
		p, err := e.Repo.GetProperty(ctx, input.PropertyID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Property `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-property",
		Method:      http.MethodDelete,
		Path:        "/properties/{property_id}",
		Summary:     "Delete property",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PropertyID string `path:"property_id"`
	}) (*struct{}, error) {
		if err := e.Repo.DeleteProperty(ctx, input.PropertyID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerInspections(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "start-inspection",
		Method:        http.MethodPost,
		Path:          "/inspections",
		Summary:       "Start inspection",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body StartInspectionRequest `json:"body"`
	}) (*struct {
		Body domain.Inspection `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.StartInspectionOptions{
			ProjectID:   input.Body.ProjectID,
			ChecklistID: input.Body.ChecklistID,
			Mode:        input.Body.Mode,
			ActorID:     actorID,
		}
		if opts.ProjectID == "" && e.Config != nil {
			opts.ProjectID = e.Config.Project.ID
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		in, err := e.StartInspection(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Inspection `json:"body"`
		}{Body: in}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-inspections",
		Method:      http.MethodGet,
		Path:        "/inspections",
		Summary:     "List inspections",
	}, func(ctx context.Context, input *struct {
		ProjectID string `query:"project_id"`
	}) (*struct {
		Body []domain.Inspection `json:"body"`
	}, error) {
		items, err := e.Repo.ListInspections(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Inspection `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-inspection",
		Method:      http.MethodGet,
		Path:        "/inspections/{inspection_id}",
		Summary:     "Get inspection",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
	}) (*struct {
		Body domain.Inspection `json:"body"`
	}, error) {
		in, err := e.Repo.GetInspection(ctx, input.InspectionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Inspection `json:"body"`
		}{Body: in}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-inspection",
		Method:      http.MethodDelete,
		Path:        "/inspections/{inspection_id}",
		Summary:     "Delete inspection",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
	}) (*struct{}, error) {
		if err := e.Repo.DeleteInspection(ctx, input.InspectionID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "navigate-inspection",
		Method:      http.MethodPost,
		Path:        "/inspections/{inspection_id}/navigate",
		Summary:     "Navigate between sections",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		InspectionID string          `path:"inspection_id"`
		Body         NavigateRequest `json:"body"`
	}) (*struct {
		Body engine.NavigationResult `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.Navigate(ctx, input.InspectionID, navigator.Action(input.Body.Action), input.Body.Section, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.NavigationResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "inspection-status",
		Method:      http.MethodGet,
		Path:        "/inspections/{inspection_id}/status",
		Summary:     "Inspection status and section progress",
		Errors:      []int{http.StatusNotFound, http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
	}) (*struct {
		Body engine.InspectionStatus `json:"body"`
	}, error) {
		st, err := e.Status(ctx, input.InspectionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.InspectionStatus `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "inspection-suggest",
		Method:      http.MethodGet,
		Path:        "/inspections/{inspection_id}/suggest",
		Summary:     "What to look at next",
		Errors:      []int{http.StatusNotFound, http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
	}) (*struct {
		Body navigator.Suggestion `json:"body"`
	}, error) {
		sug, err := e.Suggest(ctx, input.InspectionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body navigator.Suggestion `json:"body"`
		}{Body: sug}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "inspection-summary",
		Method:      http.MethodGet,
		Path:        "/inspections/{inspection_id}/summary",
		Summary:     "Completion summary for the inspection's item kind",
		Errors:      []int{http.StatusNotFound, http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
	}) (*struct {
		Body engine.InspectionSummary `json:"body"`
	}, error) {
		s, err := e.Summary(ctx, input.InspectionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.InspectionSummary `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "inspection-can-finalize",
		Method:      http.MethodGet,
		Path:        "/inspections/{inspection_id}/can-finalize",
		Summary:     "Inspection finalization gate",
		Errors:      []int{http.StatusNotFound, http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
	}) (*struct {
		Body progress.Gate `json:"body"`
	}, error) {
		gate, err := e.CanFinalize(ctx, input.InspectionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body progress.Gate `json:"body"`
		}{Body: gate}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "finalize-inspection",
		Method:      http.MethodPost,
		Path:        "/inspections/{inspection_id}/finalize",
		Summary:     "Finalize inspection",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		InspectionID string          `path:"inspection_id"`
		Body         FinalizeRequest `json:"body"`
	}) (*struct {
		Body domain.Inspection `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		in, err := e.FinalizeInspection(ctx, input.InspectionID, actorID, input.Body.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Inspection `json:"body"`
		}{Body: in}, nil
	})
}

func registerFindings(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "record-finding",
		Method:        http.MethodPost,
		Path:          "/inspections/{inspection_id}/findings",
		Summary:       "Record finding",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		InspectionID string               `path:"inspection_id"`
		Body         RecordFindingRequest `json:"body"`
	}) (*struct {
		Body domain.Finding `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		f, err := e.RecordFinding(ctx, engine.FindingOptions{
			InspectionID: input.InspectionID,
			SectionID:    input.Body.Section,
			Note:         input.Body.Note,
			ItemLabel:    input.Body.ItemLabel,
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Finding `json:"body"`
		}{Body: f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-findings",
		Method:      http.MethodGet,
		Path:        "/inspections/{inspection_id}/findings",
		Summary:     "List findings",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
		Section      string `query:"section"`
	}) (*struct {
		Body []domain.Finding `json:"body"`
	}, error) {
		items, err := e.Repo.ListFindings(ctx, input.InspectionID, input.Section)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Finding `json:"body"`
		}{Body: items}, nil
	})
}

func registerChecklistItems(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "record-checklist-item",
		Method:        http.MethodPost,
		Path:          "/inspections/{inspection_id}/items",
		Summary:       "Record checklist item",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		InspectionID string                     `path:"inspection_id"`
		Body         RecordChecklistItemRequest `json:"body"`
	}) (*struct {
		Body domain.ChecklistItem `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.ChecklistItemOptions{
			InspectionID: input.InspectionID,
			Category:     input.Body.Category,
			Label:        input.Body.Label,
			Decision:     input.Body.Decision,
			Notes:        input.Body.Notes,
			SortOrder:    input.Body.SortOrder,
			ActorID:      actorID,
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		it, err := e.RecordChecklistItem(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ChecklistItem `json:"body"`
		}{Body: it}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-checklist-items",
		Method:      http.MethodGet,
		Path:        "/inspections/{inspection_id}/items",
		Summary:     "List checklist items",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
	}) (*struct {
		Body []domain.ChecklistItem `json:"body"`
	}, error) {
		items, err := e.Repo.ListChecklistItems(ctx, input.InspectionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.ChecklistItem `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-checklist-item",
		Method:      http.MethodPatch,
		Path:        "/items/{item_id}",
		Summary:     "Update checklist item",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ItemID string                     `path:"item_id"`
		Body   UpdateChecklistItemRequest `json:"body"`
	}) (*struct {
		Body domain.ChecklistItem `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		it, err := e.UpdateChecklistItem(ctx, input.ItemID, input.Body.Decision, input.Body.Notes, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ChecklistItem `json:"body"`
		}{Body: it}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-checklist-item",
		Method:      http.MethodDelete,
		Path:        "/items/{item_id}",
		Summary:     "Delete checklist item",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ItemID string `path:"item_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteChecklistItem(ctx, input.ItemID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerClauseReviews(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "record-clause-review",
		Method:        http.MethodPost,
		Path:          "/inspections/{inspection_id}/clauses",
		Summary:       "Record clause review",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		InspectionID string                    `path:"inspection_id"`
		Body         RecordClauseReviewRequest `json:"body"`
	}) (*struct {
		Body domain.ClauseReview `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.ClauseReviewOptions{
			InspectionID:  input.InspectionID,
			ClauseCode:    input.Body.ClauseCode,
			Applicability: input.Body.Applicability,
			NAReason:      input.Body.NAReason,
			Observations:  input.Body.Observations,
			RemedialWorks: input.Body.RemedialWorks,
			DocumentIDs:   input.Body.DocumentIDs,
			ActorID:       actorID,
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		cr, err := e.RecordClauseReview(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ClauseReview `json:"body"`
		}{Body: cr}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-clause-reviews",
		Method:      http.MethodGet,
		Path:        "/inspections/{inspection_id}/clauses",
		Summary:     "List clause reviews",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
	}) (*struct {
		Body []domain.ClauseReview `json:"body"`
	}, error) {
		items, err := e.Repo.ListClauseReviews(ctx, input.InspectionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.ClauseReview `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-clause-review",
		Method:      http.MethodPatch,
		Path:        "/clauses/{clause_review_id}",
		Summary:     "Update clause review",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ClauseReviewID string                    `path:"clause_review_id"`
		Body           UpdateClauseReviewRequest `json:"body"`
	}) (*struct {
		Body domain.ClauseReview `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		cr, err := e.UpdateClauseReview(ctx, input.ClauseReviewID, engine.ClauseReviewUpdate{
			Applicability: input.Body.Applicability,
			NAReason:      input.Body.NAReason,
			Observations:  input.Body.Observations,
			RemedialWorks: input.Body.RemedialWorks,
			DocumentIDs:   input.Body.DocumentIDs,
		}, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ClauseReview `json:"body"`
		}{Body: cr}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-clause-review",
		Method:      http.MethodDelete,
		Path:        "/clauses/{clause_review_id}",
		Summary:     "Delete clause review",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ClauseReviewID string `path:"clause_review_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteClauseReview(ctx, input.ClauseReviewID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerDocuments(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-document",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/documents",
		Summary:       "Track document",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string             `path:"project_id"`
		Body      AddDocumentRequest `json:"body"`
	}) (*struct {
		Body domain.Document `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.DocumentOptions{
			ProjectID:         input.ProjectID,
			Type:              input.Body.Type,
			Description:       input.Body.Description,
			Status:            input.Body.Status,
			LinkedClauseCodes: input.Body.LinkedClauseCodes,
			ActorID:           actorID,
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		d, err := e.AddDocument(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Document `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/documents",
		Summary:     "List documents",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body []domain.Document `json:"body"`
	}, error) {
		items, err := e.Repo.ListDocuments(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Document `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-document",
		Method:      http.MethodPatch,
		Path:        "/documents/{document_id}",
		Summary:     "Update document",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		DocumentID string                `path:"document_id"`
		Body       UpdateDocumentRequest `json:"body"`
	}) (*struct {
		Body domain.Document `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		d, err := e.UpdateDocument(ctx, input.DocumentID, engine.DocumentUpdate{
			Status:            input.Body.Status,
			Description:       input.Body.Description,
			Verified:          input.Body.Verified,
			LinkedClauseCodes: input.Body.LinkedClauseCodes,
		}, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Document `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-document",
		Method:      http.MethodDelete,
		Path:        "/documents/{document_id}",
		Summary:     "Delete document",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		DocumentID string `path:"document_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteDocument(ctx, input.DocumentID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerPhotos(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "attach-photo",
		Method:        http.MethodPost,
		Path:          "/inspections/{inspection_id}/photos",
		Summary:       "Attach photo reference",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		InspectionID string             `path:"inspection_id"`
		Body         AttachPhotoRequest `json:"body"`
	}) (*struct {
		Body domain.Photo `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.AttachPhoto(ctx, engine.PhotoOptions{
			InspectionID: input.InspectionID,
			ItemID:       input.Body.ItemID,
			Caption:      input.Body.Caption,
			ObjectKey:    input.Body.ObjectKey,
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Photo `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-photos",
		Method:      http.MethodGet,
		Path:        "/inspections/{inspection_id}/photos",
		Summary:     "List photos",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		InspectionID string `path:"inspection_id"`
	}) (*struct {
		Body []domain.Photo `json:"body"`
	}, error) {
		items, err := e.Repo.ListPhotos(ctx, input.InspectionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Photo `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-photo",
		Method:      http.MethodDelete,
		Path:        "/photos/{photo_id}",
		Summary:     "Delete photo reference",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PhotoID string `path:"photo_id"`
	}) (*struct{}, error) {
		if err := e.Repo.DeletePhoto(ctx, input.PhotoID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Latest events",
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit"`
		ProjectID  string `query:"project_id"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = 50
		}
		items, err := e.Repo.LatestEvents(ctx, limit, input.ProjectID, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}

func registerAPIKeys(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/apikeys",
		Summary:       "Create API key",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body APIKeyCreatedResponse `json:"body"`
	}, error) {
		if input.Body.ActorID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		rawKey := uuid.NewString() + uuid.NewString()
		key := domain.APIKey{
			ID:        uuid.New().String(),
			ActorID:   input.Body.ActorID,
			Name:      input.Body.Name,
			KeyHash:   repo.HashAPIKey(rawKey),
			CreatedAt: e.Now().UTC().Format(time.RFC3339),
		}
		if err := e.Repo.InsertAPIKey(ctx, key); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body APIKeyCreatedResponse `json:"body"`
		}{Body: APIKeyCreatedResponse{
			ID:        key.ID,
			ActorID:   key.ActorID,
			Name:      key.Name,
			Key:       rawKey,
			CreatedAt: key.CreatedAt,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/apikeys",
		Summary:     "List API keys",
	}, func(ctx context.Context, input *struct {
		ActorID string `query:"actor_id"`
	}) (*struct {
		Body []domain.APIKey `json:"body"`
	}, error) {
		items, err := e.Repo.ListAPIKeys(ctx, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		for i := range items {
			items[i].KeyHash = ""
		}
		return &struct {
			Body []domain.APIKey `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-api-key",
		Method:      http.MethodDelete,
		Path:        "/apikeys/{key_id}",
		Summary:     "Delete API key",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		KeyID string `path:"key_id"`
	}) (*struct{}, error) {
		if err := e.Repo.DeleteAPIKey(ctx, input.KeyID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
