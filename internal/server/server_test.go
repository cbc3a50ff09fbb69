package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"sitecheck/internal/config"
	"sitecheck/internal/db"
	"sitecheck/internal/domain"
	"sitecheck/internal/engine"
	"sitecheck/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("sitecheck")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	if _, err := e.InitProject(context.Background(), cfg.Project.ID, "", "", "tester"); err != nil {
		t.Fatalf("init project: %v", err)
	}
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{AllowLegacyActorHeader: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "tester")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestInspectionFlowHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/inspections", map[string]any{
		"checklist_id": "residential-standard",
		"mode":         "simple",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("start inspection: %d %s", res.StatusCode, string(data))
	}
	var in domain.Inspection
	if err := json.Unmarshal(data, &in); err != nil {
		t.Fatalf("unmarshal inspection: %v", err)
	}
	if in.CurrentSection == nil || *in.CurrentSection != "exterior" {
		t.Fatalf("current section = %v", in.CurrentSection)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/inspections/"+in.ID+"/navigate", map[string]any{
		"action": "next",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("navigate: %d %s", res.StatusCode, string(data))
	}
	var nav struct {
		Inspection domain.Inspection `json:"inspection"`
		Progress   struct {
			Completed  int `json:"completed"`
			Total      int `json:"total"`
			Percentage int `json:"percentage"`
		} `json:"progress"`
	}
	if err := json.Unmarshal(data, &nav); err != nil {
		t.Fatalf("unmarshal navigation: %v", err)
	}
	if nav.Progress.Completed != 1 || nav.Progress.Total != 5 || nav.Progress.Percentage != 20 {
		t.Fatalf("progress = %+v", nav.Progress)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/inspections/"+in.ID+"/suggest", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("suggest: %d %s", res.StatusCode, string(data))
	}
	var sug struct {
		SectionID string `json:"section_id"`
		Prompt    string `json:"prompt"`
	}
	_ = json.Unmarshal(data, &sug)
	if sug.SectionID != "interior" || sug.Prompt == "" {
		t.Fatalf("suggestion = %s", string(data))
	}
}

func TestNavigateErrors(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/inspections", map[string]any{
		"checklist_id": "residential-standard",
	})
	var in domain.Inspection
	_ = json.Unmarshal(data, &in)

	// jump to a section the checklist does not define
	res, body := doJSON(t, client, http.MethodPost, srv.URL+"/v0/inspections/"+in.ID+"/navigate", map[string]any{
		"action":  "jump",
		"section": "basement",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", res.StatusCode, string(body))
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if env.Error.Code != "invalid_section" {
		t.Fatalf("code = %s, want invalid_section", env.Error.Code)
	}

	// back at the first section crosses the list boundary
	res, body = doJSON(t, client, http.MethodPost, srv.URL+"/v0/inspections/"+in.ID+"/navigate", map[string]any{
		"action": "back",
	})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", res.StatusCode, string(body))
	}
	_ = json.Unmarshal(body, &env)
	if env.Error.Code != "boundary" {
		t.Fatalf("code = %s, want boundary", env.Error.Code)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/inspections/nope", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", res.StatusCode, string(body))
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Code != "not_found" {
		t.Fatalf("code = %s, want not_found", env.Error.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v0/projects", nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}

	// health stays open
	res2, err := srv.Client().Get(srv.URL + "/v0/health")
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", res2.StatusCode)
	}
}
