package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"sitecheck/internal/config"
	"sitecheck/internal/domain"
	"sitecheck/internal/engine"
)

const (
	webhookPollInterval   = 2 * time.Second
	webhookDefaultTimeout = 5 * time.Second
	webhookBatchSize      = 100
)

// startWebhookDispatcher spawns one delivery worker per configured hook.
// Each worker tails the project event log from the point the server came up;
// historical events are not replayed.
func startWebhookDispatcher(e engine.Engine) {
	if e.Config == nil {
		return
	}
	projectID := strings.TrimSpace(e.Config.Project.ID)
	if projectID == "" {
		return
	}
	for _, hook := range e.Config.Webhooks {
		if hook.Enabled != nil && !*hook.Enabled {
			continue
		}
		if strings.TrimSpace(hook.URL) == "" {
			continue
		}
		w := newHookWorker(e, projectID, hook)
		go w.run()
	}
}

// hookWorker delivers events for a single hook. The cursor is owned by the
// worker, so deliveries for one hook never block another.
type hookWorker struct {
	engine  engine.Engine
	project string
	hook    config.WebhookConfig
	client  *http.Client
	accept  map[string]struct{}
	cursor  int64
	primed  bool
}

func newHookWorker(e engine.Engine, project string, hook config.WebhookConfig) *hookWorker {
	timeout := webhookDefaultTimeout
	if hook.TimeoutSeconds > 0 {
		timeout = time.Duration(hook.TimeoutSeconds) * time.Second
	}
	var accept map[string]struct{}
	for _, evt := range hook.Events {
		key := strings.TrimSpace(evt)
		if key == "" {
			continue
		}
		if accept == nil {
			accept = make(map[string]struct{})
		}
		accept[key] = struct{}{}
	}
	return &hookWorker{
		engine:  e,
		project: project,
		hook:    hook,
		client:  &http.Client{Timeout: timeout},
		accept:  accept,
	}
}

func (w *hookWorker) run() {
	ticker := time.NewTicker(webhookPollInterval)
	defer ticker.Stop()
	for {
		w.deliverBatch()
		<-ticker.C
	}
}

func (w *hookWorker) deliverBatch() {
	ctx := context.Background()
	if !w.primed {
		cur, err := w.engine.Repo.LatestEventID(ctx, w.project)
		if err != nil {
			log.Printf("webhook %s: init cursor: %v", w.hook.URL, err)
			return
		}
		w.cursor = cur
		w.primed = true
	}
	events, err := w.engine.Repo.EventsAfter(ctx, webhookBatchSize, w.cursor, w.project)
	if err != nil {
		log.Printf("webhook %s: fetch events: %v", w.hook.URL, err)
		return
	}
	for _, evt := range events {
		if w.wants(evt.Type) {
			if err := w.post(ctx, evt); err != nil {
				// Stop at the first failure; the batch resumes from the
				// same cursor on the next tick.
				log.Printf("webhook %s: deliver event %d: %v", w.hook.URL, evt.ID, err)
				return
			}
		}
		w.cursor = evt.ID
	}
}

func (w *hookWorker) wants(evtType string) bool {
	if w.accept == nil {
		return true
	}
	_, ok := w.accept[evtType]
	return ok
}

type webhookEvent struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	ProjectID  string          `json:"project_id"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	TS         string          `json:"ts"`
	Payload    json.RawMessage `json:"payload"`
	PayloadRaw string          `json:"payload_raw,omitempty"`
}

func (w *hookWorker) post(ctx context.Context, evt domain.Event) error {
	body := webhookEvent{
		ID:         evt.ID,
		Type:       evt.Type,
		ProjectID:  evt.ProjectID,
		EntityKind: evt.EntityKind,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		TS:         evt.TS,
		Payload:    json.RawMessage("{}"),
	}
	if evt.Payload != "" {
		if json.Valid([]byte(evt.Payload)) {
			body.Payload = json.RawMessage(evt.Payload)
		} else {
			body.PayloadRaw = evt.Payload
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.hook.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sitecheck-Event", evt.Type)
	req.Header.Set("X-Sitecheck-Delivery", fmt.Sprintf("%d", evt.ID))
	req.Header.Set("X-Sitecheck-Project", w.project)
	if strings.TrimSpace(w.hook.Secret) != "" {
		req.Header.Set("X-Sitecheck-Secret", w.hook.Secret)
	}
	res, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
