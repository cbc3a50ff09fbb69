package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Writer appends rows to the append-only event log. Callers pass the
// transaction of the mutation being described, so a rolled-back mutation
// leaves no trace in the log.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

// EventPayload is the free-form detail stored as JSON alongside an event.
type EventPayload map[string]any

// Append writes one event inside tx. Empty project and entity ids are
// stored as NULL so log queries can filter on presence.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, projectID, entityKind, entityID, actorID string, payload EventPayload) error {
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	const q = `
		INSERT INTO events (ts, type, project_id, entity_kind, entity_id, actor_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q,
		w.timestamp(), evtType, orNull(projectID), entityKind, orNull(entityID), actorID, string(data))
	return err
}

func (w Writer) timestamp() string {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	return now().UTC().Format(time.RFC3339)
}

func orNull(v string) any {
	if v == "" {
		return nil
	}
	return v
}
