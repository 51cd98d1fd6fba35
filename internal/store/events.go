package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/dicri/internal/model"
)

// RecordEvent appends an entry to a case's history.
func RecordEvent(ctx context.Context, db DBTX, ev model.CaseEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO case_events (case_id, evidence_id, action, from_state, to_state, note, actor_id, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.CaseID, ev.EvidenceID, ev.Action, nullString(ev.FromState), nullString(ev.ToState),
		nullString(ev.Note), ev.ActorID, ev.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s event: %w", ev.Action, err)
	}
	return nil
}

// ListCaseEvents returns the history of a case, oldest first.
func ListCaseEvents(ctx context.Context, db DBTX, caseID int64) ([]model.CaseEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ce.id, ce.case_id, ce.evidence_id, ce.action, ce.from_state, ce.to_state, ce.note,
		        ce.actor_id, ce.occurred_at, u.name AS actor_name, e.code AS evidence_code
		 FROM case_events ce
		 LEFT JOIN users u ON u.id = ce.actor_id
		 LEFT JOIN evidence e ON e.id = ce.evidence_id
		 WHERE ce.case_id = ?
		 ORDER BY ce.occurred_at, ce.id`, caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing case events: %w", err)
	}
	defer rows.Close()

	var events []model.CaseEvent
	for rows.Next() {
		var ev model.CaseEvent
		var from, to, note, actor, code sql.NullString
		if err := rows.Scan(&ev.ID, &ev.CaseID, &ev.EvidenceID, &ev.Action, &from, &to, &note,
			&ev.ActorID, &ev.OccurredAt, &actor, &code); err != nil {
			return nil, fmt.Errorf("scanning case event: %w", err)
		}
		ev.FromState = from.String
		ev.ToState = to.String
		ev.Note = note.String
		ev.ActorName = actor.String
		ev.EvidenceCode = code.String
		events = append(events, ev)
	}
	return events, rows.Err()
}
