package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/dicri/internal/model"
)

const evidenceSelect = `SELECT e.id, e.code, e.case_id, e.description, e.color, e.size, e.weight,
        e.location, e.notes, e.evidence_number, e.type, e.collected_at, e.custody_chain,
        e.state, e.rejection_reason, e.coordinator_id, e.reviewed_at, e.technician_id,
        e.photo_mime, e.active, e.created_at, u.name AS technician_name
 FROM evidence e
 LEFT JOIN users u ON u.id = e.technician_id`

func scanEvidence(row interface{ Scan(...any) error }, ev *model.Evidence) error {
	var color, size, weight, location, notes, number, typ, custody, reason, mime, techName sql.NullString
	err := row.Scan(&ev.ID, &ev.Code, &ev.CaseID, &ev.Description, &color, &size, &weight,
		&location, &notes, &number, &typ, &ev.CollectedAt, &custody,
		&ev.State, &reason, &ev.CoordinatorID, &ev.ReviewedAt, &ev.TechnicianID,
		&mime, &ev.Active, &ev.CreatedAt, &techName)
	if err != nil {
		return err
	}
	ev.Color = color.String
	ev.Size = size.String
	ev.Weight = weight.String
	ev.Location = location.String
	ev.Notes = notes.String
	ev.EvidenceNumber = number.String
	ev.Type = typ.String
	ev.CustodyChain = custody.String
	ev.RejectionReason = reason.String
	ev.PhotoMime = mime.String
	ev.TechnicianName = techName.String
	return nil
}

func scanEvidenceRows(rows *sql.Rows) ([]model.Evidence, error) {
	var items []model.Evidence
	for rows.Next() {
		var ev model.Evidence
		if err := scanEvidence(rows, &ev); err != nil {
			return nil, fmt.Errorf("scanning evidence: %w", err)
		}
		items = append(items, ev)
	}
	return items, rows.Err()
}

// CountCaseEvidence returns how many evidence items were ever registered for
// a case, including inactive ones.
func CountCaseEvidence(ctx context.Context, db DBTX, caseID int64) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evidence WHERE case_id = ?`, caseID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting case evidence: %w", err)
	}
	return n, nil
}

// CountActiveEvidence returns the number of active evidence items of a case.
func CountActiveEvidence(ctx context.Context, db DBTX, caseID int64) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evidence WHERE case_id = ? AND active = 1`, caseID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting active evidence: %w", err)
	}
	return n, nil
}

// InsertEvidence stores a new evidence item and returns its ID.
func InsertEvidence(ctx context.Context, db DBTX, ev *model.Evidence) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO evidence (code, case_id, description, color, size, weight, location, notes,
		                       evidence_number, type, collected_at, custody_chain, state,
		                       technician_id, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		ev.Code, ev.CaseID, ev.Description, ev.Color, ev.Size, ev.Weight, ev.Location, ev.Notes,
		ev.EvidenceNumber, ev.Type, utcPtr(ev.CollectedAt), ev.CustodyChain, ev.State,
		ev.TechnicianID, ev.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting evidence: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting evidence id: %w", err)
	}
	return id, nil
}

// GetEvidence returns an evidence item by ID regardless of its active flag,
// or nil if it does not exist.
func GetEvidence(ctx context.Context, db DBTX, id int64) (*model.Evidence, error) {
	ev := &model.Evidence{}
	err := scanEvidence(db.QueryRowContext(ctx, evidenceSelect+` WHERE e.id = ?`, id), ev)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting evidence: %w", err)
	}
	return ev, nil
}

// ListCaseEvidence returns the active evidence items of a case in
// registration order.
func ListCaseEvidence(ctx context.Context, db DBTX, caseID int64) ([]model.Evidence, error) {
	rows, err := db.QueryContext(ctx,
		evidenceSelect+` WHERE e.case_id = ? AND e.active = 1 ORDER BY e.created_at, e.id`, caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing case evidence: %w", err)
	}
	defer rows.Close()

	return scanEvidenceRows(rows)
}

// ActiveEvidenceIDs returns the IDs of the active evidence items of a case.
func ActiveEvidenceIDs(ctx context.Context, db DBTX, caseID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id FROM evidence WHERE case_id = ? AND active = 1 ORDER BY id`, caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing active evidence ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning evidence id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateEvidenceDetails overwrites the descriptive fields of an item.
func UpdateEvidenceDetails(ctx context.Context, db DBTX, ev *model.Evidence) error {
	_, err := db.ExecContext(ctx,
		`UPDATE evidence SET description = ?, color = ?, size = ?, weight = ?, location = ?,
		                     notes = ?, evidence_number = ?, type = ?, collected_at = ?,
		                     custody_chain = ?
		 WHERE id = ?`,
		ev.Description, ev.Color, ev.Size, ev.Weight, ev.Location,
		ev.Notes, ev.EvidenceNumber, ev.Type, utcPtr(ev.CollectedAt),
		ev.CustodyChain, ev.ID,
	)
	if err != nil {
		return fmt.Errorf("updating evidence: %w", err)
	}
	return nil
}

// SetCaseEvidenceState sets the state of every active item of a case. A
// non-empty reason is copied into each item's rejection reason.
func SetCaseEvidenceState(ctx context.Context, db DBTX, caseID int64, state model.ItemState, reason string) error {
	var err error
	if reason == "" {
		_, err = db.ExecContext(ctx,
			`UPDATE evidence SET state = ? WHERE case_id = ? AND active = 1`,
			state, caseID,
		)
	} else {
		_, err = db.ExecContext(ctx,
			`UPDATE evidence SET state = ?, rejection_reason = ? WHERE case_id = ? AND active = 1`,
			state, reason, caseID,
		)
	}
	if err != nil {
		return fmt.Errorf("setting case evidence state: %w", err)
	}
	return nil
}

// SetEvidenceDecision records a coordinator's decision on one active item of
// the given case. Returns false if no such item exists.
func SetEvidenceDecision(ctx context.Context, db DBTX, caseID, id int64, state model.ItemState, reason string, coordinatorID int64, at time.Time) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE evidence SET state = ?, rejection_reason = ?, coordinator_id = ?, reviewed_at = ?
		 WHERE id = ? AND case_id = ? AND active = 1`,
		state, nullString(reason), coordinatorID, at.UTC(), id, caseID,
	)
	if err != nil {
		return false, fmt.Errorf("recording evidence decision: %w", err)
	}
	return affected(res)
}

// DeactivateCaseEvidence soft-deletes every active item of a case.
func DeactivateCaseEvidence(ctx context.Context, db DBTX, caseID int64) (int64, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE evidence SET active = 0 WHERE case_id = ? AND active = 1`, caseID,
	)
	if err != nil {
		return 0, fmt.Errorf("deactivating case evidence: %w", err)
	}
	return res.RowsAffected()
}

// DeactivateEvidence soft-deletes one item.
func DeactivateEvidence(ctx context.Context, db DBTX, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE evidence SET active = 0 WHERE id = ? AND active = 1`, id,
	)
	if err != nil {
		return fmt.Errorf("deactivating evidence: %w", err)
	}
	return nil
}

// SetEvidencePhoto stores an item's photo.
func SetEvidencePhoto(ctx context.Context, db DBTX, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE evidence SET photo = ?, photo_mime = ? WHERE id = ? AND active = 1`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting evidence photo: %w", err)
	}
	return nil
}

// GetEvidencePhoto returns an item's photo and MIME type. data is nil when the
// item has no photo.
func GetEvidencePhoto(ctx context.Context, db DBTX, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM evidence WHERE id = ? AND active = 1`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting evidence photo: %w", err)
	}
	return photo, mime.String, nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
