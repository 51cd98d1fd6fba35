package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/dicri/internal/model"
)

const caseSelect = `SELECT c.id, c.code, c.case_number, c.description, c.location, c.incident_date,
        c.offense_type, c.notes, c.priority, c.state, c.technician_id, c.coordinator_id,
        c.rejection_reason, c.reviewed_at, c.active, c.created_at,
        u.name AS technician_name, co.name AS coordinator_name,
        (SELECT COUNT(*) FROM evidence e WHERE e.case_id = c.id AND e.active = 1) AS evidence_count
 FROM cases c
 LEFT JOIN users u ON u.id = c.technician_id
 LEFT JOIN users co ON co.id = c.coordinator_id`

func scanCase(row interface{ Scan(...any) error }, c *model.Case) error {
	var notes, reason, techName, coordName sql.NullString
	err := row.Scan(&c.ID, &c.Code, &c.CaseNumber, &c.Description, &c.Location, &c.IncidentDate,
		&c.OffenseType, &notes, &c.Priority, &c.State, &c.TechnicianID, &c.CoordinatorID,
		&reason, &c.ReviewedAt, &c.Active, &c.CreatedAt,
		&techName, &coordName, &c.EvidenceCount)
	if err != nil {
		return err
	}
	c.Notes = notes.String
	c.RejectionReason = reason.String
	c.TechnicianName = techName.String
	c.CoordinatorName = coordName.String
	return nil
}

// CountCasesInYear returns how many cases were registered in the given
// calendar year, active or not.
func CountCasesInYear(ctx context.Context, db DBTX, year int) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cases WHERE strftime('%Y', created_at) = ?`,
		fmt.Sprintf("%04d", year),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting cases in %d: %w", year, err)
	}
	return n, nil
}

// InsertCase stores a new case and returns its ID. Code, owner, state and
// creation time must already be set on c.
func InsertCase(ctx context.Context, db DBTX, c *model.Case) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO cases (code, case_number, description, location, incident_date,
		                    offense_type, notes, priority, state, technician_id, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		c.Code, c.CaseNumber, c.Description, c.Location, c.IncidentDate.UTC(),
		c.OffenseType, c.Notes, c.Priority, c.State, c.TechnicianID, c.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("inserting case %s: %w", c.Code, ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("inserting case: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting case id: %w", err)
	}
	return id, nil
}

// GetCase returns a case by ID regardless of its active flag, or nil if it
// does not exist.
func GetCase(ctx context.Context, db DBTX, id int64) (*model.Case, error) {
	c := &model.Case{}
	err := scanCase(db.QueryRowContext(ctx, caseSelect+` WHERE c.id = ?`, id), c)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting case: %w", err)
	}
	return c, nil
}

// CaseQuery filters ListCases.
type CaseQuery struct {
	State        model.CaseState
	Search       string
	TechnicianID int64 // 0 = all technicians
	Limit        int
	Offset       int
}

func (q CaseQuery) where() (string, []any) {
	clauses := []string{"c.active = 1"}
	var args []any

	if q.State != "" {
		clauses = append(clauses, "c.state = ?")
		args = append(args, q.State)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		clauses = append(clauses, "(c.code LIKE ? OR c.description LIKE ? OR u.name LIKE ?)")
		args = append(args, like, like, like)
	}
	if q.TechnicianID != 0 {
		clauses = append(clauses, "c.technician_id = ?")
		args = append(args, q.TechnicianID)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListCases returns one page of active cases, newest first, and the total
// number of matching cases.
func ListCases(ctx context.Context, db DBTX, q CaseQuery) ([]model.Case, int, error) {
	where, args := q.where()

	var total int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cases c LEFT JOIN users u ON u.id = c.technician_id`+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting cases: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		caseSelect+where+` ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing cases: %w", err)
	}
	defer rows.Close()

	var cases []model.Case
	for rows.Next() {
		var c model.Case
		if err := scanCase(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("scanning case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, total, rows.Err()
}

// UpdateCaseDetails overwrites the descriptive fields of a case. Notes and
// ownership are left untouched. Returns false if the case does not exist.
func UpdateCaseDetails(ctx context.Context, db DBTX, c *model.Case) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE cases SET case_number = ?, description = ?, incident_date = ?,
		                  offense_type = ?, priority = ?, location = ?
		 WHERE id = ?`,
		c.CaseNumber, c.Description, c.IncidentDate.UTC(), c.OffenseType, c.Priority, c.Location, c.ID,
	)
	if err != nil {
		return false, fmt.Errorf("updating case: %w", err)
	}
	return affected(res)
}

// SetCaseState changes only the state of an active case.
func SetCaseState(ctx context.Context, db DBTX, id int64, state model.CaseState) error {
	_, err := db.ExecContext(ctx,
		`UPDATE cases SET state = ? WHERE id = ? AND active = 1`, state, id,
	)
	if err != nil {
		return fmt.Errorf("setting case state: %w", err)
	}
	return nil
}

// SetCaseDecision records a coordinator's decision on an active case: state,
// reviewer, reason and review time.
func SetCaseDecision(ctx context.Context, db DBTX, id int64, state model.CaseState, coordinatorID int64, reason string, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE cases SET state = ?, coordinator_id = ?, rejection_reason = ?, reviewed_at = ?
		 WHERE id = ? AND active = 1`,
		state, coordinatorID, reason, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("recording case decision: %w", err)
	}
	return nil
}

// MarkCaseReviewed moves an active case to Reviewed, keeping its reason.
func MarkCaseReviewed(ctx context.Context, db DBTX, id, coordinatorID int64, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE cases SET state = ?, coordinator_id = ?, reviewed_at = ?
		 WHERE id = ? AND active = 1`,
		model.CaseReviewed, coordinatorID, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking case reviewed: %w", err)
	}
	return nil
}

// DeactivateCase soft-deletes a case. Evidence is handled separately.
func DeactivateCase(ctx context.Context, db DBTX, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE cases SET active = 0 WHERE id = ? AND active = 1`, id,
	)
	if err != nil {
		return fmt.Errorf("deactivating case: %w", err)
	}
	return nil
}
