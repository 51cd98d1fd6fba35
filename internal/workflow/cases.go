package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/store"
)

// CreateCase registers a new Draft case owned by the actor. The code is
// EXP-<year>-<n> where n is one more than the cases registered this year.
func (e *Engine) CreateCase(ctx context.Context, a Actor, f CaseFields) (*model.Case, error) {
	if err := requireRole(a, model.RoleTechnician); err != nil {
		return nil, observe("create_case", err)
	}
	if err := validateFields(f); err != nil {
		return nil, observe("create_case", err)
	}

	now := e.clock()
	var id int64
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		n, err := store.CountCasesInYear(ctx, tx, now.Year())
		if err != nil {
			return err
		}

		c := &model.Case{
			Code:         fmt.Sprintf("EXP-%d-%03d", now.Year(), n+1),
			CaseNumber:   f.CaseNumber,
			Description:  f.Description,
			Location:     f.Location,
			IncidentDate: f.IncidentDate,
			OffenseType:  f.OffenseType,
			Notes:        f.Notes,
			Priority:     f.Priority,
			State:        model.CaseDraft,
			TechnicianID: a.ID,
			CreatedAt:    now,
		}
		id, err = store.InsertCase(ctx, tx, c)
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("case code %s already taken: %w", c.Code, ErrConflict)
		}
		if err != nil {
			return err
		}

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID:  id,
			Action:  model.ActionCreated,
			ToState: string(model.CaseDraft),
		})
	})
	if err != nil {
		return nil, observe("create_case", err)
	}

	c, err := store.GetCase(ctx, e.db, id)
	return c, observe("create_case", err)
}

// UpdateCase overwrites the descriptive fields of an active case. Neither
// ownership nor state is checked; edits outside Draft/Rejected are logged.
func (e *Engine) UpdateCase(ctx context.Context, a Actor, id int64, f CaseFields) (*model.Case, error) {
	if err := validateFields(f); err != nil {
		return nil, observe("update_case", err)
	}

	err := e.inTx(ctx, func(tx *sql.Tx) error {
		c, err := store.GetCase(ctx, tx, id)
		if err != nil {
			return err
		}
		if c == nil || !c.Active {
			return fmt.Errorf("case %d: %w", id, ErrNotFound)
		}
		if !c.State.Editable() || c.TechnicianID != a.ID {
			e.logger.Warn("case edited outside owner draft",
				"case", c.Code, "state", c.State, "actor", a.ID, "owner", c.TechnicianID)
		}

		c.CaseNumber = f.CaseNumber
		c.Description = f.Description
		c.IncidentDate = f.IncidentDate
		c.OffenseType = f.OffenseType
		c.Priority = f.Priority
		c.Location = f.Location
		if _, err := store.UpdateCaseDetails(ctx, tx, c); err != nil {
			return err
		}

		return e.record(ctx, tx, a, model.CaseEvent{CaseID: id, Action: model.ActionUpdated})
	})
	if err != nil {
		return nil, observe("update_case", err)
	}

	c, err := store.GetCase(ctx, e.db, id)
	return c, observe("update_case", err)
}

// SubmitForReview moves the actor's own Draft or Rejected case to
// UnderReview. The case must hold at least one active evidence item.
func (e *Engine) SubmitForReview(ctx context.Context, a Actor, id int64) error {
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		c, err := store.GetCase(ctx, tx, id)
		if err != nil {
			return err
		}
		if c == nil || !c.Active || c.TechnicianID != a.ID || !c.State.CanTransition(model.CaseUnderReview) {
			return fmt.Errorf("case %d cannot be submitted: %w", id, ErrNotFound)
		}

		n, err := store.CountActiveEvidence(ctx, tx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNoEvidence
		}

		if err := store.SetCaseState(ctx, tx, id, model.CaseUnderReview); err != nil {
			return err
		}
		transitioned(c.State, model.CaseUnderReview)

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID:    id,
			Action:    model.ActionSubmitted,
			FromState: string(c.State),
			ToState:   string(model.CaseUnderReview),
		})
	})
	return observe("submit", err)
}

// decidable loads an active case that a coordinator may approve or reject.
func decidable(ctx context.Context, tx *sql.Tx, id int64, next model.CaseState) (*model.Case, error) {
	c, err := store.GetCase(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.Active || !c.State.CanTransition(next) {
		return nil, fmt.Errorf("case %d is not under review: %w", id, ErrNotFound)
	}
	return c, nil
}

// ApproveCase approves a case under review together with all of its active
// evidence items.
func (e *Engine) ApproveCase(ctx context.Context, a Actor, id int64) error {
	if err := requireRole(a, model.RoleCoordinator); err != nil {
		return observe("approve", err)
	}

	err := e.inTx(ctx, func(tx *sql.Tx) error {
		c, err := decidable(ctx, tx, id, model.CaseApproved)
		if err != nil {
			return err
		}

		if err := store.SetCaseDecision(ctx, tx, id, model.CaseApproved, a.ID, ApprovalMarker, e.clock()); err != nil {
			return err
		}
		if err := store.SetCaseEvidenceState(ctx, tx, id, model.ItemApproved, ""); err != nil {
			return err
		}
		transitioned(c.State, model.CaseApproved)

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID:    id,
			Action:    model.ActionApproved,
			FromState: string(c.State),
			ToState:   string(model.CaseApproved),
		})
	})
	return observe("approve", err)
}

// RejectCase rejects a case under review. The justification is stored on
// the case and copied to each active evidence item.
func (e *Engine) RejectCase(ctx context.Context, a Actor, id int64, justification string) error {
	if err := requireRole(a, model.RoleCoordinator); err != nil {
		return observe("reject", err)
	}
	if strings.TrimSpace(justification) == "" {
		return observe("reject", invalid("justification", "is required"))
	}

	err := e.inTx(ctx, func(tx *sql.Tx) error {
		c, err := decidable(ctx, tx, id, model.CaseRejected)
		if err != nil {
			return err
		}

		if err := store.SetCaseDecision(ctx, tx, id, model.CaseRejected, a.ID, justification, e.clock()); err != nil {
			return err
		}
		if err := store.SetCaseEvidenceState(ctx, tx, id, model.ItemRejected, justification); err != nil {
			return err
		}
		transitioned(c.State, model.CaseRejected)

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID:    id,
			Action:    model.ActionRejected,
			FromState: string(c.State),
			ToState:   string(model.CaseRejected),
			Note:      justification,
		})
	})
	return observe("reject", err)
}

// ReviewItemsIndividually applies a coordinator's per-item decisions and
// marks the case Reviewed. The decisions are validated as a whole first;
// nothing is written if any is malformed. Items that are inactive or belong
// to another case are skipped. The case's current state is not checked.
func (e *Engine) ReviewItemsIndividually(ctx context.Context, a Actor, id int64, decisions []ItemDecision) error {
	if err := requireRole(a, model.RoleCoordinator); err != nil {
		return observe("review", err)
	}
	states, err := checkDecisions(decisions)
	if err != nil {
		return observe("review", err)
	}

	err = e.inTx(ctx, func(tx *sql.Tx) error {
		c, err := store.GetCase(ctx, tx, id)
		if err != nil {
			return err
		}
		if c == nil || !c.Active {
			return fmt.Errorf("case %d: %w", id, ErrNotFound)
		}

		now := e.clock()
		for i, d := range decisions {
			ok, err := store.SetEvidenceDecision(ctx, tx, id, d.EvidenceID, states[i], d.Justification, a.ID, now)
			if err != nil {
				return err
			}
			if !ok {
				e.logger.Debug("review skipped evidence", "case", c.Code, "evidence", d.EvidenceID)
				continue
			}
			evidenceID := d.EvidenceID
			if err := e.record(ctx, tx, a, model.CaseEvent{
				CaseID:     id,
				EvidenceID: &evidenceID,
				Action:     model.ActionEvidenceReviewed,
				ToState:    string(states[i]),
				Note:       d.Justification,
			}); err != nil {
				return err
			}
		}

		if err := store.MarkCaseReviewed(ctx, tx, id, a.ID, now); err != nil {
			return err
		}
		transitioned(c.State, model.CaseReviewed)

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID:    id,
			Action:    model.ActionReviewed,
			FromState: string(c.State),
			ToState:   string(model.CaseReviewed),
		})
	})
	return observe("review", err)
}

// DeactivateCase soft-deletes a Draft or Rejected case and its active
// evidence items.
func (e *Engine) DeactivateCase(ctx context.Context, a Actor, id int64) error {
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		c, err := store.GetCase(ctx, tx, id)
		if err != nil {
			return err
		}
		if c == nil || !c.Active || !c.State.Editable() || !canTouch(a, c.TechnicianID) {
			return fmt.Errorf("case %d cannot be deactivated: %w", id, ErrNotFound)
		}

		ids, err := store.ActiveEvidenceIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := store.DeactivateCaseEvidence(ctx, tx, id); err != nil {
			return err
		}
		for _, evidenceID := range ids {
			if err := e.record(ctx, tx, a, model.CaseEvent{
				CaseID:     id,
				EvidenceID: &evidenceID,
				Action:     model.ActionEvidenceRemoved,
			}); err != nil {
				return err
			}
		}
		if err := store.DeactivateCase(ctx, tx, id); err != nil {
			return err
		}

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID: id,
			Action: model.ActionDeactivated,
			Note:   fmt.Sprintf("%d evidence items deactivated", len(ids)),
		})
	})
	return observe("deactivate_case", err)
}
