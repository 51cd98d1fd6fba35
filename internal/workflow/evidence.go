package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/erazemk/dicri/internal/imaging"
	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/store"
)

// CreateEvidenceItem registers a Draft evidence item under a Draft or
// Rejected case. Its code is IND-<n> where n is one more than the items ever
// registered in the case.
func (e *Engine) CreateEvidenceItem(ctx context.Context, a Actor, caseID int64, f EvidenceFields) (*model.Evidence, error) {
	if err := validateFields(f); err != nil {
		return nil, observe("create_evidence", err)
	}

	var id int64
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		c, err := store.GetCase(ctx, tx, caseID)
		if err != nil {
			return err
		}
		if c == nil || !c.Active || !c.State.Editable() || !canTouch(a, c.TechnicianID) {
			return fmt.Errorf("case %d cannot take evidence: %w", caseID, ErrNotFound)
		}

		n, err := store.CountCaseEvidence(ctx, tx, caseID)
		if err != nil {
			return err
		}

		collected := f.CollectedAt
		ev := &model.Evidence{
			Code:           fmt.Sprintf("IND-%03d", n+1),
			CaseID:         caseID,
			Description:    f.Description,
			Color:          f.Color,
			Size:           f.Size,
			Weight:         f.Weight,
			Location:       f.Location,
			Notes:          f.Notes,
			EvidenceNumber: f.EvidenceNumber,
			Type:           f.Type,
			CollectedAt:    &collected,
			CustodyChain:   f.CustodyChain,
			State:          model.ItemDraft,
			TechnicianID:   a.ID,
			CreatedAt:      e.clock(),
		}
		if id, err = store.InsertEvidence(ctx, tx, ev); err != nil {
			return err
		}

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID:     caseID,
			EvidenceID: &id,
			Action:     model.ActionEvidenceAdded,
			ToState:    string(model.ItemDraft),
		})
	})
	if err != nil {
		return nil, observe("create_evidence", err)
	}

	ev, err := store.GetEvidence(ctx, e.db, id)
	return ev, observe("create_evidence", err)
}

// loadOwnItem returns an existing item the actor may modify. The parent case
// state is not checked.
func loadOwnItem(ctx context.Context, db store.DBTX, a Actor, id int64) (*model.Evidence, error) {
	ev, err := store.GetEvidence(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if ev == nil || !canTouch(a, ev.TechnicianID) {
		return nil, fmt.Errorf("evidence %d: %w", id, ErrNotFound)
	}
	return ev, nil
}

// UpdateEvidenceItem overwrites the descriptive fields of an item.
func (e *Engine) UpdateEvidenceItem(ctx context.Context, a Actor, id int64, f EvidenceFields) (*model.Evidence, error) {
	if err := validateFields(f); err != nil {
		return nil, observe("update_evidence", err)
	}

	err := e.inTx(ctx, func(tx *sql.Tx) error {
		ev, err := loadOwnItem(ctx, tx, a, id)
		if err != nil {
			return err
		}

		collected := f.CollectedAt
		ev.Description = f.Description
		ev.Color = f.Color
		ev.Size = f.Size
		ev.Weight = f.Weight
		ev.Location = f.Location
		ev.Notes = f.Notes
		ev.EvidenceNumber = f.EvidenceNumber
		ev.Type = f.Type
		ev.CollectedAt = &collected
		ev.CustodyChain = f.CustodyChain
		if err := store.UpdateEvidenceDetails(ctx, tx, ev); err != nil {
			return err
		}

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID:     ev.CaseID,
			EvidenceID: &id,
			Action:     model.ActionEvidenceUpdated,
		})
	})
	if err != nil {
		return nil, observe("update_evidence", err)
	}

	ev, err := store.GetEvidence(ctx, e.db, id)
	return ev, observe("update_evidence", err)
}

// DeactivateEvidenceItem soft-deletes one item regardless of its case's
// state. Removing an item that is already inactive succeeds without change.
func (e *Engine) DeactivateEvidenceItem(ctx context.Context, a Actor, id int64) error {
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		ev, err := loadOwnItem(ctx, tx, a, id)
		if err != nil {
			return err
		}
		if !ev.Active {
			return nil
		}

		if err := store.DeactivateEvidence(ctx, tx, id); err != nil {
			return err
		}

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID:     ev.CaseID,
			EvidenceID: &id,
			Action:     model.ActionEvidenceRemoved,
		})
	})
	return observe("deactivate_evidence", err)
}

// SetEvidencePhoto normalises an uploaded image and attaches it to an active
// item the actor may modify.
func (e *Engine) SetEvidencePhoto(ctx context.Context, a Actor, id int64, r io.Reader) error {
	img, err := imaging.Process(r)
	if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrTooLarge) {
		return observe("set_photo", invalid("photo", err.Error()))
	}
	if err != nil {
		return observe("set_photo", fmt.Errorf("processing photo: %w", err))
	}

	err = e.inTx(ctx, func(tx *sql.Tx) error {
		ev, err := loadOwnItem(ctx, tx, a, id)
		if err != nil {
			return err
		}
		if !ev.Active {
			return fmt.Errorf("evidence %d is inactive: %w", id, ErrNotFound)
		}

		if err := store.SetEvidencePhoto(ctx, tx, id, img.Data, img.MIME); err != nil {
			return err
		}

		return e.record(ctx, tx, a, model.CaseEvent{
			CaseID:     ev.CaseID,
			EvidenceID: &id,
			Action:     model.ActionEvidenceUpdated,
			Note:       "photo",
		})
	})
	return observe("set_photo", err)
}
