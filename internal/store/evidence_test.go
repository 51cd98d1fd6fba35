package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/dicri/internal/db"
	"github.com/erazemk/dicri/internal/model"
)

func newEvidence(t *testing.T, database *sql.DB, caseID, technicianID int64, code, typ string) int64 {
	t.Helper()
	id, err := InsertEvidence(context.Background(), database, &model.Evidence{
		Code:         code,
		CaseID:       caseID,
		Description:  "Casquillo " + code,
		Location:     "Sala",
		Type:         typ,
		State:        model.ItemDraft,
		TechnicianID: technicianID,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func TestInsertAndListEvidence(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	tech := newUser(t, database, "tech", model.RoleTechnician)
	caseID := newCase(t, database, "EXP-2025-001", tech.ID, time.Now().UTC())

	collected := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	id, err := InsertEvidence(ctx, database, &model.Evidence{
		Code: "IND-001", CaseID: caseID, Description: "Arma blanca", Location: "Cocina",
		Color: "Gris", Type: "Arma", CollectedAt: &collected,
		State: model.ItemDraft, TechnicianID: tech.ID, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	newEvidence(t, database, caseID, tech.ID, "IND-002", "Balística")

	ev, err := GetEvidence(ctx, database, id)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "IND-001", ev.Code)
	assert.Equal(t, "Gris", ev.Color)
	assert.Equal(t, "tech", ev.TechnicianName)
	require.NotNil(t, ev.CollectedAt)
	assert.True(t, collected.Equal(*ev.CollectedAt))

	items, err := ListCaseEvidence(ctx, database, caseID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "IND-001", items[0].Code)

	c, _ := GetCase(ctx, database, caseID)
	assert.Equal(t, 2, c.EvidenceCount)
}

func TestEvidenceCountsIncludeInactive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	tech := newUser(t, database, "tech", model.RoleTechnician)
	caseID := newCase(t, database, "EXP-2025-001", tech.ID, time.Now().UTC())

	first := newEvidence(t, database, caseID, tech.ID, "IND-001", "")
	newEvidence(t, database, caseID, tech.ID, "IND-002", "")
	require.NoError(t, DeactivateEvidence(ctx, database, first))

	all, err := CountCaseEvidence(ctx, database, caseID)
	require.NoError(t, err)
	assert.Equal(t, 2, all)

	active, err := CountActiveEvidence(ctx, database, caseID)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	ids, err := ActiveEvidenceIDs(ctx, database, caseID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestSetCaseEvidenceState(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	tech := newUser(t, database, "tech", model.RoleTechnician)
	caseID := newCase(t, database, "EXP-2025-001", tech.ID, time.Now().UTC())

	a := newEvidence(t, database, caseID, tech.ID, "IND-001", "")
	b := newEvidence(t, database, caseID, tech.ID, "IND-002", "")
	require.NoError(t, DeactivateEvidence(ctx, database, b))

	require.NoError(t, SetCaseEvidenceState(ctx, database, caseID, model.ItemRejected, "incompleto"))

	got, _ := GetEvidence(ctx, database, a)
	assert.Equal(t, model.ItemRejected, got.State)
	assert.Equal(t, "incompleto", got.RejectionReason)

	inactive, _ := GetEvidence(ctx, database, b)
	assert.Equal(t, model.ItemDraft, inactive.State, "inactive items are untouched")

	require.NoError(t, SetCaseEvidenceState(ctx, database, caseID, model.ItemDraft, ""))
	got, _ = GetEvidence(ctx, database, a)
	assert.Equal(t, model.ItemDraft, got.State)
	assert.Equal(t, "incompleto", got.RejectionReason, "empty reason leaves the previous one")
}

func TestSetEvidenceDecisionScopedToCase(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	tech := newUser(t, database, "tech", model.RoleTechnician)
	coord := newUser(t, database, "coord", model.RoleCoordinator)
	caseA := newCase(t, database, "EXP-2025-001", tech.ID, time.Now().UTC())
	caseB := newCase(t, database, "EXP-2025-002", tech.ID, time.Now().UTC())
	item := newEvidence(t, database, caseA, tech.ID, "IND-001", "")

	ok, err := SetEvidenceDecision(ctx, database, caseB, item, model.ItemApproved, "", coord.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "item of another case must not match")

	ok, err = SetEvidenceDecision(ctx, database, caseA, item, model.ItemApproved, "", coord.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := GetEvidence(ctx, database, item)
	assert.Equal(t, model.ItemApproved, got.State)
	require.NotNil(t, got.CoordinatorID)
	assert.Equal(t, coord.ID, *got.CoordinatorID)
	assert.NotNil(t, got.ReviewedAt)
	assert.Empty(t, got.RejectionReason)
}

func TestDeactivateCaseEvidence(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	tech := newUser(t, database, "tech", model.RoleTechnician)
	caseID := newCase(t, database, "EXP-2025-001", tech.ID, time.Now().UTC())
	newEvidence(t, database, caseID, tech.ID, "IND-001", "")
	newEvidence(t, database, caseID, tech.ID, "IND-002", "")

	n, err := DeactivateCaseEvidence(ctx, database, caseID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	items, err := ListCaseEvidence(ctx, database, caseID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEvidencePhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	tech := newUser(t, database, "tech", model.RoleTechnician)
	caseID := newCase(t, database, "EXP-2025-001", tech.ID, time.Now().UTC())
	item := newEvidence(t, database, caseID, tech.ID, "IND-001", "")

	data, mime, err := GetEvidencePhoto(ctx, database, item)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, mime)

	require.NoError(t, SetEvidencePhoto(ctx, database, item, []byte{0xff, 0xd8, 0xff}, "image/jpeg"))
	data, mime, err = GetEvidencePhoto(ctx, database, item)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
	assert.Equal(t, "image/jpeg", mime)

	ev, _ := GetEvidence(ctx, database, item)
	assert.Equal(t, "image/jpeg", ev.PhotoMime)
}
