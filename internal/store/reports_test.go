package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/dicri/internal/db"
	"github.com/erazemk/dicri/internal/model"
)

func TestReports(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := newUser(t, database, "ana", model.RoleTechnician)
	luis := newUser(t, database, "luis", model.RoleTechnician)
	coord := newUser(t, database, "coord", model.RoleCoordinator)

	jan := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

	c1 := newCase(t, database, "EXP-2025-001", ana.ID, jan)
	c2 := newCase(t, database, "EXP-2025-002", ana.ID, feb)
	c3 := newCase(t, database, "EXP-2025-003", luis.ID, feb.Add(time.Hour))

	require.NoError(t, SetCaseDecision(ctx, database, c1, model.CaseApproved, coord.ID, "Aprobado", feb))
	require.NoError(t, SetCaseDecision(ctx, database, c2, model.CaseRejected, coord.ID, "no", feb))

	newEvidence(t, database, c1, ana.ID, "IND-001", "Arma")
	newEvidence(t, database, c1, ana.ID, "IND-002", "Arma")
	newEvidence(t, database, c3, luis.ID, "IND-001", "")

	t.Run("by state", func(t *testing.T) {
		got, err := CasesByState(ctx, database, model.ReportFilter{State: model.CaseApproved})
		require.NoError(t, err)
		counts := map[model.CaseState]int{}
		for _, sc := range got {
			counts[sc.State] = sc.Count
		}
		assert.Equal(t, map[model.CaseState]int{
			model.CaseApproved: 1, model.CaseRejected: 1, model.CaseDraft: 1,
		}, counts, "state filter is ignored")
	})

	t.Run("by technician", func(t *testing.T) {
		got, err := CasesByTechnician(ctx, database, model.ReportFilter{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.TechnicianStats{Name: "ana", Cases: 2, Approved: 1, Rejected: 1}, got[0])
		assert.Equal(t, model.TechnicianStats{Name: "luis", Cases: 1}, got[1])
	})

	t.Run("by month", func(t *testing.T) {
		got, err := CasesByMonth(ctx, database, model.ReportFilter{}, true, false)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.MonthStats{Year: 2025, Month: 1, Cases: 1, Approved: 1}, got[0])
		assert.Equal(t, model.MonthStats{Year: 2025, Month: 2, Cases: 2, Rejected: 1}, got[1])

		newest, err := CasesByMonth(ctx, database, model.ReportFilter{}, false, true)
		require.NoError(t, err)
		assert.Equal(t, 2, newest[0].Month)

		onlyDraft, err := CasesByMonth(ctx, database, model.ReportFilter{State: model.CaseDraft}, true, false)
		require.NoError(t, err)
		require.Len(t, onlyDraft, 1)
		assert.Equal(t, 2, onlyDraft[0].Month)
	})

	t.Run("evidence by type", func(t *testing.T) {
		got, err := EvidenceByType(ctx, database, model.ReportFilter{})
		require.NoError(t, err)
		assert.Equal(t, []model.LabelCount{
			{Label: "Arma", Count: 2},
			{Label: "Sin tipo", Count: 1},
		}, got)
	})

	t.Run("date range and technician scope", func(t *testing.T) {
		from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		n, err := CountEvidence(ctx, database, model.ReportFilter{From: &from})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		recent, err := RecentCases(ctx, database, model.ReportFilter{TechnicianID: ana.ID}, 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "EXP-2025-002", recent[0].Code)

		to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
		early, err := RecentCases(ctx, database, model.ReportFilter{To: &to}, 10)
		require.NoError(t, err)
		require.Len(t, early, 1)
		assert.Equal(t, c1, early[0].ID)
	})

	t.Run("deactivated cases are still counted", func(t *testing.T) {
		require.NoError(t, DeactivateCase(ctx, database, c3))
		stats, err := Statistics(ctx, database, model.ReportFilter{})
		require.NoError(t, err)
		total := 0
		for _, sc := range stats.ByState {
			total += sc.Count
		}
		assert.Equal(t, 3, total)
		assert.Equal(t, 3, stats.TotalEvidence)
		assert.Len(t, stats.ByOffense, 1)
	})
}
