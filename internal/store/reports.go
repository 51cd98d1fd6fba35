package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/dicri/internal/model"
)

// reportWhere builds the WHERE clause shared by every report. Reports cover
// all registered cases, including deactivated ones.
func reportWhere(f model.ReportFilter, withState bool) (string, []any) {
	clauses := []string{"1=1"}
	var args []any

	if withState && f.State != "" {
		clauses = append(clauses, "c.state = ?")
		args = append(args, f.State)
	}
	if f.From != nil {
		clauses = append(clauses, "c.created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		clauses = append(clauses, "c.created_at <= ?")
		args = append(args, f.To.UTC())
	}
	if f.TechnicianID != 0 {
		clauses = append(clauses, "c.technician_id = ?")
		args = append(args, f.TechnicianID)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// CasesByState counts cases per state. The state filter is ignored.
func CasesByState(ctx context.Context, db DBTX, f model.ReportFilter) ([]model.StateCount, error) {
	where, args := reportWhere(f, false)
	rows, err := db.QueryContext(ctx,
		`SELECT c.state, COUNT(*) FROM cases c`+where+` GROUP BY c.state ORDER BY c.state`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("counting cases by state: %w", err)
	}
	defer rows.Close()

	var out []model.StateCount
	for rows.Next() {
		var sc model.StateCount
		if err := rows.Scan(&sc.State, &sc.Count); err != nil {
			return nil, fmt.Errorf("scanning state count: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// CasesByTechnician summarises cases per registering technician, busiest
// first. The state filter is ignored.
func CasesByTechnician(ctx context.Context, db DBTX, f model.ReportFilter) ([]model.TechnicianStats, error) {
	where, args := reportWhere(f, false)
	rows, err := db.QueryContext(ctx,
		`SELECT u.name, COUNT(*) AS total,
		        SUM(CASE WHEN c.state = ? THEN 1 ELSE 0 END),
		        SUM(CASE WHEN c.state = ? THEN 1 ELSE 0 END)
		 FROM cases c
		 JOIN users u ON u.id = c.technician_id`+where+`
		 GROUP BY u.id, u.name
		 ORDER BY total DESC, u.name`,
		append([]any{model.CaseApproved, model.CaseRejected}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("counting cases by technician: %w", err)
	}
	defer rows.Close()

	var out []model.TechnicianStats
	for rows.Next() {
		var ts model.TechnicianStats
		if err := rows.Scan(&ts.Name, &ts.Cases, &ts.Approved, &ts.Rejected); err != nil {
			return nil, fmt.Errorf("scanning technician stats: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// CasesByOffense counts cases per offense type, most frequent first. The
// state filter is ignored.
func CasesByOffense(ctx context.Context, db DBTX, f model.ReportFilter) ([]model.LabelCount, error) {
	where, args := reportWhere(f, false)
	rows, err := db.QueryContext(ctx,
		`SELECT c.offense_type, COUNT(*) AS n FROM cases c`+where+`
		 GROUP BY c.offense_type ORDER BY n DESC, c.offense_type`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("counting cases by offense: %w", err)
	}
	defer rows.Close()

	return scanLabelCounts(rows)
}

// CasesByMonth counts cases per registration month. When newestFirst is set
// the most recent month comes first, otherwise months are chronological.
func CasesByMonth(ctx context.Context, db DBTX, f model.ReportFilter, withState, newestFirst bool) ([]model.MonthStats, error) {
	where, args := reportWhere(f, withState)
	order := "y, m"
	if newestFirst {
		order = "y DESC, m DESC"
	}
	rows, err := db.QueryContext(ctx,
		`SELECT CAST(strftime('%Y', c.created_at) AS INTEGER) AS y,
		        CAST(strftime('%m', c.created_at) AS INTEGER) AS m,
		        COUNT(*),
		        SUM(CASE WHEN c.state = ? THEN 1 ELSE 0 END),
		        SUM(CASE WHEN c.state = ? THEN 1 ELSE 0 END)
		 FROM cases c`+where+`
		 GROUP BY y, m
		 ORDER BY `+order,
		append([]any{model.CaseApproved, model.CaseRejected}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("counting cases by month: %w", err)
	}
	defer rows.Close()

	var out []model.MonthStats
	for rows.Next() {
		var ms model.MonthStats
		if err := rows.Scan(&ms.Year, &ms.Month, &ms.Cases, &ms.Approved, &ms.Rejected); err != nil {
			return nil, fmt.Errorf("scanning month stats: %w", err)
		}
		out = append(out, ms)
	}
	return out, rows.Err()
}

// EvidenceByType counts evidence items per type across the filtered cases.
func EvidenceByType(ctx context.Context, db DBTX, f model.ReportFilter) ([]model.LabelCount, error) {
	where, args := reportWhere(f, true)
	rows, err := db.QueryContext(ctx,
		`SELECT COALESCE(NULLIF(e.type, ''), 'Sin tipo') AS label, COUNT(*) AS n
		 FROM evidence e
		 JOIN cases c ON c.id = e.case_id`+where+`
		 GROUP BY label ORDER BY n DESC, label`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("counting evidence by type: %w", err)
	}
	defer rows.Close()

	return scanLabelCounts(rows)
}

// CountEvidence returns the number of evidence items across the filtered
// cases. The state filter is ignored.
func CountEvidence(ctx context.Context, db DBTX, f model.ReportFilter) (int, error) {
	where, args := reportWhere(f, false)
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evidence e JOIN cases c ON c.id = e.case_id`+where, args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting evidence: %w", err)
	}
	return n, nil
}

// RecentCases returns the most recently registered cases.
func RecentCases(ctx context.Context, db DBTX, f model.ReportFilter, limit int) ([]model.Case, error) {
	where, args := reportWhere(f, true)
	rows, err := db.QueryContext(ctx,
		caseSelect+where+` ORDER BY c.created_at DESC, c.id DESC LIMIT ?`,
		append(args, limit)...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent cases: %w", err)
	}
	defer rows.Close()

	var cases []model.Case
	for rows.Next() {
		var c model.Case
		if err := scanCase(rows, &c); err != nil {
			return nil, fmt.Errorf("scanning case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func scanLabelCounts(rows *sql.Rows) ([]model.LabelCount, error) {
	var out []model.LabelCount
	for rows.Next() {
		var lc model.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("scanning label count: %w", err)
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// Statistics assembles the combined dashboard report.
func Statistics(ctx context.Context, db DBTX, f model.ReportFilter) (*model.Statistics, error) {
	var (
		s   model.Statistics
		err error
	)
	if s.ByState, err = CasesByState(ctx, db, f); err != nil {
		return nil, err
	}
	if s.ByTechnician, err = CasesByTechnician(ctx, db, f); err != nil {
		return nil, err
	}
	if s.ByOffense, err = CasesByOffense(ctx, db, f); err != nil {
		return nil, err
	}
	if s.ByMonth, err = CasesByMonth(ctx, db, f, false, true); err != nil {
		return nil, err
	}
	if s.TotalEvidence, err = CountEvidence(ctx, db, f); err != nil {
		return nil, err
	}
	return &s, nil
}
