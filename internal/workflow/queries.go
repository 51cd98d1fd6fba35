package workflow

import (
	"context"
	"fmt"

	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/store"
)

// DefaultPageSize is used when a listing does not ask for a page size.
const DefaultPageSize = 10

// CaseFilter narrows ListCases.
type CaseFilter struct {
	State  model.CaseState
	Search string
	Page   int
	Limit  int
}

// Page is one page of a listing.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// visibleCase returns an active case within the actor's scope.
func (e *Engine) visibleCase(ctx context.Context, a Actor, id int64) (*model.Case, error) {
	c, err := store.GetCase(ctx, e.db, id)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.Active {
		return nil, fmt.Errorf("case %d: %w", id, ErrNotFound)
	}
	if scope := ownerScope(a); scope != 0 && c.TechnicianID != scope {
		return nil, fmt.Errorf("case %d: %w", id, ErrNotFound)
	}
	return c, nil
}

// GetCase returns a visible case with its active evidence items.
func (e *Engine) GetCase(ctx context.Context, a Actor, id int64) (*model.Case, error) {
	c, err := e.visibleCase(ctx, a, id)
	if err != nil {
		return nil, err
	}

	c.Evidence, err = store.ListCaseEvidence(ctx, e.db, id)
	if err != nil {
		return nil, err
	}
	if c.Evidence == nil {
		c.Evidence = []model.Evidence{}
	}
	return c, nil
}

// ListCases returns one page of the active cases the actor may see.
func (e *Engine) ListCases(ctx context.Context, a Actor, f CaseFilter) ([]model.Case, Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}

	cases, total, err := store.ListCases(ctx, e.db, store.CaseQuery{
		State:        f.State,
		Search:       f.Search,
		TechnicianID: ownerScope(a),
		Limit:        f.Limit,
		Offset:       (f.Page - 1) * f.Limit,
	})
	if err != nil {
		return nil, Page{}, err
	}
	if cases == nil {
		cases = []model.Case{}
	}

	return cases, Page{
		Page:  f.Page,
		Limit: f.Limit,
		Total: total,
		Pages: (total + f.Limit - 1) / f.Limit,
	}, nil
}

// ListEvidence returns the active items of a visible case.
func (e *Engine) ListEvidence(ctx context.Context, a Actor, caseID int64) ([]model.Evidence, error) {
	if _, err := e.visibleCase(ctx, a, caseID); err != nil {
		return nil, err
	}

	items, err := store.ListCaseEvidence(ctx, e.db, caseID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Evidence{}
	}
	return items, nil
}

// GetEvidence returns an active item whose case is visible to the actor.
func (e *Engine) GetEvidence(ctx context.Context, a Actor, id int64) (*model.Evidence, error) {
	ev, err := store.GetEvidence(ctx, e.db, id)
	if err != nil {
		return nil, err
	}
	if ev == nil || !ev.Active {
		return nil, fmt.Errorf("evidence %d: %w", id, ErrNotFound)
	}
	if _, err := e.visibleCase(ctx, a, ev.CaseID); err != nil {
		return nil, fmt.Errorf("evidence %d: %w", id, ErrNotFound)
	}
	return ev, nil
}

// EvidencePhoto returns the stored photo of a visible item.
func (e *Engine) EvidencePhoto(ctx context.Context, a Actor, id int64) ([]byte, string, error) {
	if _, err := e.GetEvidence(ctx, a, id); err != nil {
		return nil, "", err
	}

	data, mime, err := store.GetEvidencePhoto(ctx, e.db, id)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		return nil, "", fmt.Errorf("evidence %d has no photo: %w", id, ErrNotFound)
	}
	return data, mime, nil
}

// CaseHistory returns the event log of a visible case.
func (e *Engine) CaseHistory(ctx context.Context, a Actor, id int64) ([]model.CaseEvent, error) {
	if _, err := e.visibleCase(ctx, a, id); err != nil {
		return nil, err
	}

	events, err := store.ListCaseEvents(ctx, e.db, id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.CaseEvent{}
	}
	return events, nil
}

// Statistics returns the dashboard report. Technicians only see their own
// cases.
func (e *Engine) Statistics(ctx context.Context, a Actor, f model.ReportFilter) (*model.Statistics, error) {
	f.TechnicianID = ownerScope(a)
	return store.Statistics(ctx, e.db, f)
}

// CasesByMonth returns cases per registration month, oldest first.
func (e *Engine) CasesByMonth(ctx context.Context, a Actor, f model.ReportFilter) ([]model.MonthStats, error) {
	f.TechnicianID = ownerScope(a)
	return store.CasesByMonth(ctx, e.db, f, true, false)
}

// EvidenceByType returns evidence counts per type.
func (e *Engine) EvidenceByType(ctx context.Context, a Actor, f model.ReportFilter) ([]model.LabelCount, error) {
	f.TechnicianID = ownerScope(a)
	return store.EvidenceByType(ctx, e.db, f)
}

// RecentCases returns the latest registered cases.
func (e *Engine) RecentCases(ctx context.Context, a Actor, f model.ReportFilter, limit int) ([]model.Case, error) {
	f.TechnicianID = ownerScope(a)
	cases, err := store.RecentCases(ctx, e.db, f, limit)
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []model.Case{}
	}
	return cases, nil
}
