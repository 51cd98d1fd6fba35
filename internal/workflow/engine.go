// Package workflow enforces the case and evidence lifecycle: who may change
// what, in which state, and which cascades follow. Every mutating operation
// runs in a single transaction and appends to the case history.
package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/dicri/internal/metrics"
	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/store"
)

// ApprovalMarker is written into a case's rejection reason on approval.
const ApprovalMarker = "Aprobado"

// Actor is the authenticated user running an operation.
type Actor struct {
	ID   int64
	Role model.Role
}

// Engine runs workflow operations against the record store.
type Engine struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for codes and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for warnings about unguarded edits.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over an open database pool.
func New(db *sql.DB, opts ...Option) *Engine {
	e := &Engine{db: db, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DB returns the pool the engine writes to.
func (e *Engine) DB() *sql.DB {
	return e.db
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

// inTx runs fn in a transaction, committing if it returns nil.
func (e *Engine) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// observe records the outcome of an operation and passes err through.
func observe(op string, err error) error {
	metrics.WorkflowOperations.WithLabelValues(op, outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

// requireRole fails with ErrForbidden unless the actor has the given role.
func requireRole(a Actor, role model.Role) error {
	switch a.Role {
	case model.RoleTechnician, model.RoleCoordinator:
		if a.Role == role {
			return nil
		}
		return fmt.Errorf("%s may not do this: %w", a.Role.DisplayName(), ErrForbidden)
	default:
		return fmt.Errorf("unknown role %q: %w", a.Role, ErrForbidden)
	}
}

// canTouch reports whether the actor may act on a record registered by
// ownerID. Coordinators may act on any record, technicians only on their own.
func canTouch(a Actor, ownerID int64) bool {
	switch a.Role {
	case model.RoleCoordinator:
		return true
	case model.RoleTechnician:
		return a.ID == ownerID
	default:
		return false
	}
}

// ownerScope returns the technician filter for listings: technicians see
// only their own cases.
func ownerScope(a Actor) int64 {
	switch a.Role {
	case model.RoleTechnician:
		return a.ID
	case model.RoleCoordinator:
		return 0
	default:
		return -1
	}
}

func (e *Engine) record(ctx context.Context, tx *sql.Tx, a Actor, ev model.CaseEvent) error {
	ev.ActorID = &a.ID
	ev.OccurredAt = e.clock()
	return store.RecordEvent(ctx, tx, ev)
}

func transitioned(from, to model.CaseState) {
	if from != to {
		metrics.CaseTransitions.WithLabelValues(string(from), string(to)).Inc()
	}
}
