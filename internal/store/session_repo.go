package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/quiet-coder-io/domainos/internal/types"
)

// Session is a row in the sessions table: a per-domain work session with an
// active/wrapped_up lifecycle. Scope is not persisted: the table has no scope
// column, Start ignores its scope argument, and Get leaves Scope empty.
type Session struct {
	ID        int64
	DomainID  int64
	Scope     string
	Status    types.SessionStatus
	StartedAt time.Time
	EndedAt   *time.Time
}

// SessionRepo persists work sessions.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Start(ctx context.Context, domainID int64, scope string) (*Session, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (domain_id, status) VALUES (?, 'active')`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to start session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to read new session id", err)
	}
	return r.Get(ctx, id)
}

// WrapUp closes a session. Wrapping an already-wrapped session is a no-op
// success, matching the repository idempotent-operation convention.
func (r *SessionRepo) WrapUp(ctx context.Context, id int64, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'wrapped_up', ended_at = ? WHERE id = ? AND status != 'wrapped_up'`,
		now.UTC().Format(time.RFC3339), id)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to wrap up session", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id int64) (*Session, error) {
	var s Session
	var status, startedAt string
	var endedAt sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, status, started_at, ended_at FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.DomainID, &status, &startedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, types.NewNotFound("session", id)
	}
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to fetch session", err)
	}
	s.Status = types.SessionStatus(status)
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		s.StartedAt = t
	}
	if endedAt.Valid {
		if t, err := time.Parse(time.RFC3339, endedAt.String); err == nil {
			s.EndedAt = &t
		}
	}
	return &s, nil
}

// MostRecentWindow returns the fields Module H's since_window needs: the
// most recently ended wrapped_up session's ended_at, and (regardless of
// status) the most recently started session's started_at.
func (r *SessionRepo) MostRecentWindow(ctx context.Context, domainID int64) (wrappedEndedAt *time.Time, mostRecentStartedAt *time.Time, err error) {
	var endedAt sql.NullString
	err = r.db.QueryRowContext(ctx,
		`SELECT ended_at FROM sessions WHERE domain_id = ? AND status = 'wrapped_up' AND ended_at IS NOT NULL ORDER BY ended_at DESC LIMIT 1`,
		domainID).Scan(&endedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, nil, types.Wrap(types.CodeDB, "failed to read most recent wrapped session", err)
	}
	if err == nil && endedAt.Valid {
		if t, perr := time.Parse(time.RFC3339, endedAt.String); perr == nil {
			wrappedEndedAt = &t
		}
	}

	var startedAt string
	err = r.db.QueryRowContext(ctx,
		`SELECT started_at FROM sessions WHERE domain_id = ? ORDER BY started_at DESC LIMIT 1`, domainID).Scan(&startedAt)
	if err == sql.ErrNoRows {
		return wrappedEndedAt, nil, nil
	}
	if err != nil {
		return nil, nil, types.Wrap(types.CodeDB, "failed to read most recent session", err)
	}
	if t, perr := time.Parse(time.RFC3339, startedAt); perr == nil {
		mostRecentStartedAt = &t
	}
	return wrappedEndedAt, mostRecentStartedAt, nil
}
