package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/quiet-coder-io/domainos/internal/types"
)

// GapFlagRepo is the write side of gap_flags; HealthRepo.GapFlags covers
// the read side consumed by severity scoring.
type GapFlagRepo struct {
	db *sql.DB
}

func NewGapFlagRepo(db *sql.DB) *GapFlagRepo { return &GapFlagRepo{db: db} }

func (r *GapFlagRepo) Raise(ctx context.Context, domainID int64, category, description string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO gap_flags (domain_id, category, description) VALUES (?, ?, ?)`,
		domainID, category, description)
	if err != nil {
		return 0, types.Wrap(types.CodeDB, "failed to raise gap flag", err)
	}
	return res.LastInsertId()
}

func (r *GapFlagRepo) Resolve(ctx context.Context, id int64, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE gap_flags SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		now.UTC().Format(time.RFC3339), id)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to resolve gap flag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to read rows affected", err)
	}
	if n == 0 {
		return types.NewNotFound("gap flag", id)
	}
	return nil
}

// DeadlineRepo is the write side of deadlines; HealthRepo.OverdueDeadlines
// covers the read side consumed by severity scoring.
type DeadlineRepo struct {
	db *sql.DB
}

func NewDeadlineRepo(db *sql.DB) *DeadlineRepo { return &DeadlineRepo{db: db} }

func (r *DeadlineRepo) Create(ctx context.Context, domainID int64, description string, dueAt time.Time, priority int) (int64, error) {
	if priority < 1 || priority > 5 {
		return 0, types.NewValidation("priority", "priority must be between 1 and 5")
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO deadlines (domain_id, description, due_at, priority, status) VALUES (?, ?, ?, ?, 'active')`,
		domainID, description, dueAt.UTC().Format(time.RFC3339), priority)
	if err != nil {
		return 0, types.Wrap(types.CodeDB, "failed to create deadline", err)
	}
	return res.LastInsertId()
}

func (r *DeadlineRepo) Close(ctx context.Context, id int64, status string) error {
	if status != string(types.DeadlineCompleted) && status != string(types.DeadlineCancelled) {
		return types.NewValidation("status", "status must be one of completed, cancelled")
	}
	res, err := r.db.ExecContext(ctx, `UPDATE deadlines SET status = ? WHERE id = ? AND status = 'active'`, status, id)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to close deadline", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to read rows affected", err)
	}
	if n == 0 {
		return types.NewNotFound("deadline", id)
	}
	return nil
}

func (r *DeadlineRepo) List(ctx context.Context, domainID int64) ([]Deadline, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, due_at, priority, status FROM deadlines WHERE domain_id = ? ORDER BY due_at`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list deadlines", err)
	}
	defer rows.Close()

	var out []Deadline
	for rows.Next() {
		var d Deadline
		var dueAt string
		d.DomainID = domainID
		if err := rows.Scan(&d.ID, &d.Description, &dueAt, &d.Priority, &d.Status); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan deadline row", err)
		}
		if t, err := time.Parse(time.RFC3339, dueAt); err == nil {
			d.DueAt = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Deadline is a row in the deadlines table (write-side view; health.Deadline
// is the scoring-layer projection of the same data).
type Deadline struct {
	ID          int64
	DomainID    int64
	Description string
	DueAt       time.Time
	Priority    int
	Status      string
}
