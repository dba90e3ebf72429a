package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/quiet-coder-io/domainos/internal/health"
	"github.com/quiet-coder-io/domainos/internal/types"
)

// HealthRepo reads the rows health.ComputeDomainSeverity and
// health.BuildAlerts need, keeping the health package itself free of sqlite.
type HealthRepo struct {
	db *sql.DB
}

func NewHealthRepo(db *sql.DB) *HealthRepo { return &HealthRepo{db: db} }

// ScoredFiles lists every structural/status/intelligence KB file in a
// domain for severity scoring (general tier is skipped per spec §4.G).
func (r *HealthRepo) ScoredFiles(ctx context.Context, domainID int64) ([]health.FileStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT relative_path, tier, mtime, COALESCE(last_semantic_update_at, '')
		 FROM kb_files WHERE domain_id = ? AND tier != 'general'`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list scored files", err)
	}
	defer rows.Close()

	var out []health.FileStat
	for rows.Next() {
		var fs health.FileStat
		var tier, mtime string
		if err := rows.Scan(&fs.RelativePath, &tier, &mtime, &fs.LastSemanticUpdateAt); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan scored file row", err)
		}
		fs.Tier = types.Tier(tier)
		if t, err := time.Parse(time.RFC3339, mtime); err == nil {
			fs.Mtime = t
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

func (r *HealthRepo) GapFlags(ctx context.Context, domainID int64) ([]health.GapFlag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT created_at, resolved_at FROM gap_flags WHERE domain_id = ?`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list gap flags", err)
	}
	defer rows.Close()

	var out []health.GapFlag
	for rows.Next() {
		var createdAt string
		var resolvedAt sql.NullString
		if err := rows.Scan(&createdAt, &resolvedAt); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan gap flag row", err)
		}
		gf := health.GapFlag{Open: !resolvedAt.Valid}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			gf.CreatedAt = t
		}
		if resolvedAt.Valid {
			if t, err := time.Parse(time.RFC3339, resolvedAt.String); err == nil {
				gf.ResolvedAt = &t
			}
		}
		out = append(out, gf)
	}
	return out, rows.Err()
}

func (r *HealthRepo) OverdueDeadlines(ctx context.Context, domainID int64, now time.Time) ([]health.Deadline, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT priority, due_at FROM deadlines WHERE domain_id = ? AND status = 'active'`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list deadlines", err)
	}
	defer rows.Close()

	var out []health.Deadline
	for rows.Next() {
		var priority int
		var dueAt string
		if err := rows.Scan(&priority, &dueAt); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan deadline row", err)
		}
		overdue := false
		if t, err := time.Parse(time.RFC3339, dueAt); err == nil {
			overdue = now.After(t)
		}
		out = append(out, health.Deadline{Priority: priority, Overdue: overdue})
	}
	return out, rows.Err()
}

// OverdueDeadlineItems lists a domain's active, overdue deadlines with the
// description/priority/days_overdue fields Module H's top_actions needs,
// most-overdue first.
func (r *HealthRepo) OverdueDeadlineItems(ctx context.Context, domainID int64, now time.Time) ([]health.OverdueDeadlineItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, due_at, priority FROM deadlines WHERE domain_id = ? AND status = 'active'`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list overdue deadline items", err)
	}
	defer rows.Close()

	var out []health.OverdueDeadlineItem
	for rows.Next() {
		var id int64
		var description, dueAt string
		var priority int
		if err := rows.Scan(&id, &description, &dueAt, &priority); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan deadline item row", err)
		}
		due, err := time.Parse(time.RFC3339, dueAt)
		if err != nil || !now.After(due) {
			continue
		}
		out = append(out, health.OverdueDeadlineItem{
			ID:          id,
			Description: description,
			DaysOverdue: int(now.Sub(due).Hours() / 24),
			Priority:    priority,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DaysOverdue > out[j].DaysOverdue })
	return out, nil
}

// OpenGapFlagItems lists a domain's unresolved gap flags with the
// category/description/age fields Module H's top_actions and search_hints
// need, oldest (largest age) first.
func (r *HealthRepo) OpenGapFlagItems(ctx context.Context, domainID int64, now time.Time) ([]health.GapFlagItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, description, created_at FROM gap_flags WHERE domain_id = ? AND resolved_at IS NULL`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list open gap flag items", err)
	}
	defer rows.Close()

	var out []health.GapFlagItem
	for rows.Next() {
		var id int64
		var category, description, createdAt string
		if err := rows.Scan(&id, &category, &description, &createdAt); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan gap flag item row", err)
		}
		ageDays := 0
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			ageDays = int(now.Sub(t).Hours() / 24)
		}
		out = append(out, health.GapFlagItem{ID: id, Category: category, Description: description, AgeDays: ageDays})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgeDays > out[j].AgeDays })
	return out, nil
}

func (r *HealthRepo) Relationships(ctx context.Context) ([]health.Dependency, error) {
	domainRepo := NewDomainRepo(r.db)
	rels, err := domainRepo.ListRelationships(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]health.Dependency, 0, len(rels))
	for _, d := range rels {
		if d.DependencyType == "" {
			continue
		}
		out = append(out, health.Dependency{
			SourceID:    d.SourceDomainID,
			TargetID:    d.TargetDomainID,
			Type:        d.DependencyType,
			Description: d.Description,
		})
	}
	return out, nil
}
