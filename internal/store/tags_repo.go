package store

import (
	"context"
	"database/sql"
	"sort"

	"github.com/quiet-coder-io/domainos/internal/types"
)

// TagRepo persists the free-form tags attached to a domain.
type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{db: db} }

// SetTags replaces domainID's full tag set with tags in a single
// transaction. It is idempotent per spec §8: calling SetTags twice with the
// same set leaves the stored tags unchanged, and duplicate/empty entries in
// the input are dropped rather than erroring.
func (r *TagRepo) SetTags(ctx context.Context, domainID int64, tags []string) error {
	unique := map[string]bool{}
	for _, t := range tags {
		if t != "" {
			unique[t] = true
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to begin tag transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE domain_id = ?`, domainID); err != nil {
		return types.Wrap(types.CodeDB, "failed to clear existing tags", err)
	}
	for tag := range unique {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (domain_id, tag) VALUES (?, ?)`, domainID, tag); err != nil {
			return types.Wrap(types.CodeDB, "failed to insert tag", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Wrap(types.CodeDB, "failed to commit tag transaction", err)
	}
	return nil
}

// Tags returns domainID's tags in deterministic (lexical) order.
func (r *TagRepo) Tags(ctx context.Context, domainID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tag FROM tags WHERE domain_id = ?`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list tags", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan tag row", err)
		}
		out = append(out, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
