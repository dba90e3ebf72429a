package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/quiet-coder-io/domainos/internal/types"
)

// Command is an installed command/plugin/skill tracked for a domain, keyed
// by its canonical slug (e.g. "git:commit") with a source_hash used to
// detect upstream change.
type Command struct {
	ID            int64
	DomainID      int64
	CanonicalSlug string
	SourceHash    string
}

// CommandRepo persists installed commands.
type CommandRepo struct {
	db *sql.DB
}

func NewCommandRepo(db *sql.DB) *CommandRepo { return &CommandRepo{db: db} }

func (r *CommandRepo) Install(ctx context.Context, domainID int64, canonicalSlug, sourceHash string) (*Command, error) {
	if canonicalSlug == "" {
		return nil, types.NewValidation("canonical_slug", "canonical slug is required")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO commands (domain_id, canonical_slug, source_hash) VALUES (?, ?, ?)
		 ON CONFLICT(domain_id, canonical_slug) DO UPDATE SET source_hash = excluded.source_hash`,
		domainID, canonicalSlug, sourceHash)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to install command", err)
	}
	var c Command
	err = r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, canonical_slug, source_hash FROM commands WHERE domain_id = ? AND canonical_slug = ?`,
		domainID, canonicalSlug).Scan(&c.ID, &c.DomainID, &c.CanonicalSlug, &c.SourceHash)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to re-read installed command", err)
	}
	return &c, nil
}

// List returns domainID's installed commands in deterministic (slug) order.
func (r *CommandRepo) List(ctx context.Context, domainID int64) ([]Command, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, domain_id, canonical_slug, source_hash FROM commands WHERE domain_id = ? ORDER BY canonical_slug ASC`,
		domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list commands", err)
	}
	defer rows.Close()

	var out []Command
	for rows.Next() {
		var c Command
		if err := rows.Scan(&c.ID, &c.DomainID, &c.CanonicalSlug, &c.SourceHash); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan command row", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// shortSlug returns the part of a canonical slug after its last ":", or the
// whole slug when it carries no namespace.
func shortSlug(canonical string) string {
	if idx := strings.LastIndex(canonical, ":"); idx >= 0 {
		return canonical[idx+1:]
	}
	return canonical
}

// DisplaySlugs implements the §4.L Commands display-slug collision
// resolution rule: within a single domain, a command displays by its short
// slug (the part after ":") when that short slug is unique among the
// domain's installed commands; otherwise it displays its full canonical
// slug, keyed by canonical slug so callers can look a command back up.
func DisplaySlugs(commands []Command) map[string]string {
	shortCount := map[string]int{}
	for _, c := range commands {
		shortCount[shortSlug(c.CanonicalSlug)]++
	}
	out := make(map[string]string, len(commands))
	for _, c := range commands {
		short := shortSlug(c.CanonicalSlug)
		if shortCount[short] == 1 {
			out[c.CanonicalSlug] = short
		} else {
			out[c.CanonicalSlug] = c.CanonicalSlug
		}
	}
	return out
}
