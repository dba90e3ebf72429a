package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/quiet-coder-io/domainos/internal/fence"
	"github.com/quiet-coder-io/domainos/internal/logging"
	"github.com/quiet-coder-io/domainos/internal/types"
)

// llmAdvisoryHourlyLimit and llmAdvisoryDailyLimit bound how many
// source='llm' advisory artifacts one domain can persist per local-clock
// window, per spec §4.I.
const (
	llmAdvisoryHourlyLimit = 10
	llmAdvisoryDailyLimit  = 20
)

// AdvisoryArtifact is a persisted advisory-<type> block.
type AdvisoryArtifact struct {
	ID          int64
	DomainID    int64
	Type        string
	Title       string
	Persist     types.AdvisoryPersist
	Source      string
	Fingerprint string
	Payload     []byte
	CreatedAt   time.Time
}

type AdvisoryRepo struct {
	db *sql.DB
}

func NewAdvisoryRepo(db *sql.DB) *AdvisoryRepo { return &AdvisoryRepo{db: db} }

// RateLimited reports whether persisting another source='llm' artifact for
// this domain right now would exceed the hourly or daily cap, counting in
// the given location's local day/hour boundaries. window is "hourly" or
// "daily" naming which cap was hit, empty when neither is.
func (r *AdvisoryRepo) RateLimited(ctx context.Context, domainID int64, now time.Time, loc *time.Location) (limited bool, window string, err error) {
	hourStart := now.In(loc).Truncate(time.Hour).UTC().Format(time.RFC3339)
	dayStart := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc).UTC().Format(time.RFC3339)

	var hourCount, dayCount int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM advisory_artifacts WHERE domain_id = ? AND source = 'llm' AND created_at >= ?`,
		domainID, hourStart).Scan(&hourCount); err != nil {
		return false, "", types.Wrap(types.CodeDB, "failed to count hourly advisories", err)
	}
	if hourCount >= llmAdvisoryHourlyLimit {
		return true, "hourly", nil
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM advisory_artifacts WHERE domain_id = ? AND source = 'llm' AND created_at >= ?`,
		domainID, dayStart).Scan(&dayCount); err != nil {
		return false, "", types.Wrap(types.CodeDB, "failed to count daily advisories", err)
	}
	if dayCount >= llmAdvisoryDailyLimit {
		return true, "daily", nil
	}
	return false, "", nil
}

// rateLimitMessage builds the human-readable, cap-specific rejection
// message spec §7 requires (e.g. "[Advisory] Not saved: daily save limit
// reached (20/day).").
func rateLimitMessage(window string) string {
	switch window {
	case "hourly":
		return fmt.Sprintf("[Advisory] Not saved: hourly save limit reached (%d/hour).", llmAdvisoryHourlyLimit)
	default:
		return fmt.Sprintf("[Advisory] Not saved: daily save limit reached (%d/day).", llmAdvisoryDailyLimit)
	}
}

// fingerprint derives a stable content fingerprint when the block didn't
// carry one of its own, so repeated identical advisories are idempotent.
func fingerprint(block fence.AdvisoryBlock) string {
	if block.Fingerprint != "" {
		return block.Fingerprint
	}
	h := sha256.New()
	h.Write([]byte(block.Type))
	h.Write([]byte{0})
	h.Write([]byte(block.Title))
	h.Write([]byte{0})
	h.Write(block.Payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Persist stores block for domainID if persist != "no" and the rate limit
// allows it. It is idempotent on (domain_id, fingerprint): a repeat of a
// previously seen block returns the existing row rather than erroring, and
// a UNIQUE-constraint race (two concurrent identical inserts) is resolved
// by re-reading the row the other writer just committed.
func (r *AdvisoryRepo) Persist(ctx context.Context, domainID int64, block fence.AdvisoryBlock, source string, now time.Time, loc *time.Location) (*AdvisoryArtifact, error) {
	if block.Persist == types.AdvisoryPersistNo {
		return nil, nil
	}

	fp := fingerprint(block)

	if existing, err := r.getByFingerprint(ctx, domainID, fp); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if source == "llm" {
		limited, window, err := r.RateLimited(ctx, domainID, now, loc)
		if err != nil {
			return nil, err
		}
		if limited {
			return nil, &types.Error{Code: types.CodeValidation, Message: rateLimitMessage(window)}
		}
	}

	createdAt := now.UTC().Format(time.RFC3339)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO advisory_artifacts (domain_id, type, title, persist, source, fingerprint, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		domainID, block.Type, block.Title, string(block.Persist), source, fp, string(block.Payload), createdAt)
	if err != nil {
		if isUniqueConstraintErr(err) {
			// lost the race to a concurrent identical insert; the winning row is authoritative
			existing, getErr := r.getByFingerprint(ctx, domainID, fp)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, types.Wrap(types.CodeDB, "failed to persist advisory artifact", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to read new advisory id", err)
	}
	logging.Store("persisted advisory artifact id=%d domain=%d type=%s", id, domainID, block.Type)

	t, _ := time.Parse(time.RFC3339, createdAt)
	return &AdvisoryArtifact{
		ID: id, DomainID: domainID, Type: block.Type, Title: block.Title,
		Persist: block.Persist, Source: source, Fingerprint: fp,
		Payload: block.Payload, CreatedAt: t,
	}, nil
}

func (r *AdvisoryRepo) getByFingerprint(ctx context.Context, domainID int64, fp string) (*AdvisoryArtifact, error) {
	var a AdvisoryArtifact
	var persist, createdAt string
	var payload string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, domain_id, type, title, persist, source, fingerprint, payload, created_at
		FROM advisory_artifacts WHERE domain_id = ? AND fingerprint = ?`, domainID, fp).
		Scan(&a.ID, &a.DomainID, &a.Type, &a.Title, &persist, &a.Source, &a.Fingerprint, &payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to look up advisory artifact", err)
	}
	a.Persist = types.AdvisoryPersist(persist)
	a.Payload = []byte(payload)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		a.CreatedAt = t
	}
	return &a, nil
}

func (r *AdvisoryRepo) List(ctx context.Context, domainID int64) ([]AdvisoryArtifact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, domain_id, type, title, persist, source, fingerprint, payload, created_at
		FROM advisory_artifacts WHERE domain_id = ? ORDER BY id DESC`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list advisory artifacts", err)
	}
	defer rows.Close()

	var out []AdvisoryArtifact
	for rows.Next() {
		var a AdvisoryArtifact
		var persist, createdAt, payload string
		if err := rows.Scan(&a.ID, &a.DomainID, &a.Type, &a.Title, &persist, &a.Source, &a.Fingerprint, &payload, &createdAt); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan advisory artifact row", err)
		}
		a.Persist = types.AdvisoryPersist(persist)
		a.Payload = []byte(payload)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			a.CreatedAt = t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
