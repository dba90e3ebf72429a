package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/quiet-coder-io/domainos/internal/brainstorm"
	"github.com/quiet-coder-io/domainos/internal/types"
)

// BrainstormRepo persists brainstorm sessions, rounds, and ideas, enforcing
// the unique-active-session invariant at the storage layer (spec §4.J).
type BrainstormRepo struct {
	db *sql.DB
}

func NewBrainstormRepo(db *sql.DB) *BrainstormRepo { return &BrainstormRepo{db: db} }

// CreateSession inserts a new session in the setup step. The partial unique
// index on brainstorm_sessions enforces at most one non-completed session
// per domain; a conflicting insert surfaces as CodeBrainstormDBConstraint.
func (r *BrainstormRepo) CreateSession(ctx context.Context, domainID int64) (*brainstorm.Session, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO brainstorm_sessions (domain_id, step, idea_count, selected_techniques) VALUES (?, 'setup', 0, '[]')`,
		domainID)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, &types.Error{Code: types.CodeBrainstormDBConstraint, Message: "an active brainstorm session already exists for this domain"}
		}
		return nil, types.Wrap(types.CodeDB, "failed to create brainstorm session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to read new session id", err)
	}
	return &brainstorm.Session{ID: id, DomainID: domainID, Step: types.StepSetup}, nil
}

// GetActive returns the domain's only non-completed session (paused
// sessions still hold the slot), or nil if none exists.
func (r *BrainstormRepo) GetActive(ctx context.Context, domainID int64) (*brainstorm.Session, error) {
	var s brainstorm.Session
	var step string
	var techniquesJSON string
	var pausedAt sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, step, idea_count, selected_techniques, paused_at
		 FROM brainstorm_sessions WHERE domain_id = ? AND step != 'completed'`, domainID).
		Scan(&s.ID, &s.DomainID, &step, &s.IdeaCount, &techniquesJSON, &pausedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to fetch active brainstorm session", err)
	}
	s.Step = types.BrainstormStep(step)
	_ = json.Unmarshal([]byte(techniquesJSON), &s.SelectedTechniques)
	if pausedAt.Valid {
		if t, err := time.Parse(time.RFC3339, pausedAt.String); err == nil {
			s.PausedAt = &t
		}
	}
	return &s, nil
}

func (r *BrainstormRepo) SaveSession(ctx context.Context, s *brainstorm.Session) error {
	var pausedAt interface{}
	if s.PausedAt != nil {
		pausedAt = s.PausedAt.Format(time.RFC3339)
	}
	techniquesJSON, _ := json.Marshal(s.SelectedTechniques)
	_, err := r.db.ExecContext(ctx,
		`UPDATE brainstorm_sessions SET step = ?, idea_count = ?, selected_techniques = ?, paused_at = ? WHERE id = ?`,
		string(s.Step), s.IdeaCount, string(techniquesJSON), pausedAt, s.ID)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to save brainstorm session", err)
	}
	return nil
}

func (r *BrainstormRepo) Rounds(ctx context.Context, sessionID int64) ([]brainstorm.Round, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT round_number, technique_id, technique_name, category, completed_at
		 FROM brainstorm_rounds WHERE session_id = ? ORDER BY round_number`, sessionID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list rounds", err)
	}
	defer rows.Close()

	var out []brainstorm.Round
	for rows.Next() {
		var rnd brainstorm.Round
		var completedAt sql.NullString
		if err := rows.Scan(&rnd.RoundNumber, &rnd.TechniqueID, &rnd.TechniqueName, &rnd.Category, &completedAt); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan round row", err)
		}
		if completedAt.Valid {
			if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
				rnd.CompletedAt = &t
			}
		}
		out = append(out, rnd)
	}
	return out, rows.Err()
}

// SaveRoundsAndIdeas persists the round state (including any newly opened
// round) and appends the new ideas, all inside one transaction, matching
// spec §4.J's "write in one transaction" requirement.
func (r *BrainstormRepo) SaveRoundsAndIdeas(ctx context.Context, sessionID int64, rounds []brainstorm.Round, newIdeas []brainstorm.Idea) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to begin brainstorm transaction", err)
	}
	defer tx.Rollback()

	for _, rnd := range rounds {
		var completedAt interface{}
		if rnd.CompletedAt != nil {
			completedAt = rnd.CompletedAt.Format(time.RFC3339)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO brainstorm_rounds (session_id, round_number, technique_id, technique_name, category, completed_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_id, round_number) DO UPDATE SET completed_at = excluded.completed_at`,
			sessionID, rnd.RoundNumber, rnd.TechniqueID, rnd.TechniqueName, rnd.Category, completedAt); err != nil {
			return types.Wrap(types.CodeDB, "failed to upsert round", err)
		}
	}

	for _, idea := range newIdeas {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO brainstorm_ideas (session_id, round_number, technique_id, category, text, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID, idea.RoundNumber, idea.TechniqueID, idea.Category, idea.Text, idea.Timestamp.Format(time.RFC3339)); err != nil {
			return types.Wrap(types.CodeDB, "failed to insert idea", err)
		}
	}

	return tx.Commit()
}

func (r *BrainstormRepo) Ideas(ctx context.Context, sessionID int64) ([]brainstorm.RawIdea, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT text, category, round_number, technique_id FROM brainstorm_ideas WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list ideas", err)
	}
	defer rows.Close()

	var out []brainstorm.RawIdea
	for rows.Next() {
		var idea brainstorm.RawIdea
		if err := rows.Scan(&idea.Text, &idea.Category, &idea.RoundNumber, &idea.TechniqueID); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan idea row", err)
		}
		out = append(out, idea)
	}
	return out, rows.Err()
}

func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return len(s) >= 6 && (contains(s, "UNIQUE constraint") || contains(s, "constraint failed"))
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
