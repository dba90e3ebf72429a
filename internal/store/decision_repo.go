package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/quiet-coder-io/domainos/internal/fence"
	"github.com/quiet-coder-io/domainos/internal/types"
)

// DecisionRecord is a persisted decision block.
type DecisionRecord struct {
	ID        int64
	DomainID  int64
	fence.Decision
	CreatedAt time.Time
}

type DecisionRepo struct {
	db *sql.DB
}

func NewDecisionRepo(db *sql.DB) *DecisionRepo { return &DecisionRepo{db: db} }

func (r *DecisionRepo) Insert(ctx context.Context, domainID int64, d fence.Decision) (int64, error) {
	linkedFiles, _ := json.Marshal(d.LinkedFiles)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO decisions (domain_id, decision_id, decision_text, confidence, horizon, reversibility_class, category, linked_files)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		domainID, d.DecisionID, d.DecisionText, nullableStr(d.Confidence), nullableStr(d.Horizon),
		nullableStr(d.ReversibilityClass), nullableStr(d.Category), string(linkedFiles))
	if err != nil {
		return 0, types.Wrap(types.CodeDB, "failed to insert decision", err)
	}
	return res.LastInsertId()
}

func (r *DecisionRepo) List(ctx context.Context, domainID int64) ([]DecisionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, decision_id, decision_text, COALESCE(confidence,''), COALESCE(horizon,''),
		       COALESCE(reversibility_class,''), COALESCE(category,''), linked_files, created_at
		FROM decisions WHERE domain_id = ? ORDER BY id DESC`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list decisions", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var linkedFilesJSON, createdAt string
		rec.DomainID = domainID
		if err := rows.Scan(&rec.ID, &rec.DecisionID, &rec.DecisionText, &rec.Confidence, &rec.Horizon,
			&rec.ReversibilityClass, &rec.Category, &linkedFilesJSON, &createdAt); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan decision row", err)
		}
		_ = json.Unmarshal([]byte(linkedFilesJSON), &rec.LinkedFiles)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullableStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
