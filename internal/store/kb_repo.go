package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/quiet-coder-io/domainos/internal/embedding"
	"github.com/quiet-coder-io/domainos/internal/kb"
	"github.com/quiet-coder-io/domainos/internal/logging"
	"github.com/quiet-coder-io/domainos/internal/search"
	"github.com/quiet-coder-io/domainos/internal/types"
)

// vecIndexWrite, when non-nil, mirrors a stored embedding into the
// sqlite-vec ANN index; registered by the sqlite_vec build tag's init().
var vecIndexWrite func(db *sql.DB, chunkID int64, dimensions int, vector []float32)

// vecIndexSearch, when non-nil, returns the rowids of the k nearest
// neighbors to query by approximate cosine distance from the sqlite-vec
// ANN index, or ok=false if the index isn't usable (e.g. dimension
// mismatch); registered by the sqlite_vec build tag's init().
var vecIndexSearch func(db *sql.DB, query []float32, dimensions, k int) (ids []int64, ok bool)

// KBRepo persists KB files, chunks, and their embeddings. It implements
// embedding.ChunkSyncer.
type KBRepo struct {
	db *sql.DB
}

func NewKBRepo(db *sql.DB) *KBRepo { return &KBRepo{db: db} }

// UpsertFile records or refreshes a scanned KB file's row, preserving a
// manually pinned tier (spec §4.B).
func (r *KBRepo) UpsertFile(ctx context.Context, domainID int64, relativePath string, tier types.Tier, tierSource types.TierSource, contentHash, mtime string) (int64, error) {
	var existingID int64
	var existingTierSource string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tier_source FROM kb_files WHERE domain_id = ? AND relative_path = ?`,
		domainID, relativePath).Scan(&existingID, &existingTierSource)

	switch {
	case err == sql.ErrNoRows:
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO kb_files (domain_id, relative_path, tier, tier_source, content_hash, mtime) VALUES (?, ?, ?, ?, ?, ?)`,
			domainID, relativePath, string(tier), string(tierSource), contentHash, mtime)
		if err != nil {
			return 0, types.Wrap(types.CodeDB, "failed to insert kb file", err)
		}
		return res.LastInsertId()
	case err != nil:
		return 0, types.Wrap(types.CodeDB, "failed to look up kb file", err)
	}

	finalTier := tier
	finalSource := tierSource
	if types.TierSource(existingTierSource) == types.TierSourceManual {
		finalSource = types.TierSourceManual
		// manual tier is read back from the DB rather than overwritten
		if err := r.db.QueryRowContext(ctx, `SELECT tier FROM kb_files WHERE id = ?`, existingID).Scan(&finalTier); err != nil {
			return 0, types.Wrap(types.CodeDB, "failed to read manual tier", err)
		}
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE kb_files SET tier = ?, tier_source = ?, content_hash = ?, mtime = ? WHERE id = ?`,
		string(finalTier), string(finalSource), contentHash, mtime, existingID)
	if err != nil {
		return 0, types.Wrap(types.CodeDB, "failed to update kb file", err)
	}
	return existingID, nil
}

// ListFiles projects the stored kb_files rows into the shape kb.PlanSync
// diffs against a fresh scan.
func (r *KBRepo) ListFiles(ctx context.Context, domainID int64) ([]kb.ExistingFile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, relative_path, content_hash, tier_source FROM kb_files WHERE domain_id = ?`, domainID)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to list kb files", err)
	}
	defer rows.Close()

	var out []kb.ExistingFile
	for rows.Next() {
		var ef kb.ExistingFile
		if err := rows.Scan(&ef.ID, &ef.RelativePath, &ef.ContentHash, &ef.TierSource); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan kb file row", err)
		}
		out = append(out, ef)
	}
	return out, rows.Err()
}

func (r *KBRepo) DeleteFile(ctx context.Context, domainID int64, relativePath string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kb_files WHERE domain_id = ? AND relative_path = ?`, domainID, relativePath)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to delete kb file", err)
	}
	return nil
}

// SyncChunks reconciles chunker output against existing rows for one file in
// a single transaction, per spec §4.E phase 1.
func (r *KBRepo) SyncChunks(ctx context.Context, fileID int64, fileContentHash string, chunks []kb.Chunk) error {
	timer := logging.StartTimer(logging.CategoryStore, "SyncChunks")
	defer timer.Stop()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to begin chunk sync transaction", err)
	}
	defer tx.Rollback()

	existing := map[string]struct {
		id          int64
		contentHash string
	}{}
	rows, err := tx.QueryContext(ctx, `SELECT id, chunk_key, content_hash FROM kb_chunks WHERE kb_file_id = ?`, fileID)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to list existing chunks", err)
	}
	for rows.Next() {
		var id int64
		var key, hash string
		if err := rows.Scan(&id, &key, &hash); err != nil {
			rows.Close()
			return types.Wrap(types.CodeDB, "failed to scan chunk row", err)
		}
		existing[key] = struct {
			id          int64
			contentHash string
		}{id, hash}
	}
	rows.Close()

	seen := map[string]bool{}
	for _, c := range chunks {
		seen[c.ChunkKey] = true
		if ex, ok := existing[c.ChunkKey]; ok {
			if ex.contentHash != c.ContentHash {
				if _, err := tx.ExecContext(ctx,
					`UPDATE kb_chunks SET content = ?, content_hash = ?, heading_path = ?, start_line = ?, token_estimate = ? WHERE id = ?`,
					c.Content, c.ContentHash, c.HeadingPath, c.StartLine, c.TokenEstimate, ex.id); err != nil {
					return types.Wrap(types.CodeDB, "failed to update chunk", err)
				}
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kb_chunks (kb_file_id, chunk_key, heading_path, content, content_hash, start_line, token_estimate) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fileID, c.ChunkKey, c.HeadingPath, c.Content, c.ContentHash, c.StartLine, c.TokenEstimate); err != nil {
			return types.Wrap(types.CodeDB, "failed to insert chunk", err)
		}
	}

	for key, ex := range existing {
		if !seen[key] {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kb_chunks WHERE id = ?`, ex.id); err != nil {
				return types.Wrap(types.CodeDB, "failed to delete stale chunk", err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE kb_files SET content_hash = ? WHERE id = ?`, fileContentHash, fileID); err != nil {
		return types.Wrap(types.CodeDB, "failed to update file content hash", err)
	}

	return tx.Commit()
}

// ChunksNeedingEmbedding implements the second half of embedding.ChunkSyncer
// (spec §4.E phase 2): chunks with no embedding row for this model, or
// whose stored content_hash is stale.
func (r *KBRepo) ChunksNeedingEmbedding(ctx context.Context, domainID int64, modelName, providerFingerprint string) ([]embedding.ChunkForEmbedding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.content, c.content_hash
		FROM kb_chunks c
		JOIN kb_files f ON f.id = c.kb_file_id
		LEFT JOIN kb_chunk_embeddings e ON e.chunk_id = c.id AND e.model_name = ?
		WHERE f.domain_id = ? AND (e.chunk_id IS NULL OR e.content_hash != c.content_hash OR e.provider_fingerprint != ?)
		ORDER BY c.id`, modelName, domainID, providerFingerprint)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to query chunks needing embedding", err)
	}
	defer rows.Close()

	var out []embedding.ChunkForEmbedding
	for rows.Next() {
		var c embedding.ChunkForEmbedding
		if err := rows.Scan(&c.ChunkID, &c.Content, &c.ContentHash); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan pending-embedding chunk", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// annPreFilterK bounds how many chunks the sqlite-vec ANN index narrows a
// domain down to before the exact cosine+MMR diversity pass runs over them.
const annPreFilterK = 200

// SearchCandidates loads embedded chunks for a domain under one model,
// unpacking each stored vector, for the search package's exact cosine+MMR
// diversity pass. When the sqlite_vec build tag is active and queryVector is
// non-empty, it first narrows the candidate set to the top annPreFilterK
// nearest neighbors via the vec0 ANN index; otherwise (or on any pre-filter
// miss) it falls back to every embedded chunk in the domain, matching the
// teacher's "vector extension is an optional accelerator, not a dependency"
// posture.
func (r *KBRepo) SearchCandidates(ctx context.Context, domainID int64, modelName string, dimensions int, queryVector []float32) ([]search.Candidate, error) {
	query := `
		SELECT c.id, c.kb_file_id, c.heading_path, e.embedding
		FROM kb_chunks c
		JOIN kb_files f ON f.id = c.kb_file_id
		JOIN kb_chunk_embeddings e ON e.chunk_id = c.id AND e.model_name = ?
		WHERE f.domain_id = ?`
	args := []any{modelName, domainID}

	if vecIndexSearch != nil && len(queryVector) > 0 {
		if ids, ok := vecIndexSearch(r.db, queryVector, dimensions, annPreFilterK); ok && len(ids) > 0 {
			placeholders := make([]string, len(ids))
			idArgs := make([]any, len(ids))
			for i, id := range ids {
				placeholders[i] = "?"
				idArgs[i] = id
			}
			query += " AND c.id IN (" + strings.Join(placeholders, ",") + ")"
			args = append(args, idArgs...)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.Wrap(types.CodeDB, "failed to load search candidates", err)
	}
	defer rows.Close()

	var out []search.Candidate
	for rows.Next() {
		var cand search.Candidate
		var packed []byte
		if err := rows.Scan(&cand.ChunkID, &cand.KBFileID, &cand.HeadingPath, &packed); err != nil {
			return nil, types.Wrap(types.CodeDB, "failed to scan search candidate", err)
		}
		vec, ok := embedding.UnpackFloat32(packed, dimensions)
		if !ok {
			continue
		}
		cand.Vector = vec
		out = append(out, cand)
	}
	return out, rows.Err()
}

func (r *KBRepo) StoreEmbeddings(ctx context.Context, modelName, providerFingerprint string, results map[int64]embedding.StoredEmbedding) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Wrap(types.CodeDB, "failed to begin embedding store transaction", err)
	}
	defer tx.Rollback()

	for chunkID, se := range results {
		packed := embedding.PackFloat32(se.Vector)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kb_chunk_embeddings (chunk_id, model_name, provider_fingerprint, content_hash, embedding, dimensions)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(chunk_id, model_name) DO UPDATE SET
				provider_fingerprint = excluded.provider_fingerprint,
				content_hash = excluded.content_hash,
				embedding = excluded.embedding,
				dimensions = excluded.dimensions`,
			chunkID, modelName, providerFingerprint, se.ContentHash, packed, len(se.Vector)); err != nil {
			return types.Wrap(types.CodeDB, "failed to upsert embedding", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if vecIndexWrite != nil {
		for chunkID, se := range results {
			vecIndexWrite(r.db, chunkID, len(se.Vector), se.Vector)
		}
	}
	return nil
}
