// Package store is the embedded sqlite storage engine for domainos: schema
// migrations plus the repository layer the rest of the module talks to
// (spec §4.A, §4.L).
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quiet-coder-io/domainos/internal/logging"
)

// CurrentSchemaVersion tracks the additive migration ladder below.
// v1: domains, kb_files, kb_chunks, kb_chunk_embeddings, embedding_jobs
// v2: domain_relationships, deadlines, gap_flags
// v3: sessions, brainstorm_sessions, brainstorm_rounds, brainstorm_ideas
// v4: advisory_artifacts, decisions
// v5: domains.description/model_provider/model_name/sort_order, tags, commands
const CurrentSchemaVersion = 5

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_meta (version INTEGER NOT NULL)`,

	`CREATE TABLE IF NOT EXISTS domains (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		model_provider TEXT,
		model_name TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`ALTER TABLE domains ADD COLUMN description TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE domains ADD COLUMN model_provider TEXT`,
	`ALTER TABLE domains ADD COLUMN model_name TEXT`,
	`ALTER TABLE domains ADD COLUMN sort_order INTEGER NOT NULL DEFAULT 0`,

	`CREATE TABLE IF NOT EXISTS tags (
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		tag TEXT NOT NULL,
		PRIMARY KEY (domain_id, tag)
	)`,

	`CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		canonical_slug TEXT NOT NULL,
		source_hash TEXT NOT NULL DEFAULT '',
		installed_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		UNIQUE(domain_id, canonical_slug)
	)`,

	`CREATE TABLE IF NOT EXISTS kb_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		relative_path TEXT NOT NULL,
		tier TEXT NOT NULL,
		tier_source TEXT NOT NULL DEFAULT 'inferred',
		content_hash TEXT NOT NULL,
		last_semantic_update_at TEXT,
		mtime TEXT NOT NULL,
		UNIQUE(domain_id, relative_path)
	)`,

	`CREATE TABLE IF NOT EXISTS kb_chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kb_file_id INTEGER NOT NULL REFERENCES kb_files(id) ON DELETE CASCADE,
		chunk_key TEXT NOT NULL,
		heading_path TEXT NOT NULL,
		content TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		token_estimate INTEGER NOT NULL,
		UNIQUE(kb_file_id, chunk_key)
	)`,

	`CREATE TABLE IF NOT EXISTS kb_chunk_embeddings (
		chunk_id INTEGER NOT NULL REFERENCES kb_chunks(id) ON DELETE CASCADE,
		model_name TEXT NOT NULL,
		provider_fingerprint TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		embedding BLOB NOT NULL,
		dimensions INTEGER NOT NULL,
		PRIMARY KEY (chunk_id, model_name)
	)`,

	`CREATE TABLE IF NOT EXISTS embedding_jobs (
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		model_name TEXT NOT NULL,
		status TEXT NOT NULL,
		total_files INTEGER NOT NULL DEFAULT 0,
		processed_files INTEGER NOT NULL DEFAULT 0,
		total_chunks INTEGER NOT NULL DEFAULT 0,
		embedded_chunks INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		PRIMARY KEY (domain_id, model_name)
	)`,

	`CREATE TABLE IF NOT EXISTS domain_relationships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		target_domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		relationship_type TEXT NOT NULL,
		dependency_type TEXT,
		description TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS deadlines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		due_at TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 3,
		status TEXT NOT NULL DEFAULT 'active'
	)`,

	`CREATE TABLE IF NOT EXISTS gap_flags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		resolved_at TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'active',
		started_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		ended_at TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS brainstorm_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		step TEXT NOT NULL DEFAULT 'setup',
		idea_count INTEGER NOT NULL DEFAULT 0,
		selected_techniques TEXT NOT NULL DEFAULT '[]',
		paused_at TEXT,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_brainstorm_one_active_per_domain
		ON brainstorm_sessions(domain_id)
		WHERE step != 'completed'`,

	`CREATE TABLE IF NOT EXISTS brainstorm_rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES brainstorm_sessions(id) ON DELETE CASCADE,
		round_number INTEGER NOT NULL,
		technique_id TEXT NOT NULL,
		technique_name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		completed_at TEXT,
		UNIQUE(session_id, round_number)
	)`,

	`CREATE TABLE IF NOT EXISTS brainstorm_ideas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES brainstorm_sessions(id) ON DELETE CASCADE,
		round_number INTEGER NOT NULL,
		technique_id TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE TABLE IF NOT EXISTS advisory_artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		persist TEXT NOT NULL DEFAULT 'no',
		source TEXT NOT NULL DEFAULT 'llm',
		fingerprint TEXT,
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		UNIQUE(domain_id, fingerprint)
	)`,

	`CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		decision_id TEXT NOT NULL,
		decision_text TEXT NOT NULL,
		confidence TEXT,
		horizon TEXT,
		reversibility_class TEXT,
		category TEXT,
		linked_files TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,
}

// Open creates (if needed) and migrates the sqlite database at path,
// registering sqlite-vec when the sqlite_vec build tag is active.
func Open(path string) (*sql.DB, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: single writer, avoids SQLITE_BUSY under our own mutex discipline

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue // column already present; ADD COLUMN has no IF NOT EXISTS in sqlite
			}
			return fmt.Errorf("migration statement failed: %w\n%s", err, stmt)
		}
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM schema_meta`).Scan(&count); err != nil {
		return fmt.Errorf("failed to read schema_meta: %w", err)
	}
	if count == 0 {
		if _, err := tx.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, CurrentSchemaVersion); err != nil {
			return fmt.Errorf("failed to seed schema_meta: %w", err)
		}
	} else {
		if _, err := tx.Exec(`UPDATE schema_meta SET version = ?`, CurrentSchemaVersion); err != nil {
			return fmt.Errorf("failed to update schema_meta: %w", err)
		}
	}

	logging.Store("migrated schema to version %d", CurrentSchemaVersion)
	return tx.Commit()
}
