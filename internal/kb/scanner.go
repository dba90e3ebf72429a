package kb

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quiet-coder-io/domainos/internal/logging"
)

// ignoredDirs mirrors spec §4.B's fixed ignore set.
var ignoredDirs = map[string]bool{
	"node_modules": true, ".git": true, ".worktrees": true, "dist": true,
	"out": true, "build": true, ".next": true, ".cache": true,
	"coverage": true, "__pycache__": true,
}

// ScannedFile is one walked markdown file, content-hashed.
type ScannedFile struct {
	RelativePath string
	AbsolutePath string
	ContentHash  string
	SizeBytes    int64
}

// Scan walks kbPath recursively and returns every .md file whose path does
// not pass through an ignored directory, content-hashed with SHA-256.
func Scan(kbPath string) ([]ScannedFile, error) {
	timer := logging.StartTimer(logging.CategoryScanner, "Scan")
	defer timer.Stop()

	var results []ScannedFile
	err := filepath.WalkDir(kbPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != kbPath && ignoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		rel, err := filepath.Rel(kbPath, path)
		if err != nil {
			return err
		}
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if ignoredDirs[part] {
				return nil
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logging.Get(logging.CategoryScanner).Warn("failed to read %s: %v", path, err)
			return nil
		}
		sum := sha256.Sum256(data)

		results = append(results, ScannedFile{
			RelativePath: filepath.ToSlash(rel),
			AbsolutePath: path,
			ContentHash:  hex.EncodeToString(sum[:]),
			SizeBytes:    int64(len(data)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.ScannerDebug("scanned %s: %d markdown files", kbPath, len(results))
	return results, nil
}

// SyncCounts reports the effect of a sync pass.
type SyncCounts struct {
	Added   int
	Updated int
	Deleted int
}

// ExistingFile is the subset of a stored KBFile row the sync algorithm
// needs to diff against a fresh scan.
type ExistingFile struct {
	ID           int64
	RelativePath string
	ContentHash  string
	TierSource   string
}

// SyncDecision is the per-file action the repository layer must apply.
type SyncDecision struct {
	RelativePath string
	Action       string // "insert", "update", "delete", "noop"
	RecomputeTier bool
	ScannedFile  ScannedFile // zero for deletes
	ExistingID   int64       // zero for inserts
}

// PlanSync is the pure diffing half of spec §4.B's sync algorithm: given the
// currently stored files and a fresh scan, it decides add/update/delete
// without touching the database. The caller applies the decisions inside
// one transaction and reports SyncCounts.
func PlanSync(existing []ExistingFile, scanned []ScannedFile) []SyncDecision {
	byPath := make(map[string]ExistingFile, len(existing))
	for _, e := range existing {
		byPath[e.RelativePath] = e
	}
	seen := make(map[string]bool, len(scanned))

	var decisions []SyncDecision
	for _, sf := range scanned {
		seen[sf.RelativePath] = true
		e, ok := byPath[sf.RelativePath]
		if !ok {
			decisions = append(decisions, SyncDecision{RelativePath: sf.RelativePath, Action: "insert", RecomputeTier: true, ScannedFile: sf})
			continue
		}
		if e.ContentHash == sf.ContentHash {
			continue // no write
		}
		recompute := e.TierSource != "manual"
		decisions = append(decisions, SyncDecision{
			RelativePath: sf.RelativePath, Action: "update", RecomputeTier: recompute,
			ScannedFile: sf, ExistingID: e.ID,
		})
	}

	for _, e := range existing {
		if !seen[e.RelativePath] {
			decisions = append(decisions, SyncDecision{RelativePath: e.RelativePath, Action: "delete", ExistingID: e.ID})
		}
	}
	return decisions
}

// CountSync tallies a decision list into the {added, updated, deleted}
// shape spec.md's sync() returns.
func CountSync(decisions []SyncDecision) SyncCounts {
	var c SyncCounts
	for _, d := range decisions {
		switch d.Action {
		case "insert":
			c.Added++
		case "update":
			c.Updated++
		case "delete":
			c.Deleted++
		}
	}
	return c
}
