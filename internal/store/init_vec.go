//go:build sqlite_vec && cgo

package store

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/quiet-coder-io/domainos/internal/logging"
)

func init() {
	// Register the sqlite-vec extension with the mattn/go-sqlite3 driver.
	// vec.Auto() registers it as an auto-loadable extension.
	vec.Auto()

	vecIndexWrite = writeVecIndex
	vecIndexSearch = searchVecIndex
}

func vecIndexName(dimensions int) string {
	return fmt.Sprintf("vec_chunk_index_%d", dimensions)
}

// ensureVecIndex lazily creates a per-dimension vec0 virtual table keyed by
// chunk_id as an explicit rowid, mirroring the teacher's initVecIndex.
func ensureVecIndex(db *sql.DB, dimensions int) bool {
	stmt := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(chunk_id INTEGER PRIMARY KEY, embedding float[%d])",
		vecIndexName(dimensions), dimensions)
	if _, err := db.Exec(stmt); err != nil {
		logging.StoreWarn("failed to create sqlite-vec index: %v", err)
		return false
	}
	return true
}

func encodeFloat32Slice(v []float32) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func writeVecIndex(db *sql.DB, chunkID int64, dimensions int, vector []float32) {
	if !ensureVecIndex(db, dimensions) {
		return
	}
	_, err := db.Exec(
		fmt.Sprintf("INSERT OR REPLACE INTO %s (chunk_id, embedding) VALUES (?, ?)", vecIndexName(dimensions)),
		chunkID, encodeFloat32Slice(vector))
	if err != nil {
		logging.StoreWarn("failed to write sqlite-vec entry for chunk %d: %v", chunkID, err)
	}
}

// searchVecIndex finds the k nearest neighbors to query by approximate
// cosine distance, ahead of the exact cosine+MMR diversity pass.
func searchVecIndex(db *sql.DB, query []float32, dimensions, k int) ([]int64, bool) {
	if !ensureVecIndex(db, dimensions) {
		return nil, false
	}
	rows, err := db.Query(
		fmt.Sprintf(`SELECT chunk_id FROM %s WHERE embedding MATCH ? AND k = ? ORDER BY distance ASC`, vecIndexName(dimensions)),
		encodeFloat32Slice(query), k)
	if err != nil {
		logging.StoreWarn("sqlite-vec ANN query failed: %v", err)
		return nil, false
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err() == nil
}
