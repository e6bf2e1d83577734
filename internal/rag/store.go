package rag

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

func init() {
	// Register the sqlite-vec extension with the mattn/go-sqlite3 driver.
	vec.Auto()
}

// Chunk is one stored document fragment with its provenance.
type Chunk struct {
	Content    string
	SourcePath string
	ChunkIndex int
}

// Match is one similarity-search hit. Source is the originating file path
// as stored at ingestion time.
type Match struct {
	Content  string
	Source   string
	Distance float64
}

// VectorStore persists document chunk embeddings in a sqlite-vec vec0
// virtual table and serves cosine-distance searches over them.
type VectorStore struct {
	db    *sql.DB
	table string
	dims  int
}

// OpenVectorStore opens (creating if needed) the vector store at path.
func OpenVectorStore(path, table string, dims int) (*VectorStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify vector db: %w", err)
	}

	s := &VectorStore{db: db, table: table, dims: dims}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *VectorStore) ensureSchema() error {
	query := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
		embedding float[%d],
		content TEXT,
		source_path TEXT,
		chunk_index INTEGER
	)`, s.table, s.dims)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create vec table %s: %w", s.table, err)
	}
	return nil
}

// Reset drops and recreates the vec table. Ingestion runs are idempotent
// because every run starts from an empty table.
func (s *VectorStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", s.table)); err != nil {
		return fmt.Errorf("drop vec table %s: %w", s.table, err)
	}
	return s.ensureSchema()
}

// Add stores chunks with their embeddings. len(chunks) must equal len(embeddings).
func (s *VectorStore) Add(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vec insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (embedding, content, source_path, chunk_index) VALUES (?, ?, ?, ?)", s.table))
	if err != nil {
		return fmt.Errorf("prepare vec insert: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		blob := encodeFloat32SliceToBlob(embeddings[i])
		if blob == nil {
			return fmt.Errorf("encode embedding for chunk %d", i)
		}
		if _, err := stmt.ExecContext(ctx, blob, chunk.Content, chunk.SourcePath, chunk.ChunkIndex); err != nil {
			return fmt.Errorf("insert chunk %d (%s): %w", i, chunk.SourcePath, err)
		}
	}

	return tx.Commit()
}

// Search returns the topK nearest chunks by cosine distance.
func (s *VectorStore) Search(ctx context.Context, embedding []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}

	queryBlob := encodeFloat32SliceToBlob(embedding)
	query := fmt.Sprintf(`
		SELECT
			content,
			source_path,
			vec_distance_cosine(embedding, ?) AS distance
		FROM %s
		ORDER BY distance ASC
		LIMIT ?
	`, s.table)

	rows, err := s.db.QueryContext(ctx, query, queryBlob, topK)
	if err != nil {
		return nil, fmt.Errorf("vec search: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Content, &m.Source, &m.Distance); err != nil {
			logx.Warn().Err(err).Msg("failed to scan vec search row")
			continue
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vec search rows: %w", err)
	}

	logx.Debug().Int("matches", len(matches)).Int("top_k", topK).Msg("vector search complete")
	return matches, nil
}

// Count returns the number of stored chunks.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vec rows: %w", err)
	}
	return n, nil
}

func (s *VectorStore) Close() error {
	return s.db.Close()
}

// encodeFloat32SliceToBlob serializes an embedding in the little-endian
// float32 layout sqlite-vec expects.
func encodeFloat32SliceToBlob(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil
	}
	return buf.Bytes()
}
