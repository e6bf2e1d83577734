package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logx "github.com/xyadam/delaware-hybrid-langgraph/pkg/logger"
)

const embedBatchSize = 32

// Ingester rebuilds the vector store from a directory of product technical
// sheets (plain-text or markdown exports).
type Ingester struct {
	store        *VectorStore
	embedder     *Embedder
	chunkSize    int
	chunkOverlap int
}

func NewIngester(store *VectorStore, embedder *Embedder, chunkSize, chunkOverlap int) *Ingester {
	return &Ingester{
		store:        store,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// IngestDir wipes the vector table and loads every .txt/.md file under dir.
// Returns the number of files and chunks ingested.
func (in *Ingester) IngestDir(ctx context.Context, dir string) (files, chunks int, err error) {
	paths, err := listDocs(dir)
	if err != nil {
		return 0, 0, err
	}
	if len(paths) == 0 {
		logx.Warn().Str("dir", dir).Msg("no documents found, nothing to ingest")
		return 0, 0, nil
	}

	if err := in.store.Reset(ctx); err != nil {
		return 0, 0, err
	}

	for _, path := range paths {
		n, err := in.ingestFile(ctx, dir, path)
		if err != nil {
			return files, chunks, fmt.Errorf("ingest %s: %w", path, err)
		}
		logx.Info().Str("file", filepath.Base(path)).Int("chunks", n).Msg("document ingested")
		files++
		chunks += n
	}

	return files, chunks, nil
}

func (in *Ingester) ingestFile(ctx context.Context, root, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pieces := SplitText(string(data), in.chunkSize, in.chunkOverlap)
	if len(pieces) == 0 {
		return 0, nil
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	total := 0
	for start := 0; start < len(pieces); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch := pieces[start:end]

		embeddings, err := in.embedder.EmbedDocuments(ctx, batch)
		if err != nil {
			return total, err
		}

		chunks := make([]Chunk, len(batch))
		for i, content := range batch {
			chunks[i] = Chunk{
				Content:    content,
				SourcePath: rel,
				ChunkIndex: start + i,
			}
		}
		if err := in.store.Add(ctx, chunks, embeddings); err != nil {
			return total, err
		}
		total += len(batch)
	}

	return total, nil
}

func listDocs(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk docs dir %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
