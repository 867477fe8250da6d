// Package retriever provides semantic nearest-neighbor lookup over ingested
// carrier documents.
//
// The engine treats retrieval as an opaque collaborator: anything that can
// answer Search with per-chunk similarity scores works. The default
// implementation embeds the query via an HTTP embedding API and searches a
// pgvector-indexed chunk table.
package retriever

import (
	"context"
	"fmt"
	"math"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"carrier-recommendation-engine/internal/services/database"
)

// ChunkMetadata identifies the carrier document a chunk came from.
type ChunkMetadata struct {
	CarrierGuess string
	ProductGuess string
	Source       string
}

// Result is one retrieved chunk with its similarity score. Similarity is
// derived from L2 distance via exp(-distance), bounded to (0, 1].
type Result struct {
	Metadata   ChunkMetadata
	Distance   float64
	Similarity float64
}

// Searcher answers semantic similarity queries over the knowledge base.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Result, error)
}

// Embedder converts text to an embedding vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// PgVectorStore searches a pgvector-indexed chunk table.
type PgVectorStore struct {
	db       *database.DB
	embedder Embedder
	logger   *zap.Logger
}

// NewPgVectorStore creates a pgvector-backed searcher.
func NewPgVectorStore(db *database.DB, embedder Embedder, logger *zap.Logger) *PgVectorStore {
	return &PgVectorStore{db: db, embedder: embedder, logger: logger}
}

// Search embeds the query and returns the topK nearest chunks by L2
// distance, with similarities on the (0, 1] scale.
func (s *PgVectorStore) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 20
	}

	vec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT carrier_guess, product_guess, source, embedding <-> $1 AS distance
		FROM kb_chunks
		ORDER BY embedding <-> $1
		LIMIT $2`,
		pgvector.NewVector(vec), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Metadata.CarrierGuess, &r.Metadata.ProductGuess, &r.Metadata.Source, &r.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		r.Similarity = math.Exp(-r.Distance)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk rows: %w", err)
	}

	s.logger.Debug("Retrieved knowledge base chunks",
		zap.Int("results", len(results)),
		zap.Int("top_k", topK),
	)

	return results, nil
}
