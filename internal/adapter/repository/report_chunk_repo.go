package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"research-orchestrator/internal/domain"
)

type reportChunkRepository struct {
	pool *pgxpool.Pool
}

// NewReportChunkRepository creates a similarity searcher over report_chunks.
func NewReportChunkRepository(pool *pgxpool.Pool) domain.ReportChunkSearcher {
	return &reportChunkRepository{pool: pool}
}

func (r *reportChunkRepository) SearchChunks(ctx context.Context, embedding []float32, title, season string, topK int) ([]domain.ReportChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	query := `
		SELECT source, title, season, week, chunk_index, total_chunks, content,
		       1 - (embedding <=> $1) AS similarity
		FROM report_chunks
		WHERE title = $2 AND season = $3
		ORDER BY embedding <=> $1
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(embedding), title, season, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query report chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ReportChunk
	for rows.Next() {
		var c domain.ReportChunk
		if err := rows.Scan(&c.Source, &c.Title, &c.Season, &c.Week, &c.ChunkIndex,
			&c.TotalChunks, &c.Content, &c.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan report chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return chunks, nil
}
