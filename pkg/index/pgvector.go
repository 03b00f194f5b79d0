package index

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/askdoc/askdoc/internal/models"
	"github.com/askdoc/askdoc/internal/types"
)

// PgVectorConfig represents the configuration for the Postgres-backed
// index.
type PgVectorConfig struct {
	ConnString string
	TableName  string
}

// PgVector stores segment embeddings in a pgvector table. It keeps the
// same one-document-at-a-time semantics as the memory index: Build
// wipes the table before inserting, so every upload replaces the index
// wholesale.
type PgVector struct {
	config   PgVectorConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
	dim      int
	count    int
}

func NewPgVectorWithConfig(config PgVectorConfig, embedder types.Embedder) (*PgVector, error) {
	if config.TableName == "" {
		config.TableName = "segments"
	}
	if config.ConnString == "" {
		return nil, fmt.Errorf("database connection string is required")
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PgVector{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}, nil
}

func (p *PgVector) initialize(ctx context.Context, dim int) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			content TEXT NOT NULL,
			source_offset INTEGER,
			position INTEGER,
			embedding vector(%d)
		)`, p.config.TableName, dim)

	if _, err := p.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Build embeds the segments and replaces the table contents with them.
// The same drop-on-failure policy as the memory index applies.
func (p *PgVector) Build(ctx context.Context, segments []models.Segment) error {
	kept := make([]models.Segment, 0, len(segments))
	vectors := make([][]float32, 0, len(segments))
	dim := 0

	for _, seg := range segments {
		vec, err := p.embedder.Embed(ctx, seg.Text)
		if err != nil {
			log.Printf("warning: dropping segment %s at offset %d: %v", seg.ID, seg.SourceOffset, err)
			continue
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			log.Printf("warning: dropping segment %s: got %d-dim vector, index is %d-dim", seg.ID, len(vec), dim)
			continue
		}
		kept = append(kept, seg)
		vectors = append(vectors, vec)
	}

	if len(kept) == 0 {
		return ErrNoSegments
	}

	if err := p.initialize(ctx, dim); err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// One document at a time: clear whatever the previous upload left.
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", p.config.TableName)); err != nil {
		return fmt.Errorf("failed to clear previous index: %w", err)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, content, source_offset, position, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`, p.config.TableName)

	for i, seg := range kept {
		_, err := tx.Exec(ctx, stmt,
			seg.ID,
			seg.DocumentID,
			seg.Text,
			seg.SourceOffset,
			i,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert segment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	p.dim = dim
	p.count = len(kept)
	return nil
}

// Search embeds the query and ranks stored segments by cosine
// similarity, ties broken by ingestion position.
func (p *PgVector) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if p.count == 0 {
		return []models.SearchResult{}, nil
	}

	queryVec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryVec) != p.dim {
		return nil, fmt.Errorf("%w: query is %d-dim, index is %d-dim", ErrDimensionMismatch, len(queryVec), p.dim)
	}

	sql := fmt.Sprintf(`
		SELECT id, content, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, position
		LIMIT $2`, p.config.TableName)

	rows, err := p.pool.Query(ctx, sql, pgvector.NewVector(queryVec), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		r := models.SearchResult{Source: models.SourceDocument}
		if err := rows.Scan(&r.SegmentID, &r.Text, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, r)
	}
	if results == nil {
		results = []models.SearchResult{}
	}

	return results, rows.Err()
}

func (p *PgVector) Len() int {
	return p.count
}

func (p *PgVector) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
