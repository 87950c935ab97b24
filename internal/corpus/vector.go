// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// PendingChunk is a chunk awaiting an embedding.
type PendingChunk struct {
	ID      string
	Content string
}

// PendingChunks lists chunks without embeddings, oldest documents first,
// up to limit. A zero limit returns everything.
func (s *Store) PendingChunks(ctx context.Context, limit int) ([]PendingChunk, error) {
	query := `SELECT id, content FROM chunks WHERE embedding IS NULL ORDER BY pmcid, seq`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pending chunks: %w", err)
	}
	defer rows.Close()

	var pending []PendingChunk
	for rows.Next() {
		var p PendingChunk
		if err := rows.Scan(&p.ID, &p.Content); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// SetEmbedding stores the vector for a chunk as a JSON array.
func (s *Store) SetEmbedding(ctx context.Context, chunkID string, vec []float64) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding for chunk %s", chunkID)
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encoding embedding: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE chunks SET embedding = ? WHERE id = ?`, string(data), chunkID)
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown chunk %s", chunkID)
	}
	return nil
}

// SimilarChunks ranks embedded chunks by cosine similarity to the query
// vector. The scan is brute force over all embedded chunks, which is fine
// at corpus scale; hits carry the similarity in Rank (higher is better).
func (s *Store) SimilarChunks(ctx context.Context, queryVec []float64, opts QueryOptions) ([]ChunkHit, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxHits
	}

	query := `SELECT c.id, c.pmcid, c.seq, c.content, c.embedding,
			d.title, d.year, d.journal, d.source_url
		FROM chunks c
		LEFT JOIN documents d ON c.pmcid = d.pmcid
		WHERE c.embedding IS NOT NULL`
	args := []any{}
	if opts.Protein != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(d.protein_hits) WHERE upper(value) = upper(?))`
		args = append(args, opts.Protein)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying embedded chunks: %w", err)
	}
	defer rows.Close()

	var hits []ChunkHit
	for rows.Next() {
		var (
			hit     ChunkHit
			embJSON string
			title   sql.NullString
			year    sql.NullInt64
			journal sql.NullString
			srcURL  sql.NullString
		)
		if err := rows.Scan(&hit.ChunkID, &hit.PMCID, &hit.Seq, &hit.Content,
			&embJSON, &title, &year, &journal, &srcURL); err != nil {
			return nil, err
		}
		var vec []float64
		if err := json.Unmarshal([]byte(embJSON), &vec); err != nil {
			continue
		}
		hit.Title = title.String
		hit.Year = int(year.Int64)
		hit.Journal = journal.String
		hit.SourceURL = srcURL.String
		hit.Rank = Cosine(queryVec, vec)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Rank > hits[j].Rank })
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

// Cosine returns the cosine similarity of two vectors, or 0 when the
// dimensions disagree or either vector is zero.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
