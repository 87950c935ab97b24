// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"io"
)

// Embedder turns texts into vectors. *nebius.Client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// embedBatchSize is how many chunks go to the embeddings API per call.
const embedBatchSize = 16

// EmbedSummary holds counts from an embedding run.
type EmbedSummary struct {
	Embedded int
	Failed   int
}

// EmbedPending embeds every chunk that does not have a vector yet, in
// batches. A failed batch is counted and skipped so the run can finish;
// rerunning picks the failures up again.
func (s *Store) EmbedPending(ctx context.Context, embedder Embedder, w io.Writer) (EmbedSummary, error) {
	var summary EmbedSummary

	pending, err := s.PendingChunks(ctx, 0)
	if err != nil {
		return summary, err
	}
	if len(pending) == 0 {
		fmt.Fprintln(w, "all chunks embedded")
		return summary, nil
	}

	for start := 0; start < len(pending); start += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Content
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			fmt.Fprintf(w, "failed  batch of %d: %v\n", len(batch), err)
			summary.Failed += len(batch)
			continue
		}
		for i, p := range batch {
			if err := s.SetEmbedding(ctx, p.ID, vectors[i]); err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", p.ID, err)
				summary.Failed++
				continue
			}
			summary.Embedded++
		}
	}

	fmt.Fprintf(w, "\nembedded: %d, failed: %d\n", summary.Embedded, summary.Failed)
	return summary, nil
}

// Retrieve answers a query against the index. With an embedder and an
// embedded corpus it uses vector similarity; otherwise it falls back to
// full-text search.
func (s *Store) Retrieve(ctx context.Context, embedder Embedder, opts QueryOptions) ([]ChunkHit, error) {
	if embedder != nil {
		stats, err := s.IndexStats(ctx)
		if err != nil {
			return nil, err
		}
		if stats.Embedded > 0 {
			vecs, err := embedder.Embed(ctx, []string{opts.Query})
			if err != nil {
				return nil, fmt.Errorf("embedding query: %w", err)
			}
			return s.SimilarChunks(ctx, vecs[0], opts)
		}
	}
	return s.Search(ctx, opts)
}
