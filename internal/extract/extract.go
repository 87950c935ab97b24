// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract runs the LLM extraction stage: corpus context in,
// structured protein records out.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/feliks-hub/protein-kb/internal/corpus"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

const extractedDir = "extracted"

// ChatBackend produces a JSON completion from a system and user message.
// *nebius.Client satisfies it.
type ChatBackend interface {
	ChatJSON(ctx context.Context, system, user string) (string, error)
}

// Extractor builds protein records from corpus context.
type Extractor struct {
	llm      ChatBackend
	store    *corpus.Store
	embedder corpus.Embedder
	cfg      types.ExtractionConfig
	progress io.Writer
}

// New creates an Extractor. embedder may be nil, in which case context
// retrieval uses full-text search only.
func New(llm ChatBackend, store *corpus.Store, embedder corpus.Embedder, cfg types.ExtractionConfig, progress io.Writer) *Extractor {
	if progress == nil {
		progress = io.Discard
	}
	if cfg.ContextChunks <= 0 {
		cfg.ContextChunks = 8
	}
	return &Extractor{llm: llm, store: store, embedder: embedder, cfg: cfg, progress: progress}
}

// Extract retrieves corpus context for a protein, runs the extraction
// prompt, and returns the parsed record. It fails when the corpus has no
// context for the protein or the model returns unusable JSON.
func (e *Extractor) Extract(ctx context.Context, protein string) (*types.ProteinRecord, error) {
	hits, err := e.store.Retrieve(ctx, e.embedder, corpus.QueryOptions{
		Query:      fmt.Sprintf("What is the function of %s?", protein),
		Protein:    protein,
		MaxResults: e.cfg.ContextChunks,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving context for %s: %w", protein, err)
	}
	if len(hits) == 0 {
		// The question may match nothing verbatim; fall back to the
		// protein's own document chunks.
		hits, err = e.store.ChunksByProtein(ctx, protein, e.cfg.ContextChunks)
		if err != nil {
			return nil, fmt.Errorf("retrieving context for %s: %w", protein, err)
		}
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("no corpus context for %s; harvest and index first", protein)
	}

	data := promptData{Protein: protein}
	for _, hit := range hits {
		data.Chunks = append(data.Chunks, contextChunk{
			PMCID:   hit.PMCID,
			Title:   hit.Title,
			Content: hit.Content,
		})
	}
	var prompt strings.Builder
	if err := extractionPrompt.Execute(&prompt, data); err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := e.llm.ChatJSON(ctx, extractionSystem, prompt.String())
	if err != nil {
		return nil, fmt.Errorf("extraction call for %s: %w", protein, err)
	}

	record, err := ParseRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing extraction for %s: %w", protein, err)
	}
	if record.ProteinInfo.Symbol == "" {
		record.ProteinInfo.Symbol = strings.ToUpper(protein)
	}
	if record.GeneInfo.Symbol == "" {
		record.GeneInfo.Symbol = strings.ToUpper(protein)
	}
	return record, nil
}

// ParseRecord decodes a model response into a ProteinRecord. Responses
// wrapped in code fences are unwrapped; empty records are rejected.
func ParseRecord(raw string) (*types.ProteinRecord, error) {
	cleaned := stripFences(raw)
	var record types.ProteinRecord
	if err := json.Unmarshal([]byte(cleaned), &record); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if record.IsEmpty() {
		return nil, fmt.Errorf("record carries no extracted content")
	}
	return &record, nil
}

// RecordPath returns where the record for a protein is stored.
func RecordPath(knowledgeDir, protein string) string {
	return filepath.Join(knowledgeDir, extractedDir, strings.ToLower(protein)+"-record.yaml")
}

// WriteRecord persists a record as YAML under the knowledge directory and
// returns the path.
func WriteRecord(knowledgeDir, protein string, record *types.ProteinRecord) (string, error) {
	path := RecordPath(knowledgeDir, protein)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating extracted directory: %w", err)
	}
	data, err := yaml.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing record: %w", err)
	}
	return path, nil
}

// LoadRecord reads a previously extracted record. Returns nil when no
// record exists for the protein.
func LoadRecord(knowledgeDir, protein string) (*types.ProteinRecord, error) {
	data, err := os.ReadFile(RecordPath(knowledgeDir, protein))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	var record types.ProteinRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}
	return &record, nil
}

// Summary holds counts from a batch extraction run.
type Summary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of proteins processed.
func (s Summary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any extraction failed.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

// ExtractAll runs extraction for each protein. Existing records are
// skipped unless force is set; per-protein failures are reported and do
// not stop the batch.
func (e *Extractor) ExtractAll(ctx context.Context, proteins []string, force bool) (Summary, error) {
	var summary Summary
	for _, protein := range proteins {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		path := RecordPath(e.cfg.KnowledgeDir, protein)
		if !force {
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(e.progress, "skipped %s\n", protein)
				summary.Skipped++
				continue
			}
		}

		record, err := e.Extract(ctx, protein)
		if err != nil {
			fmt.Fprintf(e.progress, "failed  %s: %v\n", protein, err)
			summary.Failed++
			continue
		}
		if _, err := WriteRecord(e.cfg.KnowledgeDir, protein, record); err != nil {
			fmt.Fprintf(e.progress, "failed  %s: %v\n", protein, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(e.progress, "extracted %s\n", protein)
		summary.Extracted++
	}

	fmt.Fprintf(e.progress, "\nextracted: %d, skipped: %d, failed: %d\n",
		summary.Extracted, summary.Skipped, summary.Failed)
	return summary, nil
}
