// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package article synthesizes wiki-style Markdown articles from extracted
// protein records, either through the LLM writer or a deterministic
// template rendering.
package article

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/feliks-hub/protein-kb/internal/extract"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

// ChatBackend produces a free-form completion. *nebius.Client satisfies it.
type ChatBackend interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

const writerSystem = `You are a scientific writer creating a detailed wiki article in Markdown format about a specific protein, based ONLY on the structured JSON information provided. Follow the specified Markdown structure precisely. Generate complete sections based on the template.`

// Writer turns protein records into articles.
type Writer struct {
	llm      ChatBackend
	cfg      types.ArticleConfig
	progress io.Writer
}

// New creates a Writer. A nil llm selects the deterministic template
// rendering instead of the LLM writer.
func New(llm ChatBackend, cfg types.ArticleConfig, progress io.Writer) *Writer {
	if progress == nil {
		progress = io.Discard
	}
	return &Writer{llm: llm, cfg: cfg, progress: progress}
}

// ArticlePath returns where the article for a protein is written.
func (w *Writer) ArticlePath(protein string) string {
	return filepath.Join(w.cfg.OutputDir, strings.ToLower(protein)+"_article.md")
}

// Write loads the extracted record for a protein, synthesizes the article,
// and saves it. Returns the output path.
func (w *Writer) Write(ctx context.Context, protein string) (string, error) {
	record, err := extract.LoadRecord(w.cfg.KnowledgeDir, protein)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", fmt.Errorf("no extracted record for %s; run extraction first", protein)
	}

	var body string
	if w.llm != nil {
		body, err = w.synthesize(ctx, record)
		if err != nil {
			return "", fmt.Errorf("writing article for %s: %w", protein, err)
		}
	} else {
		body, err = Render(record)
		if err != nil {
			return "", fmt.Errorf("rendering article for %s: %w", protein, err)
		}
	}

	path := w.ArticlePath(protein)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("saving article: %w", err)
	}
	return path, nil
}

// synthesize asks the LLM writer to fill the Markdown template from the
// record's JSON.
func (w *Writer) synthesize(ctx context.Context, record *types.ProteinRecord) (string, error) {
	tmpl, err := w.loadTemplate()
	if err != nil {
		return "", err
	}
	recordJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}

	user := fmt.Sprintf("JSON Information:\n```json\n%s\n```\n\nMarkdown Output Structure:\n```markdown\n%s\n```\n", recordJSON, tmpl)
	body, err := w.llm.Chat(ctx, writerSystem, user)
	if err != nil {
		return "", err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("writer returned an empty article")
	}
	return body + "\n", nil
}

// loadTemplate returns the configured Markdown skeleton, or the built-in
// one when no template path is set.
func (w *Writer) loadTemplate() (string, error) {
	if w.cfg.TemplatePath == "" {
		return defaultTemplate, nil
	}
	data, err := os.ReadFile(w.cfg.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("reading template: %w", err)
	}
	return string(data), nil
}

// Summary holds counts from a batch article run.
type Summary struct {
	Written int
	Failed  int
}

// HasFailures reports whether any article failed.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

// WriteAll writes one article per protein, continuing past per-protein
// failures.
func (w *Writer) WriteAll(ctx context.Context, proteins []string) (Summary, error) {
	var summary Summary
	for _, protein := range proteins {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		path, err := w.Write(ctx, protein)
		if err != nil {
			fmt.Fprintf(w.progress, "failed  %s: %v\n", protein, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w.progress, "wrote   %s\n", path)
		summary.Written++
	}
	return summary, nil
}
