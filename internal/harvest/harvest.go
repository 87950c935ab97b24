// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest bulk-collects open-access full-text articles mentioning
// target genes from Europe PMC into a JSON document corpus on disk.
package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/feliks-hub/protein-kb/internal/epmc"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

// Harvester drives cursor-paginated gene searches and saves the results.
type Harvester struct {
	client   *epmc.Client
	cfg      types.HarvestConfig
	progress io.Writer
}

// New creates a Harvester. progress receives one line per page and per
// save; pass io.Discard to silence it.
func New(client *epmc.Client, cfg types.HarvestConfig, progress io.Writer) *Harvester {
	if progress == nil {
		progress = io.Discard
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	return &Harvester{client: client, cfg: cfg, progress: progress}
}

// Query builds the Europe PMC search query for a gene, restricted to
// open-access human studies when so configured.
func (h *Harvester) Query(gene string) string {
	var parts []string
	parts = append(parts, fmt.Sprintf(`(TEXT:"%s")`, gene))
	if h.cfg.OpenAccessOnly {
		parts = append(parts, "OPEN_ACCESS:Y")
	}
	if h.cfg.HumanOnly {
		parts = append(parts, `(TAXON_ID:9606 OR ORGANISM:"Homo sapiens")`)
	}
	return strings.Join(parts, " AND ")
}

// GeneSummary reports what one gene's harvest did.
type GeneSummary struct {
	Gene     string `json:"gene"`
	HitCount int    `json:"hit_count"`
	Saved    int    `json:"saved"`
	Merged   int    `json:"merged"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// Summary aggregates per-gene results across a batch run.
type Summary struct {
	Genes []GeneSummary `json:"genes"`
}

// Total returns the number of documents saved or merged across all genes.
func (s *Summary) Total() int {
	var n int
	for _, g := range s.Genes {
		n += g.Saved + g.Merged
	}
	return n
}

// HasFailures reports whether any gene had failed document fetches.
func (s *Summary) HasFailures() bool {
	for _, g := range s.Genes {
		if g.Failed > 0 {
			return true
		}
	}
	return false
}

// HarvestAll harvests each gene in turn. Per-gene failures are recorded in
// the summary, not returned, so one bad gene does not stop the batch.
func (h *Harvester) HarvestAll(ctx context.Context, genes []string) (*Summary, error) {
	summary := &Summary{}
	for _, gene := range genes {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		gs, err := h.HarvestGene(ctx, gene)
		if err != nil {
			fmt.Fprintf(h.progress, "harvest failed for %s: %v\n", gene, err)
			gs = &GeneSummary{Gene: gene, Failed: 1}
		}
		summary.Genes = append(summary.Genes, *gs)
	}
	return summary, nil
}

// HarvestGene walks the cursor-paginated search for one gene, fetching full
// text for every hit with a PMCID and saving it as a corpus document.
// A document already saved from another gene's harvest gets the new gene
// merged into its protein hits instead of a refetch.
func (h *Harvester) HarvestGene(ctx context.Context, gene string) (*GeneSummary, error) {
	gs := &GeneSummary{Gene: gene}
	query := h.Query(gene)
	fmt.Fprintf(h.progress, "harvesting %s: %s\n", gene, query)

	cursor := "*"
	var collected int
	for {
		hits, next, total, err := h.client.SearchPage(ctx, query, cursor, h.cfg.PageSize)
		if err != nil {
			return gs, fmt.Errorf("searching for %s: %w", gene, err)
		}
		gs.HitCount = total

		for _, art := range hits {
			if h.cfg.MaxHarvest > 0 && collected >= h.cfg.MaxHarvest {
				return gs, nil
			}
			if art.PMCID == "" {
				gs.Skipped++
				continue
			}
			collected++
			switch saved, err := h.saveArticle(ctx, gene, art); {
			case err != nil:
				gs.Failed++
				fmt.Fprintf(h.progress, "  %s: %v\n", art.PMCID, err)
			case saved:
				gs.Saved++
			default:
				gs.Merged++
			}
		}

		if next == "" || next == cursor || len(hits) == 0 {
			return gs, nil
		}
		if h.cfg.MaxHarvest > 0 && collected >= h.cfg.MaxHarvest {
			return gs, nil
		}
		cursor = next
	}
}

// saveArticle writes the corpus document for an article, or merges the gene
// into an existing document. Returns true when a new document was written.
func (h *Harvester) saveArticle(ctx context.Context, gene string, art types.Article) (bool, error) {
	path := h.DocumentPath(art.PMCID)

	if existing, err := readDocument(path); err == nil {
		if !containsFold(existing.ProteinHits, gene) {
			existing.ProteinHits = append(existing.ProteinHits, gene)
			if err := writeDocument(path, existing); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	ft, err := h.client.FullText(ctx, art)
	if err != nil {
		return false, err
	}

	doc := &types.CorpusDocument{
		PMCID:       art.PMCID,
		DOI:         art.DOI,
		Title:       art.Title,
		Year:        art.Year,
		Journal:     art.Journal,
		ProteinHits: []string{gene},
		PlainText:   ft.Text,
		SourceURL:   art.SourceURL,
	}
	if h.cfg.SaveXML {
		doc.XML = ft.XML
	}
	if doc.PlainText == "" {
		doc.PlainText = ft.Abstract
	}

	if err := writeDocument(path, doc); err != nil {
		return false, err
	}
	fmt.Fprintf(h.progress, "  saved %s: %s\n", art.PMCID, truncate(art.Title, 60))
	return true, nil
}

// DocumentPath returns where the corpus document for a PMCID lives.
func (h *Harvester) DocumentPath(pmcid string) string {
	return filepath.Join(h.cfg.CorpusDir, pmcid+".json")
}

func readDocument(path string) (*types.CorpusDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc types.CorpusDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &doc, nil
}

func writeDocument(path string, doc *types.CorpusDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating corpus directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func containsFold(list []string, item string) bool {
	for _, v := range list {
		if strings.EqualFold(v, item) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
