// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package uniprot fetches human protein records from the UniProt REST API.
package uniprot

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/feliks-hub/protein-kb/internal/httputil"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

// uniprotBase is the UniProt REST root, a var so tests can point at an
// httptest server.
var uniprotBase = "https://rest.uniprot.org"

// Client queries UniProtKB.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a Client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(httpClient *http.Client, cfg types.HTTPConfig) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, userAgent: cfg.UserAgent}
}

type searchResponse struct {
	Results []entry `json:"results"`
}

type entry struct {
	PrimaryAccession   string `json:"primaryAccession"`
	ProteinDescription struct {
		RecommendedName struct {
			FullName struct {
				Value string `json:"value"`
			} `json:"fullName"`
		} `json:"recommendedName"`
	} `json:"proteinDescription"`
	Sequence struct {
		Value string `json:"value"`
	} `json:"sequence"`
	References []struct {
		Citation struct {
			Title string `json:"title"`
		} `json:"citation"`
	} `json:"references"`
}

// Fetch looks up the reviewed human entry for a gene symbol: accession,
// protein name, sequence, and the titles of the entry's cited literature
// (used downstream as network seeds). Returns nil when UniProt has no
// reviewed human entry for the gene.
func (c *Client) Fetch(ctx context.Context, gene string) (*types.Protein, error) {
	query := fmt.Sprintf("gene_exact:%s AND organism_id:9606 AND reviewed:true", gene)
	params := url.Values{
		"query":  {query},
		"format": {"json"},
		"size":   {"1"},
		"fields": {"accession,protein_name,sequence"},
	}
	var sr searchResponse
	if err := c.getJSON(ctx, "/uniprotkb/search?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("searching UniProt for %s: %w", gene, err)
	}
	if len(sr.Results) == 0 {
		return nil, nil
	}
	hit := sr.Results[0]

	protein := &types.Protein{
		GeneSymbol:  gene,
		UniProtID:   hit.PrimaryAccession,
		ProteinName: hit.ProteinDescription.RecommendedName.FullName.Value,
		Sequence:    hit.Sequence.Value,
	}

	// The search endpoint strips references; the entry endpoint has them.
	var full entry
	if err := c.getJSON(ctx, "/uniprotkb/"+hit.PrimaryAccession+".json", &full); err != nil {
		return nil, fmt.Errorf("fetching UniProt entry %s: %w", hit.PrimaryAccession, err)
	}
	for _, ref := range full.References {
		if title := ref.Citation.Title; title != "" {
			protein.CitationTitles = append(protein.CitationTitles, title)
		}
	}
	return protein, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uniprotBase+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("UniProt returned HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// WriteCSV writes proteins to path as CSV, one row per gene, creating the
// parent directory if needed.
func WriteCSV(path string, proteins []*types.Protein) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"gene_symbol", "uniprot_id", "protein_name", "sequence"}); err != nil {
		return err
	}
	for _, p := range proteins {
		if err := w.Write([]string{p.GeneSymbol, p.UniProtID, p.ProteinName, p.Sequence}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
