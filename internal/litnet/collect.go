// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package litnet

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
)

// GeneNetwork is the expansion result for one gene: the full network plus
// the top-ranked nodes kept for downstream stages.
type GeneNetwork struct {
	Gene      string  `json:"gene"`
	UniProtID string  `json:"uniprot_id,omitempty"`
	Network   Network `json:"network"`
	Top       []*Node `json:"top"`
}

// Collect expands the network for one gene from its seed references
// (typically UniProt citation titles) and keeps the keep highest-scoring
// nodes. uniprotID annotates the result and may be empty.
func (e *Expander) Collect(ctx context.Context, gene, uniprotID string, seeds []string, keep int) (*GeneNetwork, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed references for gene %s", gene)
	}
	net, err := e.Expand(ctx, seeds)
	if err != nil {
		return nil, fmt.Errorf("expanding network for %s: %w", gene, err)
	}
	return &GeneNetwork{
		Gene:      gene,
		UniProtID: uniprotID,
		Network:   *net,
		Top:       net.Top(keep),
	}, nil
}

// WriteJSON persists a gene network under dir as <gene>.json, creating the
// directory if needed.
func (gn *GeneNetwork) WriteJSON(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating network directory: %w", err)
	}
	path := filepath.Join(dir, strings.ToLower(gn.Gene)+".json")
	data, err := json.MarshalIndent(gn, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding network: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing network: %w", err)
	}
	return path, nil
}

// FormatTable writes nodes as an aligned table for terminal output.
func FormatTable(w io.Writer, nodes []*Node) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tDEPTH\tYEAR\tRELATION\tKEY\tTITLE")
	for _, node := range nodes {
		fmt.Fprintf(tw, "%.3f\t%d\t%d\t%s\t%s\t%s\n",
			node.Score,
			node.Depth,
			node.Article.Year,
			node.PrimaryRelation(),
			node.Key,
			truncate(node.Article.Title, 70),
		)
	}
	tw.Flush()
}

// FormatCSV writes nodes as CSV rows with a header.
func FormatCSV(w io.Writer, nodes []*Node) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"score", "depth", "year", "primary_relation", "relations", "key", "title"}); err != nil {
		return err
	}
	for _, node := range nodes {
		row := []string{
			strconv.FormatFloat(node.Score, 'f', 4, 64),
			strconv.Itoa(node.Depth),
			strconv.Itoa(node.Article.Year),
			node.PrimaryRelation(),
			strings.Join(node.Relations, ";"),
			node.Key,
			node.Article.Title,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatJSON writes nodes as indented JSON.
func FormatJSON(w io.Writer, nodes []*Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(nodes)
}
