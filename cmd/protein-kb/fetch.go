// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feliks-hub/protein-kb/internal/genage"
	"github.com/feliks-hub/protein-kb/internal/uniprot"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch source datasets (GenAge gene list, UniProt protein records)",
}

var fetchGenageCmd = &cobra.Command{
	Use:   "genage",
	Short: "Download the GenAge human aging-gene list",
	Long: `Genage downloads the GenAge human genes archive and extracts
genage_human.csv into the raw data directory. The gene symbols drive the
downstream harvest and fetch stages.`,
	RunE: runFetchGenage,
}

func runFetchGenage(cmd *cobra.Command, args []string) error {
	cfg := httpConfig()
	rawDir := viper.GetString("dirs.raw")

	path, err := genage.Download(context.Background(), &http.Client{Timeout: cfg.Timeout}, rawDir)
	if err != nil {
		return err
	}
	entries, err := genage.Parse(path)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d GenAge genes to %s\n", len(entries), path)
	return nil
}

var fetchUniprotCmd = &cobra.Command{
	Use:   "uniprot [gene...]",
	Short: "Fetch UniProt records for gene symbols",
	Long: `Uniprot looks up the reviewed human UniProt entry for each gene:
accession, protein name, sequence, and cited literature titles. With no
arguments it reads genes from the downloaded GenAge list. Results go to
the raw data directory as uniprot_sequences.csv.`,
	RunE: runFetchUniprot,
}

func runFetchUniprot(cmd *cobra.Command, args []string) error {
	genes, err := resolveGenes(args)
	if err != nil {
		return err
	}

	cfg := httpConfig()
	client := uniprot.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg)

	var proteins []*types.Protein
	var missing int
	for _, gene := range genes {
		p, err := client.Fetch(context.Background(), gene)
		if err != nil {
			return err
		}
		if p == nil {
			fmt.Printf("no reviewed human entry for %s\n", gene)
			missing++
			continue
		}
		fmt.Printf("%-10s %-12s %s (%d citations)\n", p.GeneSymbol, p.UniProtID, p.ProteinName, len(p.CitationTitles))
		proteins = append(proteins, p)
	}

	outPath := filepath.Join(viper.GetString("dirs.raw"), "uniprot_sequences.csv")
	if err := uniprot.WriteCSV(outPath, proteins); err != nil {
		return err
	}
	fmt.Printf("\nSaved %d proteins to %s (%d missing)\n", len(proteins), outPath, missing)
	return nil
}

// resolveGenes returns the explicit args, or the GenAge list capped by
// --limit when no genes are given.
func resolveGenes(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	csvPath := filepath.Join(viper.GetString("dirs.raw"), "genage_human.csv")
	entries, err := genage.Parse(csvPath)
	if err != nil {
		return nil, fmt.Errorf("no genes given and GenAge list unavailable (run 'protein-kb fetch genage'): %w", err)
	}
	genes := genage.Symbols(entries, nil)

	limit := viper.GetInt("fetch.limit")
	if limit > 0 && len(genes) > limit {
		genes = genes[:limit]
	}
	return genes, nil
}

func init() {
	fetchCmd.AddCommand(fetchGenageCmd)
	fetchCmd.AddCommand(fetchUniprotCmd)
	rootCmd.AddCommand(fetchCmd)
}
