// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feliks-hub/protein-kb/internal/corpus"
	"github.com/feliks-hub/protein-kb/internal/nebius"
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Query the indexed corpus",
	Long: `Query searches the corpus index. When chunks have embeddings and a
Nebius key is configured the query runs as vector similarity; otherwise it
falls back to FTS5 full-text search. Results carry the source PMCID so
findings can be traced back to the paper.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	queryText := strings.Join(args, " ")
	protein, _ := cmd.Flags().GetString("protein")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := corpus.Open(corpusConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	// Vector retrieval is best effort: without a key, FTS still answers.
	var embedder corpus.Embedder
	if client, err := nebius.NewClient(aiConfig()); err == nil {
		embedder = client
	}

	hits, err := store.Retrieve(context.Background(), embedder, corpus.QueryOptions{
		Query:      queryText,
		Protein:    protein,
		MaxResults: limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, hit := range hits {
		fmt.Printf("%d. [%s] %s (%d)\n", i+1, hit.PMCID, hit.Title, hit.Year)
		content := strings.Join(strings.Fields(hit.Content), " ")
		if len(content) > 240 {
			content = content[:237] + "..."
		}
		fmt.Printf("   %s\n\n", content)
	}
	fmt.Printf("%d results\n", len(hits))
	return nil
}

func init() {
	queryCmd.Flags().String("protein", "", "restrict to documents harvested for this gene")
	queryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}
