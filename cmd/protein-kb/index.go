// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feliks-hub/protein-kb/internal/corpus"
	"github.com/feliks-hub/protein-kb/internal/nebius"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index harvested documents for retrieval",
	Long: `Index ingests harvested corpus documents into the SQLite index:
documents are chunked and registered for FTS5 full-text search, and with
--embed each chunk additionally gets a Nebius embedding vector for
similarity retrieval. Unchanged documents are skipped on subsequent runs.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	store, err := corpus.Open(corpusConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	summary, err := store.Ingest(ctx, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}

	embed, _ := cmd.Flags().GetBool("embed")
	if embed {
		llm, err := nebius.NewClient(aiConfig())
		if err != nil {
			return err
		}
		embSummary, err := store.EmbedPending(ctx, llm, os.Stdout)
		if err != nil {
			return err
		}
		if embSummary.Failed > 0 {
			return fmt.Errorf("%d chunk(s) failed embedding", embSummary.Failed)
		}
	}

	stats, err := store.IndexStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nindex: %d documents, %d chunks, %d embedded\n",
		stats.Documents, stats.Chunks, stats.Embedded)
	return nil
}

func init() {
	indexCmd.Flags().Bool("embed", false, "embed chunks with the Nebius embeddings API")
	rootCmd.AddCommand(indexCmd)
}
