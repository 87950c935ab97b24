// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feliks-hub/protein-kb/internal/corpus"
	"github.com/feliks-hub/protein-kb/internal/extract"
	"github.com/feliks-hub/protein-kb/internal/nebius"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [protein...]",
	Short: "Extract structured protein records from the corpus with the LLM",
	Long: `Extract retrieves each protein's corpus context, runs the extraction
prompt against the Nebius API, and writes the resulting structured record
as YAML under the knowledge directory. Proteins with an existing record
are skipped unless --force is given. With no arguments the protein list
comes from the downloaded GenAge data.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	proteins, err := resolveGenes(args)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	contextChunks, _ := cmd.Flags().GetInt("context-chunks")

	llm, err := nebius.NewClient(aiConfig())
	if err != nil {
		return err
	}

	store, err := corpus.Open(corpusConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := types.ExtractionConfig{
		KnowledgeDir:  viper.GetString("dirs.knowledge"),
		ContextChunks: contextChunks,
	}
	e := extract.New(llm, store, llm, cfg, os.Stdout)

	summary, err := e.ExtractAll(context.Background(), proteins, force)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d protein(s) failed extraction", summary.Failed)
	}
	return nil
}

func init() {
	extractCmd.Flags().Bool("force", false, "re-extract proteins that already have a record")
	extractCmd.Flags().Int("context-chunks", 8, "corpus chunks to include as extraction context")
	rootCmd.AddCommand(extractCmd)
}
