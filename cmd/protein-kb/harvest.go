// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feliks-hub/protein-kb/internal/harvest"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest [gene...]",
	Short: "Harvest open-access full-text articles for genes into the corpus",
	Long: `Harvest searches Europe PMC for open-access human studies mentioning
each gene, fetches the full-text XML of every hit, and saves each article
as a JSON corpus document. Articles already harvested for another gene get
the new gene merged into their protein hits. With no arguments the gene
list comes from the downloaded GenAge data.`,
	RunE: runHarvest,
}

func runHarvest(cmd *cobra.Command, args []string) error {
	genes, err := resolveGenes(args)
	if err != nil {
		return err
	}

	maxHarvest, _ := cmd.Flags().GetInt("max")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	saveXML, _ := cmd.Flags().GetBool("save-xml")
	allSpecies, _ := cmd.Flags().GetBool("all-species")

	cfg := types.HarvestConfig{
		CorpusDir:      viper.GetString("dirs.corpus"),
		PageSize:       pageSize,
		MaxHarvest:     maxHarvest,
		OpenAccessOnly: true,
		HumanOnly:      !allSpecies,
		SaveXML:        saveXML,
	}

	h := harvest.New(newEPMCClient(), cfg, os.Stdout)
	summary, err := h.HarvestAll(context.Background(), genes)
	if err != nil {
		return err
	}

	fmt.Printf("\nHarvested %d documents across %d genes\n", summary.Total(), len(summary.Genes))
	if summary.HasFailures() {
		return fmt.Errorf("some documents failed to harvest")
	}
	return nil
}

func init() {
	harvestCmd.Flags().Int("max", 25, "maximum articles to collect per gene (0 = unlimited)")
	harvestCmd.Flags().Int("page-size", 25, "Europe PMC search page size")
	harvestCmd.Flags().Bool("save-xml", false, "keep the raw JATS XML in corpus documents")
	harvestCmd.Flags().Bool("all-species", false, "do not restrict the search to human studies")
	rootCmd.AddCommand(harvestCmd)
}
