// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feliks-hub/protein-kb/internal/litnet"
	"github.com/feliks-hub/protein-kb/internal/uniprot"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

var networkCmd = &cobra.Command{
	Use:   "network [reference...]",
	Short: "Expand and score a literature reference network",
	Long: `Network resolves seed references (DOIs, PMIDs, PMCIDs, or titles)
against Europe PMC, walks their references and citations breadth-first,
and ranks every reached paper by a composite of recency, functional
content, and longevity relevance.

With --gene the seeds are the cited literature of the gene's UniProt
entry, and the ranked network is written to the networks directory.`,
	RunE: runNetwork,
}

func runNetwork(cmd *cobra.Command, args []string) error {
	gene, _ := cmd.Flags().GetString("gene")
	if len(args) == 0 && gene == "" {
		return fmt.Errorf("seed references or --gene required")
	}

	depth, _ := cmd.Flags().GetInt("depth")
	relations, _ := cmd.Flags().GetStringSlice("relations")
	top, _ := cmd.Flags().GetInt("top")
	output, _ := cmd.Flags().GetString("output")

	netCfg := types.NetworkConfig{
		MaxDepth:     depth,
		Relations:    relations,
		RequestDelay: viper.GetDuration("network.request_delay"),
	}
	weights := scoringWeights()

	expander := litnet.NewExpander(newEPMCClient(), netCfg, weights, os.Stderr)
	ctx := context.Background()

	var nodes []*litnet.Node
	if gene != "" {
		httpCfg := httpConfig()
		up := uniprot.NewClient(&http.Client{Timeout: httpCfg.Timeout}, httpCfg)
		protein, err := up.Fetch(ctx, gene)
		if err != nil {
			return err
		}
		if protein == nil {
			return fmt.Errorf("no reviewed human UniProt entry for %s", gene)
		}
		seeds := append(protein.CitationTitles, args...)

		gn, err := expander.Collect(ctx, gene, protein.UniProtID, seeds, top)
		if err != nil {
			return err
		}
		path, err := gn.WriteJSON(viper.GetString("dirs.networks"))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "network saved to %s\n", path)
		nodes = gn.Top
	} else {
		net, err := expander.Expand(ctx, args)
		if err != nil {
			return err
		}
		nodes = net.Top(top)
	}

	switch output {
	case "table", "":
		litnet.FormatTable(os.Stdout, nodes)
	case "csv":
		return litnet.FormatCSV(os.Stdout, nodes)
	case "json":
		return litnet.FormatJSON(os.Stdout, nodes)
	default:
		return fmt.Errorf("unsupported output %q: use table, csv, or json", output)
	}
	return nil
}

// scoringWeights reads the composite score weights, falling back to the
// standard recency/function/longevity split.
func scoringWeights() types.ScoringWeights {
	w := types.ScoringWeights{
		Year:      viper.GetFloat64("scoring.year"),
		Function:  viper.GetFloat64("scoring.function"),
		Longevity: viper.GetFloat64("scoring.longevity"),
	}
	if w.Year+w.Function+w.Longevity <= 0 {
		w = types.ScoringWeights{Year: 0.4, Function: 0.35, Longevity: 0.25}
	}
	return w
}

func init() {
	networkCmd.Flags().String("gene", "", "seed from this gene's UniProt citation titles")
	networkCmd.Flags().Int("depth", 1, "BFS expansion depth")
	networkCmd.Flags().StringSlice("relations", nil, "relations to follow: reference, citation (default both)")
	networkCmd.Flags().Int("top", 25, "number of top-scored nodes to keep (0 = all)")
	networkCmd.Flags().String("output", "table", "output format: table, csv, or json")
	rootCmd.AddCommand(networkCmd)
}
