// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feliks-hub/protein-kb/internal/corpus"
	"github.com/feliks-hub/protein-kb/internal/harvest"
	"github.com/feliks-hub/protein-kb/internal/nebius"
	"github.com/feliks-hub/protein-kb/internal/server"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge base over HTTP",
	Long: `Serve exposes the pipeline over HTTP: health and index stats,
on-demand per-gene harvesting, corpus queries, and extracted protein
records. The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	maxHarvest, _ := cmd.Flags().GetInt("max-harvest")

	store, err := corpus.Open(corpusConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	harvestCfg := types.HarvestConfig{
		CorpusDir:      viper.GetString("dirs.corpus"),
		MaxHarvest:     maxHarvest,
		OpenAccessOnly: true,
		HumanOnly:      true,
	}
	harvester := harvest.New(newEPMCClient(), harvestCfg, io.Discard)

	var embedder corpus.Embedder
	var llm server.ChatBackend
	if client, err := nebius.NewClient(aiConfig()); err == nil {
		embedder = client
		llm = client
	}

	srv := server.New(harvester, store, embedder, llm, viper.GetString("dirs.knowledge"), types.ServerConfig{Addr: addr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Int("max-harvest", 10, "per-request cap on harvested articles")
	rootCmd.AddCommand(serveCmd)
}
