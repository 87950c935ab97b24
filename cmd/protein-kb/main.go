// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the protein-kb CLI: a pipeline that
// turns gene lists into a literature-grounded protein knowledge base.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feliks-hub/protein-kb/internal/epmc"
	"github.com/feliks-hub/protein-kb/internal/secrets"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .env at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, else the loaded secret for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the protein-kb CLI.
var rootCmd = &cobra.Command{
	Use:   "protein-kb",
	Short: "Build a protein sequence-to-function knowledge base from open literature",
	Long: `protein-kb collects open-access literature about target proteins from
Europe PMC, expands and scores reference networks, indexes the corpus in
SQLite with full-text and vector retrieval, and distills it into structured
protein records and wiki articles.

Each pipeline stage is a subcommand: fetch, harvest, network, index,
extract, article, query, and serve.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".env")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./protein-kb.yaml or ~/.config/protein-kb/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("protein-kb")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "protein-kb"))
		}
	}

	viper.SetEnvPrefix("PROTEIN_KB")
	viper.AutomaticEnv()

	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("dirs.raw", "data/raw")
	viper.SetDefault("dirs.corpus", "data/corpus")
	viper.SetDefault("dirs.networks", "data/networks")
	viper.SetDefault("dirs.articles", "data/articles")
	viper.SetDefault("dirs.knowledge", "knowledge")
	viper.SetDefault("corpus.db_path", "data/index/corpus.db")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// httpConfig builds the shared HTTP client settings.
func httpConfig() types.HTTPConfig {
	timeout := viper.GetDuration("http.timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return types.HTTPConfig{
		Timeout:   timeout,
		UserAgent: "protein-kb/" + version,
	}
}

// newEPMCClient builds the shared Europe PMC client.
func newEPMCClient() *epmc.Client {
	cfg := httpConfig()
	return epmc.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg)
}

// aiConfig assembles Nebius settings from config and secrets.
func aiConfig() types.AIConfig {
	return types.AIConfig{
		BaseURL:        viper.GetString("ai.base_url"),
		Model:          viper.GetString("ai.model"),
		EmbeddingModel: viper.GetString("ai.embedding_model"),
		APIKey:         secretDefault("NEBIUS_API_KEY", viper.GetString("ai.api_key")),
		MaxRetries:     viper.GetInt("ai.max_retries"),
	}
}

// corpusConfig assembles the corpus store settings.
func corpusConfig() types.CorpusConfig {
	return types.CorpusConfig{
		CorpusDir:    viper.GetString("dirs.corpus"),
		DBPath:       viper.GetString("corpus.db_path"),
		ChunkSize:    viper.GetInt("corpus.chunk_size"),
		ChunkOverlap: viper.GetInt("corpus.chunk_overlap"),
		MaxResults:   viper.GetInt("corpus.max_results"),
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the protein-kb version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("protein-kb %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
