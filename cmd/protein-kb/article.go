// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feliks-hub/protein-kb/internal/article"
	"github.com/feliks-hub/protein-kb/internal/nebius"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

var articleCmd = &cobra.Command{
	Use:   "article [protein...]",
	Short: "Write wiki articles from extracted protein records",
	Long: `Article loads each protein's extracted record and synthesizes a
Markdown wiki article into the articles directory. By default the Nebius
writer model fills the article template; --no-llm renders the record
directly through the built-in template instead.`,
	RunE: runArticle,
}

func runArticle(cmd *cobra.Command, args []string) error {
	proteins, err := resolveGenes(args)
	if err != nil {
		return err
	}
	noLLM, _ := cmd.Flags().GetBool("no-llm")
	templatePath, _ := cmd.Flags().GetString("template")

	var llm article.ChatBackend
	if !noLLM {
		client, err := nebius.NewClient(aiConfig())
		if err != nil {
			return err
		}
		llm = client
	}

	cfg := types.ArticleConfig{
		KnowledgeDir: viper.GetString("dirs.knowledge"),
		OutputDir:    viper.GetString("dirs.articles"),
		TemplatePath: templatePath,
	}
	w := article.New(llm, cfg, os.Stdout)

	summary, err := w.WriteAll(context.Background(), proteins)
	if err != nil {
		return err
	}
	fmt.Printf("\nwrote %d article(s)\n", summary.Written)
	if summary.HasFailures() {
		return fmt.Errorf("%d article(s) failed", summary.Failed)
	}
	return nil
}

func init() {
	articleCmd.Flags().Bool("no-llm", false, "render articles from the template without the LLM writer")
	articleCmd.Flags().String("template", "", "Markdown template file for the LLM writer")
	rootCmd.AddCommand(articleCmd)
}
