package main

import (
	"os"

	"github.com/spf13/cobra"

	"pdf-qa-rag/internal/config"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pdfqa",
		Short: "Answer questions from uploaded PDF documents",
		Long: `pdfqa extracts, cleans and structures PDF documents into a knowledge base
and answers natural-language questions from it with attributed excerpts.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		newInitCmd(opts),
		newIngestCmd(opts),
		newAskCmd(opts),
		newSectionsCmd(opts),
		newDocumentsCmd(opts),
		newServeCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
