package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"pdf-qa-rag/internal/models"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "ingest [file.pdf...]",
		Short: "Add PDF documents to the knowledge base",
		Long: `Extracts, cleans and structures each PDF and stores it under its file name.
Ingesting a file name again replaces the earlier version.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var failed int
			for _, path := range args {
				start := time.Now()
				res, err := a.knowledge.IngestFile(cmd.Context(), path)
				if err != nil {
					cmd.PrintErrf("%s: %v\n", path, err)
					failed++
					continue
				}

				cmd.Printf("%s (%v)\n", res.Message, time.Since(start).Round(time.Millisecond))
				if stats && !res.Failed {
					if doc, ok := a.knowledge.Snapshot().Corpus.Get(res.DocumentID); ok {
						printDocumentStatistics(cmd, doc)
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be ingested", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "print chunk statistics for each document")
	return cmd
}

// printDocumentStatistics prints chunk counts and lengths per section
func printDocumentStatistics(cmd *cobra.Command, doc models.Document) {
	chunks := doc.Chunks()
	if len(chunks) == 0 {
		return
	}

	var totalLength int
	sectionCounts := make(map[string]int)
	var order []string
	for _, c := range chunks {
		totalLength += len([]rune(c.Text))
		section := c.Section
		if section == "" {
			section = "Undefined"
		}
		if _, ok := sectionCounts[section]; !ok {
			order = append(order, section)
		}
		sectionCounts[section]++
	}

	cmd.Println("Chunk Statistics:")
	cmd.Printf("  Total chunks: %d\n", len(chunks))
	cmd.Printf("  Average chunk length: %.1f characters\n", float64(totalLength)/float64(len(chunks)))
	cmd.Printf("  Number of sections: %d\n", len(order))

	// largest sections first, ties in document order
	slices.SortStableFunc(order, func(a, b string) int {
		return sectionCounts[b] - sectionCounts[a]
	})
	cmd.Println("  Section breakdown:")
	for _, section := range order {
		cmd.Printf("    %s: %d chunks\n", section, sectionCounts[section])
	}
}
