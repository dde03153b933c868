package main

import (
	"github.com/spf13/cobra"
)

func newSectionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the section titles in the knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			printSections(cmd, a.knowledge.Sections())
			return nil
		},
	}
}

func newDocumentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List the stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			docs := a.knowledge.Documents()
			if len(docs) == 0 {
				cmd.Println("No documents ingested.")
				return nil
			}
			for _, d := range docs {
				if d.Failed {
					cmd.Printf("  %s: extraction failed\n", d.ID)
					continue
				}
				cmd.Printf("  %s: %d sections, %d chunks\n", d.ID, d.Sections, d.Chunks)
			}
			return nil
		},
	}
}

func printSections(cmd *cobra.Command, sections []string) {
	if len(sections) == 0 {
		cmd.Println("No sections available.")
		return
	}

	cmd.Println("Available Sections:")
	for _, section := range sections {
		cmd.Println("  " + section)
	}
}
