package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pdf-qa-rag/internal/models"
	"pdf-qa-rag/internal/service"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the knowledge base",
		Long: `Answers a single question, or starts an interactive session with -i.
In interactive mode, /sections lists the available sections and exit quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !interactive && len(args) == 0 {
				return errors.New("a question is required, or use -i for interactive mode")
			}

			a, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if interactive {
				return runInteractiveMode(cmd, a.knowledge, asJSON)
			}
			return answerQuestion(cmd, a.knowledge, strings.Join(args, " "), asJSON)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "run in interactive mode")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")
	return cmd
}

func runInteractiveMode(cmd *cobra.Command, k *service.Knowledge, asJSON bool) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())

	cmd.Println("PDF Assistant - Ask questions about the loaded documents (type 'exit' to quit)")
	for {
		cmd.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/sections":
			printSections(cmd, k.Sections())
			continue
		}

		if err := answerQuestion(cmd, k, input, asJSON); err != nil {
			cmd.Printf("Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func answerQuestion(cmd *cobra.Command, k *service.Knowledge, question string, asJSON bool) error {
	resp, err := k.Ask(cmd.Context(), question)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(formatResponse(resp))
	return nil
}

// formatResponse renders an answer with its source line
func formatResponse(resp *models.Response) string {
	if resp.DocumentID == "" {
		return resp.Text
	}

	source := resp.DocumentID
	if resp.Section != "" {
		source += " > " + resp.Section
	}
	if resp.Subsection != "" && resp.Subsection != models.DefaultSubsection {
		source += " > " + resp.Subsection
	}
	return fmt.Sprintf("%s\n\nSource: %s (%.2f)", resp.Text, source, resp.Score)
}
