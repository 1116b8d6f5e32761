package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/siherrmann/docqa/model"
	"github.com/spf13/cobra"
)

func askCMD(load loader) *cobra.Command {
	var collection string
	var sources bool
	var asJSON bool
	ask := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a question from the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := load()
			if err != nil {
				return err
			}
			defer d.Close()

			if collection == "" {
				collection = d.DefaultCollection()
			}

			answer, err := d.AnswerFrom(cmd.Context(), collection, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(answer, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal answer: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
			if sources {
				printSources(cmd, answer.Sources)
			}
			return nil
		},
	}
	ask.Flags().StringVar(&collection, "collection", "", "collection to ask (default from config)")
	ask.Flags().BoolVar(&sources, "sources", false, "print the retrieved chunks")
	ask.Flags().BoolVar(&asJSON, "json", false, "output the answer as JSON")

	return ask
}

func printSources(cmd *cobra.Command, results []*model.RetrievalResult) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Sources:")
	for i, r := range results {
		// Format: [N] document#chunk (score) snippet
		snippet := strings.ReplaceAll(r.Record.Text, "\n", " ")
		if len([]rune(snippet)) > 80 {
			snippet = string([]rune(snippet)[:80]) + "..."
		}
		index, _ := r.Record.Metadata.Int(model.MetadataChunkIndex)
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s#%d (%.3f) %s\n", i+1, r.Record.Metadata.String(model.MetadataDocumentID), index, r.Score, snippet)
	}
}
