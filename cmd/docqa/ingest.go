package main

import (
	"fmt"

	"github.com/siherrmann/docqa/model"
	"github.com/spf13/cobra"
)

func ingestCMD(load loader) *cobra.Command {
	var collection string
	ingest := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Index documents into a collection",
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

			for _, path := range args {
				doc, err := model.NewDocumentFromFile(path, nil)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}

				result, err := d.IngestInto(cmd.Context(), collection, doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks stored in %s\n", result.DocumentID, result.Chunks, result.Collection)
			}
			return nil
		},
	}
	ingest.Flags().StringVar(&collection, "collection", "", "target collection (default from config)")

	return ingest
}
