package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/ingat/internal/cli"
	"github.com/hyperjump/ingat/internal/extract"
)

func newIngestCmd() *cobra.Command {
	formats := strings.Join(extract.NewExtractor().Extensions(), " ")
	return &cobra.Command{
		Use:   "ingest <file-or-directory>",
		Short: "Extract, chunk and add files",
		Long: `Extract text from a file, or from every matching file under a directory,
split it into overlapping word chunks and add each chunk as a document.
Files whose content was already ingested from the same path are skipped.

Supported formats: ` + formats + `

Examples:
  ingat ingest notes.md
  ingat ingest ~/Documents/manuals`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			summary, err := c.Ingester.IngestPath(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			return cli.WriteIngestSummary(cmd.OutOrStdout(), summary, outputFormat(cmd))
		},
	}
}
