package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/ingat/internal/cli"
	"github.com/hyperjump/ingat/internal/models"
	"github.com/hyperjump/ingat/internal/storage"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell for adding, searching and chatting",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			return NewShell(c.Memory, c.Chat, cmd.OutOrStdout()).Run(cmd.Context(), os.Stdin)
		},
	}
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a document",
		Long: `Add a document to the knowledge base. All arguments are joined by spaces.

Examples:
  ingat add The Eiffel Tower is in Paris
  ingat add --meta topic=travel "Lisbon has trams"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, _ := cmd.Flags().GetStringToString("meta")
			content := joinArgs(args)

			c, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			var metadata map[string]interface{}
			if len(meta) > 0 {
				metadata = make(map[string]interface{}, len(meta))
				for k, v := range meta {
					metadata[k] = v
				}
			}
			start := time.Now()
			id, err := c.Memory.AddDocument(cmd.Context(), content, metadata)
			if err != nil {
				return fmt.Errorf("failed to add document: %w", err)
			}
			return cli.WriteAdded(cmd.OutOrStdout(), &models.AddDocumentResponse{
				ID:           id,
				Message:      "Document added successfully",
				ResponseTime: time.Since(start).Seconds(),
			}, outputFormat(cmd))
		},
	}
	cmd.Flags().StringToString("meta", nil, "Metadata as key=value pairs")
	return cmd
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for similar documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := cmd.Flags().GetInt("k")
			query := models.SearchQuery{Query: joinArgs(args), K: k}
			if err := query.Validate(shellSearchK); err != nil {
				return err
			}

			c, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			results, err := c.Memory.Search(cmd.Context(), query.Query, query.K)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if results == nil {
				results = []*models.SearchResult{}
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), &models.SearchResponse{
				Query:        query.Query,
				Results:      results,
				ResponseTime: time.Since(start).Seconds(),
			}, outputFormat(cmd))
		},
	}
	cmd.Flags().IntP("k", "k", shellSearchK, "Number of results")
	return cmd
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show document count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			count := c.Memory.Count(cmd.Context())
			return cli.WriteCount(cmd.OutOrStdout(), count, c.Memory.MaxDocuments(), time.Since(start).Seconds(), outputFormat(cmd))
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			docs := c.Memory.ListDocuments(cmd.Context())
			return cli.WriteDocuments(cmd.OutOrStdout(), docs, time.Since(start).Seconds(), outputFormat(cmd))
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid document id %q", args[0])
			}

			c, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			doc, err := c.Memory.GetDocument(cmd.Context(), id)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("document %d not found", id)
			}
			if err != nil {
				return fmt.Errorf("failed to get document: %w", err)
			}
			return cli.WriteDocument(cmd.OutOrStdout(), doc, outputFormat(cmd))
		},
	}
}
