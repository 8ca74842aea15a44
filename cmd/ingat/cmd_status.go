package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperjump/ingat/internal/cli"
	"github.com/hyperjump/ingat/internal/config"
	"github.com/hyperjump/ingat/internal/storage"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show memory, index and storage status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			stats := c.Memory.Stats(cmd.Context())
			stats.IndexType = c.Config.Vector.IndexType
			stats.EmbeddingModel = c.Config.Embedding.Model
			if c.Config.Storage.DatabasePath != config.MemoryDatabase {
				if n, err := storage.DatabaseSizeBytes(c.Config.Storage.DatabasePath); err == nil {
					stats.DatabaseBytes = n
				}
			}
			return cli.WriteStatus(cmd.OutOrStdout(), stats, outputFormat(cmd))
		},
	}
}
