package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/ingat/internal/cli"
	"github.com/hyperjump/ingat/internal/models"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <query>",
		Short: "Answer a query using the most similar documents as context",
		Long: `Answer a query with the generation model. Retrieved documents are added
to the prompt unless --rag=false is given.

Examples:
  ingat chat where is the Eiffel Tower
  ingat chat --rag=false tell me a joke`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			useRAG, _ := cmd.Flags().GetBool("rag")
			return runChat(cmd, args, useRAG)
		},
	}
	cmd.Flags().Bool("rag", true, "Use retrieved documents as context")
	return cmd
}

func newDirectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "direct <query>",
		Short: "Answer a query without retrieval",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, args, false)
		},
	}
}

func runChat(cmd *cobra.Command, args []string, useRAG bool) error {
	query := models.ChatQuery{Query: joinArgs(args), UseRAG: &useRAG}
	if err := query.Validate(); err != nil {
		return err
	}

	c, err := setup(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	var response string
	if query.RAGEnabled() {
		response = c.Chat.Chat(cmd.Context(), query.Query, true)
	} else {
		response = c.Chat.Direct(cmd.Context(), query.Query)
	}
	return cli.WriteAnswer(cmd.OutOrStdout(), &models.ChatResponse{
		Response:     response,
		UseRAG:       query.RAGEnabled(),
		ResponseTime: time.Since(start).Seconds(),
	}, outputFormat(cmd))
}
