package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/ingat/internal/cli"
	"github.com/hyperjump/ingat/internal/models"
)

// shellSearchK is the number of hits shown by the shell's search command.
const shellSearchK = 3

// ShellMemory is the part of the memory store the shell drives.
type ShellMemory interface {
	AddDocument(ctx context.Context, content string, metadata map[string]interface{}) (int64, error)
	Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error)
	Count(ctx context.Context) int64
	ListDocuments(ctx context.Context) []*models.Document
}

// Chatter answers a query with or without retrieval.
type Chatter interface {
	Chat(ctx context.Context, query string, useRAG bool) string
}

// Shell is the interactive command loop. Text that is not a command is sent to chat
// using the session's RAG mode.
type Shell struct {
	memory ShellMemory
	chat   Chatter
	out    io.Writer
	useRAG bool
}

// NewShell creates a shell writing to out.
func NewShell(memory ShellMemory, chat Chatter, out io.Writer) *Shell {
	return &Shell{memory: memory, chat: chat, out: out}
}

// RAG reports whether plain queries currently use retrieval.
func (s *Shell) RAG() bool {
	return s.useRAG
}

// Run prints the banner and executes lines from in until quit or end of input.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "=== ingat ===")
	fmt.Fprintln(s.out, "Type 'quit' to exit")
	fmt.Fprintln(s.out, "Type 'help' for available commands")
	count := s.memory.Count(ctx)
	fmt.Fprintf(s.out, "Documents in knowledge base: %d\n", count)
	if count > 0 {
		s.useRAG = true
		fmt.Fprintln(s.out, "RAG mode: Enabled (will use documents for context)")
	} else {
		s.useRAG = false
		fmt.Fprintln(s.out, "RAG mode: Disabled (no documents available)")
	}
	fmt.Fprintln(s.out)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out, "\nGoodbye!")
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.Execute(ctx, scanner.Text()) {
			return nil
		}
	}
}

// Execute runs a single input line. It returns false when the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	name, arg := splitCommand(line)
	switch name {
	case "quit", "exit":
		fmt.Fprintln(s.out, "Goodbye!")
		return false
	case "help":
		s.help()
	case "clear":
		fmt.Fprint(s.out, "\033[H\033[2J")
	case "count":
		start := time.Now()
		count := s.memory.Count(ctx)
		_ = cli.WriteCount(s.out, count, 0, time.Since(start).Seconds(), cli.OutputText)
	case "list":
		start := time.Now()
		docs := s.memory.ListDocuments(ctx)
		_ = cli.WriteDocuments(s.out, docs, time.Since(start).Seconds(), cli.OutputText)
	case "rag":
		switch strings.ToLower(arg) {
		case "on":
			s.useRAG = true
			fmt.Fprintln(s.out, "RAG mode: Enabled")
		case "off":
			s.useRAG = false
			fmt.Fprintln(s.out, "RAG mode: Disabled")
		default:
			fmt.Fprintln(s.out, "Usage: rag on/off")
		}
	case "add":
		if arg == "" {
			fmt.Fprintln(s.out, "Please provide content to add")
			return true
		}
		s.add(ctx, arg)
	case "search":
		if arg == "" {
			fmt.Fprintln(s.out, "Please provide a query")
			return true
		}
		s.search(ctx, arg)
	case "chat", "ask":
		if arg == "" {
			fmt.Fprintln(s.out, "Please provide a query")
			return true
		}
		s.answer(ctx, arg, true)
	case "direct":
		if arg == "" {
			fmt.Fprintln(s.out, "Please provide a query")
			return true
		}
		s.answer(ctx, arg, false)
	default:
		s.answer(ctx, line, s.useRAG)
	}
	return true
}

// splitCommand returns the lowercased first word of a recognised command and the rest of
// the line. Lines that do not start with a command yield an empty name.
func splitCommand(line string) (name, arg string) {
	word := line
	rest := ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		word, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	word = strings.ToLower(word)
	switch word {
	case "quit", "exit", "help", "clear", "count", "list":
		if rest != "" {
			return "", ""
		}
		return word, ""
	case "rag", "add", "search", "chat", "ask", "direct":
		return word, rest
	}
	return "", ""
}

func (s *Shell) help() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  add <content>     - Add a document to the knowledge base")
	fmt.Fprintln(s.out, "  chat <query>      - Chat with the model (with RAG)")
	fmt.Fprintln(s.out, "  ask <query>       - Same as chat")
	fmt.Fprintln(s.out, "  direct <query>    - Chat with the model (without RAG)")
	fmt.Fprintln(s.out, "  search <query>    - Search for similar documents")
	fmt.Fprintln(s.out, "  count             - Show document count")
	fmt.Fprintln(s.out, "  list              - List all documents")
	fmt.Fprintln(s.out, "  rag on/off        - Enable/disable RAG for plain queries")
	fmt.Fprintln(s.out, "  clear             - Clear the screen")
	fmt.Fprintln(s.out, "  help              - Show this help")
	fmt.Fprintln(s.out, "  quit              - Exit the program")
}

func (s *Shell) add(ctx context.Context, content string) {
	start := time.Now()
	id, err := s.memory.AddDocument(ctx, content, nil)
	if err != nil {
		fmt.Fprintf(s.out, "Failed to add document: %v\n", err)
		return
	}
	_ = cli.WriteAdded(s.out, &models.AddDocumentResponse{ID: id, ResponseTime: time.Since(start).Seconds()}, cli.OutputText)
	if !s.useRAG {
		s.useRAG = true
		fmt.Fprintln(s.out, "RAG mode: Enabled (automatically)")
	}
}

func (s *Shell) search(ctx context.Context, query string) {
	start := time.Now()
	results, err := s.memory.Search(ctx, query, shellSearchK)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	_ = cli.WriteSearchResults(s.out, &models.SearchResponse{
		Query:        query,
		Results:      results,
		ResponseTime: time.Since(start).Seconds(),
	}, cli.OutputText)
}

func (s *Shell) answer(ctx context.Context, query string, useRAG bool) {
	start := time.Now()
	response := s.chat.Chat(ctx, query, useRAG)
	_ = cli.WriteAnswer(s.out, &models.ChatResponse{
		Response:     response,
		UseRAG:       useRAG,
		ResponseTime: time.Since(start).Seconds(),
	}, cli.OutputText)
}
