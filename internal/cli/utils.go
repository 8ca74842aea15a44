// Package cli formats ingat results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hyperjump/ingat/internal/ingest"
	"github.com/hyperjump/ingat/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// PreviewLength is how many characters of a document are shown in listings.
const PreviewLength = 100

// FormatFor returns OutputJSON when jsonOut is set, OutputText otherwise.
func FormatFor(jsonOut bool) OutputFormat {
	if jsonOut {
		return OutputJSON
	}
	return OutputText
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteResponseTime writes the timing line printed after every shell answer.
func WriteResponseTime(w io.Writer, seconds float64) {
	fmt.Fprintf(w, "[Response time: %.2f seconds]\n", seconds)
}

// Preview returns the first PreviewLength characters of content followed by "...".
// The ellipsis is always appended, even for short content.
func Preview(content string) string {
	r := []rune(content)
	if len(r) > PreviewLength {
		r = r[:PreviewLength]
	}
	return string(r) + "..."
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	if len(response.Results) == 0 {
		fmt.Fprintln(w, "No similar documents found")
	} else {
		fmt.Fprintln(w, "Similar documents:")
		for i, r := range response.Results {
			fmt.Fprintf(w, "  %d. (ID: %d, Score: %.4f) %s\n",
				i+1, r.Document.ID, r.Similarity, Preview(r.Document.Content))
		}
	}
	WriteResponseTime(w, response.ResponseTime)
	return nil
}

// WriteAnswer writes a chat response. RAG answers and direct answers are labelled differently.
func WriteAnswer(w io.Writer, response *models.ChatResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	label := "Direct Response"
	if response.UseRAG {
		label = "RAG Response"
	}
	fmt.Fprintf(w, "%s: %s\n", label, response.Response)
	WriteResponseTime(w, response.ResponseTime)
	return nil
}

// WriteAdded writes the result of adding a document.
func WriteAdded(w io.Writer, response *models.AddDocumentResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	fmt.Fprintf(w, "Added document with ID: %d\n", response.ID)
	WriteResponseTime(w, response.ResponseTime)
	return nil
}

// WriteCount writes the document count, and the limit when one is configured.
func WriteCount(w io.Writer, count, limit int64, seconds float64, format OutputFormat) error {
	if format == OutputJSON {
		out := map[string]interface{}{"count": count, "response_time": seconds}
		if limit > 0 {
			out["max_documents"] = limit
		}
		return WriteJSON(w, out)
	}
	fmt.Fprintf(w, "Document count: %d\n", count)
	if limit > 0 {
		fmt.Fprintf(w, "Document limit: %d\n", limit)
	}
	WriteResponseTime(w, seconds)
	return nil
}

// WriteDocuments writes a document listing with content previews.
func WriteDocuments(w io.Writer, docs []*models.Document, seconds float64, format OutputFormat) error {
	if format == OutputJSON {
		if docs == nil {
			docs = []*models.Document{}
		}
		return WriteJSON(w, map[string]interface{}{"documents": docs, "response_time": seconds})
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents")
	} else {
		fmt.Fprintln(w, "Documents:")
		for _, d := range docs {
			fmt.Fprintf(w, "  ID: %d, Content: %s\n", d.ID, Preview(d.Content))
		}
	}
	WriteResponseTime(w, seconds)
	return nil
}

// WriteDocument writes a single document in full.
func WriteDocument(w io.Writer, doc *models.Document, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, doc)
	}
	fmt.Fprintf(w, "ID:         %d\n", doc.ID)
	fmt.Fprintf(w, "Created at: %s\n", doc.CreatedAt.Format(time.RFC3339))
	keys := make([]string, 0, len(doc.Metadata))
	for k := range doc.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %v\n", k, doc.Metadata[k])
	}
	fmt.Fprintf(w, "\n%s\n", doc.Content)
	return nil
}

// WriteStatus writes store statistics.
func WriteStatus(w io.Writer, stats models.Stats, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, stats)
	}
	fmt.Fprintf(w, "phase:           %s\n", stats.Phase)
	fmt.Fprintf(w, "documents:       %d   # rows in the document store\n", stats.Documents)
	fmt.Fprintf(w, "index_size:      %d   # slots in the vector index\n", stats.IndexSize)
	fmt.Fprintf(w, "tombstones:      %d   # slots whose document was never stored\n", stats.Tombstones)
	fmt.Fprintf(w, "dimensions:      %d\n", stats.Dimensions)
	fmt.Fprintf(w, "cache:           %d/%d\n", stats.CacheEntries, stats.CacheCapacity)
	if stats.MaxDocuments > 0 {
		fmt.Fprintf(w, "max_documents:   %d\n", stats.MaxDocuments)
	}
	if stats.DatabaseBytes > 0 {
		fmt.Fprintf(w, "database_bytes:  %d\n", stats.DatabaseBytes)
	}
	if stats.IndexType != "" {
		fmt.Fprintf(w, "index_type:      %s\n", stats.IndexType)
	}
	if stats.EmbeddingModel != "" {
		fmt.Fprintf(w, "embedding_model: %s\n", stats.EmbeddingModel)
	}
	return nil
}

// WriteIngestSummary writes the outcome of an ingest run, one line per file.
func WriteIngestSummary(w io.Writer, summary *ingest.Summary, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, summary)
	}
	for _, f := range summary.Files {
		switch {
		case f.Error != "":
			fmt.Fprintf(w, "  failed   %s: %s\n", f.Path, f.Error)
		case f.Skipped:
			fmt.Fprintf(w, "  skipped  %s (unchanged)\n", f.Path)
		default:
			fmt.Fprintf(w, "  added    %s (%d chunks)\n", f.Path, len(f.DocumentIDs))
		}
	}
	fmt.Fprintf(w, "Ingested %d file(s), %d chunk(s); %d skipped, %d failed\n",
		summary.Ingested, summary.Chunks, summary.Skipped, summary.Failed)
	return nil
}
