package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"research-orchestrator/internal/domain"
)

const (
	// MaxImagesTotal caps the assembled image inventory. Backend-declared
	// images take the slots first, then crawl-extracted ones in page order.
	MaxImagesTotal = 20

	noResultsMessage = "No valid search results found. Please try different search queries or use a different search API."
)

var sourceSeparator = strings.Repeat("-", 80)

// Assembler renders the final pipeline payload: per-source summary blocks,
// the image inventory, and the machine-readable search log embedded in an
// HTML comment for downstream extraction.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble joins the summarized results into one text payload. Sources whose
// summarization was interrupted are dropped; searchLog.ProcessedCount is set
// to the number of blocks actually emitted.
func (a *Assembler) Assemble(set *domain.UniqueResultSet, summaries []SummarizedResult, images []domain.ImageRef, searchLog *domain.SearchLog) string {
	urls := set.URLs()

	var blocks []string
	for i, url := range urls {
		if i >= len(summaries) || !summaries[i].Done {
			continue
		}
		entry := set.Get(url)
		if entry == nil {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("--- SOURCE %d: %s ---\nURL: %s\n\nSUMMARY:\n%s\n\n%s\n",
			len(blocks)+1, entry.Title, url, summaries[i].Content, sourceSeparator))
	}

	var sb strings.Builder
	if len(blocks) == 0 {
		// Keep the log trailer even when every source failed so callers can
		// still diagnose what was attempted.
		sb.WriteString(noResultsMessage)
		appendSearchLog(&sb, searchLog, 0)
		return sb.String()
	}

	sb.WriteString("Search results: \n\n")
	sb.WriteString(strings.Join(blocks, "\n"))

	if len(images) > 0 {
		sb.WriteString("\n")
		sb.WriteString(formatImageInventory(images))
	}

	appendSearchLog(&sb, searchLog, len(blocks))
	return sb.String()
}

func appendSearchLog(sb *strings.Builder, searchLog *domain.SearchLog, processed int) {
	if searchLog == nil {
		return
	}
	searchLog.ProcessedCount = processed
	encoded, err := json.MarshalIndent(searchLog, "", "  ")
	if err != nil {
		return
	}
	sb.WriteString("\n\n<!-- SEARCH_LOG_JSON\n")
	sb.Write(encoded)
	sb.WriteString("\n-->\n")
}

func formatImageInventory(images []domain.ImageRef) string {
	if len(images) > MaxImagesTotal {
		images = images[:MaxImagesTotal]
	}

	var sb strings.Builder
	sb.WriteString("=== AVAILABLE IMAGES FROM SEARCH RESULTS ===\n\n")
	sb.WriteString("The following images were found in the sources above. ")
	sb.WriteString("Embed relevant ones in your report using markdown image syntax: ![description](image_url)\n\n")
	for i, img := range images {
		fmt.Fprintf(&sb, "[Image %d] %s\n", i+1, img.URL)
		if img.SourceTitle != "" || img.SourceURL != "" {
			fmt.Fprintf(&sb, "    From: %s (%s)\n", img.SourceTitle, img.SourceURL)
		}
	}
	sb.WriteString("\n=== END OF IMAGES ===\n")
	return sb.String()
}
