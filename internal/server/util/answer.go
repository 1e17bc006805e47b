package util

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/OFFIS-RIT/mango/pkg/common"
)

// Context lines at or below this length are skipped when composing the
// extract. Source tags for short file names fall under it.
const minExtractLength = 20

const maxExtractLines = 3

// BuildContext renders retrieved passages as source-tagged blocks
// separated by blank lines.
func BuildContext(results []common.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("[Source: %s]\n%s", r.Passage.DocumentName, r.Passage.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// SynthesizeAnswer composes the extractive template response: up to
// three long-enough context lines followed by a pointer back to the
// query. Without any context it reports that nothing relevant was
// found.
func SynthesizeAnswer(query string, results []common.SearchResult) string {
	var b strings.Builder
	b.WriteString("Based on the provided documents:\n\n")

	context := BuildContext(results)
	if context == "" {
		b.WriteString("I couldn't find relevant information in the documents to answer your query.")
		return b.String()
	}

	relevant := make([]string, 0, maxExtractLines)
	for _, line := range strings.Split(context, "\n") {
		if strings.TrimSpace(line) == "" || utf8.RuneCountInString(line) <= minExtractLength {
			continue
		}
		relevant = append(relevant, line)
		if len(relevant) == maxExtractLines {
			break
		}
	}

	b.WriteString(strings.Join(relevant, "\n"))
	b.WriteString(fmt.Sprintf("\n\nThis information is relevant to your query: '%s'", query))
	return b.String()
}

// MeanScore averages the result scores. No results means zero
// confidence.
func MeanScore(results []common.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}

	sum := 0.0
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}
