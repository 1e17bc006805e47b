package chunker

import (
	"regexp"
	"strings"
)

// Default window geometry. 500 characters with 50 characters of overlap
// keeps passages small enough for embedding models while preserving
// context across boundaries.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

var whitespace = regexp.MustCompile(`\s+`)

// Chunker splits normalized text into overlapping passages. Windows are
// measured in characters; a window that would cut mid-sentence snaps back
// to the last sentence terminator inside it, unless that would shrink the
// chunk below half its target size.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a Chunker. Non-positive sizes fall back to the defaults,
// and an overlap that is not smaller than the chunk size falls back too,
// since forward progress requires overlap < size.
func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 10
		}
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits text into overlapping chunks. Whitespace runs are collapsed
// to single spaces and the ends trimmed before windowing; empty input
// yields no chunks. Whitespace-only windows are dropped rather than
// emitted as empty chunks.
func (c *Chunker) Chunk(text string) []string {
	normalized := strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if len(normalized) == 0 {
		return nil
	}

	runes := []rune(normalized)
	length := len(runes)

	var chunks []string
	start := 0

	for start < length {
		end := start + c.chunkSize

		// Snap a non-final window back to the last sentence terminator,
		// but never below half the target size.
		if end < length {
			window := runes[start:end]
			if last := lastTerminator(window); float64(last) > float64(c.chunkSize)*0.5 {
				end = start + last + 1
			}
		}

		sliceEnd := end
		if sliceEnd > length {
			sliceEnd = length
		}

		chunk := strings.TrimSpace(string(runes[start:sliceEnd]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		// The advance uses the raw window end even past the text's end,
		// which is what terminates the loop.
		start = end - c.chunkOverlap
	}

	return chunks
}

// lastTerminator returns the index of the terminator character of the last
// ". ", "! " or "? " sequence in window, or -1 if none exists.
func lastTerminator(window []rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			if window[i+1] == ' ' {
				return i
			}
		}
	}
	return -1
}
