package text

import (
	"bytes"
	"context"

	"github.com/OFFIS-RIT/mango/pkg/loader"
)

// TextDocumentLoader loads plain text and markdown documents. Content is
// passed through as-is with line endings normalized to LF; the wrapped
// loader handles caching of the raw bytes.
type TextDocumentLoader struct {
	loader loader.DocumentLoader
}

// NewTextDocumentLoader creates a loader for plain text documents read
// through the given loader.
func NewTextDocumentLoader(loader loader.DocumentLoader) *TextDocumentLoader {
	return &TextDocumentLoader{loader: loader}
}

// GetFileText returns the document content with normalized line endings.
func (l *TextDocumentLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
	content, err := l.loader.GetFileText(ctx, file)
	if err != nil {
		return nil, err
	}

	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return content, nil
}
