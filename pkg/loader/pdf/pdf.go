package pdf

import (
	"context"
	"sync"

	"github.com/OFFIS-RIT/mango/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// PDFDocumentLoader extracts plain text from PDF documents using poppler's
// pdftotext. Raw bytes are read through the wrapped loader.
type PDFDocumentLoader struct {
	loader loader.DocumentLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFDocumentLoader creates a PDF loader that extracts text from PDF
// content fetched through the given loader.
func NewPDFDocumentLoader(loader loader.DocumentLoader) *PDFDocumentLoader {
	return &PDFDocumentLoader{
		loader: loader,
		cache:  make(map[string][]byte),
	}
}

// GetFileText extracts text from a PDF document. Extraction results are
// cached, and concurrent extractions of the same document are collapsed.
func (l *PDFDocumentLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}

		text, err := parsePDF(ctx, content)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = text
		l.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
