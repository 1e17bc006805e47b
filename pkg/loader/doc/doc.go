package doc

import (
	"context"
	"sync"

	"github.com/OFFIS-RIT/mango/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// DocxDocumentLoader extracts plain text from Word documents (.docx) by
// walking the XML of word/document.xml directly. Raw bytes are read through
// the wrapped loader.
type DocxDocumentLoader struct {
	loader loader.DocumentLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewDocxDocumentLoader creates a document loader that extracts text
// directly from docx XML.
func NewDocxDocumentLoader(loader loader.DocumentLoader) *DocxDocumentLoader {
	return &DocxDocumentLoader{
		loader: loader,
		cache:  make(map[string][]byte),
	}
}

// GetFileText extracts text content from a Word document. Extraction
// results are cached, and concurrent extractions of the same document are
// collapsed.
func (l *DocxDocumentLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
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

		text, err := parseDocx(content)
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
