package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/mango/pkg/loader"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/sync/singleflight"
)

// WebDocumentLoader loads content from web URLs and extracts readable text.
// For HTML pages, it uses readability to extract the main article content.
type WebDocumentLoader struct {
	fallback loader.DocumentLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewWebDocumentLoader creates a new web loader without a fallback loader.
func NewWebDocumentLoader() *WebDocumentLoader {
	return &WebDocumentLoader{
		cache: make(map[string][]byte),
	}
}

// NewWebDocumentLoaderWithFallback creates a web loader that delegates
// non-HTML responses to the given fallback loader.
func NewWebDocumentLoaderWithFallback(fallback loader.DocumentLoader) *WebDocumentLoader {
	return &WebDocumentLoader{
		fallback: fallback,
		cache:    make(map[string][]byte),
	}
}

// GetFileText fetches a URL and extracts readable text content. For HTML
// pages, readability reduces the page to its main article text; non-HTML
// responses go to the fallback loader when one is configured. Results are
// cached, and concurrent fetches of the same URL are collapsed.
func (l *WebDocumentLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
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

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status fetching url: %s", resp.Status)
		}

		contentType := resp.Header.Get("Content-Type")
		if strings.Contains(contentType, "text/html") {
			pageURL, err := url.Parse(file.Source)
			if err != nil {
				return nil, fmt.Errorf("failed to parse url: %w", err)
			}
			article, err := readability.FromReader(resp.Body, pageURL)
			if err != nil {
				return nil, fmt.Errorf("failed to parse html: %w", err)
			}
			var builder strings.Builder
			if err := article.RenderText(&builder); err != nil {
				return nil, fmt.Errorf("failed to render article text: %w", err)
			}

			text := []byte(builder.String())

			l.cacheMu.Lock()
			l.cache[key] = text
			l.cacheMu.Unlock()

			return text, nil
		}

		if l.fallback != nil {
			return l.fallback.GetFileText(ctx, file)
		}

		content, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = content
		l.cacheMu.Unlock()

		return content, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
