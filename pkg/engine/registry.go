package engine

import (
	"sync"
	"time"

	"github.com/OFFIS-RIT/mango/pkg/common"
)

// registry is the in-process document table. Listing preserves insertion
// order. State lives for the process lifetime only; restarts start with
// an empty registry even when the index snapshot restores passages.
type registry struct {
	mu    sync.RWMutex
	docs  map[string]common.Document
	order []string
}

func newRegistry() registry {
	return registry{
		docs: make(map[string]common.Document),
	}
}

func (r *registry) add(doc common.Document) common.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.Status == "" {
		doc.Status = common.StatusPending
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	if _, exists := r.docs[doc.ID]; !exists {
		r.order = append(r.order, doc.ID)
	}
	r.docs[doc.ID] = doc
	return doc
}

func (r *registry) get(id string) (common.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	return doc, ok
}

func (r *registry) list() []common.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]common.Document, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.docs[id])
	}
	return out
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.docs)
}

func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return false
	}
	delete(r.docs, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry) setStatus(id, status, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return
	}
	doc.Status = status
	doc.Error = errMsg
	r.docs[id] = doc
}

func (r *registry) markIndexed(id string, chunks, tokens int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return
	}
	doc.Status = common.StatusIndexed
	doc.Error = ""
	doc.Chunks = chunks
	doc.Tokens = tokens
	r.docs[id] = doc
}

// RegisterDocument adds a document record to the registry and returns
// it with defaults applied. A record without a status starts out
// pending; a zero upload time is set to now.
func (e *Engine) RegisterDocument(doc common.Document) common.Document {
	return e.registry.add(doc)
}

// GetDocument returns the registry record for the given id.
func (e *Engine) GetDocument(id string) (common.Document, bool) {
	return e.registry.get(id)
}

// ListDocuments returns all registry records in upload order.
func (e *Engine) ListDocuments() []common.Document {
	return e.registry.list()
}

// DocumentCount returns the number of registered documents.
func (e *Engine) DocumentCount() int {
	return e.registry.count()
}

// MarkProcessing transitions a document to the processing status.
func (e *Engine) MarkProcessing(id string) {
	e.registry.setStatus(id, common.StatusProcessing, "")
}

// MarkFailed transitions a document to the failed status, recording the
// cause on the registry record.
func (e *Engine) MarkFailed(id string, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	e.registry.setStatus(id, common.StatusFailed, msg)
}
