package knowledge

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// ErrEntityNotFound is returned when an entity was never extracted from any
// ingested document.
var ErrEntityNotFound = errors.New("entity not found")

var (
	capitalizedRun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	alphaToken     = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)
)

// stopwords are excluded from entity extraction in both their capitalized
// and lowercase forms.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "was": {}, "are": {}, "were": {},
	"been": {}, "be": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "i": {}, "you": {}, "he": {},
	"she": {}, "it": {}, "we": {}, "they": {}, "them": {}, "their": {},
}

type document struct {
	Text     string
	Chunks   []string
	Entities []string
}

type relationship struct {
	A, B   string
	Weight int
}

// Builder accumulates per-document entity sets and co-occurrence
// relationships, and materializes bounded graph views on demand. Entity
// detection is a lightweight heuristic over capitalization and term
// recurrence, not real NLP.
type Builder struct {
	mu          sync.RWMutex
	documents   map[string]document
	entityDocs  map[string]map[string]struct{}
	entityFreq  map[string]int
	entityOrder []string
	// relationships is append-only and deliberately not deduplicated; the
	// same pair reappears with a higher weight when a later document
	// mentions both entities again. Views dedupe at render time.
	relationships []relationship
}

func NewBuilder() *Builder {
	return &Builder{
		documents:  map[string]document{},
		entityDocs: map[string]map[string]struct{}{},
		entityFreq: map[string]int{},
	}
}

// AddDocument records a document, extracts its entity set and appends a
// co-occurrence relationship for every entity pair in it. Each frequency
// counter moves by exactly one per call, no matter how often the entity
// repeats inside the text.
func (b *Builder) AddDocument(documentID, text string, chunks []string) {
	entities := extractEntities(text)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.documents[documentID] = document{
		Text:     text,
		Chunks:   chunks,
		Entities: entities,
	}

	for _, entity := range entities {
		docs, ok := b.entityDocs[entity]
		if !ok {
			docs = map[string]struct{}{}
			b.entityDocs[entity] = docs
			b.entityOrder = append(b.entityOrder, entity)
		}
		docs[documentID] = struct{}{}
		b.entityFreq[entity]++
	}

	// Runs after the document-set updates above, so a freshly co-occurring
	// pair already counts the current document and weights start at 1.
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			weight := b.sharedDocs(entities[i], entities[j])
			if weight > 0 {
				b.relationships = append(b.relationships, relationship{
					A:      entities[i],
					B:      entities[j],
					Weight: weight,
				})
			}
		}
	}
}

// NodeCount returns the number of distinct entities seen so far.
func (b *Builder) NodeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entityDocs)
}

func (b *Builder) sharedDocs(a, c string) int {
	docsA := b.entityDocs[a]
	docsC := b.entityDocs[c]
	if len(docsC) < len(docsA) {
		docsA, docsC = docsC, docsA
	}

	count := 0
	for id := range docsA {
		if _, ok := docsC[id]; ok {
			count++
		}
	}

	return count
}

// extractEntities pulls candidate entities out of raw text. Runs of
// capitalized words are taken as-is; lowercase terms of four or more
// letters recurring at least three times are added in capitalized form.
// The union is deduplicated and sorted so iteration order is stable.
func extractEntities(text string) []string {
	set := map[string]struct{}{}

	for _, match := range capitalizedRun.FindAllString(text, -1) {
		if len(match) <= 2 {
			continue
		}
		if _, stop := stopwords[strings.ToLower(match)]; stop {
			continue
		}
		set[match] = struct{}{}
	}

	counts := map[string]int{}
	for _, word := range alphaToken.FindAllString(strings.ToLower(text), -1) {
		counts[word]++
	}
	for word, count := range counts {
		if count < 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		set[capitalize(word)] = struct{}{}
	}

	entities := make([]string, 0, len(set))
	for entity := range set {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	return entities
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
