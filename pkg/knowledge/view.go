package knowledge

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/OFFIS-RIT/mango/pkg/common"
)

const (
	maxGraphNodes      = 30
	maxRelatedEntities = 5
)

var nodeColors = []string{
	"#00d4ff",
	"#ff00ff",
	"#00ff88",
	"#ffaa00",
	"#ff0080",
	"#00ffff",
}

// BuildGraph materializes the visualization view: the thirty most frequent
// entities as nodes, and the first-recorded relationship per unordered pair
// among them as edges. The view is recomputed from scratch on every call,
// never cached.
func (b *Builder) BuildGraph() common.GraphView {
	b.mu.RLock()
	defer b.mu.RUnlock()

	view := common.GraphView{
		Nodes:          []common.GraphNode{},
		Edges:          []common.GraphEdge{},
		TotalEntities:  len(b.entityDocs),
		TotalDocuments: len(b.documents),
	}

	selected := b.topEntities(maxGraphNodes)
	if len(selected) == 0 {
		return view
	}

	entityIndex := make(map[string]int, len(selected))
	for i, entity := range selected {
		entityIndex[entity] = i

		freq := b.entityFreq[entity]
		size := 0.3 + float64(freq)*0.1
		if size > 1.5 {
			size = 1.5
		}

		// Connections count every relationship row touching this entity,
		// including rows whose other endpoint did not make the selection.
		connections := 0
		for _, rel := range b.relationships {
			if rel.A == entity || rel.B == entity {
				connections++
			}
		}

		view.Nodes = append(view.Nodes, common.GraphNode{
			ID:          i,
			Label:       entity,
			Type:        entityType(entity),
			Size:        size,
			Color:       nodeColors[i%len(nodeColors)],
			Connections: connections,
			Frequency:   freq,
		})
	}

	seen := map[[2]int]struct{}{}
	for _, rel := range b.relationships {
		source, ok := entityIndex[rel.A]
		if !ok {
			continue
		}
		target, ok := entityIndex[rel.B]
		if !ok {
			continue
		}

		key := [2]int{source, target}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if _, dup := seen[key]; dup || rel.Weight < 1 {
			continue
		}
		seen[key] = struct{}{}

		view.Edges = append(view.Edges, common.GraphEdge{
			Source: source,
			Target: target,
			Weight: rel.Weight,
		})
	}

	return view
}

// EntityDetails reports an entity's frequency, owning documents and its
// strongest relationships. Relationship rows are returned raw, so the same
// related entity can appear more than once with different weights.
func (b *Builder) EntityDetails(entity string) (common.EntityDetails, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	docs, ok := b.entityDocs[entity]
	if !ok {
		return common.EntityDetails{}, ErrEntityNotFound
	}

	documents := make([]string, 0, len(docs))
	for id := range docs {
		documents = append(documents, id)
	}
	sort.Strings(documents)

	related := []common.RelatedEntity{}
	for _, rel := range b.relationships {
		switch entity {
		case rel.A:
			related = append(related, common.RelatedEntity{Entity: rel.B, Weight: rel.Weight})
		case rel.B:
			related = append(related, common.RelatedEntity{Entity: rel.A, Weight: rel.Weight})
		}
	}
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Weight > related[j].Weight
	})
	if len(related) > maxRelatedEntities {
		related = related[:maxRelatedEntities]
	}

	return common.EntityDetails{
		Entity:    entity,
		Frequency: b.entityFreq[entity],
		Documents: documents,
		Related:   related,
	}, nil
}

// topEntities ranks entities by descending frequency. Equal counts keep
// first-seen order.
func (b *Builder) topEntities(limit int) []string {
	ranked := make([]string, len(b.entityOrder))
	copy(ranked, b.entityOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return b.entityFreq[ranked[i]] > b.entityFreq[ranked[j]]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

func entityType(entity string) string {
	first, _ := utf8.DecodeRuneInString(entity)
	if unicode.IsUpper(first) {
		return "Proper Noun"
	}

	return "Concept"
}
