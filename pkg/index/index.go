package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/OFFIS-RIT/mango/pkg/common"
)

// DefaultDimension matches the embedding width of the default deployment
// model (all-MiniLM-L6-v2).
const DefaultDimension = 384

// ErrShapeMismatch is returned when vectors do not line up with the passages
// they describe, or do not match the index dimension.
var ErrShapeMismatch = errors.New("vector shape mismatch")

// EmbedFunc turns passage texts into vectors. The index calls it when it has
// to rebuild itself after a document removal.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float64, error)

type Params struct {
	// Dimension of stored vectors. Defaults to DefaultDimension.
	Dimension int
	// SnapshotPath is where the index persists itself after every mutation.
	// Empty disables persistence entirely.
	SnapshotPath string
	// Embed regenerates vectors during a rebuild. Only needed when
	// DeleteByDocument will be used.
	Embed EmbedFunc
}

// Index is an exact in-memory similarity index over squared Euclidean
// distance. Vectors and passages are parallel lists; position i of one
// always describes position i of the other.
type Index struct {
	mu           sync.RWMutex
	dimension    int
	vectors      [][]float64
	passages     []common.Passage
	snapshotPath string
	embed        EmbedFunc
}

// New creates an index and restores its snapshot if one exists. A snapshot
// carries its own dimension, which takes precedence over params.Dimension so
// that stored vectors always match.
func New(params Params) *Index {
	if params.Dimension <= 0 {
		params.Dimension = DefaultDimension
	}

	idx := &Index{
		dimension:    params.Dimension,
		snapshotPath: params.SnapshotPath,
		embed:        params.Embed,
	}
	idx.load()

	return idx
}

// Dimension returns the vector width the index accepts. Fixed after New.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Size returns the current vector count.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.vectors)
}

// Add appends passages and their vectors in lockstep and returns the
// positional ids assigned to them.
func (idx *Index) Add(passages []common.Passage, vectors [][]float64) ([]int, error) {
	if len(passages) != len(vectors) {
		return nil, fmt.Errorf("%w: %d passages, %d vectors", ErrShapeMismatch, len(passages), len(vectors))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, vector := range vectors {
		if len(vector) != idx.dimension {
			return nil, fmt.Errorf("%w: got vector of dimension %d, want %d", ErrShapeMismatch, len(vector), idx.dimension)
		}
	}

	start := len(idx.passages)
	idx.passages = append(idx.passages, passages...)
	idx.vectors = append(idx.vectors, vectors...)

	ids := make([]int, len(passages))
	for i := range ids {
		ids[i] = start + i
	}

	idx.save()

	return ids, nil
}

// Search returns the min(k, Size()) stored passages closest to the query
// vector, nearest first with 1-based ranks. Equal distances keep insertion
// order. An empty index yields an empty result set.
func (idx *Index) Search(query []float64, k int) ([]common.SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 {
		return []common.SearchResult{}, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: got query of dimension %d, want %d", ErrShapeMismatch, len(query), idx.dimension)
	}

	distances := make([]float64, len(idx.vectors))
	for i, vector := range idx.vectors {
		distances[i] = squaredL2(vector, query)
	}

	order := make([]int, len(distances))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return distances[order[a]] < distances[order[b]]
	})

	if k < 0 {
		k = 0
	}
	if k > len(order) {
		k = len(order)
	}

	results := make([]common.SearchResult, 0, k)
	for i := 0; i < k; i++ {
		j := order[i]
		results = append(results, common.SearchResult{
			Passage: idx.passages[j],
			Score:   1 / (1 + distances[j]),
			Rank:    i + 1,
		})
	}

	return results, nil
}

// DeleteByDocument removes every passage owned by the given document. The
// exact index has no tombstones, so the surviving passages are re-embedded
// and the index rebuilt wholesale. If nothing matches, the index is left
// untouched. If re-embedding fails, the index is also left untouched.
func (idx *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	keep := make([]int, 0, len(idx.passages))
	for i, passage := range idx.passages {
		if passage.DocumentID != documentID {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(idx.passages) {
		return nil
	}

	if len(keep) == 0 {
		idx.vectors = nil
		idx.passages = nil
		idx.save()
		return nil
	}

	if idx.embed == nil {
		return errors.New("no embedding function configured for index rebuild")
	}

	survivors := make([]common.Passage, 0, len(keep))
	texts := make([]string, 0, len(keep))
	for _, i := range keep {
		survivors = append(survivors, idx.passages[i])
		texts = append(texts, idx.passages[i].Text)
	}

	vectors, err := idx.embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to re-embed %d surviving passages: %w", len(texts), err)
	}
	if len(vectors) != len(survivors) {
		return fmt.Errorf("%w: re-embedding returned %d vectors for %d passages", ErrShapeMismatch, len(vectors), len(survivors))
	}
	for _, vector := range vectors {
		if len(vector) != idx.dimension {
			return fmt.Errorf("%w: re-embedding returned vector of dimension %d, want %d", ErrShapeMismatch, len(vector), idx.dimension)
		}
	}

	idx.vectors = vectors
	idx.passages = survivors
	idx.save()

	return nil
}

// Clear drops every vector and passage and persists the empty state.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vectors = nil
	idx.passages = nil
	idx.save()
}

func squaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
