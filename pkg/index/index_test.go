package index

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/mango/pkg/common"
)

func passage(docID string, chunk int, text string) common.Passage {
	return common.Passage{
		Text:         text,
		DocumentID:   docID,
		DocumentName: docID + ".txt",
		ChunkIndex:   chunk,
	}
}

func TestAdd_AssignsSequentialIDs(t *testing.T) {
	idx := New(Params{Dimension: 3})

	ids, err := idx.Add(
		[]common.Passage{passage("a", 0, "one"), passage("a", 1, "two")},
		[][]float64{{1, 0, 0}, {0, 1, 0}},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []int{0, 1}) {
		t.Errorf("Add() ids = %v, want [0 1]", ids)
	}

	ids, err = idx.Add(
		[]common.Passage{passage("b", 0, "three")},
		[][]float64{{0, 0, 1}},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []int{2}) {
		t.Errorf("Add() ids = %v, want [2]", ids)
	}

	if got := idx.Size(); got != 3 {
		t.Errorf("Size() = %d, want 3", got)
	}
}

func TestAdd_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name     string
		passages []common.Passage
		vectors  [][]float64
	}{
		{
			name:     "count mismatch",
			passages: []common.Passage{passage("a", 0, "one"), passage("a", 1, "two")},
			vectors:  [][]float64{{1, 0, 0}},
		},
		{
			name:     "dimension mismatch",
			passages: []common.Passage{passage("a", 0, "one")},
			vectors:  [][]float64{{1, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := New(Params{Dimension: 3})

			_, err := idx.Add(tt.passages, tt.vectors)
			if !errors.Is(err, ErrShapeMismatch) {
				t.Fatalf("Add() error = %v, want ErrShapeMismatch", err)
			}
			if got := idx.Size(); got != 0 {
				t.Errorf("Size() = %d after failed Add, want 0", got)
			}
		})
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx := New(Params{Dimension: 3})

	results, err := idx.Search([]float64{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() returned %d results on empty index, want 0", len(results))
	}

	// Empty short-circuits before the dimension check.
	results, err = idx.Search([]float64{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() on empty index with short query error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() returned %d results, want 0", len(results))
	}
}

func TestSearch_OrdersByDistance(t *testing.T) {
	idx := New(Params{Dimension: 3})

	_, err := idx.Add(
		[]common.Passage{
			passage("a", 0, "far"),
			passage("a", 1, "exact"),
			passage("b", 0, "farther"),
			passage("b", 1, "near"),
		},
		[][]float64{
			{2, 0, 0},
			{0, 0, 0},
			{3, 0, 0},
			{1, 0, 0},
		},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	results, err := idx.Search([]float64{0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Search() returned %d results, want 3", len(results))
	}

	wantTexts := []string{"exact", "near", "far"}
	wantScores := []float64{1, 0.5, 0.2}
	for i, result := range results {
		if result.Passage.Text != wantTexts[i] {
			t.Errorf("result[%d].Passage.Text = %q, want %q", i, result.Passage.Text, wantTexts[i])
		}
		if math.Abs(result.Score-wantScores[i]) > 1e-12 {
			t.Errorf("result[%d].Score = %v, want %v", i, result.Score, wantScores[i])
		}
		if result.Rank != i+1 {
			t.Errorf("result[%d].Rank = %d, want %d", i, result.Rank, i+1)
		}
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	idx := New(Params{Dimension: 3})

	_, err := idx.Add(
		[]common.Passage{passage("a", 0, "first"), passage("b", 0, "second")},
		[][]float64{{1, 1, 0}, {1, 1, 0}},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	results, err := idx.Search([]float64{1, 1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].Passage.Text != "first" || results[1].Passage.Text != "second" {
		t.Errorf("tied results out of insertion order: got %q, %q",
			results[0].Passage.Text, results[1].Passage.Text)
	}
}

func TestSearch_ClampsK(t *testing.T) {
	idx := New(Params{Dimension: 3})

	_, err := idx.Add(
		[]common.Passage{passage("a", 0, "one"), passage("a", 1, "two")},
		[][]float64{{1, 0, 0}, {0, 1, 0}},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	tests := []struct {
		name string
		k    int
		want int
	}{
		{name: "zero", k: 0, want: 0},
		{name: "negative", k: -1, want: 0},
		{name: "larger than size", k: 10, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := idx.Search([]float64{0, 0, 0}, tt.k)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(results) != tt.want {
				t.Errorf("Search() returned %d results, want %d", len(results), tt.want)
			}
		})
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	idx := New(Params{Dimension: 3})

	_, err := idx.Add([]common.Passage{passage("a", 0, "one")}, [][]float64{{1, 0, 0}})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	_, err = idx.Search([]float64{1, 0}, 1)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("Search() error = %v, want ErrShapeMismatch", err)
	}
}

func TestDeleteByDocument_RebuildsFromSurvivors(t *testing.T) {
	var calls [][]string
	embed := func(ctx context.Context, texts []string) ([][]float64, error) {
		calls = append(calls, texts)
		out := make([][]float64, len(texts))
		for i := range texts {
			out[i] = []float64{9, 9, 9}
		}
		return out, nil
	}

	idx := New(Params{Dimension: 3, Embed: embed})
	_, err := idx.Add(
		[]common.Passage{
			passage("keep", 0, "alpha"),
			passage("drop", 0, "beta"),
			passage("keep", 1, "gamma"),
		},
		[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := idx.DeleteByDocument(context.Background(), "drop"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}

	if got := idx.Size(); got != 2 {
		t.Errorf("Size() = %d after delete, want 2", got)
	}
	if len(calls) != 1 || !reflect.DeepEqual(calls[0], []string{"alpha", "gamma"}) {
		t.Errorf("re-embed calls = %v, want one call with the surviving texts", calls)
	}

	// Every surviving vector was replaced by the re-embedding.
	results, err := idx.Search([]float64{9, 9, 9}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for i, result := range results {
		if result.Score != 1 {
			t.Errorf("result[%d].Score = %v, want 1 (rebuilt vector)", i, result.Score)
		}
		if result.Passage.DocumentID != "keep" {
			t.Errorf("result[%d] belongs to %q, want %q", i, result.Passage.DocumentID, "keep")
		}
	}
	if results[0].Passage.ChunkIndex != 0 || results[1].Passage.ChunkIndex != 1 {
		t.Error("surviving passages lost their relative order")
	}
}

func TestDeleteByDocument_NoMatchIsNoOp(t *testing.T) {
	embed := func(ctx context.Context, texts []string) ([][]float64, error) {
		t.Fatal("embed must not be called when nothing matches")
		return nil, nil
	}

	// Built directly so the snapshot file only appears if delete saves.
	idx := &Index{
		dimension:    3,
		snapshotPath: filepath.Join(t.TempDir(), "index.gob"),
		embed:        embed,
		vectors:      [][]float64{{1, 0, 0}},
		passages:     []common.Passage{passage("a", 0, "one")},
	}

	if err := idx.DeleteByDocument(context.Background(), "missing"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	if got := idx.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
	if _, err := os.Stat(idx.snapshotPath); !os.IsNotExist(err) {
		t.Error("no-op delete must not persist a snapshot")
	}
}

func TestDeleteByDocument_LastDocumentEmptiesIndex(t *testing.T) {
	embed := func(ctx context.Context, texts []string) ([][]float64, error) {
		t.Fatal("embed must not be called when no passages survive")
		return nil, nil
	}

	idx := New(Params{Dimension: 3, Embed: embed})
	_, err := idx.Add(
		[]common.Passage{passage("only", 0, "one"), passage("only", 1, "two")},
		[][]float64{{1, 0, 0}, {0, 1, 0}},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := idx.DeleteByDocument(context.Background(), "only"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	if got := idx.Size(); got != 0 {
		t.Errorf("Size() = %d, want 0", got)
	}
	if got := idx.Dimension(); got != 3 {
		t.Errorf("Dimension() = %d after emptying, want 3", got)
	}
}

func TestDeleteByDocument_FailedRebuildLeavesIndexUntouched(t *testing.T) {
	tests := []struct {
		name  string
		embed EmbedFunc
	}{
		{
			name: "embed error",
			embed: func(ctx context.Context, texts []string) ([][]float64, error) {
				return nil, errors.New("model unavailable")
			},
		},
		{
			name: "wrong vector count",
			embed: func(ctx context.Context, texts []string) ([][]float64, error) {
				return [][]float64{{9, 9, 9}}, nil
			},
		},
		{
			name: "wrong dimension",
			embed: func(ctx context.Context, texts []string) ([][]float64, error) {
				out := make([][]float64, len(texts))
				for i := range texts {
					out[i] = []float64{9, 9}
				}
				return out, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := New(Params{Dimension: 3, Embed: tt.embed})
			_, err := idx.Add(
				[]common.Passage{
					passage("keep", 0, "alpha"),
					passage("keep", 1, "beta"),
					passage("drop", 0, "gamma"),
				},
				[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			)
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}

			if err := idx.DeleteByDocument(context.Background(), "drop"); err == nil {
				t.Fatal("DeleteByDocument() expected an error")
			}

			if got := idx.Size(); got != 3 {
				t.Errorf("Size() = %d after failed rebuild, want 3", got)
			}
			results, err := idx.Search([]float64{0, 0, 1}, 1)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if results[0].Passage.Text != "gamma" || results[0].Score != 1 {
				t.Error("original vectors must survive a failed rebuild")
			}
		})
	}
}

func TestClear_EmptiesIndex(t *testing.T) {
	idx := New(Params{Dimension: 3})

	_, err := idx.Add(
		[]common.Passage{passage("a", 0, "one"), passage("b", 0, "two")},
		[][]float64{{1, 0, 0}, {0, 1, 0}},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	idx.Clear()

	if got := idx.Size(); got != 0 {
		t.Errorf("Size() = %d after Clear, want 0", got)
	}
	results, err := idx.Search([]float64{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() returned %d results after Clear, want 0", len(results))
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "index.gob")

	idx := New(Params{Dimension: 3, SnapshotPath: path})
	_, err := idx.Add(
		[]common.Passage{passage("a", 0, "one"), passage("b", 0, "two")},
		[][]float64{{1, 0, 0}, {0, 1, 0}},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	reopened := New(Params{Dimension: 3, SnapshotPath: path})
	if got := reopened.Size(); got != 2 {
		t.Fatalf("Size() = %d after reopen, want 2", got)
	}

	results, err := reopened.Search([]float64{0, 1, 0}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results[0].Passage.DocumentID != "b" || results[0].Score != 1 {
		t.Errorf("reopened index returned %+v, want exact match for document b", results[0])
	}
}

func TestSnapshot_DimensionTakesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")

	first := New(Params{Dimension: 4, SnapshotPath: path})
	_, err := first.Add([]common.Passage{passage("a", 0, "one")}, [][]float64{{1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	second := New(Params{Dimension: 8, SnapshotPath: path})
	if got := second.Dimension(); got != 4 {
		t.Errorf("Dimension() = %d, want 4 from the snapshot", got)
	}
	if got := second.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
}

func TestSnapshot_CorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	if err := os.WriteFile(path, []byte("not a snapshot"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	idx := New(Params{Dimension: 3, SnapshotPath: path})
	if got := idx.Size(); got != 0 {
		t.Errorf("Size() = %d for corrupt snapshot, want 0", got)
	}
	if got := idx.Dimension(); got != 3 {
		t.Errorf("Dimension() = %d, want configured 3", got)
	}
}

func TestNew_DefaultsDimension(t *testing.T) {
	idx := New(Params{})
	if got := idx.Dimension(); got != DefaultDimension {
		t.Errorf("Dimension() = %d, want %d", got, DefaultDimension)
	}
}
