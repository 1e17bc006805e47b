package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/mango/pkg/ai"
	"github.com/OFFIS-RIT/mango/pkg/common"
	"github.com/OFFIS-RIT/mango/pkg/index"
)

func newTestEngine(t *testing.T, embedder ai.EmbeddingClient) (*Engine, *index.Index) {
	t.Helper()

	idx := index.New(index.Params{
		Dimension:    3,
		SnapshotPath: filepath.Join(t.TempDir(), "index.gob"),
		Embed:        Embedder(embedder),
	})

	eng := New(Params{
		Index: idx,
		AI:    embedder,
	})

	return eng, idx
}

func TestIngestAndSearch(t *testing.T) {
	embedder := &mockEmbedder{
		dim: 3,
		vecs: map[string][]float32{
			"Alice maintains the reactor core.": {1, 0, 0},
			"Bob audits the cooling loop.":      {0, 1, 0},
			"reactor":                           {1, 0, 0},
		},
	}
	eng, idx := newTestEngine(t, embedder)

	eng.RegisterDocument(common.Document{ID: "doc-a", Name: "a.txt", Type: "txt", Size: 100})
	eng.RegisterDocument(common.Document{ID: "doc-b", Name: "b.txt", Type: "txt", Size: 50})

	resA, err := eng.IngestText(context.Background(), "doc-a", "a.txt", "Alice maintains the reactor core.")
	if err != nil {
		t.Fatalf("IngestText(doc-a) unexpected error: %v", err)
	}
	if resA.Chunks != 1 {
		t.Errorf("IngestText(doc-a) chunks = %d, want 1", resA.Chunks)
	}
	if resA.Tokens == 0 {
		t.Error("IngestText(doc-a) tokens = 0, want > 0")
	}

	if _, err := eng.IngestText(context.Background(), "doc-b", "b.txt", "Bob audits the cooling loop."); err != nil {
		t.Fatalf("IngestText(doc-b) unexpected error: %v", err)
	}

	if idx.Size() != 2 {
		t.Fatalf("index size = %d, want 2", idx.Size())
	}

	doc, ok := eng.GetDocument("doc-a")
	if !ok {
		t.Fatal("GetDocument(doc-a) missing after ingest")
	}
	if doc.Status != common.StatusIndexed {
		t.Errorf("doc-a status = %q, want %q", doc.Status, common.StatusIndexed)
	}
	if doc.Chunks != 1 || doc.Tokens != resA.Tokens {
		t.Errorf("doc-a record = {chunks: %d, tokens: %d}, want {1, %d}", doc.Chunks, doc.Tokens, resA.Tokens)
	}

	results, err := eng.Search(context.Background(), "reactor", 2)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].Passage.DocumentID != "doc-a" || results[0].Score != 1 {
		t.Errorf("Search() top hit = {%s, %v}, want {doc-a, 1}", results[0].Passage.DocumentID, results[0].Score)
	}
	if results[1].Passage.DocumentID != "doc-b" {
		t.Errorf("Search() second hit document = %s, want doc-b", results[1].Passage.DocumentID)
	}
}

func TestIngestText_EmbedFailureLeavesStateUntouched(t *testing.T) {
	embedder := &mockEmbedder{dim: 3, err: errors.New("embedder down")}
	eng, idx := newTestEngine(t, embedder)

	eng.RegisterDocument(common.Document{ID: "doc-a", Name: "a.txt", Type: "txt"})
	eng.MarkProcessing("doc-a")

	if _, err := eng.IngestText(context.Background(), "doc-a", "a.txt", "Some document text."); err == nil {
		t.Fatal("IngestText() expected error from failing embedder")
	}

	if idx.Size() != 0 {
		t.Errorf("index size = %d after failed ingest, want 0", idx.Size())
	}
	if got := eng.Graph(); got.TotalEntities != 0 {
		t.Errorf("graph entities = %d after failed ingest, want 0", got.TotalEntities)
	}

	doc, _ := eng.GetDocument("doc-a")
	if doc.Status != common.StatusProcessing {
		t.Errorf("doc status = %q, want %q (caller decides failure marking)", doc.Status, common.StatusProcessing)
	}
	if doc.Chunks != 0 {
		t.Errorf("doc chunks = %d after failed ingest, want 0", doc.Chunks)
	}
}

func TestIngestText_EmptyDocument(t *testing.T) {
	embedder := &mockEmbedder{dim: 3}
	eng, idx := newTestEngine(t, embedder)

	eng.RegisterDocument(common.Document{ID: "doc-a", Name: "empty.txt", Type: "txt"})

	res, err := eng.IngestText(context.Background(), "doc-a", "empty.txt", "")
	if err != nil {
		t.Fatalf("IngestText() unexpected error: %v", err)
	}
	if res.Chunks != 0 || res.Tokens != 0 {
		t.Errorf("IngestText() = %+v, want zero chunks and tokens", res)
	}
	if idx.Size() != 0 {
		t.Errorf("index size = %d, want 0", idx.Size())
	}

	doc, _ := eng.GetDocument("doc-a")
	if doc.Status != common.StatusIndexed {
		t.Errorf("doc status = %q, want %q", doc.Status, common.StatusIndexed)
	}
}

func TestRemoveDocument(t *testing.T) {
	embedder := &mockEmbedder{
		dim: 3,
		vecs: map[string][]float32{
			"Alpha text here.": {1, 0, 0},
			"Beta text here.":  {0, 1, 0},
			"beta":             {0, 1, 0},
		},
	}
	eng, idx := newTestEngine(t, embedder)

	eng.RegisterDocument(common.Document{ID: "doc-a", Name: "a.txt", Type: "txt"})
	eng.RegisterDocument(common.Document{ID: "doc-b", Name: "b.txt", Type: "txt"})
	if _, err := eng.IngestText(context.Background(), "doc-a", "a.txt", "Alpha text here."); err != nil {
		t.Fatalf("IngestText(doc-a) unexpected error: %v", err)
	}
	if _, err := eng.IngestText(context.Background(), "doc-b", "b.txt", "Beta text here."); err != nil {
		t.Fatalf("IngestText(doc-b) unexpected error: %v", err)
	}

	if err := eng.RemoveDocument(context.Background(), "doc-a"); err != nil {
		t.Fatalf("RemoveDocument() unexpected error: %v", err)
	}

	if _, ok := eng.GetDocument("doc-a"); ok {
		t.Error("GetDocument(doc-a) still present after removal")
	}
	if idx.Size() != 1 {
		t.Errorf("index size = %d after removal, want 1", idx.Size())
	}

	results, err := eng.Search(context.Background(), "beta", 5)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Passage.DocumentID != "doc-b" {
		t.Fatalf("Search() after removal = %+v, want single doc-b hit", results)
	}

	if err := eng.RemoveDocument(context.Background(), "doc-a"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("RemoveDocument(doc-a) again = %v, want ErrDocumentNotFound", err)
	}
}

func TestStats(t *testing.T) {
	embedder := &mockEmbedder{dim: 3}
	eng, _ := newTestEngine(t, embedder)

	eng.RegisterDocument(common.Document{ID: "doc-a", Name: "a.txt", Type: "txt", Size: 100})
	eng.RegisterDocument(common.Document{ID: "doc-b", Name: "b.txt", Type: "txt", Size: 50})
	eng.RegisterDocument(common.Document{ID: "doc-c", Name: "c.txt", Type: "txt", Size: 25})

	if _, err := eng.IngestText(context.Background(), "doc-a", "a.txt", "Alice met Bob."); err != nil {
		t.Fatalf("IngestText(doc-a) unexpected error: %v", err)
	}
	if _, err := eng.IngestText(context.Background(), "doc-b", "b.txt", "Bob met Carol."); err != nil {
		t.Fatalf("IngestText(doc-b) unexpected error: %v", err)
	}
	eng.MarkFailed("doc-c", errors.New("extraction failed"))

	stats := eng.Stats()

	if stats.TotalDocuments != 3 {
		t.Errorf("TotalDocuments = %d, want 3", stats.TotalDocuments)
	}
	if stats.TotalChunks != 2 {
		t.Errorf("TotalChunks = %d, want 2", stats.TotalChunks)
	}
	if stats.TotalSize != 175 {
		t.Errorf("TotalSize = %d, want 175", stats.TotalSize)
	}
	if stats.VectorStoreSize != 2 {
		t.Errorf("VectorStoreSize = %d, want 2", stats.VectorStoreSize)
	}
	if stats.KnowledgeGraphNodes != 3 {
		t.Errorf("KnowledgeGraphNodes = %d, want 3 (Alice, Bob, Carol)", stats.KnowledgeGraphNodes)
	}

	docA, _ := eng.GetDocument("doc-a")
	docB, _ := eng.GetDocument("doc-b")
	if want := docA.Tokens + docB.Tokens; stats.TotalTokens != want {
		t.Errorf("TotalTokens = %d, want %d", stats.TotalTokens, want)
	}

	wantStatus := map[string]int{common.StatusIndexed: 2, common.StatusFailed: 1}
	for status, want := range wantStatus {
		if stats.DocumentsByStatus[status] != want {
			t.Errorf("DocumentsByStatus[%s] = %d, want %d", status, stats.DocumentsByStatus[status], want)
		}
	}
}

func TestRegistryLifecycle(t *testing.T) {
	eng, _ := newTestEngine(t, &mockEmbedder{dim: 3})

	eng.RegisterDocument(common.Document{ID: "doc-a", Name: "a.txt", Type: "txt"})
	eng.RegisterDocument(common.Document{ID: "doc-b", Name: "b.pdf", Type: "pdf"})

	doc, ok := eng.GetDocument("doc-a")
	if !ok {
		t.Fatal("GetDocument(doc-a) missing after registration")
	}
	if doc.Status != common.StatusPending {
		t.Errorf("fresh doc status = %q, want %q", doc.Status, common.StatusPending)
	}
	if doc.UploadedAt.IsZero() {
		t.Error("fresh doc UploadedAt not set")
	}

	eng.MarkProcessing("doc-a")
	if doc, _ := eng.GetDocument("doc-a"); doc.Status != common.StatusProcessing {
		t.Errorf("doc status = %q, want %q", doc.Status, common.StatusProcessing)
	}

	eng.MarkFailed("doc-a", errors.New("pdftotext failed"))
	doc, _ = eng.GetDocument("doc-a")
	if doc.Status != common.StatusFailed || doc.Error != "pdftotext failed" {
		t.Errorf("failed doc = {%q, %q}, want {failed, pdftotext failed}", doc.Status, doc.Error)
	}

	list := eng.ListDocuments()
	if len(list) != 2 || list[0].ID != "doc-a" || list[1].ID != "doc-b" {
		t.Errorf("ListDocuments() order = %v, want [doc-a doc-b]", list)
	}
	if eng.DocumentCount() != 2 {
		t.Errorf("DocumentCount() = %d, want 2", eng.DocumentCount())
	}
}

func TestEmbedderWidens(t *testing.T) {
	embedder := &mockEmbedder{
		dim: 2,
		vecs: map[string][]float32{
			"a": {0.5, -1.5},
		},
	}

	vecs, err := Embedder(embedder)(context.Background(), []string{"a", "unknown"})
	if err != nil {
		t.Fatalf("Embedder() unexpected error: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("Embedder() returned %d vectors, want 2", len(vecs))
	}
	if vecs[0][0] != 0.5 || vecs[0][1] != -1.5 {
		t.Errorf("widened vector = %v, want [0.5 -1.5]", vecs[0])
	}
	if vecs[1][0] != 0 || vecs[1][1] != 0 {
		t.Errorf("fallback vector = %v, want zero vector", vecs[1])
	}
}

type mockEmbedder struct {
	dim  int
	vecs map[string][]float32
	err  error
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	if vec, ok := m.vecs[string(input)]; ok {
		return vec, nil
	}
	return make([]float32, m.dim), nil
}

func (m *mockEmbedder) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, input := range inputs {
		vec, err := m.GenerateEmbedding(ctx, input)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) ResetMetrics() {}

func (m *mockEmbedder) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }
