// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

// testStore creates a store over a temp corpus directory with the given
// documents already written.
func testStore(t *testing.T, docs ...*types.CorpusDocument) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "corpus")
	if err := os.MkdirAll(corpusDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, doc := range docs {
		writeTestDoc(t, corpusDir, doc)
	}

	store, err := Open(types.CorpusConfig{
		CorpusDir: corpusDir,
		DBPath:    filepath.Join(dir, "index", "corpus.db"),
		ChunkSize: 200,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, corpusDir
}

func writeTestDoc(t *testing.T, dir string, doc *types.CorpusDocument) {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, doc.PMCID+".json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIngestAndSearch(t *testing.T) {
	store, _ := testStore(t,
		&types.CorpusDocument{
			PMCID:       "PMC1",
			Title:       "Klotho deficiency",
			Year:        2020,
			ProteinHits: []string{"KL"},
			PlainText:   "Klotho is an anti-aging protein. Its deficiency accelerates senescence.",
		},
		&types.CorpusDocument{
			PMCID:       "PMC2",
			Title:       "Sirtuin catalysis",
			Year:        2021,
			ProteinHits: []string{"SIRT6"},
			PlainText:   "SIRT6 is a chromatin deacetylase regulating genome stability.",
		},
	)

	summary, err := store.Ingest(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if summary.Indexed != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 indexed", summary)
	}

	hits, err := store.Search(context.Background(), QueryOptions{Query: "senescence"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].PMCID != "PMC1" {
		t.Fatalf("hits = %+v, want one hit in PMC1", hits)
	}
	if hits[0].Title != "Klotho deficiency" || hits[0].Year != 2020 {
		t.Errorf("hit metadata = %+v", hits[0])
	}

	// Protein filter excludes the other document's chunks.
	hits, err = store.Search(context.Background(), QueryOptions{Query: "deacetylase", Protein: "KL"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("protein-filtered search returned %+v", hits)
	}
}

func TestIngestSkipsUnchanged(t *testing.T) {
	store, corpusDir := testStore(t, &types.CorpusDocument{
		PMCID: "PMC1", Title: "Stable", PlainText: "Unchanging text.",
	})

	if _, err := store.Ingest(context.Background(), io.Discard); err != nil {
		t.Fatal(err)
	}
	summary, err := store.Ingest(context.Background(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Indexed != 0 {
		t.Errorf("second ingest = %+v, want 1 skipped", summary)
	}

	// Touching the file forces an update and rebuilds chunks.
	writeTestDoc(t, corpusDir, &types.CorpusDocument{
		PMCID: "PMC1", Title: "Stable", PlainText: "Fresh replacement text.",
	})
	bumpModTime(t, filepath.Join(corpusDir, "PMC1.json"))

	summary, err = store.Ingest(context.Background(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Errorf("third ingest = %+v, want 1 updated", summary)
	}

	hits, err := store.Search(context.Background(), QueryOptions{Query: "replacement"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("updated text not searchable: %+v", hits)
	}
}

func TestDocumentsByProtein(t *testing.T) {
	store, _ := testStore(t,
		&types.CorpusDocument{PMCID: "PMC1", Title: "Old", Year: 2010, ProteinHits: []string{"KL"}, PlainText: "a"},
		&types.CorpusDocument{PMCID: "PMC2", Title: "New", Year: 2024, ProteinHits: []string{"kl", "SIRT6"}, PlainText: "b"},
	)
	if _, err := store.Ingest(context.Background(), io.Discard); err != nil {
		t.Fatal(err)
	}

	docs, err := store.DocumentsByProtein(context.Background(), "KL")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].PMCID != "PMC2" {
		t.Errorf("docs = %+v, want both, newest first", docs)
	}

	meta, err := store.Document(context.Background(), "PMC9")
	if err != nil {
		t.Fatal(err)
	}
	if meta != nil {
		t.Errorf("unknown document returned %+v", meta)
	}
}

func TestChunkText(t *testing.T) {
	if got := ChunkText("   ", 100, 10); got != nil {
		t.Errorf("blank text should yield no chunks, got %v", got)
	}

	short := ChunkText("one short paragraph", 100, 10)
	if len(short) != 1 || short[0] != "one short paragraph" {
		t.Errorf("short text = %v", short)
	}

	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	chunks := ChunkText(long, 200, 40)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 200 {
			t.Errorf("chunk %d exceeds window: %d runes", i, len([]rune(c)))
		}
		// Sentence-boundary cuts keep chunks ending on a period.
		if !strings.HasSuffix(c, ".") {
			t.Errorf("chunk %d does not end at a sentence: %q", i, c)
		}
	}
}

func TestVectorRoundTrip(t *testing.T) {
	store, _ := testStore(t, &types.CorpusDocument{
		PMCID: "PMC1", Title: "Vectors", ProteinHits: []string{"KL"},
		PlainText: "Alpha text here.",
	})
	if _, err := store.Ingest(context.Background(), io.Discard); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	pending, err := store.PendingChunks(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %+v, want 1 chunk", pending)
	}

	if err := store.SetEmbedding(ctx, pending[0].ID, []float64{1, 0, 0}); err != nil {
		t.Fatalf("SetEmbedding failed: %v", err)
	}
	if err := store.SetEmbedding(ctx, "nope", []float64{1}); err == nil {
		t.Error("SetEmbedding on unknown chunk should fail")
	}

	pending, err = store.PendingChunks(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("chunk still pending after embedding: %+v", pending)
	}

	hits, err := store.SimilarChunks(ctx, []float64{0.9, 0.1, 0}, QueryOptions{})
	if err != nil {
		t.Fatalf("SimilarChunks failed: %v", err)
	}
	if len(hits) != 1 || hits[0].PMCID != "PMC1" {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Rank <= 0.9 {
		t.Errorf("similarity = %v, want close to 1", hits[0].Rank)
	}

	stats, err := store.IndexStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 1 || stats.Chunks != 1 || stats.Embedded != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"dimension mismatch", []float64{1, 0}, []float64{1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func bumpModTime(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	newTime := info.ModTime().Add(2 * time.Second)
	if err := os.Chtimes(path, newTime, newTime); err != nil {
		t.Fatal(err)
	}
}
