// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/feliks-hub/protein-kb/internal/corpus"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

const sampleJSON = `{
	"protein_info": {"symbol": "KL", "full_name": "Klotho", "uniprot_id": "Q9UEF7", "family": "glycosidase"},
	"gene_info": {"symbol": "KL", "organism": "Homo sapiens"},
	"overview": "Klotho is an anti-aging protein.",
	"key_functions": ["FGF23 co-receptor"],
	"modifications": [{"modification_id": "mod-1", "location": "Asn308", "type": "Missense variant",
		"description": "N308K", "function_description": "Alters activity", "publication_pmid": "12345"}]
}`

// fixedLLM returns a canned response and records the prompt it got.
type fixedLLM struct {
	response string
	err      error
	system   string
	user     string
}

func (f *fixedLLM) ChatJSON(ctx context.Context, system, user string) (string, error) {
	f.system = system
	f.user = user
	return f.response, f.err
}

// testExtractor builds an extractor over a one-document corpus.
func testExtractor(t *testing.T, llm ChatBackend) *Extractor {
	t.Helper()
	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "corpus")
	if err := os.MkdirAll(corpusDir, 0o755); err != nil {
		t.Fatal(err)
	}
	doc := &types.CorpusDocument{
		PMCID:       "PMC1",
		Title:       "Klotho review",
		ProteinHits: []string{"KL"},
		PlainText:   "Klotho functions as an FGF23 co-receptor in kidney.",
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(corpusDir, "PMC1.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := corpus.Open(types.CorpusConfig{
		CorpusDir: corpusDir,
		DBPath:    filepath.Join(dir, "corpus.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	if _, err := store.Ingest(context.Background(), io.Discard); err != nil {
		t.Fatal(err)
	}

	return New(llm, store, nil, types.ExtractionConfig{
		KnowledgeDir: filepath.Join(dir, "knowledge"),
	}, io.Discard)
}

func TestExtract(t *testing.T) {
	llm := &fixedLLM{response: sampleJSON}
	e := testExtractor(t, llm)

	record, err := e.Extract(context.Background(), "KL")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if record.ProteinInfo.UniProtID != "Q9UEF7" {
		t.Errorf("record = %+v", record.ProteinInfo)
	}
	if len(record.Modifications) != 1 || record.Modifications[0].PublicationPMID != "12345" {
		t.Errorf("modifications = %+v", record.Modifications)
	}

	// The prompt must carry the retrieved context and the schema.
	if !strings.Contains(llm.user, "FGF23 co-receptor in kidney") {
		t.Error("prompt missing corpus context")
	}
	if !strings.Contains(llm.user, `"publication_pmid"`) {
		t.Error("prompt missing schema")
	}
	if !strings.Contains(llm.user, "PMC1") {
		t.Error("prompt missing source attribution")
	}
}

func TestExtractNoContext(t *testing.T) {
	e := testExtractor(t, &fixedLLM{response: sampleJSON})
	if _, err := e.Extract(context.Background(), "UNKNOWN"); err == nil {
		t.Error("expected error for protein absent from corpus")
	}
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain json", sampleJSON, false},
		{"fenced json", "```json\n" + sampleJSON + "\n```", false},
		{"bare fence", "```\n" + sampleJSON + "\n```", false},
		{"not json", "I could not extract anything.", true},
		{"empty record", `{"protein_info":{"symbol":"KL"}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRecord error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	record, err := ParseRecord(sampleJSON)
	if err != nil {
		t.Fatal(err)
	}

	path, err := WriteRecord(dir, "KL", record)
	if err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	if filepath.Base(path) != "kl-record.yaml" {
		t.Errorf("path = %q", path)
	}

	loaded, err := LoadRecord(dir, "KL")
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if loaded.Overview != record.Overview || len(loaded.KeyFunctions) != 1 {
		t.Errorf("round trip lost data: %+v", loaded)
	}

	missing, err := LoadRecord(dir, "SIRT6")
	if err != nil || missing != nil {
		t.Errorf("LoadRecord for missing protein = %v, %v", missing, err)
	}
}

func TestExtractAll(t *testing.T) {
	llm := &fixedLLM{response: sampleJSON}
	e := testExtractor(t, llm)

	summary, err := e.ExtractAll(context.Background(), []string{"KL", "UNKNOWN"}, false)
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}
	if summary.Extracted != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if !summary.HasFailures() || summary.Total() != 2 {
		t.Errorf("summary accessors wrong: %+v", summary)
	}

	// Rerun without force skips the existing record.
	summary, err = e.ExtractAll(context.Background(), []string{"KL"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Extracted != 0 {
		t.Errorf("rerun summary = %+v", summary)
	}

	// Force reruns it.
	summary, err = e.ExtractAll(context.Background(), []string{"KL"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Extracted != 1 {
		t.Errorf("forced summary = %+v", summary)
	}
}

func TestExtractFailedCall(t *testing.T) {
	e := testExtractor(t, &fixedLLM{err: fmt.Errorf("upstream down")})
	if _, err := e.Extract(context.Background(), "KL"); err == nil {
		t.Error("expected error when chat call fails")
	}
}
