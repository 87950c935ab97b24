// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/feliks-hub/protein-kb/internal/corpus"
	"github.com/feliks-hub/protein-kb/internal/epmc"
	"github.com/feliks-hub/protein-kb/internal/extract"
	"github.com/feliks-hub/protein-kb/internal/harvest"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

// testServer assembles a server over a temp corpus with a fake Europe PMC
// upstream.
func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "corpus")

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "fullTextXML") {
			fmt.Fprint(w, `<article><body><p>Klotho regulates phosphate handling.</p></body></article>`)
			return
		}
		fmt.Fprint(w, `{"hitCount":1,"nextCursorMark":"","resultList":{"result":[
			{"id":"1","source":"MED","pmid":"1","pmcid":"PMC100","title":"Klotho paper","pubYear":"2020"}
		]}}`)
	}))
	t.Cleanup(upstream.Close)

	client := epmc.NewClientWithBase(upstream.Client(), types.HTTPConfig{}, upstream.URL)
	harvester := harvest.New(client, types.HarvestConfig{CorpusDir: corpusDir}, io.Discard)

	store, err := corpus.Open(types.CorpusConfig{
		CorpusDir: corpusDir,
		DBPath:    filepath.Join(dir, "corpus.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	knowledgeDir := filepath.Join(dir, "knowledge")
	return New(harvester, store, nil, nil, knowledgeDir, types.ServerConfig{}), knowledgeDir
}

// stubChat returns a canned answer and records the user prompt.
type stubChat struct {
	lastUser string
}

func (c *stubChat) Chat(ctx context.Context, system, user string) (string, error) {
	c.lastUser = user
	return "Klotho regulates phosphate handling [PMC100].", nil
}

func doRequest(t *testing.T, s *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("response = %v", resp)
	}
}

func TestHarvestThenQuery(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(t, s, http.MethodPost, "/harvest/kl", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("harvest status = %d: %s", rec.Code, rec.Body.String())
	}
	var summary harvest.GeneSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Gene != "KL" || summary.Saved != 1 {
		t.Errorf("summary = %+v", summary)
	}

	rec = doRequest(t, s, http.MethodPost, "/query", `{"query":"phosphate"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Hits []corpus.ChunkHit `json:"hits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Hits) != 1 || resp.Hits[0].PMCID != "PMC100" {
		t.Errorf("hits = %+v", resp.Hits)
	}

	rec = doRequest(t, s, http.MethodGet, "/proteins/KL/documents", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("documents status = %d", rec.Code)
	}
	var docs []corpus.DocumentMeta
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].PMCID != "PMC100" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestQueryAnswer(t *testing.T) {
	s, _ := testServer(t)
	llm := &stubChat{}
	s.llm = llm

	rec := doRequest(t, s, http.MethodPost, "/harvest/kl", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("harvest status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodPost, "/query", `{"query":"phosphate"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Answer, "PMC100") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(llm.lastUser, "phosphate") || !strings.Contains(llm.lastUser, "PMC100") {
		t.Errorf("prompt missing context: %q", llm.lastUser)
	}
}

func TestQueryValidation(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(t, s, http.MethodPost, "/query", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/query", `{"query":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank query status = %d", rec.Code)
	}
}

func TestRecordEndpoint(t *testing.T) {
	s, knowledgeDir := testServer(t)

	rec := doRequest(t, s, http.MethodGet, "/proteins/KL/record", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing record status = %d", rec.Code)
	}

	record := &types.ProteinRecord{
		ProteinInfo: types.ProteinInfo{Symbol: "KL"},
		Overview:    "Klotho is an anti-aging protein.",
	}
	if _, err := extract.WriteRecord(knowledgeDir, "KL", record); err != nil {
		t.Fatal(err)
	}

	rec = doRequest(t, s, http.MethodGet, "/proteins/KL/record", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("record status = %d", rec.Code)
	}
	var got types.ProteinRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Overview != record.Overview {
		t.Errorf("record = %+v", got)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s, _ := testServer(t)
	s.cfg.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run returned %v after cancel", err)
	}
}
