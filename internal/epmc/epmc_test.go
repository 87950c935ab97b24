// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package epmc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		item      string
		wantKind  IdentifierKind
		wantValue string
	}{
		{"bare doi", "10.1038/s41586-020-2649-2", KindDOI, "10.1038/s41586-020-2649-2"},
		{"prefixed doi", "doi:10.1093/nar/gkaa1100", KindDOI, "10.1093/nar/gkaa1100"},
		{"bare pmid", "33264544", KindPMID, "33264544"},
		{"prefixed pmid", "PMID: 33264544", KindPMID, "33264544"},
		{"pmcid", "PMC7783170", KindPMCID, "PMC7783170"},
		{"lowercase pmcid", "pmcid:pmc7783170", KindPMCID, "PMC7783170"},
		{"title", "Klotho and the aging process", KindTitle, "Klotho and the aging process"},
		{"title with digits", "SIRT6 in 2020: a review", KindTitle, "SIRT6 in 2020: a review"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, value := Classify(tt.item)
			if kind != tt.wantKind {
				t.Errorf("Classify(%q) kind = %q, want %q", tt.item, kind, tt.wantKind)
			}
			if value != tt.wantValue {
				t.Errorf("Classify(%q) value = %q, want %q", tt.item, value, tt.wantValue)
			}
		})
	}
}

func TestBestHit(t *testing.T) {
	hits := []searchResult{
		{ID: "1", Source: "PPR", Score: 99},
		{ID: "2", Source: "MED", Score: 10},
		{ID: "3", Source: "MED", PMCID: "PMC3", Score: 5},
		{ID: "4", Source: "PPR", PMCID: "PMC4", Score: 50},
	}
	best := bestHit(hits)
	if best.ID != "4" {
		t.Errorf("bestHit picked %s, want 4 (highest-scoring record with full text)", best.ID)
	}

	// Without any PMCID, the PubMed record wins over a higher-scoring preprint.
	best = bestHit(hits[:2])
	if best.ID != "2" {
		t.Errorf("bestHit picked %s, want 2 (PubMed source)", best.ID)
	}
}

func TestBodyText(t *testing.T) {
	jats := `<article><front><abstract><p>The abstract.</p></abstract></front>
<body><sec><title>Intro</title><p>Klotho   regulates aging.</p>
<table-wrap><table><tr><td>noise</td></tr></table></table-wrap>
<fig><caption><p>figure noise</p></caption></fig>
<p>Second paragraph.</p></sec>
<ref-list><ref>citation noise</ref></ref-list></body></article>`

	text := BodyText(jats)
	want := "Intro\nKlotho regulates aging.\nSecond paragraph."
	if text != want {
		t.Errorf("BodyText = %q, want %q", text, want)
	}

	abs := AbstractText(jats)
	if abs != "The abstract." {
		t.Errorf("AbstractText = %q, want %q", abs, "The abstract.")
	}
}

// testClient points a fresh client at an httptest server.
func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBase(srv.Client(), types.HTTPConfig{UserAgent: "protein-kb-test"}, srv.URL)
}

func TestResolve(t *testing.T) {
	var queries []string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		queries = append(queries, q)
		if q != `DOI:"10.1000/test"` {
			fmt.Fprint(w, `{"hitCount":0,"resultList":{"result":[]}}`)
			return
		}
		fmt.Fprint(w, `{"hitCount":1,"resultList":{"result":[
			{"id":"111","source":"MED","pmid":"111","pmcid":"PMC222","doi":"10.1000/test",
			 "title":"A test paper","journalTitle":"Nature","pubYear":"2021","citedByCount":12}
		]}}`)
	}))

	art, err := client.Resolve(context.Background(), "doi:10.1000/test")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if art == nil {
		t.Fatal("Resolve returned nil article")
	}
	if art.PMID != "111" || art.PMCID != "PMC222" || art.Year != 2021 {
		t.Errorf("Resolve = %+v, want PMID 111, PMCID PMC222, year 2021", art)
	}
	if len(queries) != 1 {
		t.Errorf("expected one query (field query hit first), got %v", queries)
	}
}

func TestResolveNoMatch(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hitCount":0,"resultList":{"result":[]}}`)
	}))

	art, err := client.Resolve(context.Background(), "a title nobody wrote")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if art != nil {
		t.Errorf("Resolve = %+v, want nil for no match", art)
	}
}

func TestReferencesPagination(t *testing.T) {
	var pages []string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages = append(pages, r.URL.Path)
		switch len(pages) {
		case 1:
			// Full page: pagination continues.
			fmt.Fprint(w, `{"hitCount":101,"referenceList":{"reference":[`)
			for i := 0; i < refPageSize; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"id":"%d","source":"MED","title":"ref %d","pubYear":2010}`, i, i)
			}
			fmt.Fprint(w, `]}}`)
		default:
			fmt.Fprint(w, `{"hitCount":101,"referenceList":{"reference":[
				{"id":"last","source":"MED","title":"last ref","pubYear":2011}]}}`)
		}
	}))

	refs, err := client.References(context.Background(), types.Article{PMID: "123"})
	if err != nil {
		t.Fatalf("References failed: %v", err)
	}
	if len(refs) != refPageSize+1 {
		t.Fatalf("got %d references, want %d", len(refs), refPageSize+1)
	}
	if len(pages) != 2 {
		t.Errorf("expected 2 page fetches, got %d: %v", len(pages), pages)
	}
	if refs[0].PMID != "0" {
		t.Errorf("MED row id should back-fill PMID, got %q", refs[0].PMID)
	}
}

func TestReferencesTruncatesOnError(t *testing.T) {
	var pages int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if pages > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"hitCount":200,"referenceList":{"reference":[`)
		for i := 0; i < refPageSize; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":"%d","source":"MED","title":"ref %d"}`, i, i)
		}
		fmt.Fprint(w, `]}}`)
	}))

	refs, err := client.References(context.Background(), types.Article{PMID: "123"})
	if err != nil {
		t.Fatalf("References should swallow a mid-walk page failure, got %v", err)
	}
	if len(refs) != refPageSize {
		t.Errorf("got %d references, want the %d from the good page", len(refs), refPageSize)
	}
}

func TestDetailsCaching(t *testing.T) {
	var calls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"hitCount":1,"resultList":{"result":[
			{"id":"42","source":"MED","pmid":"42","title":"Cached paper",
			 "abstractText":"An abstract.","pubYear":"2019"}]}}`)
	}))

	art := types.Article{PMID: "42"}
	first, err := client.Details(context.Background(), art)
	if err != nil {
		t.Fatalf("Details failed: %v", err)
	}
	if first.Abstract != "An abstract." {
		t.Errorf("Details abstract = %q", first.Abstract)
	}

	if _, err := client.Details(context.Background(), art); err != nil {
		t.Fatalf("second Details failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
}
