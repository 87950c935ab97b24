// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/feliks-hub/protein-kb/internal/corpus"
	"github.com/feliks-hub/protein-kb/internal/extract"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.IndexStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"index":  stats,
	})
}

// handleHarvest runs a synchronous harvest for one gene. Long for big
// genes; callers cap it with MaxHarvest in the server config.
func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	gene := strings.ToUpper(chi.URLParam(r, "gene"))
	if gene == "" {
		writeError(w, http.StatusBadRequest, "gene is required")
		return
	}

	summary, err := s.harvester.HarvestGene(r.Context(), gene)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	// Newly harvested documents become queryable immediately.
	if _, err := s.store.Ingest(r.Context(), io.Discard); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type queryRequest struct {
	Query      string `json:"query"`
	Protein    string `json:"protein,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type queryResponse struct {
	Query  string            `json:"query"`
	Answer string            `json:"answer,omitempty"`
	Hits   []corpus.ChunkHit `json:"hits"`
}

const answerSystem = `You answer questions about proteins using only the provided literature excerpts. Cite the PMCID of each excerpt you draw on. If the excerpts do not answer the question, say so.`

// answer synthesizes a short grounded answer from the retrieved hits.
// Failures degrade to a hits-only response rather than erroring the query.
func (s *Server) answer(ctx context.Context, query string, hits []corpus.ChunkHit) string {
	if s.llm == nil || len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nExcerpts:\n", query)
	for _, hit := range hits {
		fmt.Fprintf(&b, "[%s: %s]\n%s\n\n", hit.PMCID, hit.Title, hit.Content)
	}
	out, err := s.llm.Chat(ctx, answerSystem, b.String())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	hits, err := s.store.Retrieve(r.Context(), s.embedder, corpus.QueryOptions{
		Query:      req.Query,
		Protein:    req.Protein,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	answer := s.answer(r.Context(), req.Query, hits)
	if hits == nil {
		hits = []corpus.ChunkHit{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Query: req.Query, Answer: answer, Hits: hits})
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	gene := chi.URLParam(r, "gene")
	record, err := extract.LoadRecord(s.knowledgeDir, gene)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no extracted record for "+strings.ToUpper(gene))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	gene := chi.URLParam(r, "gene")
	docs, err := s.store.DocumentsByProtein(r.Context(), gene)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*corpus.DocumentMeta{}
	}
	writeJSON(w, http.StatusOK, docs)
}
