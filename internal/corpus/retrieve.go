// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for corpus retrieval.
type QueryOptions struct {
	// Query is the full-text search string.
	Query string

	// Protein restricts hits to documents harvested for a gene.
	Protein string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// ChunkHit is a retrieved chunk joined with its document metadata.
type ChunkHit struct {
	ChunkID   string  `json:"chunk_id"`
	PMCID     string  `json:"pmcid"`
	Seq       int     `json:"seq"`
	Content   string  `json:"content"`
	Title     string  `json:"title"`
	Year      int     `json:"year"`
	Journal   string  `json:"journal,omitempty"`
	SourceURL string  `json:"source_url,omitempty"`
	Rank      float64 `json:"rank"`
}

// Search runs an FTS5 query over the chunk index, best match first.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]ChunkHit, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("empty query")
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxHits
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT c.id, c.pmcid, c.seq, c.content,
			d.title, d.year, d.journal, d.source_url, chunks_fts.rank
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		LEFT JOIN documents d ON c.pmcid = d.pmcid
		WHERE chunks_fts MATCH ?`)
	args = append(args, ftsQuery(opts.Query))

	if opts.Protein != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(d.protein_hits) WHERE upper(value) = upper(?))`)
		args = append(args, opts.Protein)
	}

	qb.WriteString(` ORDER BY chunks_fts.rank LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying corpus: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

func scanHits(rows *sql.Rows) ([]ChunkHit, error) {
	var hits []ChunkHit
	for rows.Next() {
		var (
			hit     ChunkHit
			title   sql.NullString
			year    sql.NullInt64
			journal sql.NullString
			srcURL  sql.NullString
		)
		if err := rows.Scan(&hit.ChunkID, &hit.PMCID, &hit.Seq, &hit.Content,
			&title, &year, &journal, &srcURL, &hit.Rank); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		hit.Title = title.String
		hit.Year = int(year.Int64)
		hit.Journal = journal.String
		hit.SourceURL = srcURL.String
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// ftsQuery turns free text into an FTS5 query: each term quoted so
// punctuation in gene names ("NF-kB") does not break the match syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, "")
		if term == "" {
			continue
		}
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " ")
}

// ChunksByProtein lists chunks from a gene's documents in document order,
// up to limit. It backs context retrieval when a text query matches
// nothing.
func (s *Store) ChunksByProtein(ctx context.Context, gene string, limit int) ([]ChunkHit, error) {
	if limit <= 0 {
		limit = s.maxHits
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.pmcid, c.seq, c.content,
			d.title, d.year, d.journal, d.source_url, 0 AS rank
		FROM chunks c
		JOIN documents d ON c.pmcid = d.pmcid
		WHERE EXISTS (SELECT 1 FROM json_each(d.protein_hits) WHERE upper(value) = upper(?))
		ORDER BY d.year DESC, c.pmcid, c.seq
		LIMIT ?`, gene, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

// DocumentMeta is the indexed metadata of a harvested document.
type DocumentMeta struct {
	PMCID       string   `json:"pmcid"`
	DOI         string   `json:"doi,omitempty"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Journal     string   `json:"journal,omitempty"`
	ProteinHits []string `json:"protein_hits"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// Document returns the metadata for one document, or nil when the PMCID
// is not indexed.
func (s *Store) Document(ctx context.Context, pmcid string) (*DocumentMeta, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT pmcid, doi, title, year, journal, protein_hits, source_url
		 FROM documents WHERE pmcid = ?`, pmcid)
	meta, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return meta, err
}

// DocumentsByProtein lists the documents harvested for a gene, newest
// first.
func (s *Store) DocumentsByProtein(ctx context.Context, gene string) ([]*DocumentMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pmcid, doi, title, year, journal, protein_hits, source_url
		 FROM documents
		 WHERE EXISTS (SELECT 1 FROM json_each(protein_hits) WHERE upper(value) = upper(?))
		 ORDER BY year DESC, pmcid`, gene)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []*DocumentMeta
	for rows.Next() {
		meta, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, meta)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentMeta, error) {
	var (
		meta     DocumentMeta
		doi      sql.NullString
		journal  sql.NullString
		hitsJSON sql.NullString
		srcURL   sql.NullString
	)
	err := row.Scan(&meta.PMCID, &doi, &meta.Title, &meta.Year, &journal, &hitsJSON, &srcURL)
	if err != nil {
		return nil, err
	}
	meta.DOI = doi.String
	meta.Journal = journal.String
	meta.SourceURL = srcURL.String
	if hitsJSON.Valid && hitsJSON.String != "" {
		if err := json.Unmarshal([]byte(hitsJSON.String), &meta.ProteinHits); err != nil {
			return nil, fmt.Errorf("parsing protein hits: %w", err)
		}
	}
	return &meta, nil
}

// Stats reports corpus index sizes.
type Stats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Embedded  int `json:"embedded"`
}

// IndexStats counts documents, chunks, and embedded chunks.
func (s *Store) IndexStats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&st.Documents); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&st.Chunks); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM chunks WHERE embedding IS NOT NULL`).Scan(&st.Embedded); err != nil {
		return st, err
	}
	return st, nil
}
