// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists harvested documents in SQLite and builds the
// retrieval index: chunked text with FTS5 search and, once embedded,
// vector similarity.
package corpus

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

// Store manages the corpus SQLite database.
type Store struct {
	db        *sql.DB
	corpusDir string
	chunkSize int
	overlap   int
	maxHits   int
}

// Open opens or creates the corpus database at cfg.DBPath, creating the
// schema if it does not exist.
func Open(cfg types.CorpusConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:        db,
		corpusDir: cfg.CorpusDir,
		chunkSize: cfg.ChunkSize,
		overlap:   cfg.ChunkOverlap,
		maxHits:   cfg.MaxResults,
	}
	if s.chunkSize <= 0 {
		s.chunkSize = 1600
	}
	if s.overlap < 0 || s.overlap >= s.chunkSize {
		s.overlap = 200
	}
	if s.maxHits <= 0 {
		s.maxHits = 8
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			pmcid TEXT PRIMARY KEY,
			doi TEXT,
			title TEXT,
			year INTEGER,
			journal TEXT,
			protein_hits TEXT,
			source_url TEXT,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			pmcid TEXT NOT NULL REFERENCES documents(pmcid),
			seq INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_pmcid ON chunks(pmcid)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(content, content=chunks, content_rowid=rowid)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// IngestSummary holds counts from a corpus indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads harvested JSON documents from the corpus directory and
// populates the database. Unchanged files (by modification time) are
// skipped so repeated runs only touch new or refreshed documents.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(s.corpusDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading corpus directory %s: %w", s.corpusDir, err)
	}

	var summary IngestSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(s.corpusDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM documents WHERE pmcid = ?`, name,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		var doc types.CorpusDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", name, err)
			summary.Failed++
			continue
		}
		if doc.PMCID == "" {
			doc.PMCID = name
		}

		if err := s.ingestDocument(ctx, &doc, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", name)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s\n", name)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, doc *types.CorpusDocument, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Changed documents get their chunks rebuilt; stale embeddings must
	// not survive a text change.
	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE pmcid = ?`, doc.PMCID); err != nil {
			return fmt.Errorf("deleting old chunks: %w", err)
		}
	}

	hitsJSON, _ := json.Marshal(doc.ProteinHits)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (pmcid, doi, title, year, journal, protein_hits, source_url, file_mod_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(pmcid) DO UPDATE SET
			doi=excluded.doi, title=excluded.title, year=excluded.year,
			journal=excluded.journal, protein_hits=excluded.protein_hits,
			source_url=excluded.source_url, file_mod_time=excluded.file_mod_time`,
		doc.PMCID, doc.DOI, doc.Title, doc.Year, doc.Journal,
		string(hitsJSON), doc.SourceURL, modTime,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, pmcid, seq, content, embedding) VALUES (?, ?, ?, ?, NULL)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range ChunkText(doc.PlainText, s.chunkSize, s.overlap) {
		if _, err := stmt.ExecContext(ctx, chunkID(doc.PMCID, i), doc.PMCID, i, chunk); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// chunkID derives a stable identifier from the document and position so
// reingestion of unchanged text keeps the same IDs.
func chunkID(pmcid string, seq int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", pmcid, seq)))
	return hex.EncodeToString(sum[:])[:16]
}

// ChunkText splits text into overlapping windows of roughly size runes,
// preferring to break at paragraph and sentence boundaries near the end
// of a window. Empty text yields no chunks.
func ChunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		cut := breakPoint(runes, start, end)
		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	out := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// breakPoint finds a natural cut near end, scanning back for a newline or
// sentence end within the last quarter of the window.
func breakPoint(runes []rune, start, end int) int {
	limit := end - (end-start)/4
	for i := end - 1; i > limit; i-- {
		switch runes[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n') {
				return i + 1
			}
		}
	}
	return end
}
