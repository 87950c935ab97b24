// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genage downloads and parses the GenAge database of human
// aging-related genes.
package genage

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/feliks-hub/protein-kb/internal/httputil"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

// genageZipURL is the GenAge human genes export, a var for tests.
var genageZipURL = "https://genomics.senescence.info/genes/human_genes.zip"

// csvName is the file inside the archive holding the gene table.
const csvName = "genage_human.csv"

// Download fetches the GenAge archive and extracts the human gene CSV into
// dir. The download goes to a temp file first so an interrupted transfer
// never leaves a partial CSV behind. Returns the path of the extracted CSV.
func Download(ctx context.Context, httpClient *http.Client, dir string) (string, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, genageZipURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := httputil.DoWithRetry(ctx, httpClient, req, 0)
	if err != nil {
		return "", fmt.Errorf("downloading GenAge: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GenAge download returned HTTP %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, "genage-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("saving GenAge archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	return extractCSV(tmpPath, dir)
}

// extractCSV pulls the gene table out of the downloaded archive.
func extractCSV(zipPath, dir string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("opening GenAge archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if filepath.Base(f.Name) != csvName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening %s in archive: %w", f.Name, err)
		}
		defer rc.Close()

		outPath := filepath.Join(dir, csvName)
		out, err := os.Create(outPath)
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", outPath, err)
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			return "", fmt.Errorf("extracting %s: %w", csvName, err)
		}
		if err := out.Close(); err != nil {
			return "", err
		}
		return outPath, nil
	}
	return "", fmt.Errorf("%s not found in GenAge archive", csvName)
}

// Parse reads a GenAge human CSV into entries. Column positions follow the
// published export: GenAge ID, symbol, aliases, name, entrez gene id,
// uniprot, why.
func Parse(path string) ([]types.GenAgeEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading GenAge header: %w", err)
	}
	col := columnIndex(header)

	var entries []types.GenAgeEntry
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading GenAge row: %w", err)
		}
		entries = append(entries, types.GenAgeEntry{
			GenAgeID: field(row, col["genage id"]),
			Symbol:   strings.ToUpper(field(row, col["symbol"])),
			Name:     field(row, col["name"]),
			EntrezID: field(row, col["entrez gene id"]),
			Why:      field(row, col["why"]),
		})
	}
	return entries, nil
}

// columnIndex maps header names to positions. Expected columns absent
// from the header map to -1 so field() yields "" instead of column 0.
func columnIndex(header []string) map[string]int {
	col := map[string]int{
		"genage id":      -1,
		"symbol":         -1,
		"name":           -1,
		"entrez gene id": -1,
		"why":            -1,
	}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Symbols returns the gene symbols of entries, optionally filtered to a
// whitelist (case-insensitive). An empty filter keeps everything.
func Symbols(entries []types.GenAgeEntry, filter []string) []string {
	want := make(map[string]bool, len(filter))
	for _, g := range filter {
		want[strings.ToUpper(g)] = true
	}
	var out []string
	for _, e := range entries {
		if e.Symbol == "" {
			continue
		}
		if len(want) > 0 && !want[e.Symbol] {
			continue
		}
		out = append(out, e.Symbol)
	}
	return out
}
