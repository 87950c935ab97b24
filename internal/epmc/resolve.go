// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package epmc

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

// IdentifierKind classifies a free-form reference string.
type IdentifierKind string

const (
	KindDOI   IdentifierKind = "doi"
	KindPMID  IdentifierKind = "pmid"
	KindPMCID IdentifierKind = "pmcid"
	KindTitle IdentifierKind = "title"
)

var (
	doiRe   = regexp.MustCompile(`(?i)^\s*(?:doi:)?\s*(10\.\d{4,9}/\S+)\s*$`)
	pmidRe  = regexp.MustCompile(`(?i)^\s*(?:pmid:)?\s*(\d{1,12})\s*$`)
	pmcidRe = regexp.MustCompile(`(?i)^\s*(?:pmcid:)?\s*(PMC\d+)\s*$`)
)

// Classify decides whether item looks like a DOI, PMID, PMCID, or a title,
// and returns the kind together with the normalized identifier value.
func Classify(item string) (IdentifierKind, string) {
	if m := doiRe.FindStringSubmatch(item); m != nil {
		return KindDOI, m[1]
	}
	if m := pmcidRe.FindStringSubmatch(item); m != nil {
		return KindPMCID, strings.ToUpper(m[1])
	}
	if m := pmidRe.FindStringSubmatch(item); m != nil {
		return KindPMID, m[1]
	}
	return KindTitle, strings.TrimSpace(item)
}

// queriesFor builds the ordered list of search formulations to try for an
// identifier. Field queries are tried before bare ones because bare
// identifiers sometimes match unrelated records.
func queriesFor(kind IdentifierKind, value string) []string {
	switch kind {
	case KindDOI:
		return []string{fmt.Sprintf(`DOI:"%s"`, value), value}
	case KindPMID:
		return []string{fmt.Sprintf(`EXT_ID:%s AND SRC:MED`, value), value}
	case KindPMCID:
		return []string{fmt.Sprintf(`PMCID:%s`, value), value}
	default:
		return []string{fmt.Sprintf(`TITLE:"%s"`, escapeQuotes(value)), escapeQuotes(value)}
	}
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, ` `)
}

// Resolve finds the Europe PMC record for a free-form reference string.
// Several query formulations are tried in order; the first that yields hits
// wins, and the best hit among them is picked. Returns nil when nothing
// matched.
func (c *Client) Resolve(ctx context.Context, item string) (*types.Article, error) {
	kind, value := Classify(item)

	var lastErr error
	for _, query := range queriesFor(kind, value) {
		hits, err := c.search(ctx, query, 5, "lite")
		if err != nil {
			lastErr = err
			continue
		}
		if len(hits) == 0 {
			continue
		}
		best := bestHit(hits)
		art := articleFromHit(best)
		return &art, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("resolving %q: %w", item, lastErr)
	}
	return nil, nil
}

// bestHit picks the preferred record among search hits. Records with a PMCID
// (full text available) win over those without; PubMed-sourced records win
// over preprints and books; relevance score breaks ties.
func bestHit(hits []searchResult) searchResult {
	ranked := make([]searchResult, len(hits))
	copy(ranked, hits)
	sort.SliceStable(ranked, func(i, j int) bool {
		hi, hj := ranked[i], ranked[j]
		if (hi.PMCID != "") != (hj.PMCID != "") {
			return hi.PMCID != ""
		}
		if isPubMedSource(hi.Source) != isPubMedSource(hj.Source) {
			return isPubMedSource(hi.Source)
		}
		return hi.Score > hj.Score
	})
	return ranked[0]
}

func isPubMedSource(src string) bool {
	switch strings.ToUpper(src) {
	case "MED", "MEDLINE", "PUBMED":
		return true
	}
	return false
}

// articleFromHit converts a raw search row into an Article.
func articleFromHit(hit searchResult) types.Article {
	art := types.Article{
		PMID:         hit.PMID,
		PMCID:        hit.PMCID,
		DOI:          hit.DOI,
		Title:        strings.TrimSpace(hit.Title),
		Journal:      hit.JournalTitle,
		Year:         int(hit.PubYear),
		Source:       hit.Source,
		Abstract:     hit.AbstractText,
		CitedByCount: hit.CitedByCount,
	}
	if art.PMID == "" && isPubMedSource(hit.Source) {
		art.PMID = hit.ID
	}
	art.SourceURL = sourceURL(art)
	return art
}

// sourceURL returns the canonical europepmc.org page for an article, or ""
// when it carries no usable identifier.
func sourceURL(art types.Article) string {
	switch {
	case art.PMCID != "":
		return fmt.Sprintf("%s/PMC/%s", articleBase, art.PMCID)
	case art.PMID != "":
		return fmt.Sprintf("%s/MED/%s", articleBase, art.PMID)
	case art.DOI != "":
		return "https://doi.org/" + art.DOI
	}
	return ""
}

// SourceAndID returns the Europe PMC (source, id) pair addressing an
// article in the REST path scheme, preferring the PubMed ID.
func SourceAndID(art types.Article) (string, string, bool) {
	switch {
	case art.PMID != "":
		return "MED", art.PMID, true
	case art.PMCID != "":
		return "PMC", strings.TrimPrefix(art.PMCID, "PMC"), true
	}
	return "", "", false
}
