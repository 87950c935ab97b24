// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package epmc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

// refPageSize is the page size used when walking reference and citation
// lists. Europe PMC allows up to 1000.
const refPageSize = 100

type referenceResponse struct {
	HitCount      int     `json:"hitCount"`
	ReferenceList refList `json:"referenceList"`
	CitationList  refList `json:"citationList"`
}

type refList struct {
	Reference []refRow `json:"reference"`
	Citation  []refRow `json:"citation"`
}

type refRow struct {
	ID           string  `json:"id"`
	Source       string  `json:"source"`
	PMID         string  `json:"pmid"`
	PMCID        string  `json:"pmcid"`
	DOI          string  `json:"doi"`
	Title        string  `json:"title"`
	Journal      string  `json:"journalAbbreviation"`
	PubYear      flexInt `json:"pubYear"`
	CitedByCount int     `json:"citedByCount"`
}

// References lists the papers an article cites. The list endpoint is
// paginated; a failed page fetch ends the walk and returns what was
// gathered so far, so one flaky page does not discard a branch.
func (c *Client) References(ctx context.Context, art types.Article) ([]types.Article, error) {
	return c.listRelated(ctx, art, "references")
}

// Citations lists the papers citing an article, with the same pagination
// and truncation behavior as References.
func (c *Client) Citations(ctx context.Context, art types.Article) ([]types.Article, error) {
	return c.listRelated(ctx, art, "citations")
}

func (c *Client) listRelated(ctx context.Context, art types.Article, relation string) ([]types.Article, error) {
	source, id, ok := SourceAndID(art)
	if !ok {
		return nil, fmt.Errorf("article %q has no PMID or PMCID", art.Title)
	}
	if source == "PMC" {
		id = "PMC" + id
	}

	var out []types.Article
	for page := 1; ; page++ {
		path := fmt.Sprintf("/%s/%s/%s/%d/%d/json", source, id, relation, page, refPageSize)
		var rr referenceResponse
		if err := c.getJSON(ctx, path, url.Values{}, &rr); err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			// Truncate on a failed page rather than losing the branch.
			return out, nil
		}

		rows := rr.ReferenceList.Reference
		if relation == "citations" {
			rows = rr.CitationList.Citation
		}
		for _, row := range rows {
			out = append(out, articleFromRef(row))
		}
		if len(rows) < refPageSize {
			return out, nil
		}
	}
}

// articleFromRef converts a reference or citation row into an Article.
// Rows rarely carry a PMCID; the MED id doubles as the PMID.
func articleFromRef(row refRow) types.Article {
	art := types.Article{
		PMID:         row.PMID,
		PMCID:        row.PMCID,
		DOI:          row.DOI,
		Title:        row.Title,
		Journal:      row.Journal,
		Year:         int(row.PubYear),
		Source:       row.Source,
		CitedByCount: row.CitedByCount,
	}
	if art.PMID == "" && isPubMedSource(row.Source) {
		art.PMID = row.ID
	}
	art.SourceURL = sourceURL(art)
	return art
}

// SearchPage runs a single cursor-paginated search, as used by the corpus
// harvester. It returns the page of hits as Articles, the raw hits' XML
// availability via PMCID presence, the next cursor, and the total hit count.
func (c *Client) SearchPage(ctx context.Context, query, cursor string, pageSize int) ([]types.Article, string, int, error) {
	params := url.Values{
		"query":      {query},
		"format":     {"json"},
		"pageSize":   {strconv.Itoa(pageSize)},
		"resultType": {"core"},
		"synonym":    {"Y"},
		"sort":       {"CITED desc"},
		"cursorMark": {cursor},
	}
	var sr searchResponse
	if err := c.getJSON(ctx, "/search", params, &sr); err != nil {
		return nil, "", 0, err
	}
	out := make([]types.Article, 0, len(sr.ResultList.Result))
	for _, hit := range sr.ResultList.Result {
		out = append(out, articleFromHit(hit))
	}
	return out, sr.NextCursorMark, sr.HitCount, nil
}
