// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package epmc

import (
	"context"
	"fmt"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

// Details fetches the core record for an article, filling in the abstract
// and any identifiers the original lookup was missing. Results are
// memoized per (source, id).
func (c *Client) Details(ctx context.Context, art types.Article) (types.Article, error) {
	source, id, ok := SourceAndID(art)
	if !ok {
		return art, fmt.Errorf("article %q has no PMID or PMCID", art.Title)
	}
	key := source + ":" + id

	c.mu.Lock()
	if cached, hit := c.detailCache[key]; hit {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	query := fmt.Sprintf("EXT_ID:%s AND SRC:%s", id, source)
	if source == "PMC" {
		query = fmt.Sprintf("PMCID:PMC%s", id)
	}
	hits, err := c.search(ctx, query, 1, "core")
	if err != nil {
		return art, err
	}
	if len(hits) == 0 {
		return art, fmt.Errorf("no Europe PMC record for %s/%s", source, id)
	}

	full := articleFromHit(hits[0])
	merged := mergeArticles(art, full)

	c.mu.Lock()
	c.detailCache[key] = merged
	c.mu.Unlock()
	return merged, nil
}

// mergeArticles overlays the core record onto the original, keeping any
// field the original already had.
func mergeArticles(base, full types.Article) types.Article {
	out := base
	if out.PMID == "" {
		out.PMID = full.PMID
	}
	if out.PMCID == "" {
		out.PMCID = full.PMCID
	}
	if out.DOI == "" {
		out.DOI = full.DOI
	}
	if out.Title == "" {
		out.Title = full.Title
	}
	if out.Journal == "" {
		out.Journal = full.Journal
	}
	if out.Year == 0 {
		out.Year = full.Year
	}
	if out.Abstract == "" {
		out.Abstract = full.Abstract
	}
	if out.Source == "" {
		out.Source = full.Source
	}
	if out.CitedByCount == 0 {
		out.CitedByCount = full.CitedByCount
	}
	if out.SourceURL == "" {
		out.SourceURL = sourceURL(out)
	}
	return out
}
