// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package epmc

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

// FullText is the result of a full-text fetch: the raw JATS XML and the
// plain text extracted from it.
type FullText struct {
	XML      string
	Text     string
	Abstract string
}

// FullText fetches the open-access JATS XML for an article and converts it
// to plain text. Only articles with a PMCID carry full text. Results are
// memoized per PMCID.
func (c *Client) FullText(ctx context.Context, art types.Article) (FullText, error) {
	if art.PMCID == "" {
		return FullText{}, fmt.Errorf("article %q has no PMCID, full text unavailable", art.Title)
	}

	c.mu.Lock()
	if cached, hit := c.fulltextCache[art.PMCID]; hit {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	rawURL := fmt.Sprintf("%s/%s/fullTextXML", c.base, art.PMCID)
	body, err := c.getText(ctx, rawURL)
	if err != nil {
		return FullText{}, fmt.Errorf("fetching full text for %s: %w", art.PMCID, err)
	}

	ft := FullText{
		XML:      body,
		Text:     BodyText(body),
		Abstract: AbstractText(body),
	}

	c.mu.Lock()
	c.fulltextCache[art.PMCID] = ft
	c.mu.Unlock()
	return ft, nil
}

// Elements whose text content is noise for downstream extraction:
// bibliographies, tables, figure captions, and supplement stubs.
var skipElements = map[string]bool{
	"ref-list":               true,
	"table-wrap":             true,
	"fig":                    true,
	"supplementary-material": true,
}

// BodyText extracts the plain text of the <body> of a JATS document,
// dropping reference lists, tables, figures, and supplementary material,
// and collapsing runs of whitespace.
func BodyText(jats string) string {
	return extractText(jats, "body")
}

// AbstractText extracts the plain text of the <abstract> element.
func AbstractText(jats string) string {
	return extractText(jats, "abstract")
}

// extractText walks the XML token stream and collects character data inside
// the named element, skipping the subtrees in skipElements.
func extractText(doc, within string) string {
	dec := xml.NewDecoder(strings.NewReader(doc))
	dec.Strict = false

	var sb strings.Builder
	depth := 0     // nesting inside the target element
	skipDepth := 0 // nesting inside a skipped subtree

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if skipDepth > 0 {
				skipDepth++
				continue
			}
			if depth > 0 && skipElements[name] {
				skipDepth = 1
				continue
			}
			if name == within {
				depth++
			} else if depth > 0 {
				depth++
			}
			// Titles and paragraphs start on their own line.
			if depth > 0 && (name == "p" || name == "title" || name == "sec") {
				sb.WriteString("\n")
			}
		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			if depth > 0 {
				depth--
			}
		case xml.CharData:
			if depth > 0 && skipDepth == 0 {
				sb.Write(t)
				sb.WriteString(" ")
			}
		}
	}
	return collapseWhitespace(sb.String())
}

// collapseWhitespace normalizes runs of spaces within lines and collapses
// blank-line runs, matching what extraction prompts expect.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
