// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package litnet

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/feliks-hub/protein-kb/internal/epmc"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

// Relation names for how a node entered the network.
const (
	RelationSeed     = "seed"
	RelationRef      = "reference"
	RelationCitation = "citation"
)

// Node is one paper in the reference network. Depth is the minimum BFS
// distance from any seed; Relations and Parents accumulate across every
// path that reached the node.
type Node struct {
	Key       string        `json:"key"`
	Article   types.Article `json:"article"`
	Depth     int           `json:"depth"`
	Relations []string      `json:"relations"`
	Parents   []string      `json:"parents,omitempty"`
	Score     float64       `json:"score"`
	Signals   Signals       `json:"signals"`
}

// PrimaryRelation returns the strongest way the node entered the network:
// reference edges outrank citation edges, which outrank being a seed.
func (n *Node) PrimaryRelation() string {
	for _, rel := range []string{RelationRef, RelationCitation, RelationSeed} {
		for _, have := range n.Relations {
			if have == rel {
				return rel
			}
		}
	}
	return ""
}

// Network is the result of an expansion: nodes keyed by canonical
// identifier, plus the seed keys in input order.
type Network struct {
	Seeds []string         `json:"seeds"`
	Nodes map[string]*Node `json:"nodes"`
}

// Ranked returns the nodes ordered by score descending, ties broken by
// depth then key for stable output.
func (n *Network) Ranked() []*Node {
	out := make([]*Node, 0, len(n.Nodes))
	for _, node := range n.Nodes {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Top returns the n highest-scoring nodes.
func (n *Network) Top(count int) []*Node {
	ranked := n.Ranked()
	if count > 0 && len(ranked) > count {
		ranked = ranked[:count]
	}
	return ranked
}

// NodeKey returns the canonical key for an article, preferring the most
// specific identifier. Articles with no identifier at all get a hash of
// their normalized title so duplicates still collapse.
func NodeKey(art types.Article) string {
	switch {
	case art.PMID != "":
		return "pmid:" + art.PMID
	case art.PMCID != "":
		return "pmcid:" + strings.ToUpper(art.PMCID)
	case art.DOI != "":
		return "doi:" + strings.ToLower(art.DOI)
	}
	title := normalizeTitle(art.Title)
	if title == "" {
		return ""
	}
	sum := sha1.Sum([]byte(title))
	return "anon:" + hex.EncodeToString(sum[:])[:12]
}

// normalizeTitle lowercases and collapses whitespace so near-identical
// titles compare equal.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// Expander walks reference networks through a shared Europe PMC client.
type Expander struct {
	client   *epmc.Client
	cfg      types.NetworkConfig
	weights  types.ScoringWeights
	progress io.Writer
}

// NewExpander creates an Expander. progress receives one line per
// expanded node; pass io.Discard to silence it.
func NewExpander(client *epmc.Client, cfg types.NetworkConfig, weights types.ScoringWeights, progress io.Writer) *Expander {
	if progress == nil {
		progress = io.Discard
	}
	return &Expander{client: client, cfg: cfg, weights: weights, progress: progress}
}

// Expand resolves the seed references and walks their references and
// citations breadth-first up to the configured depth. A seed that cannot
// be resolved is reported and skipped; a failed reference fetch truncates
// that branch but never aborts the walk. Before scoring, nodes missing an
// abstract are enriched through the memoized details lookup so the text
// signals see more than the title.
func (e *Expander) Expand(ctx context.Context, seeds []string) (*Network, error) {
	net := &Network{Nodes: make(map[string]*Node)}

	var frontier []*Node
	for _, seed := range seeds {
		art, err := e.client.Resolve(ctx, seed)
		if err != nil {
			return nil, fmt.Errorf("resolving seed %q: %w", seed, err)
		}
		if art == nil {
			fmt.Fprintf(e.progress, "seed not found: %s\n", seed)
			continue
		}
		node := e.addNode(net, *art, 0, RelationSeed, "")
		if node != nil {
			net.Seeds = append(net.Seeds, node.Key)
			frontier = append(frontier, node)
		}
	}

	for depth := 0; depth < e.cfg.MaxDepth; depth++ {
		var next []*Node
		for _, node := range frontier {
			if err := ctx.Err(); err != nil {
				return net, err
			}
			fmt.Fprintf(e.progress, "expanding %s (depth %d): %s\n", node.Key, node.Depth, truncate(node.Article.Title, 60))

			if e.follows(RelationRef) {
				refs, err := e.client.References(ctx, node.Article)
				if err != nil {
					return net, err
				}
				for _, ref := range refs {
					if child := e.addNode(net, ref, depth+1, RelationRef, node.Key); child != nil {
						next = append(next, child)
					}
				}
			}
			if e.follows(RelationCitation) {
				cites, err := e.client.Citations(ctx, node.Article)
				if err != nil {
					return net, err
				}
				for _, cite := range cites {
					if child := e.addNode(net, cite, depth+1, RelationCitation, node.Key); child != nil {
						next = append(next, child)
					}
				}
			}
			if e.cfg.RequestDelay > 0 {
				time.Sleep(e.cfg.RequestDelay)
			}
		}
		frontier = next
	}

	for _, node := range net.Nodes {
		if node.Article.Abstract == "" {
			full, err := e.client.Details(ctx, node.Article)
			switch {
			case err == nil:
				node.Article = full
			case ctx.Err() != nil:
				return net, ctx.Err()
			default:
				// Reference rows rarely carry identifiers beyond the PMID;
				// a node the details endpoint cannot find is scored on its
				// title alone.
				fmt.Fprintf(e.progress, "no details for %s: %v\n", node.Key, err)
			}
		}
		text := node.Article.Title
		if node.Article.Abstract != "" {
			text += ". " + node.Article.Abstract
		}
		node.Score, node.Signals = Score(node.Article, text, e.weights)
	}
	return net, nil
}

// follows reports whether a relation is enabled in the config. An empty
// relation list means both.
func (e *Expander) follows(relation string) bool {
	if len(e.cfg.Relations) == 0 {
		return true
	}
	for _, r := range e.cfg.Relations {
		if r == relation {
			return true
		}
	}
	return false
}

// addNode inserts or merges an article into the network. The first visit
// fixes the node's article and depth; later visits only merge the relation
// and parent. Returns the node when this visit should extend the frontier
// (first sighting only), nil otherwise.
func (e *Expander) addNode(net *Network, art types.Article, depth int, relation, parent string) *Node {
	key := NodeKey(art)
	if key == "" {
		return nil
	}

	if existing, ok := net.Nodes[key]; ok {
		existing.Relations = appendUnique(existing.Relations, relation)
		if parent != "" {
			existing.Parents = appendUnique(existing.Parents, parent)
		}
		if depth < existing.Depth {
			existing.Depth = depth
		}
		return nil
	}

	node := &Node{
		Key:       key,
		Article:   art,
		Depth:     depth,
		Relations: []string{relation},
	}
	if parent != "" {
		node.Parents = []string{parent}
	}
	net.Nodes[key] = node
	return node
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	list = append(list, item)
	sort.Strings(list)
	return list
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
