// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package epmc is a Europe PMC REST client: identifier resolution,
// article details, JATS full text, and reference/citation listing.
// All calls share a rate limiter and in-memory memoization so that the
// network expansion does not refetch papers reachable through multiple
// paths.
package epmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/feliks-hub/protein-kb/internal/httputil"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

// Default endpoints for the Europe PMC web services.
var (
	restBase    = "https://www.ebi.ac.uk/europepmc/webservices/rest"
	articleBase = "https://europepmc.org/article"
)

// defaultRate is the polite request rate against ebi.ac.uk.
const defaultRate = 8 // requests per second

// Client is a Europe PMC REST client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	base       string

	mu            sync.Mutex
	detailCache   map[string]types.Article
	fulltextCache map[string]FullText
}

// NewClient creates a Client using the given HTTP client and settings.
// A nil httpClient falls back to http.DefaultClient.
func NewClient(httpClient *http.Client, cfg types.HTTPConfig) *Client {
	return NewClientWithBase(httpClient, cfg, restBase)
}

// NewClientWithBase creates a Client against a non-default REST root.
// Tests use it to point the client at an httptest server.
func NewClientWithBase(httpClient *http.Client, cfg types.HTTPConfig, base string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:    httpClient,
		limiter:       rate.NewLimiter(rate.Limit(defaultRate), 1),
		userAgent:     cfg.UserAgent,
		base:          base,
		detailCache:   make(map[string]types.Article),
		fulltextCache: make(map[string]FullText),
	}
}

// getJSON performs a rate-limited GET against path (joined to restBase)
// and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.base + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return fmt.Errorf("Europe PMC request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Europe PMC returned HTTP %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Europe PMC response: %w", err)
	}
	return nil
}

// getText performs a rate-limited GET and returns the raw response body.
// Non-200 statuses return an error.
func (c *Client) getText(ctx context.Context, rawURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return "", fmt.Errorf("Europe PMC request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Europe PMC returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}

// Search JSON structures. Europe PMC is inconsistent about numeric fields
// across endpoints (pubYear is a string in search results and an int in
// citation lists), so flexInt absorbs both.

type searchResponse struct {
	HitCount       int        `json:"hitCount"`
	NextCursorMark string     `json:"nextCursorMark"`
	ResultList     resultList `json:"resultList"`
}

type resultList struct {
	Result []searchResult `json:"result"`
}

type searchResult struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	PMID         string    `json:"pmid"`
	PMCID        string    `json:"pmcid"`
	DOI          string    `json:"doi"`
	Title        string    `json:"title"`
	JournalTitle string    `json:"journalTitle"`
	PubYear      flexInt   `json:"pubYear"`
	AbstractText string    `json:"abstractText"`
	AuthorString string    `json:"authorString"`
	Score        flexFloat `json:"score"`
	CitedByCount int       `json:"citedByCount"`
	IsOpenAccess flexBool  `json:"isOpenAccess"`
}

// flexFloat decodes a JSON number or a numeric string into a float64.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexInt decodes a JSON number or a numeric string into an int.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Non-numeric years ("2020 Jan") keep their leading digits.
		digits := strings.TrimFunc(s, func(r rune) bool { return r < '0' || r > '9' })
		if n, err = strconv.Atoi(digits); err != nil {
			*f = 0
			return nil
		}
	}
	*f = flexInt(n)
	return nil
}

// flexBool decodes JSON true/false or the "Y"/"N" strings Europe PMC uses.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	*f = flexBool(s == "true" || strings.EqualFold(s, "y"))
	return nil
}

// search runs one query against the search endpoint and returns the raw hits.
func (c *Client) search(ctx context.Context, query string, pageSize int, resultType string) ([]searchResult, error) {
	params := url.Values{
		"query":      {query},
		"format":     {"json"},
		"pageSize":   {strconv.Itoa(pageSize)},
		"resultType": {resultType},
	}
	var sr searchResponse
	if err := c.getJSON(ctx, "/search", params, &sr); err != nil {
		return nil, err
	}
	return sr.ResultList.Result, nil
}
