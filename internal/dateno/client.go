// Package dateno is a small client for the Dateno dataset search index.
package dateno

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ziadkadry99/datenollm/internal/response"
)

// SearchPath is the index query endpoint relative to the API base.
const SearchPath = "/index/0.2/query"

// Page selects a window of results.
type Page struct {
	Offset int
	Page   int
	Limit  int
}

// DefaultPage mirrors the index defaults: first page, up to 500 hits.
func DefaultPage() Page {
	return Page{Offset: 0, Page: 1, Limit: 500}
}

// Client queries the Dateno index API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient creates a client with a bounded HTTP timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Hit is one search result. Source keeps the full document.
type Hit struct {
	ID          string          `json:"_id"`
	Title       string          `json:"-"`
	Description string          `json:"-"`
	Source      json.RawMessage `json:"_source"`
}

// SearchResult is the decoded index response. Raw is the body as returned.
type SearchResult struct {
	Total int             `json:"total"`
	Hits  []Hit           `json:"hits"`
	Raw   json.RawMessage `json:"raw"`
}

// QueryResult pairs a model-proposed query with its search results.
type QueryResult struct {
	Query   response.QueryRequest `json:"query"`
	Results json.RawMessage       `json:"results"`
}

// IndexSearch runs one query against the index.
func (c *Client) IndexSearch(ctx context.Context, query string, filters []string, page Page) (*SearchResult, error) {
	params := url.Values{}
	if c.APIKey != "" {
		params.Set("apikey", c.APIKey)
	}
	params.Set("q", query)
	for _, f := range filters {
		params.Add("filters", f)
	}
	params.Set("offset", strconv.Itoa(page.Offset))
	params.Set("page", strconv.Itoa(page.Page))
	params.Set("limit", strconv.Itoa(page.Limit))

	endpoint := c.BaseURL + SearchPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dateno search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading dateno response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dateno search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("dateno search: response is not JSON")
	}
	return decodeResult(body), nil
}

// decodeResult accepts both the {"hits":{"hits":[...]}} envelope and a bare
// list of hits.
func decodeResult(body []byte) *SearchResult {
	doc := gjson.ParseBytes(body)
	list := doc.Get("hits.hits")
	if !list.IsArray() && doc.IsArray() {
		list = doc
	}

	res := &SearchResult{Raw: json.RawMessage(body), Hits: []Hit{}}
	list.ForEach(func(_, h gjson.Result) bool {
		hit := Hit{
			ID:          h.Get("_id").String(),
			Title:       h.Get("_source.dataset.title").String(),
			Description: h.Get("_source.dataset.description").String(),
		}
		if src := h.Get("_source"); src.Exists() {
			hit.Source = json.RawMessage(src.Raw)
		}
		res.Hits = append(res.Hits, hit)
		return true
	})

	total := doc.Get("hits.total.value")
	if !total.Exists() {
		total = doc.Get("hits.total")
	}
	if total.Type == gjson.Number {
		res.Total = int(total.Int())
	} else {
		res.Total = len(res.Hits)
	}
	return res
}

// FilterStrings renders filters in the name=value form the index expects.
func FilterStrings(filters []response.Filter) []string {
	out := make([]string, 0, len(filters))
	for _, f := range filters {
		out = append(out, f.Name+"="+f.Value)
	}
	return out
}

// SearchQueries runs every query of ql in order. onDone, when set, is called
// after each query completes.
func (c *Client) SearchQueries(ctx context.Context, ql response.QueryList, page Page, onDone func(i int, q response.QueryRequest)) ([]QueryResult, error) {
	results := make([]QueryResult, 0, len(ql.Queries))
	for i, q := range ql.Queries {
		res, err := c.IndexSearch(ctx, q.Query, FilterStrings(q.Filters), page)
		if err != nil {
			return results, fmt.Errorf("query %q: %w", q.Query, err)
		}
		results = append(results, QueryResult{Query: q, Results: res.Raw})
		if onDone != nil {
			onDone(i, q)
		}
	}
	return results, nil
}

// Hits extracts the hits of a stored QueryResult.
func (r QueryResult) Hits() []Hit {
	if len(r.Results) == 0 {
		return nil
	}
	return decodeResult(r.Results).Hits
}

// Row is a display-ready search hit.
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// DatasetURL links to a dataset page on dateno.io.
func DatasetURL(id string) string {
	return "https://dateno.io/search/#" + id
}

// Rows converts hits into display rows.
func Rows(hits []Hit) []Row {
	rows := make([]Row, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, Row{
			ID:          h.ID,
			Title:       h.Title,
			Description: h.Description,
			Link:        DatasetURL(h.ID),
		})
	}
	return rows
}
