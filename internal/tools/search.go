// Package tools provides the web tools agents can call: web_search
// against a SearXNG instance and web_fetch for page content.
//
// Both tools share resource limits: request timeout, response size cap,
// and a bounded redirect chain. They never panic into the tool loop;
// every failure is an error the caller reports back to the model.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/herald0/herald/internal/log"
)

const (
	// maxResponseSize caps how much of any HTTP response is read.
	maxResponseSize = 10 << 20 // 10MB

	// requestTimeout bounds each outbound request.
	requestTimeout = 30 * time.Second

	// maxRedirects bounds the redirect chain.
	maxRedirects = 10

	// maxSearchResults is how many hits web_search returns to the model.
	maxSearchResults = 5
)

// ErrNoResults indicates the search backend returned zero hits.
var ErrNoResults = errors.New("no search results")

// newHTTPClient builds the shared outbound client with the package's
// resource limits applied.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// SearchTool implements web_search over the SearXNG JSON API.
type SearchTool struct {
	baseURL string
	client  *http.Client
	logger  log.Logger
}

// NewSearchTool creates the search tool against a SearXNG instance.
func NewSearchTool(baseURL string, logger log.Logger) (*SearchTool, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid search base URL %q", baseURL)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &SearchTool{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
		logger:  logger,
	}, nil
}

// Name implements agent.Tool.
func (t *SearchTool) Name() string { return "web_search" }

// Description implements agent.Tool.
func (t *SearchTool) Description() string {
	return "Search the web for current information. Returns titles, URLs, and snippets of the top results."
}

// Schema implements agent.Tool.
func (t *SearchTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string", Description: "The search query"},
		},
		Required: []string{"query"},
	}
}

type searchArgs struct {
	Query string `json:"query"`
}

// searxResponse is the slice of the SearXNG JSON payload we consume.
type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Call implements agent.Tool. It queries SearXNG and formats the top
// hits as a plain-text block the model can summarize.
func (t *SearchTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var in searchArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("decoding search arguments: %w", err)
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", errors.New("search query is empty")
	}

	t.logger.Debug("web search", "query", in.Query)

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", t.baseURL, url.QueryEscape(in.Query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building search request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search backend returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading search response: %w", err)
	}

	var payload searxResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decoding search response: %w", err)
	}
	if len(payload.Results) == 0 {
		return "", fmt.Errorf("%w for %q", ErrNoResults, in.Query)
	}

	var b strings.Builder
	for i, r := range payload.Results {
		if i == maxSearchResults {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.URL, strings.TrimSpace(r.Content))
	}
	return strings.TrimSpace(b.String()), nil
}
