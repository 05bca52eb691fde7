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

	"github.com/PuerkitoBio/goquery"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/herald0/herald/internal/agent"
	"github.com/herald0/herald/internal/log"
)

// maxFetchedText caps the extracted article text handed to the model.
const maxFetchedText = 8000

// FetchTool implements web_fetch: it downloads a page and extracts its
// readable text for the model.
type FetchTool struct {
	client *http.Client
	logger log.Logger
}

// NewFetchTool creates the fetch tool.
func NewFetchTool(logger log.Logger) *FetchTool {
	if logger == nil {
		logger = log.NewNop()
	}
	return &FetchTool{
		client: newHTTPClient(),
		logger: logger,
	}
}

// Name implements agent.Tool.
func (t *FetchTool) Name() string { return "web_fetch" }

// Description implements agent.Tool.
func (t *FetchTool) Description() string {
	return "Fetch a web page and return its readable text content."
}

// Schema implements agent.Tool.
func (t *FetchTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {Type: "string", Description: "The absolute http(s) URL to fetch"},
		},
		Required: []string{"url"},
	}
}

type fetchArgs struct {
	URL string `json:"url"`
}

// Call implements agent.Tool.
func (t *FetchTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var in fetchArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("decoding fetch arguments: %w", err)
	}

	u, err := url.Parse(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid fetch URL %q", in.URL)
	}

	t.logger.Debug("web fetch", "url", in.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
	if err != nil {
		return "", fmt.Errorf("building fetch request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned %s", resp.Status)
	}

	text, err := extractText(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", err
	}
	if len(text) > maxFetchedText {
		text = text[:maxFetchedText]
	}
	return text, nil
}

// extractText pulls the readable content out of an HTML document.
// Headings and paragraphs carry the article body on most pages; script
// and style subtrees are dropped first.
func extractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer").Remove()

	var parts []string
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	if len(parts) == 0 {
		// Fall back to whatever text the body has.
		if text := strings.TrimSpace(doc.Find("body").Text()); text != "" {
			return strings.Join(strings.Fields(text), " "), nil
		}
		return "", errors.New("page has no readable text")
	}
	return strings.Join(parts, "\n"), nil
}

// compile-time interface checks
var (
	_ agent.Tool = (*SearchTool)(nil)
	_ agent.Tool = (*FetchTool)(nil)
)
