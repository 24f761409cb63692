package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	xhtml "golang.org/x/net/html"
)

const (
	ddgEndpoint      = "https://html.duckduckgo.com/html/"
	ddgUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	ddgContentType   = "application/x-www-form-urlencoded"
	maxResponseBytes = 1 << 20
	defaultTimeout   = 12 * time.Second
)

// DuckDuckGo queries the HTML search endpoint and extracts result blocks. It
// implements Provider.
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
}

type DuckDuckGoOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Endpoint   string // overridden in tests
}

func NewDuckDuckGo(opts *DuckDuckGoOptions) *DuckDuckGo {
	cfg := DuckDuckGoOptions{}
	if opts != nil {
		cfg = *opts
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	client.Timeout = timeout
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = ddgEndpoint
	}
	return &DuckDuckGo{client: client, endpoint: endpoint}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]ProviderResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}

	form := url.Values{}
	form.Set("q", query)
	form.Set("kl", "us-en")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", ddgUserAgent)
	req.Header.Set("Content-Type", ddgContentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("search failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	doc, err := xhtml.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse search HTML: %w", err)
	}

	results := extractResults(doc)
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func extractResults(doc *xhtml.Node) []ProviderResult {
	if doc == nil {
		return nil
	}
	results := make([]ProviderResult, 0, 8)
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.Data == "div" && nodeHasClass(n, "result") {
			if res := buildResult(n); res != nil {
				results = append(results, *res)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return results
}

func buildResult(node *xhtml.Node) *ProviderResult {
	var title, urlStr, snippet, fallbackURL string
	var inspect func(*xhtml.Node)
	inspect = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode {
			if urlStr == "" && n.Data == "a" && nodeHasClass(n, "result__a") {
				if href := getAttr(n, "href"); href != "" {
					urlStr = cleanResultURL(href)
				}
				if title == "" {
					title = nodeText(n)
				}
			}
			if snippet == "" && nodeHasClass(n, "result__snippet") {
				snippet = nodeText(n)
			}
			if fallbackURL == "" && nodeHasClass(n, "result__url") {
				fallbackURL = nodeText(n)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			inspect(child)
		}
	}
	inspect(node)

	if urlStr == "" && fallbackURL != "" {
		urlStr = cleanResultURL(fallbackURL)
	}
	if urlStr == "" || title == "" {
		return nil
	}
	return &ProviderResult{Title: title, URL: urlStr, Snippet: snippet}
}

// cleanResultURL unwraps DuckDuckGo's redirect links (//duckduckgo.com/l/?uddg=...)
func cleanResultURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.Contains(parsed.Host, "duckduckgo.com") && parsed.Path == "/l/" {
		if target := parsed.Query().Get("uddg"); target != "" {
			if decoded, err := url.QueryUnescape(target); err == nil {
				return decoded
			}
			return target
		}
	}
	return raw
}

func nodeHasClass(n *xhtml.Node, class string) bool {
	for _, part := range strings.Fields(getAttr(n, "class")) {
		if part == class {
			return true
		}
	}
	return false
}

func getAttr(n *xhtml.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *xhtml.Node) string {
	var b strings.Builder
	var collect func(*xhtml.Node)
	collect = func(n *xhtml.Node) {
		if n == nil {
			return
		}
		switch n.Type {
		case xhtml.TextNode:
			b.WriteString(n.Data)
		case xhtml.ElementNode:
			if n.Data == "br" {
				b.WriteByte(' ')
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
