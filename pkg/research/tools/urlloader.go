package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// defaultUserAgent helps avoid 403 responses from sites that reject
// anonymous clients.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// PageLoader fetches web pages and extracts their visible text. Each URL
// is loaded independently; failures are logged and skipped so one dead
// link never loses the rest.
type PageLoader struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

func NewPageLoader(logger *slog.Logger) *PageLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageLoader{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  defaultUserAgent,
		logger:     logger,
	}
}

// ExtractContent implements research.ContentLoader.
func (l *PageLoader) ExtractContent(ctx context.Context, urls []string) []string {
	var texts []string
	for _, url := range urls {
		text, err := l.loadURL(ctx, url)
		if err != nil {
			l.logger.Warn("urlloader: failed to load URL", "url", url, "error", err)
			continue
		}
		if text == "" {
			continue
		}
		l.logger.Info("urlloader: loaded URL", "url", url, "length", len(text))
		texts = append(texts, text)
	}
	return texts
}

func (l *PageLoader) loadURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned non-200 status code: %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return extractText(doc), nil
}

// extractText walks the DOM collecting text nodes, skipping script and
// style subtrees, and normalizes whitespace.
func extractText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(sb.String()), " ")
}
