package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Domains whose pages never yield useful article text
var blockedDomains = []string{
	"youtube.com", "facebook.com", "twitter.com", "instagram.com",
	"tiktok.com", "pinterest.com", "reddit.com",
}

// Selectors tried in order when looking for the main content container
var contentSelectors = []string{
	"article", "main", "[role=\"main\"]", ".content", "#content",
	".post", ".entry", ".article", ".post-content",
	"[itemprop=\"articleBody\"]", ".markdown-body",
	".article__content", ".post__content",
	".documentation", ".docs-content",
	"#readme",
}

var (
	lineBreakRe  = regexp.MustCompile(`[\n\r\t]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Extractor pulls the main readable text out of a web page.
type Extractor struct {
	client *http.Client
}

func NewExtractor(client *http.Client) *Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Extractor{client: client}
}

func isValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" {
		return false
	}
	domain := strings.ToLower(parsed.Host)
	for _, bd := range blockedDomains {
		if strings.Contains(domain, bd) {
			return false
		}
	}
	return true
}

// CleanText collapses whitespace runs and strips control characters.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = lineBreakRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Extract fetches url and returns its main text content. It first tries the
// known content containers, then falls back to collecting meaningful
// paragraphs. Returns empty string when nothing useful was found.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	return ExtractFromDocument(doc), nil
}

// ExtractFromDocument applies the extraction strategy to an already-parsed
// document. Split out so tests can feed HTML directly.
func ExtractFromDocument(doc *goquery.Document) string {
	// Strip boilerplate elements first
	doc.Find("script, style, nav, header, footer, iframe, aside").Remove()

	// 1. Try known main-content containers
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		cleaned := CleanText(sel.Text())
		if len(cleaned) > 100 {
			return cleaned
		}
	}

	// 2. Fall back to collecting meaningful paragraphs
	var paragraphs []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, sel *goquery.Selection) {
		text := CleanText(sel.Text())
		if len(text) > 20 {
			paragraphs = append(paragraphs, text)
		}
	})

	return strings.Join(paragraphs, "\n")
}
