package search

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "a b c", CleanText("  a\n\tb \r\n  c  "))
	assert.Equal(t, "one two", CleanText("one \t\t two"))
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, isValidURL("https://go.dev/doc"))
	assert.True(t, isValidURL("http://example.com/page?q=1"))
	assert.False(t, isValidURL("ftp://example.com"))
	assert.False(t, isValidURL("not a url"))
	assert.False(t, isValidURL("/relative/path"))
	assert.False(t, isValidURL("https://www.youtube.com/watch?v=x"), "blocked domain")
	assert.False(t, isValidURL("https://facebook.com/page"), "blocked domain")
}

func TestExtractFromDocument_PrefersArticleContainer(t *testing.T) {
	body := strings.Repeat("Article body text. ", 10)
	doc := parseHTML(t, `<html><body>
		<nav>menu menu menu</nav>
		<article>`+body+`</article>
		<footer>copyright</footer>
	</body></html>`)

	got := ExtractFromDocument(doc)
	assert.Contains(t, got, "Article body text.")
	assert.NotContains(t, got, "menu")
	assert.NotContains(t, got, "copyright")
}

func TestExtractFromDocument_SkipsShortContainers(t *testing.T) {
	long := strings.Repeat("Real content paragraph here. ", 8)
	doc := parseHTML(t, `<html><body>
		<article>too short</article>
		<div class="content">`+long+`</div>
	</body></html>`)

	got := ExtractFromDocument(doc)
	assert.Contains(t, got, "Real content paragraph here.")
	assert.NotEqual(t, "too short", got)
}

func TestExtractFromDocument_ParagraphFallback(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<p>This paragraph is long enough to keep around.</p>
		<p>tiny</p>
		<h2>A heading that also clears the length bar</h2>
	</body></html>`)

	got := ExtractFromDocument(doc)
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, got, "long enough to keep")
	assert.NotContains(t, got, "tiny")
}

func TestExtractFromDocument_StripsScriptAndStyle(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<script>var secret = "nope";</script>
		<style>.x { color: red }</style>
		<p>Visible text that should definitely survive extraction.</p>
	</body></html>`)

	got := ExtractFromDocument(doc)
	assert.Contains(t, got, "Visible text")
	assert.NotContains(t, got, "secret")
	assert.NotContains(t, got, "color: red")
}

func TestResolveRedirect(t *testing.T) {
	resolved := resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc%2F&rut=abc")
	assert.Equal(t, "https://go.dev/doc/", resolved)

	// Direct links pass through untouched.
	assert.Equal(t, "https://example.com/x", resolveRedirect("https://example.com/x"))
}
