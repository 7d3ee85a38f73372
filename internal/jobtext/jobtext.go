// Package jobtext turns a pasted or downloaded job posting into the plain,
// line-oriented text the keyword and requirement extractors expect.
package jobtext

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlPattern = regexp.MustCompile(`(?i)<\s*(html|body|div|p|ul|ol|li|br|h[1-6]|section|article|span|table)\b`)

const (
	noiseSelector = "nav, footer, header, script, style, noscript, iframe, form, .cookie-banner, .popup, .sidebar"
	blockSelector = "p, div, li, h1, h2, h3, h4, h5, h6, tr, section, article, ul, ol, dt, dd"
)

// contentSelectors are tried in order; the first match becomes the posting body.
var contentSelectors = []string{
	".job-description",
	"#job-description",
	".job-details",
	".posting-content",
	"[data-testid='job-description']",
	"main",
	"article",
}

// LooksLikeHTML reports whether s contains common HTML markup
func LooksLikeHTML(s string) bool {
	return htmlPattern.MatchString(s)
}

// Normalize returns plain text for s. HTML postings are reduced to their
// visible text; plain text only has its line endings and blank lines tidied.
func Normalize(s string) (string, error) {
	if LooksLikeHTML(s) {
		return ExtractText(s)
	}
	return cleanLines(s), nil
}

// ExtractText parses an HTML posting and returns its visible text with one
// line per block element.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	var content *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	content.Find("br").ReplaceWithHtml("\n")
	content.Find(blockSelector).AppendHtml("\n")

	return cleanLines(content.Text()), nil
}

// cleanLines collapses whitespace inside each line and drops blank lines
func cleanLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
