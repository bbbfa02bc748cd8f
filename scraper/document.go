package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrRetrievalFailed is returned when the product page could not be obtained
	ErrRetrievalFailed = errors.New("document retrieval failed")

	// ErrEmptyDocument is returned when retrieval succeeded but produced no markup
	ErrEmptyDocument = errors.New("empty document")

	// ErrBotWall is returned when the retrieved page is a bot check instead of the product
	ErrBotWall = errors.New("bot wall detected")

	// ErrPriceUnavailable is returned when neither the current nor the original price could be read
	ErrPriceUnavailable = errors.New("price unavailable")
)

// Document is a queryable view of a product page. Selectors are opaque to
// the extractor; HTMLDocument interprets them as CSS selectors.
type Document interface {
	// FindFirst returns the trimmed text of the first selector that yields non-empty text
	FindFirst(selectors ...string) (string, bool)
	// FindAll returns the raw text of every element matched by selector
	FindAll(selector string) []string
	// Attr returns the named attribute of the first element matched by selector
	Attr(selector, name string) (string, bool)
}

// HTMLDocument is a goquery-backed Document
type HTMLDocument struct {
	doc *goquery.Document
}

// ParseHTML parses raw markup into a Document
func ParseHTML(markup string) (*HTMLDocument, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, ErrEmptyDocument
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	return &HTMLDocument{doc: doc}, nil
}

// FindFirst concatenates the text of all elements matched by each selector,
// the same way a jQuery-style .text() does, and returns the first non-empty one.
func (d *HTMLDocument) FindFirst(selectors ...string) (string, bool) {
	for _, selector := range selectors {
		text := strings.TrimSpace(d.doc.Find(selector).Text())
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// FindAll returns the text of each matched element in document order
func (d *HTMLDocument) FindAll(selector string) []string {
	selection := d.doc.Find(selector)
	texts := make([]string, 0, selection.Length())
	selection.Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, s.Text())
	})
	return texts
}

// Attr returns the attribute of the first matched element
func (d *HTMLDocument) Attr(selector, name string) (string, bool) {
	return d.doc.Find(selector).First().Attr(name)
}

// Title returns the page <title>, used for bot wall detection
func (d *HTMLDocument) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// BodyText returns the visible body text, used for bot wall detection
func (d *HTMLDocument) BodyText() string {
	body := d.doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return strings.TrimSpace(body.Text())
}
