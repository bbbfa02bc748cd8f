package scraper

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultDescriptionMaxLength  = 450
	DefaultDescriptionMaxBullets = 6

	minBulletLength    = 10
	minParagraphLength = 20
	maxParagraphs      = 3
	bulletSeparator    = " | "
	ellipsis           = "..."
	metaDescription    = `meta[name="description"]`
)

// DescriptionSelectors are tried in order; bullet-style sources are detected
// from the selector itself.
var DescriptionSelectors = []string{
	"#feature-bullets .a-list-item",
	"#feature-bullets li",
	"#productDescription",
	"#productDescription p",
	"#detailBullets_feature_div li",
	"#productOverview_feature_div",
	".a-unordered-list .a-list-item",
	".a-expander-content p",
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	pipeSeparator = regexp.MustCompile(`\s+\|\s+`)
)

// SummaryOptions bounds the generated description
type SummaryOptions struct {
	MaxLength  int
	MaxBullets int
}

// DefaultSummaryOptions returns the 450 character / 6 bullet bounds
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		MaxLength:  DefaultDescriptionMaxLength,
		MaxBullets: DefaultDescriptionMaxBullets,
	}
}

// Summarize builds a short human-readable description from the first
// selector that yields usable content, falling back to the meta description.
func Summarize(doc Document, opts SummaryOptions) string {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultDescriptionMaxLength
	}
	if opts.MaxBullets <= 0 {
		opts.MaxBullets = DefaultDescriptionMaxBullets
	}

	for _, selector := range DescriptionSelectors {
		texts := doc.FindAll(selector)
		if len(texts) == 0 {
			continue
		}

		if isBulletSelector(selector) {
			bullets := make([]string, 0, opts.MaxBullets)
			for _, raw := range texts {
				if len(bullets) >= opts.MaxBullets {
					break
				}
				if txt := cleanText(raw); utf8.RuneCountInString(txt) > minBulletLength {
					bullets = append(bullets, txt)
				}
			}
			if len(bullets) > 0 {
				return truncateWords(strings.Join(bullets, bulletSeparator), opts.MaxLength)
			}
			continue
		}

		parts := make([]string, 0, maxParagraphs)
		for _, raw := range texts {
			if txt := cleanText(raw); utf8.RuneCountInString(txt) > minParagraphLength {
				parts = append(parts, txt)
			}
			if len(parts) == maxParagraphs {
				break
			}
		}
		if len(parts) > 0 {
			return truncateWords(strings.Join(parts, " "), opts.MaxLength)
		}
	}

	if meta, ok := doc.Attr(metaDescription, "content"); ok && strings.TrimSpace(meta) != "" {
		return truncateWords(cleanText(meta), opts.MaxLength)
	}

	return ""
}

func isBulletSelector(selector string) bool {
	return strings.Contains(selector, "list") ||
		strings.Contains(selector, "li") ||
		strings.Contains(selector, "a-list-item")
}

// cleanText normalizes whitespace and rewrites pipe separators
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = pipeSeparator.ReplaceAllString(text, " - ")
	return strings.TrimSpace(text)
}

// truncateWords cuts text to n runes without splitting a word and appends
// an ellipsis. Text already within n is returned unmodified.
func truncateWords(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	truncated := string(runes[:n])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}
	return strings.TrimSpace(truncated) + ellipsis
}
