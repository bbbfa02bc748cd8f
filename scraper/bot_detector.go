package scraper

import (
	"fmt"
	"regexp"
	"strings"
)

// BotDetector recognizes robot checks and block pages served in place of a product page
type BotDetector struct {
	botPatterns     []*regexp.Regexp
	captchaPatterns []*regexp.Regexp
	blockPatterns   []*regexp.Regexp
}

// NewBotDetector creates a new bot detector
func NewBotDetector() *BotDetector {
	return &BotDetector{
		botPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)bot detected`),
			regexp.MustCompile(`(?i)please verify you are human`),
			regexp.MustCompile(`(?i)make sure you'?re not a robot`),
			regexp.MustCompile(`(?i)checking your browser`),
			regexp.MustCompile(`(?i)too many requests`),
			regexp.MustCompile(`(?i)ddos protection`),
		},
		captchaPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)enter the characters you see below`),
			regexp.MustCompile(`(?i)type the characters you see in this image`),
			regexp.MustCompile(`(?i)verify you are human`),
		},
		blockPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)403 forbidden`),
			regexp.MustCompile(`(?i)429 too many requests`),
			regexp.MustCompile(`(?i)503 service unavailable`),
		},
	}
}

// Score returns a 0..1 likelihood that the page is a bot wall and the matched reasons
func (bd *BotDetector) Score(pageText, pageTitle string) (float64, []string) {
	content := strings.ToLower(pageText + " " + pageTitle)

	score := 0.0
	reasons := []string{}

	for _, pattern := range bd.botPatterns {
		if pattern.MatchString(content) {
			score += 0.3
			reasons = append(reasons, pattern.String())
		}
	}

	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(content) {
			score += 0.5
			reasons = append(reasons, "captcha: "+pattern.String())
		}
	}

	for _, pattern := range bd.blockPatterns {
		if pattern.MatchString(content) {
			score += 0.4
			reasons = append(reasons, "http error: "+pattern.String())
		}
	}

	// real product pages are long; walls are short
	if len(content) < 1000 && score > 0 {
		score += 0.2
		reasons = append(reasons, "short content with bot indicators")
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, reasons
}

// Check parses the markup and returns ErrBotWall when it looks like a block page
func (bd *BotDetector) Check(markup string) error {
	doc, err := ParseHTML(markup)
	if err != nil {
		return err
	}

	score, reasons := bd.Score(doc.BodyText(), doc.Title())
	if score > 0.3 {
		return fmt.Errorf("%w (score %.1f): %s", ErrBotWall, score, strings.Join(reasons, "; "))
	}
	return nil
}
