package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DetectChallenge checks if the page content indicates a challenge page
// instead of the requested document. It returns the challenge type, or an
// empty string. Captcha widgets embedded in contact forms are not treated as
// challenges.
func DetectChallenge(title, html string) string {
	titleLower := strings.ToLower(title)
	htmlLower := strings.ToLower(html)

	// Cloudflare challenges
	if strings.Contains(titleLower, "just a moment") ||
		strings.Contains(titleLower, "attention required") ||
		strings.Contains(htmlLower, "cf-challenge") ||
		strings.Contains(htmlLower, "cf_chl_opt") {
		return "cloudflare"
	}

	// Cloudflare Turnstile
	if strings.Contains(htmlLower, "challenges.cloudflare.com/turnstile") {
		return "cloudflare-turnstile"
	}

	// Generic bot detection pages
	if strings.Contains(titleLower, "access denied") ||
		strings.Contains(titleLower, "bot detection") ||
		strings.Contains(htmlLower, "robot or human") {
		return "anti-bot"
	}

	return ""
}

// pageTitle returns the document title, or "" if the markup has none.
func pageTitle(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
