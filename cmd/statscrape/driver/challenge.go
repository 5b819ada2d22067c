package driver

import "strings"

// challengeSignature identifies a bot-check interstitial by markers in the
// page title or HTML. Markers are lower case.
type challengeSignature struct {
	kind  string
	title []string
	html  []string
}

// Ordered: the first signature with a matching marker wins.
var challengeSignatures = []challengeSignature{
	{
		kind:  "cloudflare",
		title: []string{"just a moment", "attention required"},
		html:  []string{"cf-challenge", "cf_chl_opt"},
	},
	{kind: "cloudflare-turnstile", html: []string{"challenges.cloudflare.com/turnstile", "cf-turnstile"}},
	{kind: "hcaptcha", html: []string{"hcaptcha.com", "h-captcha"}},
	{kind: "recaptcha", html: []string{"google.com/recaptcha", "g-recaptcha"}},
	{kind: "datadome", html: []string{"captcha-delivery.com", "datadome"}},
	{kind: "perimeterx", html: []string{"px-captcha", "_pxhd"}},
	{
		kind:  "anti-bot",
		title: []string{"access denied", "bot detection"},
		html:  []string{"robot or human"},
	},
}

// detectChallengePage names the kind of challenge a page shows, or returns ""
// for ordinary content. The scraper only warns; the table wait then times out
// on its own.
func detectChallengePage(title, html string) string {
	title = strings.ToLower(title)
	html = strings.ToLower(html)
	for _, sig := range challengeSignatures {
		if containsAny(title, sig.title) || containsAny(html, sig.html) {
			return sig.kind
		}
	}
	return ""
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
