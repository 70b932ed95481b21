// Package slug derives URL-safe slugs and bounded SEO fields from
// display names and descriptions.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxSlugLen bounds generated slugs so they stay usable in URLs.
	MaxSlugLen = 80
	// MaxSEOTitleLen matches the seo_title column width.
	MaxSEOTitleLen = 60
	// MaxSEODescriptionLen matches the seo_desc column width.
	MaxSEODescriptionLen = 160
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	htmlTags        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)

	// Pattern is the canonical slug shape accepted on input.
	Pattern = regexp.MustCompile(`^[a-z0-9-]+$`)

	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Make converts a display name into a lowercase kebab slug: diacritics are
// stripped via NFD decomposition, runs of anything outside [a-z0-9] collapse
// to a single hyphen, and the result is trimmed and truncated to MaxSlugLen.
// The empty string maps to the empty string.
func Make(text string) string {
	s := strings.ToLower(text)

	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxSlugLen {
		s = strings.Trim(s[:MaxSlugLen], "-")
	}
	return s
}

// SEOTitle trims the name and truncates it to MaxSEOTitleLen.
func SEOTitle(name string) string {
	return truncate(strings.TrimSpace(name), MaxSEOTitleLen)
}

// SEODescription strips HTML tags, collapses whitespace runs, trims, and
// truncates to MaxSEODescriptionLen. Empty input yields an empty string.
func SEODescription(description string) string {
	if description == "" {
		return ""
	}
	plain := htmlTags.ReplaceAllString(description, "")
	plain = whitespaceRuns.ReplaceAllString(plain, " ")
	return truncate(strings.TrimSpace(plain), MaxSEODescriptionLen)
}

// Valid reports whether s already matches the canonical slug pattern.
func Valid(s string) bool {
	return Pattern.MatchString(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary so multi-byte characters are never split.
	cut := max
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
