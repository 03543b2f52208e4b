package simplepublish

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLength bounds the base slug before any uniqueness suffix.
const maxSlugLength = 80

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases the input, folds accented characters to their
// base form and collapses everything that is not alphanumeric into
// single hyphens.
func Slugify(s string) string {
	if folded, _, err := transform.String(accentStripper, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// BaseSlug composes the canonical slug for a document:
// slugified title, ISO date, city, category, hyphen-joined and bounded
// to maxSlugLength.
func BaseSlug(doc *ContentDocument, date time.Time) string {
	parts := []string{Slugify(doc.Title), date.Format("2006-01-02"), Slugify(doc.City), Slugify(doc.Category)}

	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	slug := strings.Join(kept, "-")

	if len(slug) > maxSlugLength {
		slug = strings.TrimSuffix(slug[:maxSlugLength], "-")
	}
	return slug
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// UniqueSlug resolves slug collisions by appending -1, -2, ... to the
// base until exists reports the candidate free. Collisions are handled
// here and never surface to the caller.
func UniqueSlug(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
