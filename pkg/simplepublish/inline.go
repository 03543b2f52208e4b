package simplepublish

import (
	"regexp"
	"strings"
)

// Inline local-reference marker grammar.
//
// Rich-text block content may embed pending media references in exactly
// three forms:
//
//	src="local_<token>"            image source still pointing at the store
//	src="blob:local_<token>"       editor preview of a staged image
//	data-local-id="local_<token>"  staging attribute on an <img> element
//
// <token> is [A-Za-z0-9_-]+. Everything outside matched markers is
// preserved byte-for-byte. This is the only place in the module that
// touches raw marker syntax; upload logic sees MediaRefs.

var (
	inlineMarkerRe = regexp.MustCompile(`(?:src="(?:blob:)?|data-local-id=")(local_[A-Za-z0-9_-]+)"`)

	// imgTagRe matches an <img> element carrying a data-local-id
	// attribute; the id is captured for per-element rewriting.
	imgTagRe = regexp.MustCompile(`<img[^>]*\sdata-local-id="(local_[A-Za-z0-9_-]+)"[^>]*>`)

	srcAttrRe     = regexp.MustCompile(`src="[^"]*"`)
	localIDAttrRe = regexp.MustCompile(`\s?data-local-id="local_[A-Za-z0-9_-]+"`)
)

// ExtractInlineRefs returns the distinct local reference IDs embedded
// in rich text, in first-appearance order.
func ExtractInlineRefs(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range inlineMarkerRe.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// RewriteInlineRefs substitutes resolved URLs for every marker whose ID
// appears in resolved. Markers with unresolved IDs are left untouched.
func RewriteInlineRefs(text string, resolved map[string]string) string {
	if len(resolved) == 0 {
		return text
	}

	// Rewrite <img> elements staged via data-local-id: point src at the
	// durable URL and drop the staging attribute.
	text = imgTagRe.ReplaceAllStringFunc(text, func(tag string) string {
		id := imgTagRe.FindStringSubmatch(tag)[1]
		url, ok := resolved[id]
		if !ok {
			return tag
		}
		tag = srcAttrRe.ReplaceAllString(tag, `src="`+url+`"`)
		return localIDAttrRe.ReplaceAllString(tag, "")
	})

	// Rewrite direct and preview src attributes.
	for id, url := range resolved {
		text = strings.ReplaceAll(text, `src="blob:`+id+`"`, `src="`+url+`"`)
		text = strings.ReplaceAll(text, `src="`+id+`"`, `src="`+url+`"`)
	}

	return text
}
