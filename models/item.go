package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Item represents a single catalog entry found on the watched page
type Item struct {
	ID    string // Unique key taken from the item's URL path segment
	Title string
	URL   string // Absolute canonical URL
}

// HumanizeID turns an identifier like "golden-hour-album" into "Golden Hour Album".
// Used as the display title when a source does not provide one.
func HumanizeID(id string) string {
	// a Caser keeps state between calls, so each call gets its own
	return cases.Title(language.Und).String(strings.ReplaceAll(id, "-", " "))
}

// WithFallbackTitle returns a copy of the item whose title is never empty
func (i Item) WithFallbackTitle() Item {
	i.Title = strings.TrimSpace(i.Title)
	if i.Title == "" {
		i.Title = HumanizeID(i.ID)
	}
	return i
}

// HasRealTitle reports whether the title came from the source rather than the fallback
func (i Item) HasRealTitle() bool {
	return i.Title != "" && i.Title != HumanizeID(i.ID)
}

// IDs returns the identifiers of the given items in order
func IDs(items []Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}
