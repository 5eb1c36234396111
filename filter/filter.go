package filter

import (
	"sort"
	"strings"

	"catalog-watcher/models"
)

// SeenSet is the read side of the seen-identifier store
type SeenSet interface {
	Has(id string) bool
}

// NewItems returns the items whose ID is not in seen, ordered for display.
// It never mutates seen.
func NewItems(items []models.Item, seen SeenSet) []models.Item {
	var fresh []models.Item

	for _, item := range items {
		if !seen.Has(item.ID) {
			fresh = append(fresh, item)
		}
	}

	SortByTitle(fresh)
	return fresh
}

// SortByTitle orders items alphabetically by case-insensitive title, then by ID
func SortByTitle(items []models.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := strings.ToLower(items[i].Title), strings.ToLower(items[j].Title)
		if ti != tj {
			return ti < tj
		}
		return items[i].ID < items[j].ID
	})
}
