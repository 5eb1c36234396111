package parser

import (
	"bytes"
	"fmt"

	"catalog-watcher/models"

	"github.com/mmcdole/gofeed"
)

// ParseAtom extracts items from a collection's Atom (or RSS) feed
func (p *Parser) ParseAtom(data []byte) ([]models.Item, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	var items []models.Item
	for _, entry := range feed.Items {
		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}
		if item, ok := p.itemFromLink(link, collapseSpace(entry.Title)); ok {
			items = append(items, item)
		}
	}

	return items, nil
}
