package parser

import (
	"encoding/json"
	"fmt"

	"catalog-watcher/models"
)

// productsPage mirrors the parts of a Shopify products.json page we use
type productsPage struct {
	Products []struct {
		Handle string `json:"handle"`
		Title  string `json:"title"`
	} `json:"products"`
}

// ParseProductsJSON extracts items from one page of a products.json listing.
// listed counts every product on the page; zero means the listing has no more pages.
func (p *Parser) ParseProductsJSON(data []byte) (items []models.Item, listed int, err error) {
	var page productsPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, 0, fmt.Errorf("failed to parse products JSON: %w", err)
	}

	items = make([]models.Item, 0, len(page.Products))
	for _, product := range page.Products {
		if product.Handle == "" {
			continue
		}
		item := models.Item{
			ID:    product.Handle,
			Title: product.Title,
			URL:   p.ItemURL(product.Handle),
		}
		items = append(items, item.WithFallbackTitle())
	}

	return items, len(page.Products), nil
}
