package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"catalog-watcher/models"

	"github.com/PuerkitoBio/goquery"
)

// Parser extracts catalog items from the payloads a storefront serves
type Parser struct {
	base      *url.URL
	itemPath  string
	idPattern *regexp.Regexp
}

// NewParser creates a Parser for the page at baseURL whose items live under itemPath (e.g. "/products/")
func NewParser(baseURL, itemPath string) (*Parser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if !strings.HasPrefix(itemPath, "/") {
		itemPath = "/" + itemPath
	}
	if !strings.HasSuffix(itemPath, "/") {
		itemPath += "/"
	}

	return &Parser{
		base:      base,
		itemPath:  itemPath,
		idPattern: regexp.MustCompile(regexp.QuoteMeta(itemPath) + `([^/?#]+)`),
	}, nil
}

// ParseHTML extracts items from every link that points at an item page.
// The same item usually appears in several anchors (image, title, button);
// a later anchor never replaces a real title with a fallback one.
func (p *Parser) ParseHTML(html []byte) ([]models.Item, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	index := make(map[string]int)
	var items []models.Item

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, p.itemPath) {
			return
		}

		item, ok := p.itemFromLink(href, anchorTitle(s))
		if !ok {
			return
		}

		if pos, exists := index[item.ID]; exists {
			if items[pos].HasRealTitle() && !item.HasRealTitle() {
				item.Title = items[pos].Title
			}
			items[pos] = item
			return
		}
		index[item.ID] = len(items)
		items = append(items, item)
	})

	return items, nil
}

// anchorTitle finds the best human-readable title for a product link
func anchorTitle(s *goquery.Selection) string {
	if title := collapseSpace(s.Text()); title != "" {
		return title
	}
	if title := collapseSpace(s.AttrOr("title", "")); title != "" {
		return title
	}
	if title := collapseSpace(s.Find("h2, h3, span, div").First().Text()); title != "" {
		return title
	}
	return collapseSpace(s.Find("img[alt]").First().AttrOr("alt", ""))
}

// itemFromLink resolves href against the base URL and extracts the item ID
func (p *Parser) itemFromLink(href, title string) (models.Item, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return models.Item{}, false
	}
	abs := p.base.ResolveReference(ref)

	m := p.idPattern.FindStringSubmatch(abs.Path)
	if m == nil || m[1] == "" {
		return models.Item{}, false
	}

	abs.RawQuery = ""
	abs.Fragment = ""

	item := models.Item{ID: m[1], Title: title, URL: abs.String()}
	return item.WithFallbackTitle(), true
}

// ItemURL builds the canonical URL of an item from its ID
func (p *Parser) ItemURL(id string) string {
	u := url.URL{Scheme: p.base.Scheme, Host: p.base.Host, Path: p.itemPath + id}
	return u.String()
}

// collapseSpace trims and joins whitespace runs into single spaces
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
