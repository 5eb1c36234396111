package listing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"catalog-watcher/fetcher"
	"catalog-watcher/models"
	"catalog-watcher/parser"
)

// HTMLSource parses the fetched page itself
type HTMLSource struct {
	parser *parser.Parser
}

func NewHTMLSource(p *parser.Parser) *HTMLSource {
	return &HTMLSource{parser: p}
}

func (s *HTMLSource) Name() string { return "html" }

func (s *HTMLSource) Items(ctx context.Context, page []byte) ([]models.Item, error) {
	return s.parser.ParseHTML(page)
}

// ProductsJSONSource pages through <collection>/products.json.
// It stops at the first non-200 status or empty page; the storefront may not expose the endpoint at all.
type ProductsJSONSource struct {
	client   *fetcher.Client
	parser   *parser.Parser
	endpoint string
	pageSize int
	maxPages int
}

func NewProductsJSONSource(client *fetcher.Client, p *parser.Parser, collectionURL string, pageSize, maxPages int) *ProductsJSONSource {
	return &ProductsJSONSource{
		client:   client,
		parser:   p,
		endpoint: endpointURL(collectionURL, "/products.json"),
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

func (s *ProductsJSONSource) Name() string { return "products_json" }

func (s *ProductsJSONSource) Items(ctx context.Context, _ []byte) ([]models.Item, error) {
	var all []models.Item

	for page := 1; page <= s.maxPages; page++ {
		pageURL := s.pageURL(page)

		resp, body, err := s.client.Get(ctx, pageURL, nil)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			slog.Debug("Products JSON unavailable, stopping", "url", pageURL, "status", resp.StatusCode)
			break
		}

		items, listed, err := s.parser.ParseProductsJSON(body)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if listed == 0 {
			break
		}
		all = append(all, items...)
	}

	return all, nil
}

func (s *ProductsJSONSource) pageURL(page int) string {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return s.endpoint
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(s.pageSize))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// AtomSource reads the collection's Atom feed
type AtomSource struct {
	client   *fetcher.Client
	parser   *parser.Parser
	endpoint string
}

func NewAtomSource(client *fetcher.Client, p *parser.Parser, collectionURL string) *AtomSource {
	return &AtomSource{
		client:   client,
		parser:   p,
		endpoint: endpointURL(collectionURL, ".atom"),
	}
}

func (s *AtomSource) Name() string { return "atom" }

func (s *AtomSource) Items(ctx context.Context, _ []byte) ([]models.Item, error) {
	resp, body, err := s.client.Get(ctx, s.endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return s.parser.ParseAtom(body)
}

// endpointURL appends suffix to the collection path, dropping query and fragment
func endpointURL(collectionURL, suffix string) string {
	u, err := url.Parse(collectionURL)
	if err != nil {
		return strings.TrimRight(collectionURL, "/") + suffix
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/") + suffix
	return u.String()
}
