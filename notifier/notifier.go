// Package notifier delivers the per-cycle digest of new items.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"catalog-watcher/filter"
	"catalog-watcher/models"
)

// Notifier delivers a digest to one destination
type Notifier interface {
	Name() string
	Notify(ctx context.Context, d Digest) error
}

// Digest is the single message sent for one cycle's new items
type Digest struct {
	Heading string
	Items   []models.Item
}

// NewDigest builds a digest with items ordered by title
func NewDigest(heading string, items []models.Item) Digest {
	sorted := make([]models.Item, len(items))
	copy(sorted, items)
	filter.SortByTitle(sorted)
	return Digest{Heading: heading, Items: sorted}
}

// DefaultHeading names the watched site's host
func DefaultHeading(targetURL string) string {
	host := targetURL
	if u, err := url.Parse(targetURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("🆕 New items on %s:", host)
}

// Text renders the digest as plain text, one line per item
func (d Digest) Text() string {
	var b strings.Builder
	b.WriteString(d.Heading)
	for _, item := range d.Items {
		b.WriteString("\n• ")
		b.WriteString(item.Title)
		b.WriteString(" → ")
		b.WriteString(item.URL)
	}
	return b.String()
}

// DeliveryError means a notifier failed to deliver a digest
type DeliveryError struct {
	Notifier string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver digest via %s: %v", e.Notifier, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Multi sends the digest to every notifier and joins their failures
type Multi []Notifier

var _ Notifier = Multi(nil)

func (m Multi) Name() string {
	names := make([]string, 0, len(m))
	for _, n := range m {
		names = append(names, n.Name())
	}
	return strings.Join(names, "+")
}

// Notify tries every notifier even when an earlier one fails
func (m Multi) Notify(ctx context.Context, d Digest) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
