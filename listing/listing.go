// Package listing runs the item sources for one fetched page and merges their
// results by item ID.
package listing

import (
	"context"
	"fmt"
	"log/slog"

	"catalog-watcher/models"
)

// Source produces items for the watched page.
// page is the freshly fetched primary payload; sources backed by another
// endpoint may ignore it.
type Source interface {
	Name() string
	Items(ctx context.Context, page []byte) ([]models.Item, error)
}

// Result is the outcome of running one source: either Items or Err
type Result struct {
	Source string
	Items  []models.Item
	Err    error
}

// ExtractionError means the primary source could not produce a listing.
// It fails the whole cycle.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// OptionalSourceError means a secondary source failed; it contributes no items
type OptionalSourceError struct {
	Source string
	Err    error
}

func (e *OptionalSourceError) Error() string {
	return fmt.Sprintf("optional source %s: %v", e.Source, e.Err)
}

func (e *OptionalSourceError) Unwrap() error {
	return e.Err
}

// Merge unions results by item ID in the order given.
// A later result overwrites the title and URL of an earlier one; failed results are skipped.
// Items keep the position of their first appearance.
func Merge(results ...Result) []models.Item {
	index := make(map[string]int)
	var merged []models.Item

	for _, result := range results {
		if result.Err != nil {
			continue
		}
		for _, item := range result.Items {
			if pos, ok := index[item.ID]; ok {
				merged[pos] = item
				continue
			}
			index[item.ID] = len(merged)
			merged = append(merged, item)
		}
	}

	return merged
}

// Extractor runs the primary source followed by the optional ones, in a fixed order
type Extractor struct {
	primary  Source
	optional []Source
}

// NewExtractor creates an Extractor. Optional sources are merged after the primary, in the given order.
func NewExtractor(primary Source, optional ...Source) *Extractor {
	return &Extractor{
		primary:  primary,
		optional: optional,
	}
}

// Run returns one Result per source, primary first
func (e *Extractor) Run(ctx context.Context, page []byte) []Result {
	results := make([]Result, 0, 1+len(e.optional))
	for _, source := range append([]Source{e.primary}, e.optional...) {
		items, err := source.Items(ctx, page)
		results = append(results, Result{Source: source.Name(), Items: items, Err: err})
	}
	return results
}

// Extract runs every source and merges the results.
// Only a failure of the primary source is returned; optional failures are logged and dropped.
func (e *Extractor) Extract(ctx context.Context, page []byte) ([]models.Item, error) {
	results := e.Run(ctx, page)

	primary := results[0]
	if primary.Err != nil {
		return nil, &ExtractionError{Source: primary.Source, Err: primary.Err}
	}

	for _, result := range results[1:] {
		if result.Err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Optional source failed, ignoring it", "error", &OptionalSourceError{Source: result.Source, Err: result.Err})
			continue
		}
		slog.Debug("Source extracted", "source", result.Source, "items", len(result.Items))
	}

	merged := Merge(results...)
	slog.Debug("Merged listing", "primary", len(primary.Items), "merged", len(merged))
	return merged, nil
}
