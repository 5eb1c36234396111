package scheduler

import (
	"context"
	"errors"

	"catalog-watcher/fetcher"
	"catalog-watcher/listing"
	"catalog-watcher/notifier"
	"catalog-watcher/seen"
)

// ErrorKind labels a cycle error for logs and stats
func ErrorKind(err error) string {
	var (
		fetchErr    *fetcher.FetchError
		extractErr  *listing.ExtractionError
		optionalErr *listing.OptionalSourceError
		deliveryErr *notifier.DeliveryError
		persistErr  *seen.PersistenceError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &persistErr):
		return "persistence"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &extractErr):
		return "extraction"
	case errors.As(err, &optionalErr):
		return "optional_source"
	case errors.As(err, &deliveryErr):
		return "delivery"
	default:
		return "unknown"
	}
}
