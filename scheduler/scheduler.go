// Package scheduler drives the watch loop: fetch, detect, notify, persist, sleep.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catalog-watcher/cache"
	"catalog-watcher/fetcher"
	"catalog-watcher/filter"
	"catalog-watcher/models"
	"catalog-watcher/notifier"
	"catalog-watcher/seen"

	"github.com/google/uuid"
)

// Extractor turns a fetched page into the merged item listing
type Extractor interface {
	Extract(ctx context.Context, page []byte) ([]models.Item, error)
}

// Options tune the loop
type Options struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	// NotifyTimeout bounds one digest delivery; zero means no extra bound
	NotifyTimeout time.Duration
	// Heading is the first line of every digest
	Heading string
	// RetryFailedDeliveries keeps items unseen when the digest could not be delivered
	RetryFailedDeliveries bool
}

// CycleReport describes what one cycle did
type CycleReport struct {
	ID          string
	NotModified bool
	Listed      int
	New         int
	DeliveryErr error
}

// Scheduler owns all loop state: fetch validators, the seen set and the backoff
type Scheduler struct {
	fetcher    fetcher.Fetcher
	validators cache.ValidatorCache
	extractor  Extractor
	store      seen.Store
	notifier   notifier.Notifier
	opts       Options

	backoff *Backoff
	stats   *Stats
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time

	loaded  bool
	seen    seen.Set
	current fetcher.Validators
	// dirty is set when the seen set has additions the store has not accepted yet
	dirty bool
}

// NewScheduler creates a scheduler. The seen set and validators are loaded on the first cycle.
func NewScheduler(f fetcher.Fetcher, validators cache.ValidatorCache, extractor Extractor,
	store seen.Store, n notifier.Notifier, opts Options) *Scheduler {
	if validators == nil {
		validators = cache.NewMemory()
	}

	return &Scheduler{
		fetcher:    f,
		validators: validators,
		extractor:  extractor,
		store:      store,
		notifier:   n,
		opts:       opts,
		backoff:    NewBackoff(opts.Interval, opts.MaxBackoff),
		stats:      NewStats(time.Now()),
		sleep:      sleepContext,
		now:        time.Now,
	}
}

// Stats exposes the loop counters
func (s *Scheduler) Stats() *Stats {
	return s.stats
}

// Run executes cycles until ctx is canceled. It returns nil on cancellation;
// cycle errors only lengthen the next sleep.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("Watcher started", "interval", s.opts.Interval, "max_backoff", s.backoff.max, "notifier", s.notifier.Name())

	for {
		if ctx.Err() != nil {
			slog.Info("Watcher stopped")
			return nil
		}

		report, err := s.RunCycle(ctx)
		if err != nil && ctx.Err() != nil {
			slog.Info("Watcher stopped")
			return nil
		}

		var wait time.Duration
		if err != nil {
			wait = s.backoff.Failure()
			slog.Error("Cycle failed, backing off", "cycle", report.ID, "kind", ErrorKind(err), "error", err, "retry_in", wait)
		} else {
			wait = s.backoff.Success()
		}
		s.stats.recordCycle(s.now(), report, err, s.seen.Len(), s.backoff.Current())

		if err := s.sleep(ctx, wait); err != nil {
			slog.Info("Watcher stopped")
			return nil
		}
	}
}

// RunCycle performs one fetch-detect-notify-persist pass.
// A returned error is one of fetch, primary extraction or persistence; delivery
// failures are reported in CycleReport.DeliveryErr and do not fail the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{ID: uuid.NewString()}
	log := slog.With("cycle", report.ID)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	s.ensureLoaded(ctx)

	if s.dirty {
		if err := s.persist(ctx); err != nil {
			return report, err
		}
		log.Info("Saved seen set left over from a failed cycle", "seen", s.seen.Len())
	}

	resp, err := s.fetcher.Fetch(ctx, s.current)
	if err != nil {
		return report, err
	}
	if resp.NotModified {
		report.NotModified = true
		log.Info("No change detected")
		return report, nil
	}

	items, err := s.extractor.Extract(ctx, resp.Body)
	if err != nil {
		return report, err
	}
	report.Listed = len(items)

	fresh := filter.NewItems(items, s.seen)
	report.New = len(fresh)
	if len(fresh) == 0 {
		log.Info("No new items (page changed)", "listed", len(items))
		s.commitValidators(ctx, resp.Validators)
		return report, nil
	}

	log.Info("Found new items", "new", len(fresh), "listed", len(items))
	if err := s.deliver(ctx, notifier.NewDigest(s.opts.Heading, fresh)); err != nil {
		report.DeliveryErr = err
		log.Warn("Failed to deliver digest", "kind", ErrorKind(err), "error", err)
		if s.opts.RetryFailedDeliveries {
			// previous validators stay, so the next cycle gets the full page again
			log.Info("Leaving items unseen for retry", "new", len(fresh))
			return report, nil
		}
	}

	s.seen.Add(models.IDs(items)...)
	s.dirty = true
	if err := s.persist(ctx); err != nil {
		return report, err
	}
	s.commitValidators(ctx, resp.Validators)

	return report, nil
}

// commitValidators records the validators of a fully processed page.
// Until then a restart or a retry fetches the page unconditionally.
func (s *Scheduler) commitValidators(ctx context.Context, v fetcher.Validators) {
	if v == s.current {
		return
	}
	s.current = v
	if err := s.validators.Store(ctx, v); err != nil {
		slog.Warn("Failed to cache validators", "error", err)
	}
}

func (s *Scheduler) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	set, err := s.store.Load(ctx)
	if err != nil {
		slog.Warn("Seen set unreadable, starting empty", "error", err)
		set = seen.NewSet()
	}
	s.seen = set
	slog.Info("Loaded seen set", "count", s.seen.Len())

	// cached validators belong to a page whose items are in the seen set;
	// with an empty set the first page must be read in full
	if s.seen.Len() == 0 {
		slog.Debug("Ignoring cached validators for empty seen set")
		return
	}

	v, err := s.validators.Load(ctx)
	if err != nil {
		slog.Warn("Failed to load cached validators", "error", err)
		return
	}
	if !v.IsZero() {
		slog.Info("Resuming with cached validators", "etag", v.ETag, "last_modified", v.LastModified)
	}
	s.current = v
}

func (s *Scheduler) deliver(ctx context.Context, d notifier.Digest) error {
	if s.opts.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.NotifyTimeout)
		defer cancel()
	}

	err := s.notifier.Notify(ctx, d)
	if err != nil {
		var deliveryErr *notifier.DeliveryError
		if !errors.As(err, &deliveryErr) {
			err = &notifier.DeliveryError{Notifier: s.notifier.Name(), Err: err}
		}
	}
	return err
}

func (s *Scheduler) persist(ctx context.Context) error {
	if err := s.store.Save(ctx, s.seen); err != nil {
		var persistErr *seen.PersistenceError
		if !errors.As(err, &persistErr) {
			err = &seen.PersistenceError{Backend: "store", Err: err}
		}
		return err
	}
	s.dirty = false
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
