package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"catalog-watcher/api"
	"catalog-watcher/cache"
	"catalog-watcher/config"
	"catalog-watcher/db"
	"catalog-watcher/fetcher"
	"catalog-watcher/listing"
	"catalog-watcher/notifier"
	"catalog-watcher/parser"
	"catalog-watcher/scheduler"
	"catalog-watcher/seen"
	"catalog-watcher/sheets"
)

func main() {
	settings, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	setupLogger(settings.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, settings); err != nil {
		slog.Error("Watcher failed to start", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, settings *config.Settings) error {
	slog.Info("Starting catalog watcher", "version", config.GetVersion(), "url", settings.TargetURL, "store", settings.Store)

	profile := config.LoadProfile(settings.Profile)

	httpClient := &http.Client{Timeout: settings.RequestTimeout()}
	client := fetcher.NewClient(httpClient, settings.UserAgent, settings.RequestTimeout())

	extractor, err := buildExtractor(settings, profile, client)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, settings)
	if err != nil {
		return err
	}
	defer store.Close()

	validators := buildValidatorCache(ctx, settings)

	n, err := buildNotifier(ctx, settings, httpClient)
	if err != nil {
		return err
	}

	heading := profile.Site.DigestHeading
	if heading == "" {
		heading = notifier.DefaultHeading(settings.TargetURL)
	}

	sched := scheduler.NewScheduler(
		fetcher.NewConditionalFetcher(client, settings.TargetURL),
		validators,
		extractor,
		store,
		n,
		scheduler.Options{
			Interval:              settings.Interval(),
			MaxBackoff:            settings.MaxBackoff(),
			NotifyTimeout:         settings.RequestTimeout(),
			Heading:               heading,
			RetryFailedDeliveries: settings.RetryFailedDeliveries,
		},
	)

	if settings.StatusAddr != "" {
		handler := api.NewHandler(sched.Stats(), settings.TargetURL, config.GetVersion())
		go func() {
			if err := api.Serve(ctx, settings.StatusAddr, handler); err != nil {
				slog.Error("Status server failed", "error", err)
			}
		}()
	}

	return sched.Run(ctx)
}

func buildExtractor(settings *config.Settings, profile *config.SiteProfile, client *fetcher.Client) (*listing.Extractor, error) {
	p, err := parser.NewParser(settings.TargetURL, profile.Site.ItemPath)
	if err != nil {
		return nil, err
	}

	var optional []listing.Source
	if profile.Site.ProductsJSON.Enabled {
		optional = append(optional, listing.NewProductsJSONSource(client, p, settings.TargetURL,
			profile.Site.ProductsJSON.PageSize, profile.Site.ProductsJSON.MaxPages))
	}
	if profile.Site.AtomFeed.Enabled {
		optional = append(optional, listing.NewAtomSource(client, p, settings.TargetURL))
	}

	slog.Debug("Configured listing sources", "item_path", profile.Site.ItemPath, "optional", len(optional))
	return listing.NewExtractor(listing.NewHTMLSource(p), optional...), nil
}

func openStore(ctx context.Context, settings *config.Settings) (seen.Store, error) {
	switch settings.Store {
	case "sqlite":
		database, err := db.Open(ctx, db.SQLite, settings.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite seen store: %w", err)
		}
		slog.Info("Using SQLite seen store", "path", settings.SQLitePath)
		return db.NewSeenRepository(database), nil
	case "postgres":
		database, err := db.Open(ctx, db.Postgres, settings.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres seen store: %w", err)
		}
		slog.Info("Using PostgreSQL seen store")
		return db.NewSeenRepository(database), nil
	default:
		slog.Info("Using JSON file seen store", "path", settings.SeenFile)
		return seen.NewFileStore(settings.SeenFile), nil
	}
}

// buildValidatorCache prefers Redis when configured; an unreachable Redis falls back to memory
func buildValidatorCache(ctx context.Context, settings *config.Settings) cache.ValidatorCache {
	if settings.RedisAddr == "" {
		return cache.NewMemory()
	}

	rc, err := cache.NewRedisCache(ctx, settings.RedisAddr, settings.TargetURL)
	if err != nil {
		slog.Warn("Redis unavailable, keeping validators in memory", "addr", settings.RedisAddr, "error", err)
		return cache.NewMemory()
	}
	go func() {
		<-ctx.Done()
		rc.Close()
	}()
	return rc
}

func buildNotifier(ctx context.Context, settings *config.Settings, httpClient *http.Client) (notifier.Notifier, error) {
	var primary notifier.Notifier
	if settings.TelegramEnabled() {
		tg, err := notifier.NewTelegram(settings.TelegramToken, settings.TelegramChatID, httpClient)
		if err != nil {
			return nil, err
		}
		primary = tg
	} else {
		slog.Info("Telegram credentials not set, printing digests to stdout")
		primary = notifier.NewConsole(os.Stdout)
	}

	if settings.SpreadsheetURL == "" {
		return primary, nil
	}

	spreadsheetID := sheets.ExtractSpreadsheetID(settings.SpreadsheetURL)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("could not extract spreadsheet ID from URL: %s", settings.SpreadsheetURL)
	}
	writer, err := sheets.NewWriter(ctx, spreadsheetID, settings.SheetsCredentials)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets writer: %w", err)
	}
	slog.Info("Logging new items to Google Sheets", "spreadsheet", spreadsheetID)

	return notifier.Multi{primary, notifier.NewSheets(writer)}, nil
}
