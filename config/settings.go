package config

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Settings holds runtime configuration from command-line flags and environment variables
type Settings struct {
	TargetURL string `long:"url" env:"WATCH_URL" default:"https://hallyusuperstore.com/collections/ateez" description:"Catalog page to watch"`
	Profile   string `long:"profile" env:"SITE_PROFILE" default:"site.yaml" description:"Path to the YAML site profile (optional)"`

	IntervalSec       int    `long:"interval" env:"INTERVAL_SEC" default:"30" description:"Base poll interval in seconds"`
	MaxBackoffSec     int    `long:"max-backoff" env:"MAX_BACKOFF_SEC" default:"600" description:"Backoff ceiling in seconds"`
	RequestTimeoutSec int    `long:"timeout" env:"REQUEST_TIMEOUT_SEC" default:"30" description:"Timeout for each outbound request in seconds"`
	UserAgent         string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Catalog-Watcher/2.0)" description:"User agent sent with every request"`

	// Seen-set storage
	Store       string `long:"store" env:"SEEN_STORE" default:"file" choice:"file" choice:"sqlite" choice:"postgres" description:"Seen-set backend"`
	SeenFile    string `long:"seen-file" env:"SEEN_FILE" default:"seen_products.json" description:"Seen-set JSON file (store=file)"`
	SQLitePath  string `long:"sqlite-path" env:"SQLITE_PATH" default:"seen.db" description:"SQLite database path (store=sqlite)"`
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" description:"Postgres connection string (store=postgres)"`

	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for persisting fetch validators (optional)"`

	// Notification
	TelegramToken         string `long:"telegram-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token"`
	TelegramChatID        int64  `long:"telegram-chat-id" env:"TELEGRAM_CHAT_ID" description:"Telegram chat to notify"`
	SpreadsheetURL        string `long:"spreadsheet" env:"GOOGLE_SHEETS_URL" description:"Google Sheets URL to log new items to (optional)"`
	SheetsCredentials     string `long:"credentials" env:"GOOGLE_SHEETS_CREDENTIALS" description:"Service account credentials: file path or inline JSON"`
	RetryFailedDeliveries bool   `long:"retry-failed-deliveries" env:"RETRY_FAILED_DELIVERIES" description:"Keep items unseen when notification fails so they are retried"`

	StatusAddr string `long:"status-addr" env:"STATUS_ADDR" description:"Address for the status HTTP server, e.g. :8080 (optional)"`
	Debug      bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// ErrHelp is returned by Load when usage was requested
var ErrHelp = errors.New("help requested")

// Load parses flags and environment into Settings and validates them
func Load(args []string) (*Settings, error) {
	var s Settings

	parser := flags.NewParser(&s, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate rejects configuration the watcher cannot run with
func (s *Settings) Validate() error {
	u, err := url.Parse(s.TargetURL)
	if err != nil {
		return fmt.Errorf("invalid target URL %q: %w", s.TargetURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid target URL %q: must be an absolute http(s) URL", s.TargetURL)
	}

	if s.IntervalSec <= 0 {
		return fmt.Errorf("interval must be positive, got %d", s.IntervalSec)
	}
	if s.RequestTimeoutSec <= 0 {
		return fmt.Errorf("request timeout must be positive, got %d", s.RequestTimeoutSec)
	}
	if s.MaxBackoffSec < s.IntervalSec {
		slog.Warn("Backoff ceiling below interval, raising it to the interval", "max_backoff", s.MaxBackoffSec, "interval", s.IntervalSec)
		s.MaxBackoffSec = s.IntervalSec
	}

	if s.Store == "postgres" && s.DatabaseURL == "" {
		return fmt.Errorf("store=postgres requires DATABASE_URL")
	}

	return nil
}

// Interval returns the base poll interval
func (s *Settings) Interval() time.Duration {
	return time.Duration(s.IntervalSec) * time.Second
}

// MaxBackoff returns the backoff ceiling
func (s *Settings) MaxBackoff() time.Duration {
	return time.Duration(s.MaxBackoffSec) * time.Second
}

// RequestTimeout returns the per-request timeout
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSec) * time.Second
}

// TelegramEnabled reports whether both Telegram credentials are present
func (s *Settings) TelegramEnabled() bool {
	return strings.TrimSpace(s.TelegramToken) != "" && s.TelegramChatID != 0
}

// GetVersion returns the build version
func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// LoadProfile loads the site profile, falling back to defaults when the file
// is missing or unusable
func LoadProfile(path string) *SiteProfile {
	if path == "" {
		return GetDefaultConfig()
	}
	if _, err := os.Stat(path); err != nil {
		slog.Info("Site profile not found, using default profile", "path", path)
		return GetDefaultConfig()
	}

	profile, err := LoadConfig(path)
	if err != nil {
		slog.Warn("Failed to load site profile, using defaults", "path", path, "error", err)
		return GetDefaultConfig()
	}
	return profile
}
