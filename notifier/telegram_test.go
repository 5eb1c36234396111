package notifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"catalog-watcher/models"
)

// fakeBotAPI answers getMe and records sendMessage calls
type fakeBotAPI struct {
	mu       sync.Mutex
	texts    []string
	previews []string
	failSend bool

	// getMeStatus, when set, makes getMe answer with that status
	getMeStatus int
	getMeCalls  int
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		f.mu.Lock()
		f.getMeCalls++
		status := f.getMeStatus
		f.mu.Unlock()
		switch status {
		case 0:
		case http.StatusUnauthorized:
			w.WriteHeader(status)
			io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
			return
		default:
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(status)
			io.WriteString(w, "<html>Bad Gateway</html>")
			return
		}
		io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"watcher","username":"watcher_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		r.ParseForm()
		f.mu.Lock()
		f.texts = append(f.texts, r.PostForm.Get("text"))
		f.previews = append(f.previews, r.PostForm.Get("disable_web_page_preview"))
		f.mu.Unlock()
		if f.failSend {
			io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}
		io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestTelegram(t *testing.T, api *fakeBotAPI) *Telegram {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	tg, err := newTelegram("token", server.URL+"/bot%s/%s", 42, server.Client())
	if err != nil {
		t.Fatalf("newTelegram() error = %v", err)
	}
	return tg
}

func TestTelegramNotify(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newTestTelegram(t, api)

	d := NewDigest("New items:", []models.Item{{ID: "a", Title: "Alpha", URL: "https://shop.test/products/a"}})
	if err := tg.Notify(context.Background(), d); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if len(api.texts) != 1 || api.texts[0] != d.Text() {
		t.Errorf("unexpected messages %q", api.texts)
	}
	if api.previews[0] != "true" {
		t.Errorf("link previews should be disabled, got %q", api.previews[0])
	}
}

func TestTelegramNotifyFailure(t *testing.T) {
	api := &fakeBotAPI{failSend: true}
	tg := newTestTelegram(t, api)

	err := tg.Notify(context.Background(), Digest{Heading: "h"})
	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) || deliveryErr.Notifier != "telegram" {
		t.Errorf("expected telegram DeliveryError, got %v", err)
	}
}

func TestTelegramSplitsLongDigest(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newTestTelegram(t, api)

	var items []models.Item
	for i := 0; i < 200; i++ {
		items = append(items, models.Item{ID: "x", Title: strings.Repeat("t", 40), URL: "https://shop.test/products/x"})
	}
	if err := tg.Notify(context.Background(), NewDigest("h", items)); err != nil {
		t.Fatal(err)
	}

	if len(api.texts) < 2 {
		t.Fatalf("expected the digest to be split, got %d messages", len(api.texts))
	}
	for _, text := range api.texts {
		if len(text) > telegramMaxMessageLen {
			t.Errorf("message of %d bytes exceeds limit", len(text))
		}
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   []string
	}{
		{"short", "abc", 10, []string{"abc"}},
		{"line boundaries", "aaa\nbbb\nccc", 8, []string{"aaa\nbbb", "ccc"}},
		{"long line is cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"multibyte not split", "ééé", 3, []string{"é", "é", "é"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessage(tt.text, tt.maxLen)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("splitMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTelegramRejectedTokenFailsStartup(t *testing.T) {
	server := httptest.NewServer(&fakeBotAPI{getMeStatus: http.StatusUnauthorized})
	defer server.Close()

	if _, err := newTelegram("bad", server.URL+"/bot%s/%s", 42, server.Client()); err == nil {
		t.Error("expected an error for a rejected token")
	}
}

func TestTelegramUnreachableAtStartupAuthorizesLater(t *testing.T) {
	api := &fakeBotAPI{getMeStatus: http.StatusBadGateway}
	tg := newTestTelegram(t, api)

	d := NewDigest("h", []models.Item{{ID: "a", Title: "A", URL: "u"}})
	err := tg.Notify(context.Background(), d)
	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("expected DeliveryError while Telegram is down, got %v", err)
	}
	if len(api.texts) != 0 {
		t.Error("nothing should be sent before authorization")
	}

	api.mu.Lock()
	api.getMeStatus = 0
	api.mu.Unlock()

	if err := tg.Notify(context.Background(), d); err != nil {
		t.Fatalf("Notify() after recovery error = %v", err)
	}
	if len(api.texts) != 1 || api.getMeCalls != 3 {
		t.Errorf("expected one message after three getMe attempts, got %d messages, %d getMe calls", len(api.texts), api.getMeCalls)
	}
}
