package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"catalog-watcher/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultRange is where rows are appended when no sheet name is given
const DefaultRange = "Sheet1!A:D"

// Writer appends newly discovered items to a Google spreadsheet
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	appendRange   string
	now           func() time.Time
}

// NewWriter creates a writer authorized with a service account.
// credentials is either a path to the JSON key file or the JSON itself.
func NewWriter(ctx context.Context, spreadsheetID, credentials string) (*Writer, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is empty")
	}

	credsJSON, err := readCredentials(credentials)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriterWithService(service, spreadsheetID), nil
}

func newWriterWithService(service *sheets.Service, spreadsheetID string) *Writer {
	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
		appendRange:   DefaultRange,
		now:           time.Now,
	}
}

// readCredentials accepts inline JSON or a file path and checks it is a service account key
func readCredentials(credentials string) ([]byte, error) {
	credentials = strings.TrimSpace(credentials)
	if credentials == "" {
		return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS is empty")
	}

	var credsJSON []byte
	if strings.HasPrefix(credentials, "{") {
		slog.Debug("Reading sheets credentials from inline JSON", "bytes", len(credentials))
		credsJSON = []byte(credentials)
	} else {
		data, err := os.ReadFile(credentials)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = data
	}

	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	return credsJSON, nil
}

// AppendItems adds one row per item: discovery time, ID, title, URL
func (w *Writer) AppendItems(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}

	valueRange := &sheets.ValueRange{Values: itemRows(items, w.now())}

	_, err := w.service.Spreadsheets.Values.Append(w.spreadsheetID, w.appendRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to sheets: %w", err)
	}

	slog.Info("Appended items to Google Sheets", "count", len(items), "spreadsheet", w.spreadsheetID)
	return nil
}

func itemRows(items []models.Item, at time.Time) [][]interface{} {
	stamp := at.UTC().Format(time.RFC3339)
	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, []interface{}{stamp, item.ID, item.Title, item.URL})
	}
	return rows
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func ExtractSpreadsheetID(url string) string {
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.IndexAny(idPart, "/?#"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
