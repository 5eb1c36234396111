package notifier

import (
	"context"

	"catalog-watcher/models"
)

// ItemAppender is implemented by sheets.Writer
type ItemAppender interface {
	AppendItems(ctx context.Context, items []models.Item) error
}

// Sheets logs every new item as a spreadsheet row
type Sheets struct {
	writer ItemAppender
}

var _ Notifier = (*Sheets)(nil)

func NewSheets(writer ItemAppender) *Sheets {
	return &Sheets{writer: writer}
}

func (s *Sheets) Name() string { return "sheets" }

func (s *Sheets) Notify(ctx context.Context, d Digest) error {
	if err := s.writer.AppendItems(ctx, d.Items); err != nil {
		return &DeliveryError{Notifier: s.Name(), Err: err}
	}
	return nil
}
