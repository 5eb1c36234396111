package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Console writes digests to a writer, usually stdout
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

var _ Notifier = (*Console)(nil)

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Notify(ctx context.Context, d Digest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintln(c.w, d.Text()); err != nil {
		return &DeliveryError{Notifier: c.Name(), Err: err}
	}
	return nil
}
