package reset

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Notifier delivers a reset link to the account owner.
type Notifier interface {
	Notify(ctx context.Context, username, link string) error
}

// WriterNotifier prints reset links to w. Used for local development.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(_ context.Context, username, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "password reset for %s: %s\n", username, link)
	return err
}
