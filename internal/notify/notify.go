// Package notify pushes short plain-text messages to an ntfy topic.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	if strings.TrimSpace(endpoint) == "" {
		return errors.New("ntfy endpoint is required")
	}
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "tv dashboard trigger")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}

// Notifier reports trigger forward failures. A Notifier with an empty
// endpoint is disabled.
type Notifier struct {
	Endpoint string
	Client   *http.Client
}

// Enabled reports whether an endpoint is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && strings.TrimSpace(n.Endpoint) != ""
}

// ForwardFailed posts a one-line report; errors are only logged.
func (n *Notifier) ForwardFailed(ctx context.Context, symbol, timeframe, price string, cause error) {
	if !n.Enabled() {
		return
	}
	msg := fmt.Sprintf("trigger forward failed for %s %s @ %s: %v", symbol, timeframe, price, cause)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := Send(ctx, n.Client, n.Endpoint, msg); err != nil {
		slog.Warn("forward failure notification failed", "error", err)
	}
}
