// Package editor pushes accepted contributions to an external editor bridge
// so they can land in the streamer's working tree.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/contribhq/contribd/contrib"
)

// Notifier POSTs accepted contributions to the bridge endpoint. Delivery is
// best effort; acceptance is already durable in the store by the time a
// notification goes out.
type Notifier struct {
	Endpoint   string
	HTTPClient *http.Client
}

// New returns a Notifier for the bridge endpoint, or nil when the endpoint
// is empty (bridge disabled).
func New(endpoint string) *Notifier {
	if endpoint == "" {
		return nil
	}
	return &Notifier{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyAccepted delivers one accepted contribution.
func (n *Notifier) NotifyAccepted(ctx context.Context, c *contrib.Contribution) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal contribution: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	hc := n.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("editor bridge rejected contribution %d: %s: %s", c.ID, resp.Status, string(b))
	}
	return nil
}
