package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/netutil"
)

const forwardPath = "/trigger-tradingview"

// HTTPForwarder posts payloads to the automation endpoint.
type HTTPForwarder struct {
	rest *resty.Client
}

func NewHTTPForwarder(baseURL string, timeout time.Duration, transport http.RoundTripper) *HTTPForwarder {
	return &HTTPForwarder{rest: netutil.NewRESTClient(baseURL, timeout, transport)}
}

// Forward sends p once. Any non-2xx status is an error.
func (f *HTTPForwarder) Forward(ctx context.Context, p Payload) error {
	var result map[string]any
	resp, err := f.rest.R().
		SetContext(ctx).
		SetAuthToken(p.AuthToken).
		SetBody(p).
		SetResult(&result).
		Post(forwardPath)
	if err != nil {
		return fmt.Errorf("trigger forward: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("trigger forward: status=%d", resp.StatusCode())
	}
	slog.Debug("trigger forwarded", "symbol", p.Symbol, "timeframe", p.Timeframe, "price", p.Price, "result", result)
	return nil
}
