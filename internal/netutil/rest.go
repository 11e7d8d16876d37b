package netutil

import (
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

// NewRESTClient builds the resty client shared by the outbound service
// clients. A zero timeout leaves requests unbounded. transport may be nil.
func NewRESTClient(baseURL string, timeout time.Duration, transport http.RoundTripper) *resty.Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	if transport != nil {
		c.SetTransport(transport)
	}
	return c
}
