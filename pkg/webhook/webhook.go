// Package webhook posts run reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ccollicutt/yawlog/internal/logger"
	"github.com/ccollicutt/yawlog/pkg/config"
	"github.com/ccollicutt/yawlog/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = config.DefaultWebhookTimeout

// maxResponseBody caps how much of a reply is kept.
const maxResponseBody = 1 << 20

// Client sends run reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
		userAgent:  "yawlog-webhook",
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // uses DefaultTimeout if zero
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a report as JSON to one endpoint.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	fail := func(err error) *Response {
		resp.Error = err
		resp.Duration = time.Since(start)
		return resp
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fail(fmt.Errorf("marshalling report: %w", err))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return fail(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return fail(fmt.Errorf("reading response: %w", err))
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)
	resp.Duration = time.Since(start)
	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp
}

// ShouldFire reports whether a trigger applies to a run outcome.
func ShouldFire(trigger config.WebhookTrigger, hasRecords bool) bool {
	switch trigger {
	case config.WebhookTriggerNever:
		return false
	case config.WebhookTriggerOnEmpty:
		return !hasRecords
	default:
		return true
	}
}

// Delivery is the outcome of one configured webhook.
type Delivery struct {
	Name     string
	Fired    bool
	Response *Response
}

// Notify sends report to every hook whose trigger applies. Failures are
// logged and returned, never fatal.
func (c *Client) Notify(ctx context.Context, report *output.Report, hooks []config.WebhookConfig) []Delivery {
	deliveries := make([]Delivery, 0, len(hooks))
	for _, wh := range hooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}
		d := Delivery{Name: name}
		if !ShouldFire(wh.Trigger, report.HasRecords()) {
			logger.Debug("webhook skipped", "webhook", name, "trigger", wh.Trigger)
			deliveries = append(deliveries, d)
			continue
		}

		d.Fired = true
		d.Response = c.Send(ctx, report, SendOptions{URL: wh.URL, Token: wh.Token, Timeout: wh.Timeout})
		if d.Response.Success() {
			logger.Info("webhook sent", "webhook", name, "status", d.Response.StatusCode, "duration", d.Response.Duration)
		} else {
			logger.Warn("webhook failed", "webhook", name, "error", d.Response.Error)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries
}
