package formsubmit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/nominee-director-site/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultBaseURL   = "https://formsubmit.co"
	defaultUserAgent = "nominee-director-site/1.0"
	maxResponseBytes = 1 << 20
)

var submitTracer = otel.Tracer("nominee.internal.formsubmit")

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls how the client behaves.
type Config struct {
	BaseURL    string
	EndpointID string
	Timeout    time.Duration
	HTTPClient Doer
	Logger     *logging.Logger
	UserAgent  string
}

// Client relays payloads to the FormSubmit AJAX endpoint.
type Client struct {
	endpoint   string
	httpClient Doer
	logger     *logging.Logger
	userAgent  string
}

// Result is the processor's own verdict, returned as received.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UnmarshalJSON accepts success as a JSON boolean or as "true"/"false";
// FormSubmit has shipped both.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success json.RawMessage `json:"success"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Message = raw.Message
	r.Success = false
	if len(raw.Success) == 0 || string(raw.Success) == "null" {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw.Success, &b); err == nil {
		r.Success = b
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Success, &s); err != nil {
		return fmt.Errorf("formsubmit: success field: %w", err)
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("formsubmit: success field %q: %w", s, err)
	}
	r.Success = parsed
	return nil
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	endpointID := strings.Trim(strings.TrimSpace(cfg.EndpointID), "/")
	if endpointID == "" {
		return nil, ErrEndpointRequired
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		endpoint:   baseURL + "/ajax/" + endpointID,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// Endpoint returns the URL payloads are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit posts the payload once. Failures come back as *Error; retrying is
// left to the caller.
func (c *Client) Submit(ctx context.Context, payload Payload) (*Result, error) {
	ctx, span := submitTracer.Start(ctx, "formsubmit.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int("formsubmit.field_count", len(payload)),
		attribute.String("formsubmit.subject", payload[FieldSubject]),
	)

	result, err := c.submit(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if subErr, ok := err.(*Error); ok {
			span.SetAttributes(attribute.String("formsubmit.error_kind", subErr.Kind.String()))
			c.logger.Warn("formsubmit: submission failed",
				"kind", subErr.Kind.String(),
				"status", subErr.StatusCode,
				"cause", subErr.Err,
			)
		}
		return nil, err
	}
	span.SetAttributes(attribute.Bool("formsubmit.success", result.Success))
	c.logger.Info("formsubmit: submission relayed", "success", result.Success)
	return result, nil
}

func (c *Client) submit(ctx context.Context, payload Payload) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: fmt.Errorf("formsubmit: marshal payload: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: fmt.Errorf("formsubmit: build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		drain(resp.Body)
		return nil, &Error{
			Kind:       KindRateLimited,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("formsubmit: http status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := drain(resp.Body)
		return nil, &Error{
			Kind:       KindServer,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("formsubmit: http status %d: %s", resp.StatusCode, snippet),
		}
	}

	var result Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return nil, &Error{
			Kind:       KindNetwork,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("formsubmit: decode response: %w", err),
		}
	}
	return &result, nil
}

// classifyTransportError maps a failed round trip. Some proxies surface
// throttling only in the error text, so "429" there still counts as a rate limit.
// The request URL carries the endpoint id, so only the cause is inspected.
func classifyTransportError(err error) *Error {
	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		cause = urlErr.Err
	}
	kind := KindNetwork
	if strings.Contains(cause.Error(), "429") {
		kind = KindRateLimited
	}
	return &Error{Kind: kind, Err: fmt.Errorf("formsubmit: http error: %w", err)}
}

func drain(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(data))
}
