package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hakalabs/hakabot/internal/config"
	"github.com/hakalabs/hakabot/internal/domain"
)

// Client talks to the inference service. It is stateless and safe for
// concurrent use; every call is a single attempt bounded by the configured
// timeout, with no retries.
type Client struct {
	baseURL string
	timeout time.Duration
	errors  config.ErrorsConfig
	hc      *http.Client
	logger  *zap.Logger
}

// NewClient creates a new inference service client
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	timeout := cfg.Upstream.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Upstream.BaseURL, "/"),
		timeout: timeout,
		errors:  cfg.Errors,
		hc:      &http.Client{},
		logger:  logger,
	}
}

// Relay forwards a raw request body to the inference service and returns the
// upstream JSON unchanged on 2xx. The body is not validated beyond being
// passed through; a malformed request is the upstream's to reject. Failures
// come back as *domain.UpstreamError.
func (c *Client) Relay(ctx context.Context, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, c.fail(&domain.UpstreamError{Kind: domain.KindSystem, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, c.fail(classifyTransport(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(&domain.UpstreamError{Kind: domain.KindSystem, UpstreamStatus: resp.StatusCode, Err: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.fail(&domain.UpstreamError{Kind: classifyStatus(resp.StatusCode), UpstreamStatus: resp.StatusCode})
	}

	// A success body must still be JSON before it is handed to the widget
	if !json.Valid(data) {
		return nil, c.fail(&domain.UpstreamError{
			Kind:           domain.KindSystem,
			UpstreamStatus: resp.StatusCode,
			Err:            fmt.Errorf("upstream returned invalid JSON"),
		})
	}

	return data, nil
}

// Chat sends a typed request and decodes the answer for the session
// controller path. An undecodable 2xx body classifies as a system failure.
func (c *Client) Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, c.fail(&domain.UpstreamError{Kind: domain.KindSystem, Err: fmt.Errorf("encoding request: %w", err)})
	}

	data, err := c.Relay(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp domain.ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, c.fail(&domain.UpstreamError{Kind: domain.KindSystem, Err: fmt.Errorf("decoding response: %w", err)})
	}

	return &resp, nil
}

// Payload builds the structured error body shown to the widget for a
// failure. Title comes from the taxonomy, body and contact are the
// deployment-fixed strings from config.
func (c *Client) Payload(kind domain.FailureKind) domain.ErrorPayload {
	return domain.ErrorPayload{
		Error:   string(kind),
		Message: c.message(kind),
		Contact: c.errors.Contact,
	}
}

func (c *Client) message(kind domain.FailureKind) string {
	switch kind {
	case domain.KindUnreachable:
		return c.errors.Unreachable
	case domain.KindUpstreamFault:
		return c.errors.UpstreamFault
	case domain.KindBadRequest:
		return c.errors.BadRequest
	case domain.KindTimeout:
		return c.errors.Timeout
	case domain.KindTransport:
		return c.errors.Transport
	default:
		return c.errors.System
	}
}

func (c *Client) fail(ue *domain.UpstreamError) error {
	c.logger.Warn("inference call failed",
		zap.String("kind", string(ue.Kind)),
		zap.Int("upstream_status", ue.UpstreamStatus),
		zap.Error(ue.Err),
	)
	return ue
}

func classifyStatus(status int) domain.FailureKind {
	switch {
	case status == http.StatusNotFound:
		return domain.KindUnreachable
	case status >= 500:
		return domain.KindUpstreamFault
	default:
		return domain.KindBadRequest
	}
}

func classifyTransport(err error) *domain.UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.UpstreamError{Kind: domain.KindTimeout, Err: err}
	}
	// url.Error wraps timeouts from the transport as well
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return &domain.UpstreamError{Kind: domain.KindTimeout, Err: err}
	}
	return &domain.UpstreamError{Kind: domain.KindTransport, Err: err}
}
