package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mailpilot/internal/config"
	"mailpilot/pkg/apperr"
	"mailpilot/pkg/circuitbreaker"
	"mailpilot/pkg/metrics"
)

// Oracle is the opaque text-completion service: prompt in, text out.
// It may fail (network, quota) or return text that isn't what the
// caller hoped for; both are the caller's problem to absorb.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OracleClient talks to the text-generation service over HTTP JSON,
// behind a circuit breaker so a dead oracle fails fast instead of
// eating the request timeout on every call.
type OracleClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewOracleClient(cfg config.OracleConfig, logger *zap.Logger) *OracleClient {
	return &OracleClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		logger:  logger,
	}
}

type completeRequest struct {
	Prompt string `json:"prompt"`
}

type completeResponse struct {
	Text string `json:"text"`
}

func (c *OracleClient) Complete(ctx context.Context, prompt string) (string, error) {
	started := time.Now()

	var text string
	err := c.breaker.Execute(func() error {
		var innerErr error
		text, innerErr = c.complete(ctx, prompt)
		return innerErr
	})
	if err != nil {
		metrics.RecordOracleCallLatency("complete", "failed", time.Since(started))
		if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
			return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "oracle circuit open", err)
		}
		return "", err
	}

	metrics.RecordOracleCallLatency("complete", "success", time.Since(started))
	return text, nil
}

func (c *OracleClient) complete(ctx context.Context, prompt string) (string, error) {
	b, err := json.Marshal(completeRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/complete", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "failed to call oracle", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.Newf(apperr.KindUpstreamUnavailable, "oracle returned status %d", resp.StatusCode)
	}

	var out completeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Wrap(apperr.KindMalformedResponse, "failed to decode oracle response", err)
	}

	return out.Text, nil
}
