package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const userAgent = "SmartAgri/1.0"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type BaseClient struct {
	name           string
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
}

// ClientConfig bounds a provider call. ConnectTimeout covers dialing and the TLS
// handshake; ReadTimeout covers the rest of the exchange.
type ClientConfig struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Threshold      int
	BreakerTimeout time.Duration
}

// WithReadTimeout returns a copy of the config with a provider-specific read timeout.
func (c ClientConfig) WithReadTimeout(d time.Duration) ClientConfig {
	c.ReadTimeout = d
	return c
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	httpClient := &http.Client{
		Timeout: config.ConnectTimeout + config.ReadTimeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   config.ConnectTimeout,
			ResponseHeaderTimeout: config.ReadTimeout,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
		},
	}

	threshold := config.Threshold
	if threshold <= 0 {
		threshold = 3
	}

	// Circuit breaker settings
	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(threshold) && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		name:           name,
		client:         httpClient,
		logger:         logger.With(zap.String("provider", name)),
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
	}
}

func (c *BaseClient) Name() string {
	return c.name
}

// BreakerState reports the circuit breaker state for metrics.
func (c *BaseClient) BreakerState() string {
	return c.circuitBreaker.State().String()
}

// Get issues a GET and returns the body of a 2xx response. Any transport problem,
// non-2xx status or open breaker is a Transport failure.
func (c *BaseClient) Get(ctx context.Context, url string, header http.Header) ([]byte, *models.Failure) {
	return c.do(ctx, http.MethodGet, url, header, nil)
}

// PostJSON marshals payload and POSTs it.
func (c *BaseClient) PostJSON(ctx context.Context, url string, header http.Header, payload interface{}) ([]byte, *models.Failure) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, models.SchemaFailure("encoding request", err)
	}
	header = header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/json")
	return c.do(ctx, http.MethodPost, url, header, body)
}

func (c *BaseClient) do(ctx context.Context, method, url string, header http.Header, body []byte) ([]byte, *models.Failure) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, url, header, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("Circuit breaker rejected request", zap.Error(err))
		}
		return nil, models.TransportFailure(err)
	}

	data, ok := result.([]byte)
	if !ok {
		return nil, models.TransportFailure(fmt.Errorf("unexpected result type %T", result))
	}
	return data, nil
}

func (c *BaseClient) roundTrip(ctx context.Context, method, url string, header http.Header, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request failed: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("HTTP request failed", zap.String("method", method), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Unexpected HTTP status",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	c.logger.Debug("Request successful",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Int("body_size", len(data)),
		zap.Duration("duration", time.Since(start)))

	return data, nil
}
