// pkg/extract/mockaroo.go
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/model"
)

const (
	// MaxResponseSize is the maximum response body size (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// maxErrorBody caps how much of an error response is kept
	maxErrorBody = 512
)

// MockarooSource downloads generated sales data as CSV
type MockarooSource struct {
	client    *http.Client
	cfg       config.MockarooConfig
	converter *converter.Converter
	logger    *zap.Logger
}

// NewMockarooSource creates a source for the configured schema
func NewMockarooSource(cfg config.MockarooConfig, logger *zap.Logger) *MockarooSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &MockarooSource{
		client:    &http.Client{Timeout: timeout},
		cfg:       cfg,
		converter: converter.NewConverter(logger),
		logger:    logger.Named("mockaroo"),
	}
}

// Name implements Source
func (s *MockarooSource) Name() string {
	return config.SourceMockaroo
}

// requestURL builds {url}/{schema}?key=...&count=...
func (s *MockarooSource) requestURL() (string, error) {
	base, err := url.Parse(strings.TrimRight(s.cfg.URL, "/") + "/" + url.PathEscape(s.cfg.SchemaID))
	if err != nil {
		return "", fmt.Errorf("invalid mockaroo url: %w", err)
	}

	q := base.Query()
	q.Set("key", s.cfg.APIKey)
	q.Set("count", strconv.Itoa(s.cfg.RowCount))
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Extract implements Source
func (s *MockarooSource) Extract(ctx context.Context) (*model.RawTable, error) {
	reqURL, err := s.requestURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes (max %d)", resp.ContentLength, MaxResponseSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response body too large: %d bytes (max %d)", len(body), MaxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	table, err := s.converter.ReadRawTable(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mockaroo response: %w", err)
	}

	s.logger.Info("Extracted sales data",
		zap.String("schema", s.cfg.SchemaID),
		zap.Int("rows", table.Len()),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	return table, nil
}
