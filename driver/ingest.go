package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// Ingester posts a single normalized log record to a remote collector. It is
// narrowed to one method so tests can substitute an in-memory collector
// without standing up an HTTP server.
type Ingester interface {
	Ingest(ctx context.Context, msg *LogMessage) (json.RawMessage, error)
}

// IngestClient posts LogMessages to {baseURL}/logs as a one-element JSON
// array, per the ingest endpoint's contract.
//
// It is built on retryablehttp for its request/response plumbing and
// pluggable logger, but RetryMax is pinned to 0: this version performs no
// retries on ingest failure, by design -- a failed ingest is logged and the
// next frame is read, never retried in place.
type IngestClient struct {
	baseURL string
	http    *retryablehttp.Client
}

// NewIngestClient constructs an IngestClient targeting baseURL.
func NewIngestClient(baseURL string, log *logrus.Entry) *IngestClient {
	c := retryablehttp.NewClient()
	c.RetryMax = 0
	c.Logger = &retryableHTTPLogAdapter{log: log}

	return &IngestClient{
		baseURL: baseURL,
		http:    c,
	}
}

// Ingest sends msg to the configured endpoint and returns the parsed
// response body on a 2xx status, or a transport/HTTP error otherwise.
func (c *IngestClient) Ingest(ctx context.Context, msg *LogMessage) (json.RawMessage, error) {
	body, err := json.Marshal([]*LogMessage{msg})
	if err != nil {
		return nil, fmt.Errorf("marshaling log message: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building ingest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to ingest endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ingest response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ingest endpoint returned %s: %s", resp.Status, string(respBody))
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("ingest response is not valid JSON: %s", string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// retryableHTTPLogAdapter routes retryablehttp's internal logging (mostly
// request/attempt tracing, irrelevant with retries disabled) into the
// structured logger at debug level instead of its default stderr writer.
type retryableHTTPLogAdapter struct {
	log *logrus.Entry
}

func (a *retryableHTTPLogAdapter) Printf(format string, v ...any) {
	a.log.Debugf(format, v...)
}
