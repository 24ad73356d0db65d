package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pithecene-io/intel/iox"
	"github.com/pithecene-io/intel/log"
	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/stream"
	"github.com/pithecene-io/intel/types"
)

// maxLoggedLine bounds how much of a dropped line is logged.
const maxLoggedLine = 256

// ExecuteStream runs a mission via POST /execute/stream.
//
// The request is validated before anything is sent. A non-2xx status is a
// *TransportError, a response without a body is a *StreamUnavailableError and
// a failed request or read is a *NetworkError; each is delivered once to
// onError and returned. Terminal chunks are not special-cased: the stream is
// read until the backend closes it.
func (c *Client) ExecuteStream(ctx context.Context, req types.MissionRequest, onChunk func(types.StreamChunk), onError func(error)) error {
	if err := req.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal mission request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+EndpointExecuteStream, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq, "application/x-ndjson")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.fail(&NetworkError{Err: err}, onError)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer iox.DiscardClose(resp.Body)
		return c.fail(newTransportError(resp), onError)
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			iox.DiscardClose(resp.Body)
		}
		return c.fail(&StreamUnavailableError{}, onError)
	}

	c.logger.Debug("mission stream opened", map[string]any{
		"status":       resp.StatusCode,
		"content_type": resp.Header.Get("Content-Type"),
	})

	return Consume(ctx, resp.Body, c.logger, c.config.Metrics, onChunk, onError)
}

// fail records err and delivers it to onError.
func (c *Client) fail(err error, onError func(error)) error {
	recordFailure(c.config.Metrics, err)
	if onError != nil {
		onError(err)
	}
	return err
}

// Consume drives a mission stream body to completion.
//
// body is closed on return, and also as soon as ctx is canceled so that a
// blocked read is released. Lines that fail validation are logged and
// dropped. Read failures become a *NetworkError delivered once to onError.
func Consume(ctx context.Context, body io.ReadCloser, logger *log.Logger, m *metrics.Collector, onChunk func(types.StreamChunk), onError func(error)) error {
	defer iox.DiscardClose(body)
	stop := context.AfterFunc(ctx, func() { iox.DiscardClose(body) })
	defer stop()

	if logger == nil {
		logger = log.NewNop()
	}

	decoder := stream.NewFrameDecoder(body)
	for {
		line, err := decoder.ReadFrame()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			netErr := &NetworkError{Err: err}
			recordFailure(m, netErr)
			if onError != nil {
				onError(netErr)
			}
			return netErr
		}

		chunk, err := stream.DecodeChunk(line)
		if err != nil {
			m.IncFrameDropped()
			logger.Warn("dropping invalid chunk", map[string]any{
				"error": err.Error(),
				"line":  truncate(line, maxLoggedLine),
			})
			continue
		}

		m.IncChunk(string(chunk.Type))
		if onChunk != nil {
			onChunk(chunk)
		}
	}
}

func recordFailure(m *metrics.Collector, err error) {
	var (
		transportErr   *TransportError
		unavailableErr *StreamUnavailableError
		networkErr     *NetworkError
	)
	switch {
	case errors.As(err, &transportErr):
		m.IncTransportError()
	case errors.As(err, &unavailableErr):
		m.IncStreamUnavailable()
	case errors.As(err, &networkErr):
		m.IncNetworkError()
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
