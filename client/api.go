package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/habedi/cardidle/badge"
	"github.com/rs/zerolog/log"
)

// GetPage fetches urlStr with the session cookies. Failed or empty responses
// are retried up to MaxRetries attempts; after that badge.ErrRetriesExhausted is returned.
func (c *Client) GetPage(ctx context.Context, urlStr string) ([]byte, error) {
	sess, err := c.Store.Session()
	if err != nil {
		return nil, err
	}
	hc, err := c.httpClient(sess)
	if err != nil {
		return nil, err
	}
	return c.getPage(ctx, hc, urlStr)
}

func (c *Client) getPage(ctx context.Context, hc *http.Client, urlStr string) ([]byte, error) {
	attempts := c.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		body, err := fetch(ctx, hc, urlStr)
		if err == nil && len(bytes.TrimSpace(body)) > 0 {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug().Err(err).Str("url", urlStr).Int("attempt", attempt).Msg("Empty page response, retrying")
		if attempt < attempts {
			if err := sleep(ctx, c.RetryDelay); err != nil {
				return nil, err
			}
		}
	}
	log.Warn().Str("url", urlStr).Int("attempts", attempts).Msg("Giving up on page")
	return nil, fmt.Errorf("%w: %s", badge.ErrRetriesExhausted, urlStr)
}

// fetch sends a GET request and returns the body of a 2xx response.
func fetch(ctx context.Context, hc *http.Client, urlStr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected HTTP status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return readResponseBody(resp)
}

// readResponseBody reads the whole body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("url", resp.Request.URL.String()).Msg("Failed to read response body")
		return nil, err
	}
	return body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
