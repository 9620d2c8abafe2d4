// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
//
// There is no retry logic: a backend hiccup fails the whole run, and the
// error carries the endpoint path plus a truncated response body so the
// failure is diagnosable from the message alone.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response body is echoed in errors.
const maxErrorBody = 200

// Do issues req and returns the full response body. A transport error, a
// non-2xx status, or an unreadable body is fatal; status errors include the
// endpoint path and the truncated body.
func Do(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req.Clone(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: HTTP %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, TruncateBody(body))
	}

	return body, nil
}

// TruncateBody renders a response body for an error message: whitespace
// collapsed, cut at 200 characters.
func TruncateBody(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
