// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides the HTTP transport plumbing used by the
// dataset fetch client.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

// LoggingRoundTripper dumps requests and responses to a writer. The dump
// is truncated so that a large CSV body doesn't flood the terminal.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

const (
	dumpMaxLines = 2048
	dumpMaxChars = 512
)

// Truncates a dump to a readable size and prefixes each line with the
// transfer direction marker.
func abbreviate(dump string, prefix rune) string {
	lines := strings.Split(dump, "\n")
	if len(lines) > dumpMaxLines {
		lines = lines[:dumpMaxLines]
		lines = append(lines, "…")
	}

	for i, line := range lines {
		if len(line) > dumpMaxChars {
			line = line[:dumpMaxChars] + "…"
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}

	return strings.Join(lines, "\n") + "\n"
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	reqDump, err := httputil.DumpRequestOut(req, t.DumpBody)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}

	if _, err := fmt.Fprint(t.Writer, abbreviate(string(reqDump), '>')); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	respDump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n%s", time.Since(start), abbreviate(string(respDump), '<')); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper sets fixed headers on every request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(req)
}
