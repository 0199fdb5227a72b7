// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
)

// stubRoundTripper returns a canned response and records the last request.
type stubRoundTripper struct {
	response    *http.Response
	lastRequest *http.Request
}

func (d *stubRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return d.response, nil
}

func csvResponse(body string) *http.Response {
	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// TestLoggingRoundTripper verifies that both the request and the response
// (including timing information) end up in the trace writer.
func TestLoggingRoundTripper(t *testing.T) {
	var trace bytes.Buffer

	lt := &LoggingRoundTripper{
		Transport: &stubRoundTripper{response: csvResponse("lat,lon\n1,2\n")},
		Writer:    &trace,
		DumpBody:  true,
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/export", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = lt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	logContent := trace.String()
	if !strings.Contains(logContent, "> GET /export") {
		t.Errorf("log does not contain request info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "< RESPONSE: [") {
		t.Errorf("log does not contain response header with timing info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "lat,lon") {
		t.Errorf("log does not contain response body. Got: %s", logContent)
	}
}

// TestLoggingRoundTripperNilWriter verifies that tracing is a no-op without
// a writer.
func TestLoggingRoundTripperNilWriter(t *testing.T) {
	stub := &stubRoundTripper{response: csvResponse("")}
	lt := &LoggingRoundTripper{Transport: stub}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/export", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = lt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if stub.lastRequest == nil {
		t.Fatal("transport did not receive the request")
	}
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	stub := &stubRoundTripper{response: csvResponse("")}

	atr := &AppendRequestHeadersRoundTripper{
		Transport: stub,
		Headers: map[string]string{
			"User-Agent": "tablemap/test",
		},
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = atr.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if stub.lastRequest == nil {
		t.Fatal("transport did not receive any request")
	}

	if got := stub.lastRequest.Header.Get("User-Agent"); got != "tablemap/test" {
		t.Errorf("expected User-Agent 'tablemap/test', got %q", got)
	}
}
