// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package tabular

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/net/html/charset"

	"github.com/mapfeeds/tablemap/geo"
	"github.com/mapfeeds/tablemap/utils/httputils"
)

// ClientOptions configuration for the dataset update client.
type ClientOptions struct {
	// OutDir is the directory where artifacts are written
	OutDir string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Timeout for a whole fetch; zero means 60s
	Timeout time.Duration

	// KeepRaw saves the fetched CSV body next to the artifact for debugging
	KeepRaw bool

	// Dry run, don't write any file
	DryRun bool

	// Combined also writes a merged artifact when updating every dataset
	Combined bool

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

// FetchError reports that a table source could not be obtained. It is
// fatal: no artifact is written.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
	}

	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UpdateMetrics tracks statistics across dataset updates.
type UpdateMetrics struct {
	DatasetsOk  int
	DatasetsErr int
	ConvertMetrics
}

// Merge combines the metrics from another UpdateMetrics into this one.
func (m *UpdateMetrics) Merge(o *UpdateMetrics) *UpdateMetrics {
	if o == nil {
		return m
	}

	m.DatasetsOk += o.DatasetsOk
	m.DatasetsErr += o.DatasetsErr
	m.ConvertMetrics.Merge(&o.ConvertMetrics)

	return m
}

// Client fetches published spreadsheet exports and materializes their
// GeoJSON artifacts.
type Client struct {
	client  *http.Client
	options *ClientOptions
	Metrics UpdateMetrics

	// now is stubbed in tests to get deterministic metadata.
	now func() time.Time
}

// NewClient creates a new client with the provided options.
func NewClient(options *ClientOptions) *Client {
	if options == nil {
		options = &ClientOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "tablemap/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "text/csv, */*",
		},
		Transport: loggingTransport,
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		// Published sheet exports redirect to googleusercontent, so
		// redirects stay enabled.
		client: &http.Client{
			Timeout:   timeout,
			Transport: headerTransport,
		},
		options: options,
		now:     time.Now,
	}
}

// FetchTable performs a single GET against the export URL and parses the
// body as a table. The body is decoded to UTF-8 according to the response
// Content-Type before parsing. Returns the decoded body alongside the
// table so callers can keep a raw debug copy.
func (c *Client) FetchTable(url string) (*Table, []byte, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, nil, &FetchError{URL: url, Err: err}
	}

	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Printf("Closing response body: %s", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, &FetchError{URL: url, Err: fmt.Errorf("decoding response charset: %w", err)}
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, &FetchError{URL: url, Err: fmt.Errorf("reading response body: %w", err)}
	}

	table, err := ReadTable(bytes.NewReader(body))
	if err != nil {
		return nil, nil, &FetchError{URL: url, Err: err}
	}

	return table, body, nil
}

// Update fetches one dataset, converts it and writes its artifact. The
// produced collection is returned so callers can assemble a combined
// artifact. Per-dataset accounting is merged into the client metrics.
func (c *Client) Update(ds *DatasetReference) (*geo.FeatureCollection, error) {
	fc, metrics, err := c.updateDataset(ds)
	c.Metrics.Merge(&metrics)

	return fc, err
}

func (c *Client) updateDataset(ds *DatasetReference) (*geo.FeatureCollection, UpdateMetrics, error) {
	var m UpdateMetrics

	if err := ds.Validate(); err != nil {
		return nil, m, err
	}

	log.Printf("Updating dataset %s from %s", ds.Name, ds.SourceURL)

	table, raw, err := c.FetchTable(ds.SourceURL)
	if err != nil {
		m.DatasetsErr++

		return nil, m, err
	}

	log.Printf("Dataset %s: %d columns, %d rows", ds.Name, len(table.Columns), len(table.Rows))

	if c.options.KeepRaw && !c.options.DryRun {
		rawPath := filepath.Join(c.options.OutDir, ds.Name+".csv")
		if err := os.MkdirAll(c.options.OutDir, 0o755); err != nil {
			return nil, m, fmt.Errorf("creating output directory: %w", err)
		}

		if err := os.WriteFile(rawPath, raw, 0o644); err != nil {
			return nil, m, fmt.Errorf("saving raw CSV: %w", err)
		}

		log.Printf("Saved raw CSV to %s", rawPath)
	}

	conv := &Converter{}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(table.Rows),
			progressbar.OptionSetDescription("Converting "+ds.Name),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		conv.Progress = func() {
			if err := bar.Add(1); err != nil {
				log.Printf("Updating progress bar: %s", err)
			}
		}
	}

	fc, err := conv.Convert(table, &ds.Mapping)
	if err != nil {
		m.DatasetsErr++

		return nil, m, fmt.Errorf("converting dataset %s: %w", ds.Name, err)
	}

	m.ConvertMetrics = conv.Metrics

	fc.Stamp(ds.SourceURL, c.now())

	if c.options.DryRun {
		log.Printf("Dry run - not writing %s", ds.Output)
	} else {
		path := filepath.Join(c.options.OutDir, ds.Output)
		if err := geo.WriteFile(path, fc); err != nil {
			m.DatasetsErr++

			return nil, m, err
		}

		log.Printf("Wrote %d features to %s", len(fc.Features), path)
	}

	m.DatasetsOk++

	return fc, m, nil
}

// UpdateAll updates every dataset in the registry in order, then writes
// the combined artifact when enabled. Any dataset failure aborts the run.
func (c *Client) UpdateAll() error {
	var collections []*geo.FeatureCollection

	err := Each(func(ds DatasetReference) error {
		fc, err := c.Update(&ds)
		if err != nil {
			return err
		}

		collections = append(collections, fc)

		return nil
	})
	if err != nil {
		return err
	}

	if c.options.Combined {
		combined := geo.Merge(collections...)
		combined.Stamp("combined", c.now())

		if c.options.DryRun {
			log.Printf("Dry run - not writing combined.geojson")
		} else {
			path := filepath.Join(c.options.OutDir, "combined.geojson")
			if err := geo.WriteFile(path, combined); err != nil {
				return err
			}

			log.Printf("Wrote %d combined features to %s", len(combined.Features), path)
		}
	}

	log.Printf(
		"Update complete - %d datasets ok, %d failed, %d features, %d rows skipped",
		c.Metrics.DatasetsOk,
		c.Metrics.DatasetsErr,
		c.Metrics.Processed,
		c.Metrics.Skipped,
	)

	return nil
}
