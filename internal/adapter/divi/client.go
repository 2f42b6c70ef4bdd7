package divi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/couchcryptid/divi-occupancy-etl/internal/observability"
)

// ListingPath is the archive's table view of all daily CSV reports.
const ListingPath = "/divi-intensivregister-tagesreport-archiv-csv?layout=table"

// CachedFetcher fetches a URL through a file cache.
type CachedFetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// Client discovers and downloads the daily reports from the DIVI archive.
// It implements pipeline.Fetcher.
type Client struct {
	fetcher      CachedFetcher
	baseURL      string
	listingCache string
	downloadDir  string
	maxAge       time.Duration
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL      string
	ListingCache string // cache file for the listing page
	DownloadDir  string // one <date>.csv per report
	MaxAge       time.Duration
}

// NewClient creates an archive client on top of a cached fetcher.
func NewClient(fetcher CachedFetcher, opts ClientOptions, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		fetcher:      fetcher,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		listingCache: opts.ListingCache,
		downloadDir:  opts.DownloadDir,
		maxAge:       opts.MaxAge,
		metrics:      metrics,
		logger:       logger,
	}
}

// Fetch lists the archive and downloads the latest report of every day that
// is missing or stale in the download directory.
func (c *Client) Fetch(ctx context.Context) error {
	links, err := c.FetchListing(ctx)
	if err != nil {
		return err
	}
	return c.DownloadReports(ctx, links)
}

// FetchListing loads the archive listing and returns one link per report date.
func (c *Client) FetchListing(ctx context.Context) ([]domain.ReportLink, error) {
	body, err := c.fetcher.Fetch(ctx, Request{
		URL:       c.baseURL + ListingPath,
		CacheFile: c.listingCache,
		Method:    http.MethodPost,
		Form:      listingForm(),
		MaxAge:    c.maxAge,
		Kind:      "listing",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	paths, err := domain.ExtractLinks(string(body))
	if err != nil {
		return nil, err
	}
	c.metrics.ListingLinks.Set(float64(len(paths)))

	links, err := domain.LatestPerDay(c.baseURL, paths)
	if err != nil {
		return nil, err
	}
	c.metrics.ReportsListed.Set(float64(len(links)))
	c.logger.Info("archive listing parsed", "links", len(paths), "dates", len(links))
	return links, nil
}

// DownloadReports fetches every link into <download dir>/<date>.csv.
func (c *Client) DownloadReports(ctx context.Context, links []domain.ReportLink) error {
	for _, link := range links {
		_, err := c.fetcher.Fetch(ctx, Request{
			URL:       link.URL,
			CacheFile: c.ReportPath(link.Date),
			Method:    http.MethodGet,
			MaxAge:    c.maxAge,
			Kind:      "report",
		})
		if err != nil {
			return fmt.Errorf("download report %s: %w", link.Date, err)
		}
	}
	return nil
}

// ReportPath is the cache file of the report for date.
func (c *Client) ReportPath(date string) string {
	return filepath.Join(c.downloadDir, date+".csv")
}

// listingForm asks for the full table sorted newest first.
func listingForm() url.Values {
	return url.Values{
		"filter_order_Dir": {"DESC"},
		"filter_order":     {"tbl.ordering"},
		"start":            {"0"},
	}
}
