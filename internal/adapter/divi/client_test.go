package divi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/couchcryptid/divi-occupancy-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportPrefix = "/divi-intensivregister-tagesreport-archiv-csv/divi-intensivregister-"

// archive serves a listing page with the given timestamps, newest first, and
// one CSV body per report link.
type archive struct {
	mu       sync.Mutex
	stamps   []string
	requests []string
}

func (a *archive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.requests = append(a.requests, r.Method+" "+r.URL.Path)
	a.mu.Unlock()

	if r.URL.Path == "/divi-intensivregister-tagesreport-archiv-csv" {
		var b strings.Builder
		for _, s := range a.stamps {
			fmt.Fprintf(&b, `<a href="%s%s/viewdocument">%s</a>`+"\n", reportPrefix, s, s)
		}
		_, _ = io.WriteString(w, b.String())
		return
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, reportPrefix), "/viewdocument")
	fmt.Fprintf(w, "report %s\n", stamp)
}

func elevenDays() []string {
	var stamps []string
	for day := 12; day >= 2; day-- {
		stamps = append(stamps, fmt.Sprintf("2020-07-%02d-12-15", day))
	}
	return stamps
}

func newTestClient(t *testing.T, baseURL string) (*Client, *observability.Metrics, string) {
	t.Helper()
	dir := t.TempDir()
	m := observability.NewMetricsForTesting()
	cache := testCache(clockwork.NewFakeClockAt(testNow), m)
	c := NewClient(cache, ClientOptions{
		BaseURL:      baseURL + "/",
		ListingCache: filepath.Join(dir, "cache", "list-csv-page-1.html"),
		DownloadDir:  filepath.Join(dir, "downloaded"),
		MaxAge:       time.Hour,
	}, m, testLogger())
	return c, m, dir
}

func TestClient_FetchListing(t *testing.T) {
	stamps := append(elevenDays(), "2020-07-01-12-15", "2020-07-01-09-00")
	srv := httptest.NewServer(&archive{stamps: stamps})
	defer srv.Close()

	c, m, _ := newTestClient(t, srv.URL)
	links, err := c.FetchListing(context.Background())
	require.NoError(t, err)

	require.Len(t, links, 12)
	assert.Equal(t, "2020-07-12", links[0].Date)
	last := links[len(links)-1]
	assert.Equal(t, "2020-07-01", last.Date)
	assert.Equal(t, srv.URL+reportPrefix+"2020-07-01-09-00/viewdocument", last.URL)

	assert.InDelta(t, 13.0, testutil.ToFloat64(m.ListingLinks), 0.0001)
	assert.InDelta(t, 12.0, testutil.ToFloat64(m.ReportsListed), 0.0001)
}

func TestClient_FetchListing_FormatChange(t *testing.T) {
	srv := httptest.NewServer(&archive{stamps: elevenDays()[:5]})
	defer srv.Close()

	c, _, _ := newTestClient(t, srv.URL)
	_, err := c.FetchListing(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamFormatChange))
}

func TestClient_Fetch_DownloadsEveryDate(t *testing.T) {
	a := &archive{stamps: elevenDays()}
	srv := httptest.NewServer(a)
	defer srv.Close()

	c, _, dir := newTestClient(t, srv.URL)
	require.NoError(t, c.Fetch(context.Background()))

	entries, err := os.ReadDir(filepath.Join(dir, "downloaded"))
	require.NoError(t, err)
	assert.Len(t, entries, 11)

	body, err := os.ReadFile(c.ReportPath("2020-07-02"))
	require.NoError(t, err)
	assert.Equal(t, "report 2020-07-02-12-15\n", string(body))

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, "POST /divi-intensivregister-tagesreport-archiv-csv", a.requests[0])
	assert.Len(t, a.requests, 12)
}

func TestClient_DownloadReports_ErrorNamesDate(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c, _, _ := newTestClient(t, srv.URL)
	err := c.DownloadReports(context.Background(), []domain.ReportLink{
		{Date: "2020-07-03", URL: srv.URL + reportPrefix + "2020-07-03-12-15/viewdocument"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2020-07-03")
}
