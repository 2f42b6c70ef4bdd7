package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// MinListingLinks is the smallest number of report links a healthy listing
// page yields. Fewer means the page layout changed.
const MinListingLinks = 11

var (
	// reportLinkRe matches report anchors on the archive listing, e.g.
	// <a href="/divi-intensivregister-tagesreport-archiv-csv/divi-intensivregister-2020-06-28-12-15/viewdocument">.
	reportLinkRe = regexp.MustCompile(`<a href="(/divi-intensivregister-tagesreport-archiv-csv/divi-intensivregister-[^"]+/viewdocument[^"]*)"`)

	// reportDateRe pulls the calendar date out of a report link. The timestamp
	// may carry a "-N" suffix for same-day republications.
	reportDateRe = regexp.MustCompile(`/divi-intensivregister-tagesreport-archiv-csv/divi-intensivregister-(\d{4}-\d{2}-\d{2})[^/]+/viewdocument`)
)

// ReportLink is the download URL chosen for one report date.
type ReportLink struct {
	Date string
	URL  string
}

// ExtractLinks returns the report paths on a listing page in page order.
func ExtractLinks(html string) ([]string, error) {
	matches := reportLinkRe.FindAllStringSubmatch(html, -1)
	if len(matches) < MinListingLinks {
		return nil, fmt.Errorf("%w: found %d report links, want at least %d",
			ErrUpstreamFormatChange, len(matches), MinListingLinks)
	}
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, m[1])
	}
	return links, nil
}

// LatestPerDay keys every link by its report date. Later links replace earlier
// ones for the same date; dates keep first-seen order.
func LatestPerDay(baseURL string, links []string) ([]ReportLink, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	index := make(map[string]int, len(links))
	var out []ReportLink
	for _, link := range links {
		url := baseURL + link
		m := reportDateRe.FindStringSubmatch(url)
		if m == nil {
			return nil, fmt.Errorf("%w: no report date in link %q", ErrUpstreamFormatChange, link)
		}
		date := m[1]
		if i, ok := index[date]; ok {
			out[i].URL = url
			continue
		}
		index[date] = len(out)
		out = append(out, ReportLink{Date: date, URL: url})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no report files to fetch", ErrUpstreamFormatChange)
	}
	return out, nil
}
