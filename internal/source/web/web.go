// Package web adapts a plain download page to the source capability. The
// page's anchor hrefs are the release assets; the whole page is presented as
// a single latest release so the reconciliation pipeline treats web projects
// the same way it treats GitHub ones.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"

	"github.com/3leaps/getrel/internal/model"
	"github.com/3leaps/getrel/internal/source"
)

// versionRe pulls a dotted version out of a file name, e.g. "tool-1.4.2.tgz".
var versionRe = regexp.MustCompile(`\d+(?:\.\d+)+(?:-[0-9A-Za-z.]+)?`)

// Source scans one page for release links matching a glob pattern.
type Source struct {
	client  *http.Client
	pageURL string
	pattern string
}

// New builds a source for the page at pageURL. linkPattern is a glob applied
// to each href, matched against both the full resolved URL and its final
// path element.
func New(pageURL, linkPattern string) *Source {
	retry := retryablehttp.NewClient()
	retry.Logger = nil
	return &Source{
		client:  retry.StandardClient(),
		pageURL: pageURL,
		pattern: linkPattern,
	}
}

// ListReleases fetches the page and returns a single release whose assets
// are the matching links. The release identity follows the page's cache
// validators, so an unchanged page means an unchanged release.
func (s *Source) ListReleases(ctx context.Context, opts source.ListOptions) (*source.ListResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", source.ErrUnavailable, err)
	}
	if opts.ETag != "" {
		req.Header.Set("If-None-Match", opts.ETag)
	}
	if opts.LastModified != "" {
		req.Header.Set("If-Modified-Since", opts.LastModified)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", source.ErrUnavailable, s.pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &source.ListResult{NotModified: true, ETag: opts.ETag, LastModified: opts.LastModified}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: status %s", source.ErrUnavailable, s.pageURL, resp.Status)
	}

	base, err := url.Parse(s.pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse page url: %w", source.ErrUnavailable, err)
	}
	links, err := extractLinks(resp.Body, base)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", source.ErrUnavailable, s.pageURL, err)
	}

	matched, err := filterLinks(links, s.pattern)
	if err != nil {
		return nil, err
	}

	etag := resp.Header.Get("ETag")
	lastMod := resp.Header.Get("Last-Modified")
	rel := buildRelease(matched, etag, lastMod)

	return &source.ListResult{
		Releases:     []model.Release{rel},
		ETag:         etag,
		LastModified: lastMod,
	}, nil
}

// extractLinks returns the page's anchor targets resolved against base,
// de-duplicated, in document order.
func extractLinks(body io.Reader, base *url.URL) ([]string, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				resolved := base.ResolveReference(ref)
				if resolved.Scheme != "http" && resolved.Scheme != "https" {
					continue
				}
				resolved.Fragment = ""
				u := resolved.String()
				if !seen[u] {
					seen[u] = true
					links = append(links, u)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func filterLinks(links []string, pattern string) ([]string, error) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("link pattern %q: %w", pattern, err)
	}
	var matched []string
	for _, l := range links {
		lower := strings.ToLower(l)
		if g.Match(lower) || g.Match(path.Base(lower)) {
			matched = append(matched, l)
		}
	}
	return matched, nil
}

// buildRelease shapes the matched links into the single release a page
// represents. Identity prefers the strongest validator available so version
// bumps that keep file names stable are still detected.
func buildRelease(links []string, etag, lastMod string) model.Release {
	rel := model.Release{Latest: true}
	for _, l := range links {
		rel.Assets = append(rel.Assets, model.Asset{
			Name: path.Base(l),
			URL:  l,
		})
	}

	switch {
	case etag != "":
		rel.ID = etag
	case lastMod != "":
		rel.ID = lastMod
	default:
		sorted := append([]string(nil), links...)
		sort.Strings(sorted)
		rel.ID = strings.Join(sorted, "\n")
	}

	if lastMod != "" {
		if t, err := time.Parse(http.TimeFormat, lastMod); err == nil {
			rel.Date = t
		}
	}

	rel.Version = deriveVersion(links, rel.Date)
	return rel
}

// deriveVersion finds a dotted version in the matched file names, falling
// back to the page date, then to "unversioned".
func deriveVersion(links []string, date time.Time) string {
	for _, l := range links {
		if v := versionRe.FindString(path.Base(l)); v != "" {
			return v
		}
	}
	if !date.IsZero() {
		return date.UTC().Format("2006-01-02")
	}
	return "unversioned"
}
