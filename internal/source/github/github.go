// Package github adapts the GitHub releases API to the source capability.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	gh "github.com/google/go-github/v67/github"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"

	"github.com/3leaps/getrel/internal/log"
	"github.com/3leaps/getrel/internal/model"
	"github.com/3leaps/getrel/internal/source"
)

// listPageSize bounds one listing; projects with deeper histories need an
// explicit version that falls inside it.
const listPageSize = 50

// Source lists releases of one owner/repo via the GitHub API.
type Source struct {
	client *gh.Client
	owner  string
	repo   string
}

// TokenFromEnv returns the API token, if any. GETREL_GITHUB_TOKEN wins over
// the conventional GITHUB_TOKEN.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("GETREL_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// New builds a source for owner/repo. An empty token means unauthenticated
// requests, subject to the API's anonymous rate limits. The underlying
// client retries transient failures with backoff, since the API endpoint is
// the one resource shared across a batch run.
func New(owner, repo, token string) *Source {
	retry := retryablehttp.NewClient()
	retry.Logger = nil
	httpClient := retry.StandardClient()

	var client *gh.Client
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = gh.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = gh.NewClient(httpClient)
	}

	return &Source{client: client, owner: owner, repo: repo}
}

// ListReleases returns the repo's releases newest first, drafts excluded.
// The release flagged by the API's dedicated latest endpoint carries the
// Latest mark. Cached validators short-circuit unchanged listings.
func (s *Source) ListReleases(ctx context.Context, opts source.ListOptions) (*source.ListResult, error) {
	u := fmt.Sprintf("repos/%s/%s/releases?per_page=%d", s.owner, s.repo, listPageSize)
	req, err := s.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", source.ErrUnavailable, err)
	}
	if opts.ETag != "" {
		req.Header.Set("If-None-Match", opts.ETag)
	}
	if opts.LastModified != "" {
		req.Header.Set("If-Modified-Since", opts.LastModified)
	}

	var payload []*gh.RepositoryRelease
	resp, err := s.client.Do(ctx, req, &payload)
	if resp != nil && resp.StatusCode == http.StatusNotModified {
		return &source.ListResult{NotModified: true, ETag: opts.ETag, LastModified: opts.LastModified}, nil
	}
	if err != nil {
		var rateErr *gh.RateLimitError
		if errors.As(err, &rateErr) {
			return nil, fmt.Errorf("%w: rate limited until %s", source.ErrUnavailable, rateErr.Rate.Reset.Time)
		}
		return nil, fmt.Errorf("%w: list releases %s/%s: %w", source.ErrUnavailable, s.owner, s.repo, err)
	}

	result := &source.ListResult{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	for _, r := range payload {
		if r.GetDraft() {
			continue
		}
		result.Releases = append(result.Releases, convert(r))
	}

	s.markLatest(ctx, result.Releases)
	return result, nil
}

// markLatest asks the dedicated latest endpoint and flags the matching
// release. Best effort: a repo without a stable release answers 404 and the
// listing is used as-is.
func (s *Source) markLatest(ctx context.Context, releases []model.Release) {
	latest, _, err := s.client.Repositories.GetLatestRelease(ctx, s.owner, s.repo)
	if err != nil {
		log.Debug("no latest release designation", "owner", s.owner, "repo", s.repo, "err", err)
		return
	}
	id := latest.GetURL()
	for i := range releases {
		if releases[i].ID == id {
			releases[i].Latest = true
			return
		}
	}
}

func convert(r *gh.RepositoryRelease) model.Release {
	rel := model.Release{
		ID:         r.GetURL(),
		Version:    r.GetTagName(),
		Name:       r.GetName(),
		Prerelease: r.GetPrerelease(),
	}
	if r.CreatedAt != nil {
		rel.Date = r.CreatedAt.Time
	}
	for _, a := range r.Assets {
		rel.Assets = append(rel.Assets, model.Asset{
			Name:        a.GetName(),
			URL:         a.GetBrowserDownloadURL(),
			Size:        int64(a.GetSize()),
			ContentType: a.GetContentType(),
		})
	}
	return rel
}
