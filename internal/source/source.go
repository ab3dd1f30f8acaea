// Package source defines the release-source capability the reconciliation
// pipeline consumes. Adapters produce the same Release shape whether the
// project publishes through the GitHub API or a plain web page; nothing
// downstream distinguishes origin.
package source

import (
	"context"
	"errors"

	"github.com/3leaps/getrel/internal/model"
)

// ErrUnavailable wraps network and API failures. Callers may retry a whole
// run; the pipeline itself does not.
var ErrUnavailable = errors.New("source: unavailable")

// ListOptions carries cached validators for conditional fetching. Zero
// values request an unconditional fetch.
type ListOptions struct {
	ETag         string
	LastModified string
}

// ListResult is a release listing plus the validators to remember for the
// next check. When NotModified is set the listing was skipped because the
// source reported no change since the cached validators.
type ListResult struct {
	Releases     []model.Release
	NotModified  bool
	ETag         string
	LastModified string
}

// Source lists the published releases of one project, newest first.
type Source interface {
	ListReleases(ctx context.Context, opts ListOptions) (*ListResult, error)
}
