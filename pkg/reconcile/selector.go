package reconcile

import (
	"github.com/gobwas/glob"

	"github.com/3leaps/getrel/internal/model"
)

// Policy controls which release of a project counts as "current".
type Policy struct {
	// Version, when non-empty, selects the first release whose version
	// matches it. It is a glob pattern; a plain string matches exactly.
	Version string

	// Prerelease makes prereleases eligible for latest selection. It must
	// be set explicitly; the zero policy never returns a prerelease.
	Prerelease bool
}

// LatestStable is the default policy: newest non-prerelease release.
var LatestStable = Policy{}

// LatestIncludingPre selects the newest release, prereleases included.
var LatestIncludingPre = Policy{Prerelease: true}

// ExplicitVersion selects the first release whose version matches v.
func ExplicitVersion(v string) Policy {
	return Policy{Version: v}
}

// SelectRelease picks one release from a source response according to the
// policy. The list is expected newest-first, as sources deliver it. The
// second return is false when no release satisfies the policy.
//
// A release flagged latest by the source is authoritative over date order;
// use LatestFlagConflict to detect and report disagreements.
func SelectRelease(releases []model.Release, policy Policy) (model.Release, bool) {
	if policy.Version != "" {
		return selectExplicit(releases, policy.Version)
	}

	// Prefer the source's own latest designation when it is eligible.
	for _, r := range releases {
		if r.Latest && (policy.Prerelease || !r.Prerelease) {
			return r, true
		}
	}

	for _, r := range releases {
		if policy.Prerelease || !r.Prerelease {
			return r, true
		}
	}

	return model.Release{}, false
}

func selectExplicit(releases []model.Release, pattern string) (model.Release, bool) {
	g, err := glob.Compile(pattern)
	for _, r := range releases {
		if r.Version == pattern {
			return r, true
		}
		if err == nil && g.Match(r.Version) {
			return r, true
		}
	}
	return model.Release{}, false
}

// LatestFlagConflict reports whether the release flagged latest is older
// (by date) than some other non-prerelease release in the list. The flag
// still wins during selection; callers log the discrepancy.
func LatestFlagConflict(releases []model.Release) bool {
	var flagged *model.Release
	for i := range releases {
		if releases[i].Latest {
			flagged = &releases[i]
			break
		}
	}
	if flagged == nil || flagged.Date.IsZero() {
		return false
	}
	for _, r := range releases {
		if r.ID == flagged.ID || r.Prerelease || r.Date.IsZero() {
			continue
		}
		if r.Date.After(flagged.Date) {
			return true
		}
	}
	return false
}
