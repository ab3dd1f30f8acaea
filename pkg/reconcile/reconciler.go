package reconcile

import (
	"errors"
	"fmt"

	"github.com/3leaps/getrel/internal/model"
)

var (
	// ErrNoReleaseFound is returned when the policy matched no release.
	ErrNoReleaseFound = errors.New("reconcile: no release matches policy")

	// ErrAssetNoMatch is returned when the match rule selected no asset.
	ErrAssetNoMatch = errors.New("reconcile: no asset matches rule")

	// ErrAssetAmbiguous is returned when the match rule selected more than
	// one asset. Unattended runs must fail on it rather than pick one.
	ErrAssetAmbiguous = errors.New("reconcile: multiple assets match rule")
)

// Action says what the caller should do for a project.
type Action string

const (
	// ActionNone means the installed release is already current.
	ActionNone Action = "up-to-date"
	// ActionUpdate means a different release should be downloaded and
	// installed.
	ActionUpdate Action = "update"
	// ActionFailed means selection or matching failed; Reason has details.
	ActionFailed Action = "failed"
)

// Plan is the reconciliation outcome for one project. Release and Asset are
// valid only when Action is ActionUpdate.
type Plan struct {
	Action  Action
	Release model.Release
	Asset   model.Asset
	// Ambiguous holds the candidate assets when Reason wraps
	// ErrAssetAmbiguous, so interactive callers can offer a choice.
	Ambiguous []model.Asset
	Reason    error
}

// Reconcile decides whether a project needs an update. It is a pure decision
// function: it never downloads and never mutates state. prior may be nil for
// a first install, which always yields an update when selection succeeds.
//
// Identity is compared on release ID, never on version formatting: a release
// republished under the same ID is not an update.
func Reconcile(releases []model.Release, policy Policy, rule model.MatchRule, plat Platform, prior *model.InstalledState) Plan {
	selected, ok := SelectRelease(releases, policy)
	if !ok {
		return Plan{Action: ActionFailed, Reason: fmt.Errorf("%w: %s", ErrNoReleaseFound, describePolicy(policy))}
	}

	if prior != nil && prior.InstalledReleaseID != "" && prior.InstalledReleaseID == selected.ID {
		return Plan{Action: ActionNone, Release: selected}
	}

	match := MatchAsset(selected.Assets, rule, plat)
	switch match.Outcome {
	case MatchOne:
		return Plan{Action: ActionUpdate, Release: selected, Asset: match.Asset}
	case MatchAmbiguous:
		return Plan{
			Action:    ActionFailed,
			Release:   selected,
			Ambiguous: match.Candidates,
			Reason:    fmt.Errorf("%w %q: %s", ErrAssetAmbiguous, rule, match.CandidateNames()),
		}
	default:
		return Plan{
			Action:  ActionFailed,
			Release: selected,
			Reason:  fmt.Errorf("%w: %q in release %s", ErrAssetNoMatch, rule, selected.Version),
		}
	}
}

func describePolicy(p Policy) string {
	switch {
	case p.Version != "":
		return fmt.Sprintf("version %q", p.Version)
	case p.Prerelease:
		return "latest including prereleases"
	default:
		return "latest stable"
	}
}
