package reconcile

import (
	"errors"
	"testing"

	"github.com/3leaps/getrel/internal/model"
)

func TestReconcileUpdateAvailable(t *testing.T) {
	releases := []model.Release{
		{ID: "r2", Version: "v2.0.0", Latest: true, Assets: assets("app-linux-amd64.tar.gz")},
		{ID: "r1", Version: "v1.0.0", Assets: assets("app-linux-amd64.tar.gz")},
	}
	prior := &model.InstalledState{ProjectKey: "acme/app", InstalledReleaseID: "r1"}

	plan := Reconcile(releases, LatestStable, "app-{os}-*", linuxAmd64, prior)
	if plan.Action != ActionUpdate {
		t.Fatalf("Action = %s, want %s (reason: %v)", plan.Action, ActionUpdate, plan.Reason)
	}
	if plan.Release.ID != "r2" {
		t.Errorf("targets %s, want r2", plan.Release.ID)
	}
	if plan.Asset.Name != "app-linux-amd64.tar.gz" {
		t.Errorf("asset = %s", plan.Asset.Name)
	}
}

func TestReconcileUpToDate(t *testing.T) {
	releases := []model.Release{
		// Version string formatting differs from what was recorded; the ID
		// is what counts.
		{ID: "r1", Version: "1.0.0", Latest: true, Assets: assets("app-linux-amd64.tar.gz")},
	}
	prior := &model.InstalledState{InstalledReleaseID: "r1", InstalledVersion: "v1.0.0"}

	plan := Reconcile(releases, LatestStable, "app-{os}-*", linuxAmd64, prior)
	if plan.Action != ActionNone {
		t.Fatalf("Action = %s, want %s", plan.Action, ActionNone)
	}
}

func TestReconcileFirstInstall(t *testing.T) {
	releases := []model.Release{
		{ID: "r1", Version: "v1.0.0", Assets: assets("app-linux-amd64.tar.gz")},
	}
	plan := Reconcile(releases, LatestStable, "app-linux-*", linuxAmd64, nil)
	if plan.Action != ActionUpdate {
		t.Fatalf("Action = %s, want %s (reason: %v)", plan.Action, ActionUpdate, plan.Reason)
	}
}

func TestReconcileFailures(t *testing.T) {
	tests := []struct {
		name     string
		releases []model.Release
		policy   Policy
		rule     model.MatchRule
		wantErr  error
	}{
		{
			name:     "no release",
			releases: nil,
			policy:   LatestStable,
			rule:     "*",
			wantErr:  ErrNoReleaseFound,
		},
		{
			name: "only prereleases under stable policy",
			releases: []model.Release{
				{ID: "r1", Version: "v1.0.0-rc1", Prerelease: true},
			},
			policy:  LatestStable,
			rule:    "*",
			wantErr: ErrNoReleaseFound,
		},
		{
			name: "no asset match",
			releases: []model.Release{
				{ID: "r1", Version: "v1.0.0", Assets: assets("app-windows-amd64.zip")},
			},
			policy:  LatestStable,
			rule:    "app-linux-*",
			wantErr: ErrAssetNoMatch,
		},
		{
			name: "ambiguous assets",
			releases: []model.Release{
				{ID: "r1", Version: "v1.0.0", Assets: assets("tool.exe", "tool-debug.exe")},
			},
			policy:  LatestStable,
			rule:    "tool*.exe",
			wantErr: ErrAssetAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Reconcile(tt.releases, tt.policy, tt.rule, linuxAmd64, nil)
			if plan.Action != ActionFailed {
				t.Fatalf("Action = %s, want %s", plan.Action, ActionFailed)
			}
			if !errors.Is(plan.Reason, tt.wantErr) {
				t.Fatalf("Reason = %v, want %v", plan.Reason, tt.wantErr)
			}
			if errors.Is(tt.wantErr, ErrAssetAmbiguous) && len(plan.Ambiguous) != 2 {
				t.Errorf("Ambiguous candidates = %d, want 2", len(plan.Ambiguous))
			}
		})
	}
}
