package reconcile

import (
	"testing"
	"time"

	"github.com/3leaps/getrel/internal/model"
)

func rel(id, version string, pre, latest bool) model.Release {
	return model.Release{ID: id, Version: version, Prerelease: pre, Latest: latest}
}

func TestSelectRelease(t *testing.T) {
	tests := []struct {
		name     string
		releases []model.Release
		policy   Policy
		wantID   string
		wantOK   bool
	}{
		{
			name: "latest flag wins over list order",
			releases: []model.Release{
				rel("r3", "v3.0.0-rc1", true, false),
				rel("r2", "v2.0.0", false, true),
				rel("r1", "v1.0.0", false, false),
			},
			policy: LatestStable,
			wantID: "r2",
			wantOK: true,
		},
		{
			name: "no latest flag picks first stable",
			releases: []model.Release{
				rel("r3", "v3.0.0-rc1", true, false),
				rel("r2", "v2.0.0", false, false),
				rel("r1", "v1.0.0", false, false),
			},
			policy: LatestStable,
			wantID: "r2",
			wantOK: true,
		},
		{
			name: "prerelease latest flag skipped by stable policy",
			releases: []model.Release{
				rel("r3", "v3.0.0-rc1", true, true),
				rel("r2", "v2.0.0", false, false),
			},
			policy: LatestStable,
			wantID: "r2",
			wantOK: true,
		},
		{
			name: "prerelease policy takes first element",
			releases: []model.Release{
				rel("r3", "v3.0.0-rc1", true, false),
				rel("r2", "v2.0.0", false, false),
			},
			policy: LatestIncludingPre,
			wantID: "r3",
			wantOK: true,
		},
		{
			name: "all prereleases fail stable selection",
			releases: []model.Release{
				rel("r2", "v2.0.0-beta", true, false),
				rel("r1", "v1.0.0-beta", true, false),
			},
			policy: LatestStable,
			wantOK: false,
		},
		{
			name:     "empty list",
			releases: nil,
			policy:   LatestStable,
			wantOK:   false,
		},
		{
			name: "explicit version exact",
			releases: []model.Release{
				rel("r2", "v2.0.0", false, false),
				rel("r1", "v1.0.0", false, false),
			},
			policy: ExplicitVersion("v1.0.0"),
			wantID: "r1",
			wantOK: true,
		},
		{
			name: "explicit version glob",
			releases: []model.Release{
				rel("r2", "v2.1.3", false, false),
				rel("r1", "v1.9.0", false, false),
			},
			policy: ExplicitVersion("v1.*"),
			wantID: "r1",
			wantOK: true,
		},
		{
			name: "explicit version miss",
			releases: []model.Release{
				rel("r1", "v1.0.0", false, false),
			},
			policy: ExplicitVersion("v9.9.9"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectRelease(tt.releases, tt.policy)
			if ok != tt.wantOK {
				t.Fatalf("SelectRelease() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.ID != tt.wantID {
				t.Fatalf("SelectRelease() = %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestLatestFlagConflict(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	flagged := rel("r1", "v1.0.0", false, true)
	flagged.Date = base
	newer := rel("r2", "v2.0.0", false, false)
	newer.Date = base.Add(24 * time.Hour)

	if !LatestFlagConflict([]model.Release{newer, flagged}) {
		t.Error("expected conflict when flagged release is older than another stable release")
	}

	older := rel("r0", "v0.9.0", false, false)
	older.Date = base.Add(-24 * time.Hour)
	if LatestFlagConflict([]model.Release{flagged, older}) {
		t.Error("unexpected conflict when flagged release is the newest")
	}

	if LatestFlagConflict([]model.Release{older, rel("rx", "v1.1.0", false, false)}) {
		t.Error("no flag set, no conflict possible")
	}
}
