package state

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/3leaps/getrel/internal/model"
)

func sample(name string) *model.InstalledState {
	return &model.InstalledState{
		ProjectKey:         name,
		InstalledReleaseID: "https://api.example.com/releases/101",
		InstalledVersion:   "v1.2.3",
		MatchRule:          "tool-{os}-{arch}.tar.gz",
		InstallDir:         "/data/" + name,
		PostActions: []model.PostAction{
			{Kind: model.ActionBin, Arg: name},
		},
		InstalledFiles: []string{"tool"},
		LastCheck:      time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC),
		ETag:           `"abc"`,
	}
}

func TestFSStoreRoundTrip(t *testing.T) {
	store := NewFSStore(t.TempDir())

	if st, err := store.Load("tool"); err != nil || st != nil {
		t.Fatalf("Load before save = %v, %v; want nil, nil", st, err)
	}

	want := sample("tool")
	if err := store.Save("tool", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load("tool")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestFSStoreSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	store := NewFSStore(dir)

	if err := store.Save("tool", sample("tool")); err != nil {
		t.Fatal(err)
	}
	updated := sample("tool")
	updated.InstalledVersion = "v2.0.0"
	if err := store.Save("tool", updated); err != nil {
		t.Fatal(err)
	}

	stateDir := filepath.Join(dir, "tool", ".getrel")
	entries, err := os.ReadDir(stateDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "state.toml" && e.Name() != "state.lock" {
			t.Errorf("unexpected leftover %q", e.Name())
		}
	}

	got, err := store.Load("tool")
	if err != nil {
		t.Fatal(err)
	}
	if got.InstalledVersion != "v2.0.0" {
		t.Errorf("InstalledVersion = %q after rewrite", got.InstalledVersion)
	}
}

func TestFSStoreDeleteAndList(t *testing.T) {
	store := NewFSStore(t.TempDir())

	for _, name := range []string{"beta", "alpha"} {
		if err := store.Save(name, sample(name)); err != nil {
			t.Fatal(err)
		}
	}
	names, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Errorf("List = %v", names)
	}

	if err := store.Delete("alpha"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("alpha"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
	names, err = store.List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"beta"}) {
		t.Errorf("List after delete = %v", names)
	}
}

func TestFSStoreListMissingRoot(t *testing.T) {
	store := NewFSStore(filepath.Join(t.TempDir(), "never-created"))
	names, err := store.List()
	if err != nil || names != nil {
		t.Errorf("List on missing root = %v, %v", names, err)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	m := NewMemory()
	if err := m.Save("tool", sample("tool")); err != nil {
		t.Fatal(err)
	}
	got, _ := m.Load("tool")
	got.InstalledVersion = "mutated"
	again, _ := m.Load("tool")
	if again.InstalledVersion != "v1.2.3" {
		t.Error("Load must return a copy, not shared storage")
	}
}
