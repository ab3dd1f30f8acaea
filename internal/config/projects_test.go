package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/3leaps/getrel/internal/model"
	"github.com/3leaps/getrel/pkg/reconcile"
)

func TestLoadProjectsMissingFile(t *testing.T) {
	p, err := loadProjectsFrom(filepath.Join(t.TempDir(), "projects.toml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(p.Names()) != 0 {
		t.Errorf("Names = %v", p.Names())
	}
}

func TestProjectsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.toml")
	p, err := loadProjectsFrom(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Project{
		URL:       "https://github.com/acme/tool",
		Release:   "v1.*",
		Match:     "tool-{os}-{arch}.tar.gz",
		Bin:       "t",
		Links:     []string{"~/.local/man/tool.1"},
		Script:    "echo installed",
		Checksums: "auto",
	}
	p.Set("tool", want)
	p.Set("other", Project{URL: "https://example.com/dl", Source: "web", Match: "*", LinkPattern: "other-*"})
	if err := p.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := loadProjectsFrom(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.Get("tool")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if names := reloaded.Names(); !reflect.DeepEqual(names, []string{"other", "tool"}) {
		t.Errorf("Names = %v", names)
	}

	reloaded.Delete("other")
	if err := reloaded.Save(); err != nil {
		t.Fatal(err)
	}
	final, err := loadProjectsFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := final.Get("other"); err == nil {
		t.Error("deleted entry still present after save")
	}
}

func TestLoadProjectsRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		toml string
	}{
		{"missing url", "[tool]\nmatch = \"tool-*\"\n"},
		{"bad url scheme", "[tool]\nurl = \"ftp://x\"\nmatch = \"*\"\n"},
		{"unknown key", "[tool]\nurl = \"https://github.com/a/b\"\nmatch = \"*\"\ntypo_key = 1\n"},
		{"bad source", "[tool]\nurl = \"https://github.com/a/b\"\nmatch = \"*\"\nsource = \"gopher\"\n"},
		{"wrong type", "[tool]\nurl = \"https://github.com/a/b\"\nmatch = 42\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "projects.toml")
			if err := os.WriteFile(path, []byte(tc.toml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := loadProjectsFrom(path); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestProjectPolicy(t *testing.T) {
	if got := (Project{}).Policy(); got != reconcile.LatestStable {
		t.Errorf("empty release → %+v", got)
	}
	if got := (Project{Release: "pre"}).Policy(); got != reconcile.LatestIncludingPre {
		t.Errorf("pre → %+v", got)
	}
	if got := (Project{Release: "v1.2.*"}).Policy(); got.Version != "v1.2.*" {
		t.Errorf("explicit → %+v", got)
	}
}

func TestProjectPostActions(t *testing.T) {
	t.Run("defaults to bin named after project", func(t *testing.T) {
		got := (Project{}).PostActions("tool")
		want := []model.PostAction{{Kind: model.ActionBin, Arg: "tool"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("PostActions = %v", got)
		}
	})
	t.Run("dash disables bin", func(t *testing.T) {
		got := (Project{Bin: "-"}).PostActions("tool")
		if len(got) != 0 {
			t.Errorf("PostActions = %v", got)
		}
	})
	t.Run("full ordering", func(t *testing.T) {
		p := Project{Bin: "t", Links: []string{"~/man/t.1"}, Script: "echo hi"}
		got := p.PostActions("tool")
		want := []model.PostAction{
			{Kind: model.ActionBin, Arg: "t"},
			{Kind: model.ActionLink, Arg: "~/man/t.1"},
			{Kind: model.ActionScript, Arg: "echo hi"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("PostActions = %v", got)
		}
	})
}

func TestParseGitHubRef(t *testing.T) {
	cases := []struct {
		ref   string
		owner string
		repo  string
		ok    bool
	}{
		{"acme/tool", "acme", "tool", true},
		{"https://github.com/acme/tool", "acme", "tool", true},
		{"https://github.com/acme/tool.git", "acme", "tool", true},
		{"https://github.com/acme/tool/releases", "acme", "tool", true},
		{"http://www.github.com/acme/tool", "acme", "tool", true},
		{"https://example.com/acme/tool", "", "", false},
		{"plain-name", "", "", false},
		{"a/b/c", "", "", false},
		{"host:path/x", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			owner, repo, ok := ParseGitHubRef(tc.ref)
			if ok != tc.ok || owner != tc.owner || repo != tc.repo {
				t.Errorf("ParseGitHubRef(%q) = %q, %q, %v; want %q, %q, %v",
					tc.ref, owner, repo, ok, tc.owner, tc.repo, tc.ok)
			}
		})
	}
}

func TestPathsHonorOverrides(t *testing.T) {
	t.Setenv("GETREL_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("GETREL_DATA_HOME", "/tmp/data")
	t.Setenv("GETREL_BIN_DIR", "/tmp/bin")

	if got := ProjectsFile(); got != "/tmp/cfg/projects.toml" {
		t.Errorf("ProjectsFile = %q", got)
	}
	if got := ProjectDir("tool"); got != "/tmp/data/tool" {
		t.Errorf("ProjectDir = %q", got)
	}
	if got := BinDir(); got != "/tmp/bin" {
		t.Errorf("BinDir = %q", got)
	}
}
