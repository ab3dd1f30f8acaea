package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/3leaps/getrel/internal/model"
	"github.com/3leaps/getrel/pkg/reconcile"
)

// ErrProjectNotFound is returned when a name is not in projects.toml.
var ErrProjectNotFound = errors.New("config: project not configured")

// Project is one table in projects.toml. Only URL and Match are required;
// Release defaults to "latest".
type Project struct {
	// URL is the GitHub project page or, for web sources, the page to scan
	// for release links.
	URL string `toml:"url"`

	// Source is "github" (default) or "web".
	Source string `toml:"source,omitempty"`

	// Release is the selection policy: "latest", "pre", or a version
	// pattern such as "v1.2.*".
	Release string `toml:"release,omitempty"`

	// Match picks one asset from the selected release. {os} and {arch}
	// tokens are expanded before glob matching.
	Match string `toml:"match"`

	// Bin, when set, marks the installed executable and links it under the
	// bin dir by this name. "-" disables the implicit bin action.
	Bin string `toml:"bin,omitempty"`

	// Links are additional symlinks to create, target path per entry.
	Links []string `toml:"links,omitempty"`

	// Script is run after a successful install with the install dir and
	// release version as arguments.
	Script string `toml:"script,omitempty"`

	// Exec is a glob locating the executable(s) among unpacked files when
	// the asset is an archive. Defaults to the project name.
	Exec string `toml:"exec,omitempty"`

	// LinkPattern is the web-source extraction rule: a glob applied to each
	// href on the page.
	LinkPattern string `toml:"link_pattern,omitempty"`

	// MinisignKey enables signature verification: a path to, or literal
	// content of, a minisign public key.
	MinisignKey string `toml:"minisign_key,omitempty"`

	// Checksums names the sidecar checksum asset; "auto" probes the common
	// names and empty disables verification.
	Checksums string `toml:"checksums,omitempty"`
}

// Policy translates the release string into a selection policy.
func (p Project) Policy() reconcile.Policy {
	switch p.Release {
	case "", "latest":
		return reconcile.LatestStable
	case "pre", "prerelease":
		return reconcile.LatestIncludingPre
	default:
		return reconcile.ExplicitVersion(p.Release)
	}
}

// Rule returns the asset match rule.
func (p Project) Rule() model.MatchRule {
	return model.MatchRule(p.Match)
}

// PostActions derives the ordered post-processing actions: bin first, then
// links, then the script.
func (p Project) PostActions(projectName string) []model.PostAction {
	var actions []model.PostAction
	switch p.Bin {
	case "-":
	case "":
		actions = append(actions, model.PostAction{Kind: model.ActionBin, Arg: projectName})
	default:
		actions = append(actions, model.PostAction{Kind: model.ActionBin, Arg: p.Bin})
	}
	for _, l := range p.Links {
		actions = append(actions, model.PostAction{Kind: model.ActionLink, Arg: l})
	}
	if p.Script != "" {
		actions = append(actions, model.PostAction{Kind: model.ActionScript, Arg: p.Script})
	}
	return actions
}

// ExecPattern returns the glob used to locate executables in an unpacked
// archive, defaulting to the project name anywhere in the tree.
func (p Project) ExecPattern(projectName string) string {
	if p.Exec != "" {
		return p.Exec
	}
	return projectName
}

// Projects is the decoded projects.toml.
type Projects struct {
	entries map[string]Project
	path    string
}

// LoadProjects reads and validates projects.toml. A missing file yields an
// empty, saveable set.
func LoadProjects() (*Projects, error) {
	return loadProjectsFrom(ProjectsFile())
}

func loadProjectsFrom(path string) (*Projects, error) {
	p := &Projects{entries: map[string]Project{}, path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := ValidateProjects(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &p.entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// Get returns the named project.
func (p *Projects) Get(name string) (Project, error) {
	proj, ok := p.entries[name]
	if !ok {
		return Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	return proj, nil
}

// Set adds or replaces a project entry. Call Save to persist.
func (p *Projects) Set(name string, proj Project) {
	p.entries[name] = proj
}

// Delete removes a project entry.
func (p *Projects) Delete(name string) {
	delete(p.entries, name)
}

// Names returns the configured project names, sorted.
func (p *Projects) Names() []string {
	names := make([]string, 0, len(p.entries))
	for name := range p.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes projects.toml via a temp file and rename so a crash never
// leaves a torn config.
func (p *Projects) Save() error {
	data, err := toml.Marshal(p.entries)
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".projects-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", p.path, err)
	}
	return nil
}

var githubURLRe = regexp.MustCompile(`^https?://(?:[^/]+\.)?github\.com/([^/?\s]+)/([^/?\s]+)`)

// ParseGitHubRef extracts owner and repo from a GitHub URL or an owner/repo
// shorthand. The second return is false when the input is neither.
func ParseGitHubRef(ref string) (owner, repo string, ok bool) {
	if m := githubURLRe.FindStringSubmatch(ref); m != nil {
		return m[1], strings.TrimSuffix(m[2], ".git"), true
	}
	parts := strings.Split(ref, "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" && !strings.Contains(ref, ":") {
		return parts[0], parts[1], true
	}
	return "", "", false
}
