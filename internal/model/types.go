package model

import "time"

// Release is one published version of a project, as reported by a release
// source. The shape is source-independent: the GitHub adapter and the web
// adapter both produce it.
type Release struct {
	// ID is an opaque source-defined identifier (for GitHub the release API
	// URL, for web sources the resolved link URL). Unique within one source
	// response.
	ID string

	// Version is the source's version string, e.g. a tag name. Not
	// guaranteed to be semver.
	Version string

	// Name is an optional human label.
	Name string

	// Date is the publication timestamp, used as comparison key when no
	// latest flag is present.
	Date time.Time

	Prerelease bool

	// Latest is set by the source (e.g. the API's dedicated latest
	// endpoint), true for at most one release in a list. It is authoritative
	// over date ordering.
	Latest bool

	Assets []Asset
}

// Asset is a single downloadable file attached to a Release.
type Asset struct {
	Name        string
	URL         string
	Size        int64
	ContentType string
}

// MatchRule is a glob-style pattern applied to asset names. It may contain
// {os} and {arch} tokens which are expanded against the runtime platform
// before the pattern is compiled.
type MatchRule string

// PostActionKind enumerates the remembered post-processing actions.
type PostActionKind string

const (
	// ActionLink creates or replaces a symlink pointing at the installed
	// executable.
	ActionLink PostActionKind = "link"
	// ActionBin marks the target executable and links it into the bin dir.
	ActionBin PostActionKind = "bin"
	// ActionScript runs a user script after install; a non-zero exit is a
	// warning, not a failure.
	ActionScript PostActionKind = "script"
)

// PostAction is one remembered post-processing step, re-run on every update.
type PostAction struct {
	Kind PostActionKind `toml:"kind"`
	// Arg is the link path for link/bin actions, the executable pattern for
	// bin actions with a custom target, or the script text for script
	// actions.
	Arg string `toml:"arg,omitempty"`
}

// InstalledState is the persisted record of what is currently installed for
// one project. It is created on first successful install, compared on every
// automated check, and rewritten in place only after a full pipeline success.
type InstalledState struct {
	ProjectKey         string       `toml:"project_key"`
	InstalledReleaseID string       `toml:"installed_release_id,omitempty"`
	InstalledVersion   string       `toml:"installed_version,omitempty"`
	MatchRule          MatchRule    `toml:"match_rule,omitempty"`
	InstallDir         string       `toml:"install_dir,omitempty"`
	PostActions        []PostAction `toml:"post_actions,omitempty"`
	InstalledFiles     []string     `toml:"installed_files,omitempty"`
	LastCheck          time.Time    `toml:"last_check,omitempty"`

	// Conditional-fetch validators for the release listing, so unchanged
	// metadata is not re-fetched (304 short-circuits the pipeline).
	ETag         string `toml:"etag,omitempty"`
	LastModified string `toml:"last_modified,omitempty"`
}
