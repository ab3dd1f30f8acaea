package commands

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/3leaps/getrel/internal/app"
	"github.com/3leaps/getrel/internal/config"
)

var installFlags struct {
	name        string
	release     string
	match       string
	bin         string
	links       []string
	script      string
	exec        string
	source      string
	linkPattern string
	minisignKey string
	checksums   string
}

var installCmd = &cobra.Command{
	Use:   "install <owner/repo | url | name>",
	Short: "Configure a project and install its current release",
	Long: `Install configures a project (unless it is already configured) and runs
the full pipeline for it: select a release, pick the platform asset,
download, verify, unpack and link.

The argument is a GitHub owner/repo shorthand, a project page URL, or the
name of an already configured project.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		name, err := resolveProject(a, args[0], cmd)
		if err != nil {
			return err
		}
		res, err := a.Apply(cmd.Context(), name)
		if err != nil {
			return err
		}
		if res.State != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s installed in %s\n",
				name, res.State.InstalledVersion, res.State.InstallDir)
		}
		return nil
	},
}

// resolveProject maps the install argument to a configured project, creating
// or updating the configuration entry when the argument introduces one.
func resolveProject(a *app.App, ref string, cmd *cobra.Command) (string, error) {
	// A bare name that is already configured, with no reconfiguration
	// flags, installs the existing entry.
	if _, err := a.Projects.Get(ref); err == nil && !configFlagsSet(cmd) {
		return ref, nil
	}

	name := installFlags.name
	proj := config.Project{
		Release:     installFlags.release,
		Match:       installFlags.match,
		Bin:         installFlags.bin,
		Links:       installFlags.links,
		Script:      installFlags.script,
		Exec:        installFlags.exec,
		Source:      installFlags.source,
		LinkPattern: installFlags.linkPattern,
		MinisignKey: installFlags.minisignKey,
		Checksums:   installFlags.checksums,
	}

	if owner, repo, ok := config.ParseGitHubRef(ref); ok {
		proj.URL = "https://github.com/" + owner + "/" + repo
		if name == "" {
			name = repo
		}
	} else if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("not a usable project reference: %q", ref)
		}
		proj.URL = ref
		if proj.Source == "" {
			proj.Source = "web"
		}
		if name == "" {
			if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
				name = base
			} else {
				return "", fmt.Errorf("cannot derive a project name from %q, use --name", ref)
			}
		}
	} else {
		return "", fmt.Errorf("%q is neither a configured project, an owner/repo, nor a URL", ref)
	}

	if proj.Match == "" {
		return "", fmt.Errorf("new project %s needs --match (e.g. --match '%s-{os}-{arch}*')", name, name)
	}
	if existing, err := a.Projects.Get(name); err == nil {
		// Reconfiguring: keep unset fields from the existing entry.
		mergeProject(&proj, existing)
	}

	a.Projects.Set(name, proj)
	if err := a.Projects.Save(); err != nil {
		return "", err
	}
	return name, nil
}

func mergeProject(proj *config.Project, existing config.Project) {
	if proj.Release == "" {
		proj.Release = existing.Release
	}
	if proj.Bin == "" {
		proj.Bin = existing.Bin
	}
	if len(proj.Links) == 0 {
		proj.Links = existing.Links
	}
	if proj.Script == "" {
		proj.Script = existing.Script
	}
	if proj.Exec == "" {
		proj.Exec = existing.Exec
	}
	if proj.LinkPattern == "" {
		proj.LinkPattern = existing.LinkPattern
	}
	if proj.MinisignKey == "" {
		proj.MinisignKey = existing.MinisignKey
	}
	if proj.Checksums == "" {
		proj.Checksums = existing.Checksums
	}
}

func configFlagsSet(cmd *cobra.Command) bool {
	for _, f := range []string{
		"release", "match", "bin", "link", "script", "exec",
		"source", "link-pattern", "minisign-key", "checksums",
	} {
		if cmd.Flags().Changed(f) {
			return true
		}
	}
	return false
}

func init() {
	f := installCmd.Flags()
	f.StringVar(&installFlags.name, "name", "", "Project name (default: derived from the reference)")
	f.StringVar(&installFlags.release, "release", "", "Release policy: latest, pre, or a version pattern")
	f.StringVar(&installFlags.match, "match", "", "Asset match rule, {os} and {arch} expand to platform aliases")
	f.StringVar(&installFlags.bin, "bin", "", "Name for the bin symlink, '-' to disable")
	f.StringArrayVar(&installFlags.links, "link", nil, "Additional symlink to create (repeatable)")
	f.StringVar(&installFlags.script, "script", "", "Script to run after each install")
	f.StringVar(&installFlags.exec, "exec", "", "Glob locating the executable in an unpacked archive")
	f.StringVar(&installFlags.source, "source", "", "Release source: github or web")
	f.StringVar(&installFlags.linkPattern, "link-pattern", "", "Glob matching release links on a web page")
	f.StringVar(&installFlags.minisignKey, "minisign-key", "", "Minisign public key (path or literal) for signature checks")
	f.StringVar(&installFlags.checksums, "checksums", "", "Checksum sidecar name, or 'auto'")

	rootCmd.AddCommand(installCmd)
}
