// Package install turns a downloaded asset into a working installation:
// unpacking archives, marking executables, placing symlinks, and running the
// project's post-install script. Every step is re-runnable so an update
// simply applies the same actions against the new release.
package install

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/3leaps/getrel/internal/log"
	"github.com/3leaps/getrel/internal/model"
)

// Installer applies post-processing actions inside a project's install dir.
type Installer struct {
	// BinDir receives the symlinks created by bin actions.
	BinDir string
}

// Meta is the sidecar record written into the install dir so an
// installation stays identifiable even without the state store.
type Meta struct {
	ReleaseID  string    `toml:"release_id"`
	Version    string    `toml:"version"`
	Date       time.Time `toml:"date,omitempty"`
	Downloaded time.Time `toml:"downloaded"`
}

// Result records what an Apply produced, for the installed-state record.
type Result struct {
	// Files are the installed files relative to the install dir.
	Files []string
	// Links are the absolute symlink paths created outside the install dir.
	Links []string
	// Exec is the absolute path of the executable marked by a bin action,
	// empty when the project has none.
	Exec string
}

// Apply installs the downloaded asset at assetPath into installDir and runs
// actions in order. execPattern locates the executable among unpacked files;
// for a bare (non-archive) asset the asset itself is the executable.
func (ins *Installer) Apply(ctx context.Context, projectName, assetPath, installDir, execPattern string, actions []model.PostAction, meta Meta) (*Result, error) {
	res := &Result{}

	if err := writeMeta(installDir, meta); err != nil {
		return nil, fmt.Errorf("%s: %w", projectName, err)
	}

	if IsArchive(assetPath) {
		files, err := Unpack(assetPath, installDir)
		if err != nil {
			return nil, err
		}
		res.Files = append([]string{filepath.Base(assetPath)}, files...)
		log.Debug("unpacked asset", "project", projectName, "files", len(files))
	} else {
		res.Files = []string{filepath.Base(assetPath)}
	}

	for _, action := range actions {
		switch action.Kind {
		case model.ActionBin:
			execPath, err := ins.resolveExec(assetPath, installDir, execPattern, res.Files)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", projectName, err)
			}
			if err := os.Chmod(execPath, 0o755); err != nil {
				return nil, fmt.Errorf("%s: mark executable: %w", projectName, err)
			}
			res.Exec = execPath
			link := filepath.Join(ins.BinDir, action.Arg)
			if filepath.IsAbs(action.Arg) {
				link = action.Arg
			}
			if err := replaceLink(link, execPath); err != nil {
				return nil, fmt.Errorf("%s: %w", projectName, err)
			}
			res.Links = append(res.Links, link)
			log.Info("linked executable", "project", projectName, "link", link)

		case model.ActionLink:
			target := res.Exec
			if target == "" {
				execPath, err := ins.resolveExec(assetPath, installDir, execPattern, res.Files)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", projectName, err)
				}
				if err := os.Chmod(execPath, 0o755); err != nil {
					return nil, fmt.Errorf("%s: mark executable: %w", projectName, err)
				}
				target = execPath
			}
			link, err := expandPath(action.Arg)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", projectName, err)
			}
			if strings.HasSuffix(action.Arg, string(os.PathSeparator)) || isDir(link) {
				link = filepath.Join(link, filepath.Base(target))
			}
			if err := replaceLink(link, target); err != nil {
				return nil, fmt.Errorf("%s: %w", projectName, err)
			}
			res.Links = append(res.Links, link)
			log.Info("created link", "project", projectName, "link", link)

		case model.ActionScript:
			runScript(ctx, projectName, action.Arg, installDir, meta.Version)

		default:
			return nil, fmt.Errorf("%s: unknown post action %q", projectName, action.Kind)
		}
	}

	return res, nil
}

func writeMeta(installDir string, meta Meta) error {
	data, err := toml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode install metadata: %w", err)
	}
	dir := filepath.Join(installDir, ".getrel")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "asset.toml"), data, 0o644); err != nil {
		return fmt.Errorf("write install metadata: %w", err)
	}
	return nil
}

// resolveExec returns the absolute path of the project's executable. A bare
// asset is its own executable; an archive is searched by pattern.
func (ins *Installer) resolveExec(assetPath, installDir, execPattern string, files []string) (string, error) {
	if !IsArchive(assetPath) {
		return filepath.Join(installDir, filepath.Base(assetPath)), nil
	}
	extracted := files
	if len(extracted) > 0 && extracted[0] == filepath.Base(assetPath) {
		extracted = extracted[1:]
	}
	if len(extracted) == 0 {
		var err error
		extracted, err = listFiles(installDir)
		if err != nil {
			return "", err
		}
	}
	rel, err := findExecutable(installDir, execPattern, extracted)
	if err != nil {
		return "", err
	}
	return filepath.Join(installDir, rel), nil
}

// replaceLink points link at target. An existing symlink is replaced; an
// existing regular file is left alone and reported, since it is not ours.
func replaceLink(link, target string) error {
	if fi, err := os.Lstat(link); err == nil {
		if fi.Mode()&os.ModeSymlink == 0 {
			return fmt.Errorf("refusing to overwrite %s: not a symlink", link)
		}
		if prev, err := os.Readlink(link); err == nil && prev != target {
			log.Warn("replacing link", "link", link, "old", prev, "new", target)
		}
		if err := os.Remove(link); err != nil {
			return fmt.Errorf("remove old link %s: %w", link, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return fmt.Errorf("create link dir: %w", err)
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("link %s: %w", link, err)
	}
	return nil
}

// runScript runs a post-install script through the shell with the install
// dir and version as arguments. A failing script is reported but does not
// fail the install; the files are already in place.
func runScript(ctx context.Context, projectName, script, installDir, version string) {
	cmd := exec.CommandContext(ctx, "sh", "-c", script, "getrel", installDir, version)
	cmd.Dir = installDir
	cmd.Env = append(os.Environ(),
		"GETREL_PROJECT="+projectName,
		"GETREL_DIR="+installDir,
		"GETREL_VERSION="+version,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.Warn("post-install script failed", "project", projectName, "err", err, "output", strings.TrimSpace(string(out)))
		return
	}
	log.Debug("post-install script ok", "project", projectName)
}

func expandPath(p string) (string, error) {
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p, nil
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
