// Package app wires the release pipeline together: configuration in,
// reconciliation decision, download, verification, post-processing, and the
// state write that makes an install official.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/3leaps/getrel/internal/config"
	"github.com/3leaps/getrel/internal/download"
	"github.com/3leaps/getrel/internal/install"
	"github.com/3leaps/getrel/internal/log"
	"github.com/3leaps/getrel/internal/model"
	"github.com/3leaps/getrel/internal/source"
	"github.com/3leaps/getrel/internal/source/github"
	"github.com/3leaps/getrel/internal/source/web"
	"github.com/3leaps/getrel/internal/state"
	"github.com/3leaps/getrel/internal/verify"
	"github.com/3leaps/getrel/pkg/reconcile"
)

// ErrBadProject marks configuration problems a retry cannot fix.
var ErrBadProject = errors.New("app: invalid project configuration")

// App runs pipeline operations against one configuration and state root.
type App struct {
	Projects   *config.Projects
	Store      state.Store
	Downloader *download.Downloader
	Installer  *install.Installer
	Platform   reconcile.Platform

	// SourceFor builds the release source for a project. Overridable so
	// tests can substitute a canned source.
	SourceFor func(name string, proj config.Project) (source.Source, error)

	// ChooseAsset, when set, is consulted on an ambiguous asset match
	// instead of failing. Unattended runs leave it nil.
	ChooseAsset func(name string, candidates []model.Asset) (model.Asset, bool)

	// dataDir roots per-project install directories.
	dataDir string
}

// New builds an App over the default config and data locations.
func New() (*App, error) {
	projects, err := config.LoadProjects()
	if err != nil {
		return nil, err
	}
	dataDir := config.DataDir()
	a := &App{
		Projects:   projects,
		Store:      state.NewFSStore(dataDir),
		Downloader: download.New(),
		Installer:  &install.Installer{BinDir: config.BinDir()},
		Platform:   reconcile.RuntimePlatform(),
		dataDir:    dataDir,
	}
	a.SourceFor = a.defaultSource
	return a, nil
}

// InstallDir returns the directory a project installs into.
func (a *App) InstallDir(name string) string {
	return filepath.Join(a.dataDir, name)
}

// SetDataDir points the app at an alternate state root.
func (a *App) SetDataDir(dir string) {
	a.dataDir = dir
	a.Store = state.NewFSStore(dir)
}

func (a *App) defaultSource(name string, proj config.Project) (source.Source, error) {
	kind := proj.Source
	owner, repo, isGitHub := config.ParseGitHubRef(proj.URL)
	if kind == "" {
		if isGitHub {
			kind = "github"
		} else {
			kind = "web"
		}
	}
	switch kind {
	case "github":
		if !isGitHub {
			return nil, fmt.Errorf("%w: %s: %q is not a GitHub project URL", ErrBadProject, name, proj.URL)
		}
		return github.New(owner, repo, github.TokenFromEnv()), nil
	case "web":
		if proj.LinkPattern == "" {
			return nil, fmt.Errorf("%w: %s: web sources need link_pattern", ErrBadProject, name)
		}
		return web.New(proj.URL, proj.LinkPattern), nil
	default:
		return nil, fmt.Errorf("%w: %s: unknown source %q", ErrBadProject, name, kind)
	}
}

// CheckResult is the outcome of a reconcile-only pass for one project.
type CheckResult struct {
	Name  string
	Plan  reconcile.Plan
	State *model.InstalledState
	// NotModified is set when cached validators short-circuited the
	// listing; the plan is synthesized as up to date.
	NotModified bool

	// listing validators to persist after a successful apply.
	etag         string
	lastModified string
}

// Check decides what, if anything, should happen for name without touching
// the installation.
func (a *App) Check(ctx context.Context, name string) (*CheckResult, error) {
	proj, err := a.Projects.Get(name)
	if err != nil {
		return nil, err
	}
	prior, err := a.Store.Load(name)
	if err != nil {
		return nil, err
	}

	src, err := a.SourceFor(name, proj)
	if err != nil {
		return nil, err
	}

	var opts source.ListOptions
	if prior != nil {
		opts.ETag = prior.ETag
		opts.LastModified = prior.LastModified
	}
	listing, err := src.ListReleases(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	res := &CheckResult{
		Name:         name,
		State:        prior,
		etag:         listing.ETag,
		lastModified: listing.LastModified,
	}
	if listing.NotModified {
		log.Debug("release listing unchanged", "project", name)
		res.NotModified = true
		res.Plan = reconcile.Plan{Action: reconcile.ActionNone}
		a.touchState(name, res)
		return res, nil
	}

	if reconcile.LatestFlagConflict(listing.Releases) {
		log.Warn("latest flag disagrees with date order; trusting the flag", "project", name)
	}
	res.Plan = reconcile.Reconcile(listing.Releases, proj.Policy(), proj.Rule(), a.Platform, prior)
	if res.Plan.Action == reconcile.ActionNone {
		a.touchState(name, res)
	}
	return res, nil
}

// Apply runs the full pipeline for name: check, download, verify, install,
// and only then persist state. A failure at any step leaves the previous
// state record untouched.
func (a *App) Apply(ctx context.Context, name string) (*CheckResult, error) {
	res, err := a.Check(ctx, name)
	if err != nil {
		return nil, err
	}
	switch res.Plan.Action {
	case reconcile.ActionFailed:
		if errors.Is(res.Plan.Reason, reconcile.ErrAssetAmbiguous) && a.ChooseAsset != nil {
			chosen, ok := a.ChooseAsset(name, res.Plan.Ambiguous)
			if !ok {
				return res, fmt.Errorf("%s: %w", name, res.Plan.Reason)
			}
			res.Plan = reconcile.Plan{Action: reconcile.ActionUpdate, Release: res.Plan.Release, Asset: chosen}
		} else {
			return res, fmt.Errorf("%s: %w", name, res.Plan.Reason)
		}
	case reconcile.ActionNone:
		// Check already refreshed validators and the check timestamp.
		return res, nil
	}

	proj, err := a.Projects.Get(name)
	if err != nil {
		return nil, err
	}
	release := res.Plan.Release
	asset := res.Plan.Asset
	installDir := a.InstallDir(name)
	stagingDir := filepath.Join(installDir, ".getrel", "staging")

	log.Info("installing", "project", name, "version", release.Version, "asset", asset.Name)
	defer os.RemoveAll(stagingDir)
	dl, err := a.Downloader.Fetch(ctx, asset, stagingDir)
	if err != nil {
		return res, err
	}

	if err := a.verifyAsset(ctx, proj, release, asset, dl); err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}

	assetPath := filepath.Join(installDir, filepath.Base(asset.Name))
	if err := os.Rename(dl.Path, assetPath); err != nil {
		return res, fmt.Errorf("%s: place asset: %w", name, err)
	}

	actions := proj.PostActions(name)
	meta := install.Meta{
		ReleaseID:  release.ID,
		Version:    release.Version,
		Date:       release.Date,
		Downloaded: time.Now().UTC(),
	}
	applied, err := a.Installer.Apply(ctx, name, assetPath, installDir, proj.ExecPattern(name), actions, meta)
	if err != nil {
		return res, err
	}

	st := &model.InstalledState{
		ProjectKey:         name,
		InstalledReleaseID: release.ID,
		InstalledVersion:   release.Version,
		MatchRule:          proj.Rule(),
		InstallDir:         installDir,
		PostActions:        actions,
		InstalledFiles:     append(applied.Files, applied.Links...),
		LastCheck:          time.Now().UTC(),
		ETag:               res.etag,
		LastModified:       res.lastModified,
	}
	if err := a.Store.Save(name, st); err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	res.State = st
	log.Info("installed", "project", name, "version", release.Version)
	return res, nil
}

// touchState refreshes validators and the check timestamp on an up-to-date
// project. Best effort: an error here does not fail the check.
func (a *App) touchState(name string, res *CheckResult) {
	if res.State == nil {
		return
	}
	st := *res.State
	st.LastCheck = time.Now().UTC()
	if res.etag != "" || res.lastModified != "" {
		st.ETag = res.etag
		st.LastModified = res.lastModified
	}
	if err := a.Store.Save(name, &st); err != nil {
		log.Warn("could not refresh state", "project", name, "err", err)
		return
	}
	res.State = &st
}

// verifyAsset runs the configured integrity checks against a downloaded
// asset before it is installed.
func (a *App) verifyAsset(ctx context.Context, proj config.Project, release model.Release, asset model.Asset, dl *download.Result) error {
	if proj.Checksums != "" {
		sidecar, ok := verify.FindChecksumAsset(release.Assets, proj.Checksums, asset.Name)
		if !ok {
			if proj.Checksums == "auto" {
				log.Debug("no checksum sidecar published", "asset", asset.Name)
			} else {
				return fmt.Errorf("checksum asset %q not found in release", proj.Checksums)
			}
		} else {
			data, err := a.Downloader.FetchBytes(ctx, sidecar)
			if err != nil {
				return err
			}
			if err := verify.Checksum(dl.SHA256, data, asset.Name); err != nil {
				return err
			}
			log.Debug("checksum verified", "asset", asset.Name, "sidecar", sidecar.Name)
		}
	}

	if proj.MinisignKey != "" {
		sig, ok := findAssetByName(release.Assets, asset.Name+".minisig")
		if !ok {
			return fmt.Errorf("minisign key configured but no %s.minisig in release", asset.Name)
		}
		sigData, err := a.Downloader.FetchBytes(ctx, sig)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(dl.Path)
		if err != nil {
			return fmt.Errorf("read downloaded asset: %w", err)
		}
		if err := verify.Minisign(content, sigData, proj.MinisignKey); err != nil {
			return err
		}
		log.Debug("minisign signature verified", "asset", asset.Name)
	}
	return nil
}

func findAssetByName(assets []model.Asset, name string) (model.Asset, bool) {
	for _, a := range assets {
		if a.Name == name {
			return a, true
		}
	}
	return model.Asset{}, false
}

// Remove deletes a project's installed files, its links, and its state
// record. Links are only removed when they still point into the project's
// install dir.
func (a *App) Remove(name string) error {
	st, err := a.Store.Load(name)
	if err != nil {
		return err
	}
	installDir := a.InstallDir(name)

	if st != nil {
		for _, f := range st.InstalledFiles {
			if !filepath.IsAbs(f) {
				continue
			}
			fi, err := os.Lstat(f)
			if err != nil || fi.Mode()&os.ModeSymlink == 0 {
				continue
			}
			target, err := os.Readlink(f)
			if err == nil && pathWithin(target, installDir) {
				if err := os.Remove(f); err != nil {
					log.Warn("could not remove link", "link", f, "err", err)
				}
			}
		}
	}

	if err := os.RemoveAll(installDir); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	if err := a.Store.Delete(name); err != nil {
		return err
	}
	log.Info("removed", "project", name)
	return nil
}

func pathWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !hasDotDotPrefix(rel))
}

func hasDotDotPrefix(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}
