// Package download fetches release assets to local disk.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/3leaps/getrel/internal/log"
	"github.com/3leaps/getrel/internal/model"
)

// Result describes a completed download.
type Result struct {
	// Path is the downloaded file on disk, named after the asset.
	Path string
	// SHA256 is the hex digest computed while streaming.
	SHA256 string
	// Size is the number of bytes written.
	Size int64
}

// Downloader fetches assets over HTTP with retries and backoff.
type Downloader struct {
	client *http.Client
}

// New returns a Downloader with the default retry policy.
func New() *Downloader {
	retry := retryablehttp.NewClient()
	retry.Logger = nil
	return &Downloader{client: retry.StandardClient()}
}

// Fetch downloads asset into dir, streaming through a temp file so an
// interrupted transfer never leaves a plausible-looking partial. The digest
// is computed during the transfer, not by re-reading the file.
func (d *Downloader) Fetch(ctx context.Context, asset model.Asset, dir string) (*Result, error) {
	if asset.URL == "" {
		return nil, fmt.Errorf("download %s: no URL", asset.Name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %s", asset.Name, resp.Status)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	if asset.Size > 0 && size != asset.Size {
		return nil, fmt.Errorf("download %s: got %d bytes, source advertised %d", asset.Name, size, asset.Size)
	}
	if err := tmp.Close(); err != nil {
		name := tmp.Name()
		tmp = nil
		_ = os.Remove(name)
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}

	dest := filepath.Join(dir, filepath.Base(asset.Name))
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	tmp = nil

	digest := hex.EncodeToString(hash.Sum(nil))
	log.Debug("downloaded asset", "name", asset.Name, "bytes", size, "sha256", digest)
	return &Result{Path: dest, SHA256: digest, Size: size}, nil
}

// maxSidecarSize bounds in-memory fetches; sidecars are tiny text files.
const maxSidecarSize = 1 << 20

// FetchBytes downloads a small sidecar asset (checksum file, signature)
// into memory.
func (d *Downloader) FetchBytes(ctx context.Context, asset model.Asset) ([]byte, error) {
	if asset.URL == "" {
		return nil, fmt.Errorf("download %s: no URL", asset.Name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %s", asset.Name, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSidecarSize+1))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	if len(data) > maxSidecarSize {
		return nil, fmt.Errorf("download %s: sidecar exceeds %d bytes", asset.Name, maxSidecarSize)
	}
	return data, nil
}
