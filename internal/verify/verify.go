// Package verify checks downloaded assets against checksum sidecars and
// minisign signatures before anything is installed.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedisct1/go-minisign"

	"github.com/3leaps/getrel/internal/model"
)

// commonChecksumNames are the consolidated sidecar names probed by "auto",
// lowercased. Per-asset sidecars are probed separately by suffix.
var commonChecksumNames = []string{
	"checksums.txt",
	"sha256sums",
	"sha256sums.txt",
	"sha2-256sums.txt",
}

// FindChecksumAsset locates the checksum sidecar for assetName within the
// release assets. spec is the configured sidecar name, or "auto" to probe
// the conventional names. The second return is false when nothing matches.
func FindChecksumAsset(assets []model.Asset, spec, assetName string) (model.Asset, bool) {
	if spec != "auto" {
		for _, a := range assets {
			if a.Name == spec {
				return a, true
			}
		}
		return model.Asset{}, false
	}

	// Per-asset sidecar first: it is unambiguous.
	for _, a := range assets {
		lower := strings.ToLower(a.Name)
		if lower == strings.ToLower(assetName)+".sha256" || lower == strings.ToLower(assetName)+".sha256.txt" {
			return a, true
		}
	}
	for _, want := range commonChecksumNames {
		for _, a := range assets {
			if strings.ToLower(a.Name) == want {
				return a, true
			}
		}
	}
	return model.Asset{}, false
}

// ExtractChecksum pulls the sha256 digest for assetName out of a sidecar.
// The sidecar may be a bare digest (per-asset form) or the consolidated
// "digest  filename" line format; comment lines are skipped.
func ExtractChecksum(data []byte, assetName string) (string, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("checksum file is empty")
	}
	const digestLen = 64
	if isHexDigest(text, digestLen) {
		return strings.ToLower(text), nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		digest := fields[0]
		if !isHexDigest(digest, digestLen) {
			continue
		}
		candidate := filepath.Base(strings.TrimPrefix(fields[len(fields)-1], "*"))
		if candidate == assetName {
			return strings.ToLower(digest), nil
		}
	}

	return "", fmt.Errorf("checksum for %s not found", assetName)
}

// Checksum compares the digest computed during download against the sidecar
// entry for assetName.
func Checksum(gotSHA256 string, sidecar []byte, assetName string) error {
	want, err := ExtractChecksum(sidecar, assetName)
	if err != nil {
		return err
	}
	if !strings.EqualFold(gotSHA256, want) {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", assetName, gotSHA256, want)
	}
	return nil
}

// Minisign verifies content against a minisign signature. key is either a
// path to a public key file, the full key file content, or the bare base64
// key string.
func Minisign(content, signature []byte, key string) error {
	pub, err := loadPublicKey(key)
	if err != nil {
		return err
	}
	sig, err := minisign.DecodeSignature(string(signature))
	if err != nil {
		return fmt.Errorf("parse minisign signature: %w", err)
	}
	valid, err := pub.Verify(content, sig)
	if err != nil {
		return fmt.Errorf("minisign: %w", err)
	}
	if !valid {
		return fmt.Errorf("minisign: signature verification failed")
	}
	return nil
}

func loadPublicKey(key string) (minisign.PublicKey, error) {
	trimmed := strings.TrimSpace(key)
	if strings.HasPrefix(trimmed, "untrusted comment:") {
		pub, err := minisign.DecodePublicKey(trimmed)
		if err != nil {
			return minisign.PublicKey{}, fmt.Errorf("parse minisign pubkey: %w", err)
		}
		return pub, nil
	}
	if _, statErr := os.Stat(trimmed); statErr == nil {
		pub, err := minisign.NewPublicKeyFromFile(trimmed)
		if err != nil {
			return minisign.PublicKey{}, fmt.Errorf("read minisign pubkey %s: %w", trimmed, err)
		}
		return pub, nil
	}
	pub, err := minisign.NewPublicKey(trimmed)
	if err != nil {
		return minisign.PublicKey{}, fmt.Errorf("parse minisign pubkey: %w", err)
	}
	return pub, nil
}

func isHexDigest(value string, expectedLen int) bool {
	if expectedLen > 0 && len(value) != expectedLen {
		return false
	}
	if len(value)%2 != 0 {
		return false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}
