package install

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/3leaps/getrel/internal/log"
)

// IsArchive reports whether the file name looks like an archive we can
// unpack.
func IsArchive(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"),
		strings.HasSuffix(lower, ".tgz"),
		strings.HasSuffix(lower, ".tar"),
		strings.HasSuffix(lower, ".zip"):
		return true
	}
	return false
}

// Unpack extracts src into dest and returns the extracted paths relative to
// dest. Members with absolute paths or ".." traversal are skipped with a
// warning rather than failing the whole extraction.
func Unpack(src, dest string) ([]string, error) {
	lower := strings.ToLower(src)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return unpackZip(src, dest)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return unpackTar(src, dest, true)
	case strings.HasSuffix(lower, ".tar"):
		return unpackTar(src, dest, false)
	default:
		return nil, fmt.Errorf("unpack %s: not a recognized archive", src)
	}
}

func safeMember(name string) bool {
	if name == "" || filepath.IsAbs(name) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

func unpackTar(src, dest string, gzipped bool) ([]string, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", src, err)
	}
	defer f.Close()

	var r io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", src, err)
		}
		defer gz.Close()
		r = gz
	}

	var extracted []string
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", src, err)
		}
		if !safeMember(hdr.Name) {
			log.Warn("skipping unsafe archive member", "archive", filepath.Base(src), "member", hdr.Name)
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(hdr.Name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("unpack %s: %w", src, err)
			}
		case tar.TypeSymlink:
			if !safeMember(hdr.Linkname) {
				log.Warn("skipping unsafe symlink member", "archive", filepath.Base(src), "member", hdr.Name)
				continue
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, fmt.Errorf("unpack %s: %w", src, err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return nil, fmt.Errorf("unpack %s: %w", src, err)
			}
			extracted = append(extracted, filepath.FromSlash(hdr.Name))
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return nil, fmt.Errorf("unpack %s: %w", src, err)
			}
			extracted = append(extracted, filepath.FromSlash(hdr.Name))
		}
	}
	return extracted, nil
}

func unpackZip(src, dest string) ([]string, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", src, err)
	}
	defer zr.Close()

	var extracted []string
	for _, zf := range zr.File {
		if !safeMember(zf.Name) {
			log.Warn("skipping unsafe archive member", "archive", filepath.Base(src), "member", zf.Name)
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(zf.Name))
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("unpack %s: %w", src, err)
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", src, err)
		}
		err = writeFile(target, rc, zf.Mode().Perm())
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", src, err)
		}
		extracted = append(extracted, filepath.FromSlash(zf.Name))
	}
	return extracted, nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
