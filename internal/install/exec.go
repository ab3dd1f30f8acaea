package install

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// looksExecutable guesses whether a file is a program: the executable bit,
// a shebang line, or an ELF header all count.
func looksExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if info.Mode().Perm()&0o111 != 0 {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 4)
	n, _ := f.Read(head)
	head = head[:n]
	return bytes.HasPrefix(head, []byte("#!")) || bytes.HasPrefix(head, []byte("\x7fELF"))
}

// findExecutable locates the executable among the files extracted under
// root. pattern is a glob matched against each file's base name and its
// root-relative path. Among several matches, files that look executable win
// over ones that merely match, and shallower paths win over deeper ones.
func findExecutable(root, pattern string, files []string) (string, error) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return "", fmt.Errorf("exec pattern %q: %w", pattern, err)
	}

	var matches []string
	for _, rel := range files {
		lower := strings.ToLower(filepath.ToSlash(rel))
		if g.Match(lower) || g.Match(filepath.Base(lower)) {
			matches = append(matches, rel)
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no file matching %q among %d extracted files", pattern, len(files))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ei := looksExecutable(filepath.Join(root, matches[i]))
		ej := looksExecutable(filepath.Join(root, matches[j]))
		if ei != ej {
			return ei
		}
		di := strings.Count(filepath.ToSlash(matches[i]), "/")
		dj := strings.Count(filepath.ToSlash(matches[j]), "/")
		return di < dj
	})
	return matches[0], nil
}

// listFiles walks root and returns regular files relative to it, used when
// an earlier install left no extraction record.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
