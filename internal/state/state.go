// Package state persists the per-project installed record. The record is
// the reconciler's memory: it is written only after a fully successful
// install so a failed run can never masquerade as an up-to-date one.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/3leaps/getrel/internal/model"
)

const (
	stateDirName  = ".getrel"
	stateFileName = "state.toml"
	lockFileName  = "state.lock"
)

// Store reads and writes installed-state records keyed by project name.
// Load returns (nil, nil) for a project with no record.
type Store interface {
	Load(name string) (*model.InstalledState, error)
	Save(name string, st *model.InstalledState) error
	Delete(name string) error
	List() ([]string, error)
}

// FSStore keeps each project's record under <root>/<name>/.getrel/, next to
// the installed files themselves, so removing a project directory removes
// its record with it.
type FSStore struct {
	root string
}

// NewFSStore returns a store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir}
}

// ProjectDir returns the install directory for name.
func (s *FSStore) ProjectDir(name string) string {
	return filepath.Join(s.root, name)
}

func (s *FSStore) statePath(name string) string {
	return filepath.Join(s.root, name, stateDirName, stateFileName)
}

func (s *FSStore) lockPath(name string) string {
	return filepath.Join(s.root, name, stateDirName, lockFileName)
}

// Load reads the record for name. A missing file is not an error: it means
// the project was never installed.
func (s *FSStore) Load(name string) (*model.InstalledState, error) {
	data, err := os.ReadFile(s.statePath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state for %s: %w", name, err)
	}
	var st model.InstalledState
	if err := toml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state for %s: %w", name, err)
	}
	return &st, nil
}

// Save replaces the record for name atomically: the new content lands in a
// temp file first and is renamed over the old record, under an flock held
// against concurrent getrel runs.
func (s *FSStore) Save(name string, st *model.InstalledState) error {
	path := s.statePath(name)
	return withLock(s.lockPath(name), func() error {
		data, err := toml.Marshal(st)
		if err != nil {
			return fmt.Errorf("encode state for %s: %w", name, err)
		}
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir for %s: %w", name, err)
		}
		tmp, err := os.CreateTemp(dir, ".state-*.toml")
		if err != nil {
			return fmt.Errorf("create temp state for %s: %w", name, err)
		}
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("write temp state for %s: %w", name, err)
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("close temp state for %s: %w", name, err)
		}
		if err := os.Rename(tmp.Name(), path); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("replace state for %s: %w", name, err)
		}
		return nil
	})
}

// Delete removes the record for name. Deleting an absent record is a no-op.
func (s *FSStore) Delete(name string) error {
	err := os.Remove(s.statePath(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete state for %s: %w", name, err)
	}
	return nil
}

// List returns the names of projects that have a record, sorted.
func (s *FSStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list state root: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(s.statePath(e.Name())); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Memory is an in-process Store for tests.
type Memory struct {
	mu      sync.Mutex
	records map[string]model.InstalledState
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: map[string]model.InstalledState{}}
}

func (m *Memory) Load(name string) (*model.InstalledState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.records[name]
	if !ok {
		return nil, nil
	}
	cp := st
	return &cp, nil
}

func (m *Memory) Save(name string, st *model.InstalledState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[name] = *st
	return nil
}

func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, name)
	return nil
}

func (m *Memory) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.records))
	for n := range m.records {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
