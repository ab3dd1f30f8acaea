package config

import (
	"os"
	"path/filepath"
)

const appName = "getrel"

// ConfigDir returns the directory holding projects.toml. GETREL_CONFIG_HOME
// overrides it, mainly for tests.
func ConfigDir() string {
	if dir := os.Getenv("GETREL_CONFIG_HOME"); dir != "" {
		return dir
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the root under which per-project directories live.
// GETREL_DATA_HOME overrides it.
func DataDir() string {
	if dir := os.Getenv("GETREL_DATA_HOME"); dir != "" {
		return dir
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// ProjectDir returns the install directory for one project. Everything the
// project downloads or unpacks lives below it.
func ProjectDir(name string) string {
	return filepath.Join(DataDir(), name)
}

// BinDir is where bin actions place their symlinks when the target is not an
// absolute path.
func BinDir() string {
	if dir := os.Getenv("GETREL_BIN_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "bin")
}

// ProjectsFile is the path of the project configuration file.
func ProjectsFile() string {
	return filepath.Join(ConfigDir(), "projects.toml")
}
