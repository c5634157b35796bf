package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDirName is the per-project directory holding the index snapshot, logs and locks.
const DataDirName = ".hammy"

// CanonicalizePath converts an absolute path to a project-relative canonical path.
// Symlinks are resolved when the file exists and separators become forward slashes.
func CanonicalizePath(absolutePath string, projectRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// deleted files are canonicalized as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(projectRoot)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = projectRoot
		} else {
			return "", err
		}
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsWithinRepo checks if a path is within the project root
func IsWithinRepo(path string, projectRoot string) bool {
	canonical, err := CanonicalizePath(path, projectRoot)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinRepoPath joins a project root with a canonical (slash-separated) path
func JoinRepoPath(projectRoot string, canonicalPath string) string {
	parts := strings.Split(strings.ReplaceAll(canonicalPath, "\\", "/"), "/")
	return filepath.Join(append([]string{projectRoot}, parts...)...)
}

// DataDir returns <root>/.hammy
func DataDir(projectRoot string) string {
	return filepath.Join(projectRoot, DataDirName)
}

// EnsureDataDir creates <root>/.hammy if needed and returns it.
func EnsureDataDir(projectRoot string) (string, error) {
	dir := DataDir(projectRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// IndexDBPath returns the SQLite snapshot location.
func IndexDBPath(projectRoot string) string {
	return filepath.Join(DataDir(projectRoot), "index.db")
}

// IndexLockPath returns the writer lock file location.
func IndexLockPath(projectRoot string) string {
	return filepath.Join(DataDir(projectRoot), "index.lock")
}

// IndexMetaPath returns the index metadata file location.
func IndexMetaPath(projectRoot string) string {
	return filepath.Join(DataDir(projectRoot), "index-meta.json")
}

// LogsDir returns <root>/.hammy/logs
func LogsDir(projectRoot string) string {
	return filepath.Join(DataDir(projectRoot), "logs")
}

// EnsureLogsDir creates the logs directory if needed and returns it.
func EnsureLogsDir(projectRoot string) (string, error) {
	dir := LogsDir(projectRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// LogPath returns the log file for a subsystem, e.g. "index" -> .hammy/logs/index.log
func LogPath(projectRoot, subsystem string) string {
	return filepath.Join(LogsDir(projectRoot), subsystem+".log")
}
