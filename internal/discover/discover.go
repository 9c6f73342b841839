// Package discover walks a root directory for indexable files using
// gobwas/glob include/ignore patterns, and detects which files changed
// since the last run by comparing disk mtime/hash against the store.
package discover

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultExtensions are the file extensions indexed when no explicit
// include patterns are configured.
var DefaultExtensions = []string{".go", ".py", ".js", ".ts", ".java", ".cpp", ".c", ".rs", ".php", ".rb", ".cs"}

// Discovery walks rootDir for files matching include patterns and not
// matching ignore patterns.
type Discovery struct {
	rootDir  string
	include  []glob.Glob
	ignore   []glob.Glob
}

// New compiles include/ignore glob patterns (each matched against a
// forward-slash relative path, '/' as the glob separator) and returns a
// Discovery rooted at rootDir. Defaults to DefaultExtensions when include
// is empty.
func New(rootDir string, include, ignore []string) (*Discovery, error) {
	if len(include) == 0 {
		include = make([]string, len(DefaultExtensions))
		for i, ext := range DefaultExtensions {
			include[i] = "**/*" + ext
		}
	}

	d := &Discovery{rootDir: rootDir}
	for _, pattern := range include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.include = append(d.include, g)
	}
	for _, pattern := range ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.ignore = append(d.ignore, g)
	}
	return d, nil
}

// Files walks the tree and returns every file (absolute path) matching an
// include pattern and no ignore pattern.
func (d *Discovery) Files() ([]string, error) {
	var out []string
	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.shouldIgnore(relPath) {
			return nil
		}
		// The "/"-prefixed form lets "**/*.ext" patterns match root-level files.
		if matchesAny(relPath, d.include) || matchesAny("/"+relPath, d.include) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func (d *Discovery) shouldIgnore(relPath string) bool {
	if strings.HasPrefix(relPath, ".git/") || relPath == ".git" {
		return true
	}
	if matchesAny(relPath, d.ignore) {
		return true
	}
	return matchesAny(relPath+"/**", d.ignore)
}

func matchesAny(path string, patterns []glob.Glob) bool {
	for _, p := range patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}
