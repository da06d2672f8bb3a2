// Package scan discovers workspace source files by include/exclude glob
// patterns. Output is de-duplicated and sorted so downstream analysis sees a
// stable, deterministic file order.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// File is one discovered source file. Path is workspace-relative with
// forward slashes and is the canonical identifier used throughout the graph;
// AbsPath is for reading content.
type File struct {
	Path    string
	AbsPath string
}

// skipDirs are never descended into regardless of patterns.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"__pycache__":  true,
}

// Scanner walks a workspace root applying include/exclude globs.
type Scanner struct {
	root    string
	include []string
	exclude []string
}

// New creates a Scanner. Patterns use '/'-separated globs where '**' matches
// any number of path segments (e.g. "**/*.ts", "src/**/*.tsx").
func New(root string, include, exclude []string) *Scanner {
	return &Scanner{root: root, include: include, exclude: exclude}
}

// Scan walks the tree and returns matching files, de-duplicated and sorted
// by workspace-relative path. Hidden directories and the usual dependency /
// output directories are skipped. Symlinks are not followed.
func (s *Scanner) Scan(ctx context.Context) ([]File, error) {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	seen := make(map[string]bool)
	var files []File
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if p == absRoot {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(s.include, rel) || matchesAny(s.exclude, rel) || seen[rel] {
			return nil
		}
		seen[rel] = true
		files = append(files, File{Path: rel, AbsPath: p})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if MatchGlob(p, rel) {
			return true
		}
	}
	return false
}

// MatchGlob matches a '/'-separated glob against a relative path. '**'
// matches zero or more whole segments; other segments use path.Match rules.
func MatchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(ps, ns []string) bool {
	if len(ps) == 0 {
		return len(ns) == 0
	}
	if ps[0] == "**" {
		if matchSegments(ps[1:], ns) {
			return true
		}
		return len(ns) > 0 && matchSegments(ps, ns[1:])
	}
	if len(ns) == 0 {
		return false
	}
	ok, err := path.Match(ps[0], ns[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(ps[1:], ns[1:])
}
