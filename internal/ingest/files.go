package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ReadFiles expands each pattern (doublestar syntax, so "docs/**/*.pdf"
// works) and reads every matching regular file. A directory stands for every
// PDF beneath it. Files are returned in path order without duplicates.
func ReadFiles(patterns []string) ([]UploadedFile, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		matches, err := expand(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	files := make([]UploadedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, UploadedFile{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

func expand(pattern string) ([]string, error) {
	info, err := os.Stat(pattern)
	if err != nil || !info.IsDir() {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		return matches, nil
	}

	rel, err := doublestar.Glob(os.DirFS(pattern), "**/*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", pattern, err)
	}
	var matches []string
	for _, r := range rel {
		if IsPDF(r) {
			matches = append(matches, filepath.Join(pattern, filepath.FromSlash(r)))
		}
	}
	return matches, nil
}
