// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindFiles returns every file ending with extension under the given paths.
// A path may be a single file or a directory, which is searched recursively in
// lexical order. Paths that do not exist are skipped, and each file is listed
// once even when paths overlap.
func FindFiles(paths []string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	seen := make(map[string]struct{})
	add := func(p string) {
		clean := filepath.Clean(p)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		files = append(files, clean)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", root, err)
		}

		if !info.IsDir() {
			if strings.HasSuffix(info.Name(), extension) {
				add(root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
