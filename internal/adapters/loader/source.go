package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

var _ ports.DocumentSource = (*DirectorySource)(nil)

// DirectorySource loads every file under a directory, in lexical path order.
type DirectorySource struct {
	dir    string
	loader ports.DocumentLoader
}

// NewDirectorySource creates a source over dir.
func NewDirectorySource(dir string, loader ports.DocumentLoader) *DirectorySource {
	return &DirectorySource{dir: dir, loader: loader}
}

// Dir returns the watched directory.
func (s *DirectorySource) Dir() string {
	return s.dir
}

// Documents walks the directory. Hidden files are ignored. Files the loader
// rejects are reported as skipped, never as an error; only a missing or
// unreadable root fails the call.
func (s *DirectorySource) Documents(ctx context.Context) ([]*entities.Document, []ports.SkippedDocument, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("documents directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("documents directory: %s is not a directory", s.dir)
	}

	var paths []string
	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != s.dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", s.dir, err)
	}
	sort.Strings(paths)

	var docs []*entities.Document
	var skipped []ports.SkippedDocument
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		doc, err := s.loader.Load(ctx, path)
		if err != nil {
			reason := err.Error()
			if errors.Is(err, ports.ErrUnsupportedDocument) {
				reason = "unsupported file type"
			}
			slog.Warn("skipping document", "file", path, "reason", reason)
			skipped = append(skipped, ports.SkippedDocument{Path: path, Reason: reason})
			continue
		}
		// Nested files keep their relative path so chunk ids stay unique.
		if rel, err := filepath.Rel(s.dir, path); err == nil {
			doc.Name = filepath.ToSlash(rel)
		}
		docs = append(docs, doc)
	}
	return docs, skipped, nil
}
