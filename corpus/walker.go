package corpus

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
)

// Walker enumerates candidate files under a root directory.
type Walker interface {
	// Walk calls visit for every regular file under root in a stable order.
	Walk(ctx context.Context, root string, visit func(path string) error) error
}

// DirWalker walks the filesystem in lexical order, pruning excluded
// directory names.
type DirWalker struct {
	ExcludeDirs map[string]bool
	Logger      *slog.Logger
}

// NewDirWalker creates a walker that skips the given directory names.
func NewDirWalker(excludeDirs []string, logger *slog.Logger) *DirWalker {
	if logger == nil {
		logger = slog.Default()
	}
	ex := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		ex[d] = true
	}
	return &DirWalker{ExcludeDirs: ex, Logger: logger}
}

// Walk implements Walker. Unreadable subdirectories are logged and skipped.
func (w *DirWalker) Walk(ctx context.Context, root string, visit func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			w.Logger.Warn("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && w.ExcludeDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return visit(path)
	})
}
