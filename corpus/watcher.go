package corpus

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/spectrace/source/parser"
	"github.com/fsnotify/fsnotify"
)

const (
	// batchChannelBuffer is the size of the change batch channel.
	batchChannelBuffer = 16

	defaultDebounce = 500 * time.Millisecond
)

// ChangeOp indicates the type of file change.
type ChangeOp string

// ChangeCreate, ChangeModify, and ChangeDelete enumerate the change types.
const (
	ChangeCreate ChangeOp = "create"
	ChangeModify ChangeOp = "modify"
	ChangeDelete ChangeOp = "delete"
)

// Change is one file whose content changed.
type Change struct {
	// Path is the slash-separated path relative to the base directory.
	Path string

	// AbsPath is the absolute file path.
	AbsPath string

	// Op is the type of change.
	Op ChangeOp

	// hash is the content hash recorded once the change is delivered.
	hash string
}

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// BaseDir is used to report relative paths.
	BaseDir string

	// Debounce is how long to collect changes before emitting a batch.
	Debounce time.Duration

	// Extensions lists the file extensions that trigger a change.
	Extensions []string

	// ExcludeDirs lists directory names that are never watched.
	ExcludeDirs []string
}

// Watcher watches corpus roots and emits debounced batches of changed files.
// A file whose content hash is unchanged does not produce a change.
type Watcher struct {
	opts       WatchOptions
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	extensions map[string]bool
	excludes   map[string]bool

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Hash-based change detection, keyed by absolute path
	hashMu sync.RWMutex
	hashes map[string]string

	batches chan []Change

	droppedBatches atomic.Int64
}

// NewWatcher creates a corpus watcher.
func NewWatcher(opts WatchOptions, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}

	excludes := make(map[string]bool, len(opts.ExcludeDirs))
	for _, dir := range opts.ExcludeDirs {
		excludes[dir] = true
	}

	return &Watcher{
		opts:       opts,
		watcher:    fsw,
		logger:     logger,
		extensions: extSet(opts.Extensions),
		excludes:   excludes,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
		batches:    make(chan []Change, batchChannelBuffer),
	}, nil
}

// Batches returns the channel of debounced change batches. It is closed
// when the watcher stops.
func (w *Watcher) Batches() <-chan []Change {
	return w.batches
}

// Start adds recursive watches under every root and begins processing.
func (w *Watcher) Start(ctx context.Context, roots []string) error {
	for _, root := range roots {
		if err := w.addWatchesRecursive(root); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Corpus watcher started",
		"roots", roots,
		"debounce", w.opts.Debounce)
	return nil
}

// Stop stops the watcher.
// The batch channel is closed by processEvents when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// Prime records the content hashes of already scanned items so unchanged
// files are not reported on their first event.
func (w *Watcher) Prime(items []*Item) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	for _, it := range items {
		w.hashes[it.AbsPath] = it.Hash
	}
}

// SetHash records the hash for a file.
func (w *Watcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

// GetHash returns the recorded hash for a file.
func (w *Watcher) GetHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

// addWatchesRecursive adds watches to all directories under root.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("Failed to walk directory", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		if path != root && w.skipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func (w *Watcher) skipDir(base string) bool {
	return w.excludes[base] || (strings.HasPrefix(base, ".") && base != ".")
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.batches)
	ticker := time.NewTicker(w.opts.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	ext := strings.ToLower(filepath.Ext(path))
	if !w.extensions[ext] {
		// New directories need their own watch
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Document change detected",
		"path", path,
		"op", event.Op.String())
}

// handleNewDirectory adds watches to a newly created directory tree.
func (w *Watcher) handleNewDirectory(path string) {
	if w.skipDir(filepath.Base(path)) {
		return
	}
	if err := w.addWatchesRecursive(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	}
}

// flushPending turns accumulated events into one batch of real changes.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := maps.Clone(w.pending)
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	paths := make([]string, 0, len(toProcess))
	for p := range toProcess {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var batch []Change
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if change, ok := w.classify(path, toProcess[path]); ok {
			batch = append(batch, change)
		}
	}
	if len(batch) == 0 {
		return
	}
	if w.sendBatch(batch) {
		w.commitHashes(batch)
	}
}

// classify compares the file against its recorded hash. It does not
// update the recorded hash; commitHashes does that once the batch is sent,
// so a dropped change is reported again on the next event for that file.
func (w *Watcher) classify(path string, op fsnotify.Op) (Change, bool) {
	change := Change{Path: RelPath(w.opts.BaseDir, path), AbsPath: path}

	content, err := os.ReadFile(path)
	if err != nil {
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) || os.IsNotExist(err) {
			_, had := w.GetHash(path)
			change.Op = ChangeDelete
			return change, had
		}
		w.logger.Warn("Failed to read file for hash check",
			"path", change.Path,
			"error", err)
		return change, false
	}

	change.hash = parser.ContentHash(content)
	oldHash, hadHash := w.GetHash(path)
	if hadHash && oldHash == change.hash {
		return change, false
	}

	if hadHash {
		change.Op = ChangeModify
	} else {
		change.Op = ChangeCreate
	}
	return change, true
}

// commitHashes records the hashes of a delivered batch.
func (w *Watcher) commitHashes(batch []Change) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	for _, c := range batch {
		if c.Op == ChangeDelete {
			delete(w.hashes, c.AbsPath)
			continue
		}
		w.hashes[c.AbsPath] = c.hash
	}
}

// sendBatch sends a batch to the output channel without blocking. It
// reports whether the batch was delivered.
func (w *Watcher) sendBatch(batch []Change) bool {
	select {
	case w.batches <- batch:
		w.logger.Debug("Sent change batch", "changes", len(batch))
		return true
	default:
		dropped := w.droppedBatches.Add(1)
		w.logger.Warn("Batch channel full, dropping changes",
			"changes", len(batch),
			"total_dropped", dropped)
		return false
	}
}

// DroppedBatches returns the number of batches dropped due to channel overflow.
func (w *Watcher) DroppedBatches() int64 {
	return w.droppedBatches.Load()
}
