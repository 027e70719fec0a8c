package palette

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps a registry in sync with a palette file. Canvases created
// after a reload get the new palette; existing canvases keep theirs.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	mu       sync.RWMutex
	current  *Registry
	onChange []func(*Registry)

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher loads the palette file and prepares a watch on it
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	reg, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial palette: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory so editors that save by rename are seen.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch palette directory: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     path,
		watcher:  fw,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		current:  reg,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Current returns the latest valid registry
func (w *Watcher) Current() *Registry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback run after each successful reload
func (w *Watcher) OnChange(fn func(*Registry)) {
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	w.mu.Unlock()
}

// Start begins watching for palette changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Palette watcher started", zap.String("path", w.path))
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Palette watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var debounceTimer *time.Timer
	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Palette watcher error", zap.Error(err))
		}
	}
}

// reload swaps in the file's palette, keeping the current one when the file
// is invalid.
func (w *Watcher) reload() {
	reg, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("Invalid palette file, keeping current palette", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = reg
	handlers := append([]func(*Registry){}, w.onChange...)
	w.mu.Unlock()

	for _, fn := range handlers {
		fn(reg)
	}
	w.logger.Info("Palette reloaded", zap.String("path", w.path), zap.Int("kinds", reg.Len()))
}
