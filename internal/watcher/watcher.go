// Package watcher notices when another process changes the database, so a
// running browser can reload favorites saved from the command line.
package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"recipefinder/internal/utils"
)

// DefaultDebounce batches the several writes SQLite makes per commit.
const DefaultDebounce = 250 * time.Millisecond

// Config holds file watcher configuration.
type Config struct {
	// File is the database path. Its directory is watched so journal files
	// and replaced files are seen too.
	File     string
	Debounce time.Duration
	OnChange func()
}

// Watcher calls OnChange once per burst of writes to File.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	stopped bool
	mu      sync.Mutex
}

// New creates a watcher; call Start to begin.
func New(cfg Config) (*Watcher, error) {
	if cfg.File == "" || cfg.File == ":memory:" {
		return nil, fmt.Errorf("watcher needs a database file, got %q", cfg.File)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher has been stopped and cannot be restarted")
	}

	dir := filepath.Dir(w.cfg.File)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	go w.eventLoop()
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stopCh)
	_ = w.fsw.Close()
}

// relevant reports whether name is the database or one of its side files.
func (w *Watcher) relevant(name string) bool {
	return strings.HasPrefix(filepath.Base(name), filepath.Base(w.cfg.File))
}

func (w *Watcher) eventLoop() {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !w.relevant(event.Name) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.cfg.Debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			utils.Debugf("watcher: %v", err)

		case <-fire:
			if w.cfg.OnChange != nil {
				w.cfg.OnChange()
			}
		}
	}
}
