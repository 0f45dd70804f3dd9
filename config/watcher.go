package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/halo-dev/halo/component"
	"github.com/halo-dev/halo/logger"
)

// DefaultDebounce is how long the watcher waits for writes to settle
// before reporting a change.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports edits to configuration files in the search path. It is a
// component so that each container lifetime owns its own watcher.
type Watcher struct {
	locations []Location
	onChange  func(path string)
	debounce  time.Duration
	log       *logger.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	files   map[string]bool // explicitly watched files
	watched []string
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
}

var _ component.Component = (*Watcher)(nil)

// NewWatcher creates a watcher over locations that calls onChange once per
// burst of edits, with the last changed path.
func NewWatcher(locations []Location, onChange func(path string), log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Watcher{
		locations: locations,
		onChange:  onChange,
		debounce:  DefaultDebounce,
		log:       log.WithComponent("config-watcher"),
	}
}

// SetDebounce overrides DefaultDebounce. Must be called before Start.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Name implements component.Component.
func (w *Watcher) Name() string { return "config-watcher" }

// Start begins watching every location that exists. Missing locations are
// skipped.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.files = make(map[string]bool)
	w.watched = w.watched[:0]
	for _, loc := range w.locations {
		dir := loc.Path
		if !loc.Dir {
			dir = filepath.Dir(loc.Path)
			w.files[filepath.Clean(loc.Path)] = true
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.log.Warn("Failed to watch config location", map[string]interface{}{
				logger.FieldPath:  dir,
				logger.FieldError: err.Error(),
			})
			continue
		}
		w.watched = append(w.watched, dir)
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.running = true

	w.wg.Add(1)
	go w.loop(fsw, w.done)

	w.log.Info("Watching configuration", map[string]interface{}{
		"locations": w.watched,
	})
	return nil
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, done chan struct{}) {
	defer w.wg.Done()
	for {
		select {
		case <-done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.schedule(event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Config watcher error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}
}

// relevant reports whether path is a configuration file the loader reads.
func (w *Watcher) relevant(path string) bool {
	path = filepath.Clean(path)
	w.mu.Lock()
	explicit := w.files[path]
	w.mu.Unlock()
	if explicit {
		return true
	}
	base := filepath.Base(path)
	if base == ".env" {
		return true
	}
	name, ext, ok := strings.Cut(base, ".")
	if !ok || name != configBaseName {
		return false
	}
	for _, e := range configExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		running := w.running
		w.mu.Unlock()
		if !running {
			return
		}
		w.log.Info("Configuration changed", map[string]interface{}{
			logger.FieldPath: path,
		})
		if w.onChange != nil {
			w.onChange(path)
		}
	})
}

// Stop stops watching and cancels any pending notification.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	close(w.done)
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()

	err := fsw.Close()
	w.wg.Wait()
	return err
}

// Health implements component.Component.
func (w *Watcher) Health(ctx context.Context) component.Health {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return component.Unhealthy(w.Name(), "not running")
	}
	return component.Healthy(w.Name())
}

// Describe implements component.Describable.
func (w *Watcher) Describe() component.Description {
	w.mu.Lock()
	defer w.mu.Unlock()
	return component.Description{
		Name:    "Config Watcher",
		Type:    "watcher",
		Details: strings.Join(w.watched, ", "),
	}
}
