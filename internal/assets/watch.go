package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/dae"
)

// ErrAlreadyWatching is returned by Watch when a watcher is already running.
var ErrAlreadyWatching = errors.New("asset manager is already watching")

// Reload reports a watched scene dump that changed on disk. Err is set when
// the new contents could not be parsed; Doc is nil in that case.
type Reload struct {
	Path string
	Doc  *dae.Document
	Err  error
}

type watcher struct {
	fs      *fsnotify.Watcher
	files   map[string]struct{}
	reloads chan Reload
	done    chan struct{}
	wg      sync.WaitGroup
}

// Watch starts reloading the named scene dumps when they change. The
// returned channel delivers parsed documents and is closed by Close. The
// watcher goroutine only reads files; consumers apply reloads on their own
// goroutine.
func (m *Manager) Watch(names ...string) (<-chan Reload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watch != nil {
		return nil, ErrAlreadyWatching
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{
		fs:      fs,
		files:   make(map[string]struct{}, len(names)),
		reloads: make(chan Reload, 4),
		done:    make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, name := range names {
		path, err := m.resolveLocked(name)
		if err != nil {
			fs.Close()
			return nil, err
		}
		w.files[path] = struct{}{}
		dirs[filepath.Dir(path)] = struct{}{}
	}
	// Watch directories: editors often replace files instead of writing in place.
	for dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	m.watch = w
	w.wg.Add(1)
	go w.run(m)

	logger.Info("watching scene dumps", zap.Int("files", len(w.files)))
	return w.reloads, nil
}

// resolveLocked is Resolve for callers already holding m.mu.
func (m *Manager) resolveLocked(name string) (string, error) {
	if filepath.IsAbs(name) || fileExists(name) {
		if !fileExists(name) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return filepath.Abs(name)
	}
	for i := len(m.paths) - 1; i >= 0; i-- {
		candidate := filepath.Join(m.paths[i], name)
		if fileExists(candidate) {
			return filepath.Abs(candidate)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (w *watcher) run(m *Manager) {
	defer w.wg.Done()
	defer close(w.reloads)

	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			path, err := filepath.Abs(e.Name)
			if err != nil {
				continue
			}
			if _, ok := w.files[path]; !ok {
				continue
			}

			m.Invalidate(path)
			doc, err := m.parsePath(path)
			r := Reload{Path: path, Doc: doc, Err: err}
			select {
			case w.reloads <- r:
			case <-w.done:
				return
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

func (w *watcher) close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
