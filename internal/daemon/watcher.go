// Package daemon implements the standalone tracking daemon: a filesystem
// watcher feeding the heartbeat engine, plus the periodic flush tick.
package daemon

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/eliteGoblin/eztrackd/internal/domain"
	"github.com/eliteGoblin/eztrackd/internal/policy"
	"github.com/eliteGoblin/eztrackd/internal/usecase"
)

// WatcherConfig holds watcher daemon configuration.
type WatcherConfig struct {
	TickInterval     time.Duration // how often the dispatch scheduler runs
	RegistryInterval time.Duration // how often the session registry is refreshed
}

// DefaultWatcherConfig returns default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		TickInterval:     time.Second,
		RegistryInterval: 30 * time.Second,
	}
}

// Watcher drives one tracking session from filesystem events. Editor hosts
// with richer event streams call the Tracker directly; this daemon is the
// host for plain directory watching.
type Watcher struct {
	config   WatcherConfig
	tracker  *usecase.Tracker
	registry domain.SessionRegistry // optional, nil disables registration
	session  domain.Session
	roots    []string
	logger   *zap.Logger
}

// NewWatcher creates a watcher over the given root directories.
func NewWatcher(
	config WatcherConfig,
	tracker *usecase.Tracker,
	registry domain.SessionRegistry,
	session domain.Session,
	roots []string,
	logger *zap.Logger,
) *Watcher {
	return &Watcher{
		config:   config,
		tracker:  tracker,
		registry: registry,
		session:  session,
		roots:    roots,
		logger:   logger,
	}
}

// Run starts the watch loop. This blocks until context is canceled; on
// shutdown any buffered heartbeats get one final flush.
func (w *Watcher) Run(ctx context.Context) error {
	if w.registry != nil {
		if err := w.registry.Register(w.session); err != nil {
			w.logger.Error("failed to register session", zap.Error(err))
			return err
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := watchTree(fsw, root); err != nil {
			w.logger.Warn("failed to watch root",
				zap.String("root", root),
				zap.Error(err))
		}
	}

	w.logger.Info("tracking started",
		zap.Int("pid", w.session.PID),
		zap.String("session_id", w.session.SessionID),
		zap.Strings("roots", w.roots))

	tick := time.NewTicker(w.config.TickInterval)
	registryTick := time.NewTicker(w.config.RegistryInterval)
	defer func() {
		tick.Stop()
		registryTick.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("tracking stopping, flushing remaining heartbeats")
			w.tracker.Flush(context.Background(), time.Now())
			if w.registry != nil {
				_ = w.registry.Clear()
			}
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-tick.C:
			w.tracker.Tick(ctx, time.Now())

		case <-registryTick.C:
			if w.registry != nil {
				if err := w.registry.UpdateFlush(w.tracker.LastFlushAt()); err != nil {
					w.logger.Warn("failed to refresh session registry", zap.Error(err))
				}
			}
		}
	}
}

// handleEvent maps one filesystem event onto the engine's inbound surface:
// a created file is an open, a completed write is a save, a metadata touch
// is passive activity.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	now := time.Now()

	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := watchTree(fsw, ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					zap.String("dir", ev.Name),
					zap.Error(err))
			}
			return
		}
		w.tracker.OnOpen(ev.Name, policy.LanguageForPath(ev.Name), now)

	case ev.Op.Has(fsnotify.Write):
		w.tracker.OnSave(ev.Name, policy.LanguageForPath(ev.Name), now)

	case ev.Op.Has(fsnotify.Chmod):
		w.tracker.OnModify(ev.Name, now)
	}
}

// watchTree registers root and every directory below it, skipping dot
// directories (.git and friends generate heavy churn we never track).
func watchTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
