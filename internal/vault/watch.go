package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/othala/internal"
	"github.com/starford/othala/internal/storage"
)

const debounceInterval = 300 * time.Millisecond

// RebuildFunc receives each freshly assembled state.
type RebuildFunc func(*State)

// Watch rebuilds the vault whenever its inputs change, until ctx is
// cancelled. Watched inputs are every source root (recursively), the
// schema directory, and the config file itself; a config change
// reloads it and re-derives the watch list. Change bursts are
// debounced into one rebuild. A rebuild failure is logged and watching
// continues with the last good state.
func Watch(ctx context.Context, cfg *internal.Config, logger *slog.Logger, fn RebuildFunc, buildOpts ...Option) error {
	current := cfg
	for {
		reload, err := watchSession(ctx, current, logger, fn, buildOpts...)
		if err != nil {
			return err
		}
		if !reload {
			return nil
		}

		fresh, err := internal.LoadConfig(current.ConfigPath)
		if err != nil {
			logger.Error("watch: config reload failed, keeping previous",
				slog.String("error", err.Error()))
		} else {
			current = fresh
		}
	}
}

// watchSession runs one watcher over the inputs derived from cfg. It
// returns reload=true when the config file changed and the session
// must restart with a fresh config.
func watchSession(ctx context.Context, cfg *internal.Config, logger *slog.Logger, fn RebuildFunc, buildOpts ...Option) (reload bool, err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false, err
	}
	defer w.Close()

	roots := watchRoots(cfg)
	for _, root := range roots {
		if addErr := addDirsRecursive(w, root); addErr != nil {
			logger.Warn("watch: cannot watch",
				slog.String("path", root),
				slog.String("error", addErr.Error()))
		}
	}
	// The config file is watched via its directory so editor
	// write-via-rename updates are still seen.
	if addErr := w.Add(cfg.BaseDir); addErr != nil {
		logger.Warn("watch: cannot watch config dir",
			slog.String("path", cfg.BaseDir),
			slog.String("error", addErr.Error()))
	}

	logger.Info("watch: started",
		slog.Int("roots", len(roots)),
		slog.String("config", cfg.ConfigPath))

	var debounce *time.Timer
	var debounceCh <-chan time.Time
	configChanged := false

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(debounceInterval)
			debounceCh = debounce.C
			return
		}
		debounce.Reset(debounceInterval)
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watch: stopped")
			return false, nil

		case <-debounceCh:
			if configChanged {
				logger.Info("watch: config changed, reloading")
				return true, nil
			}
			state, buildErr := Build(ctx, cfg, buildOpts...)
			if buildErr != nil {
				logger.Error("watch: rebuild failed",
					slog.String("error", buildErr.Error()))
				continue
			}
			fn(state)

		case ev, ok := <-w.Events:
			if !ok {
				return false, nil
			}

			if ev.Name == cfg.ConfigPath {
				configChanged = true
				schedule()
				continue
			}

			// New directories join the watch list so files created
			// inside them keep triggering rebuilds.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watch: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}

			if relevantFile(cfg, ev.Name) {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return false, nil
			}
			logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}

// watchRoots lists the directories whose contents feed the vault.
func watchRoots(cfg *internal.Config) []string {
	var roots []string
	for _, src := range cfg.Sources {
		root := cfg.SourceRoot(src)
		if _, err := os.Stat(root); err == nil {
			roots = append(roots, root)
		}
	}
	if cfg.SchemaDir != "" {
		dir := schemaDir(cfg)
		if _, err := os.Stat(dir); err == nil {
			roots = append(roots, dir)
		}
	}
	return roots
}

// relevantFile reports whether a change to path can alter the vault.
func relevantFile(cfg *internal.Config, path string) bool {
	if storage.IsMarkdown(path) {
		return true
	}
	for _, f := range schemaFiles(cfg) {
		if path == f {
			return true
		}
	}
	if cfg.SchemaDir == "" {
		return false
	}
	if !strings.HasPrefix(path, schemaDir(cfg)+string(os.PathSeparator)) {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
