package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"context"

	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileProvider serves settings from a local YAML file, reloading it when
// the file changes. Intended for development and self-hosted deployments
// where no Hub settings endpoint is reachable. The token is ignored: one
// file, one configuration.
type FileProvider struct {
	path string

	mu      sync.RWMutex
	current *Settings

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// NewFileProvider loads the settings file and starts watching it for
// changes. Callers must Close the provider to release the watcher.
func NewFileProvider(path string) (*FileProvider, error) {
	p := &FileProvider{
		path: path,
		done: make(chan struct{}),
	}

	if err := p.reload(); err != nil {
		return nil, fmt.Errorf("loading settings file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating settings watcher: %w", err)
	}
	// Watch the directory rather than the file: editors replace files on
	// save, which would drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching settings directory: %w", err)
	}
	p.watcher = watcher

	go p.watchLoop()

	return p, nil
}

// GetSettings returns the current file contents; nil if the last reload
// failed and no prior good state exists.
func (p *FileProvider) GetSettings(ctx context.Context, token string) *Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Close stops the file watcher. Safe to call more than once.
func (p *FileProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.watcher != nil {
			err = p.watcher.Close()
		}
	})
	return err
}

func (p *FileProvider) reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return err
	}

	p.mu.Lock()
	p.current = &s
	p.mu.Unlock()

	logging.Debug("SettingsProvider", "Loaded settings file %s: %d tools, %d gradio endpoints",
		p.path, len(s.EnabledTools), len(s.Gradios))
	return nil
}

func (p *FileProvider) watchLoop() {
	for {
		select {
		case <-p.done:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(p.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := p.reload(); err != nil {
				// Keep serving the last good settings on a bad write.
				logging.Warn("SettingsProvider", "Reload of %s failed: %v", p.path, err)
			} else {
				logging.Info("SettingsProvider", "Reloaded settings from %s", p.path)
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("SettingsProvider", "Settings watcher error: %v", err)
		}
	}
}
