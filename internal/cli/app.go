package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/kyleturman/houston"
	"github.com/kyleturman/houston/config"
	"github.com/kyleturman/houston/logging"
	"github.com/kyleturman/houston/note"
	notesqlite "github.com/kyleturman/houston/note/sqlite"
	"github.com/kyleturman/houston/usage"
	usagesqlite "github.com/kyleturman/houston/usage/sqlite"
)

// app bundles the assistant with the resources the CLI must release on exit.
type app struct {
	assistant *houston.Assistant
	config    config.Config
	closers   []io.Closer
}

// Close releases store handles.
func (a *app) Close() {
	for _, c := range a.closers {
		c.Close()
	}
}

// defaultConfigPath resolves $HOUSTON_CONFIG, falling back to
// ~/.config/houston/config.yaml when that file exists.
func defaultConfigPath() string {
	if p := os.Getenv("HOUSTON_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".config", "houston", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// buildApp loads config and assembles the assistant with the configured
// stores (sqlite when DB paths are set, in-memory otherwise).
func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, WrapExit(ExitUserError, err)
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, false)

	a := &app{config: cfg}

	var usageStore usage.Store = usage.NewInMemoryStore()
	if cfg.Usage.DB != "" {
		store, err := usagesqlite.Open(cfg.Usage.DB)
		if err != nil {
			return nil, WrapExit(ExitIOFailure, err)
		}
		a.closers = append(a.closers, store)
		usageStore = store
	}

	var noteStore note.Store = note.NewInMemoryStore()
	if cfg.Notes.DB != "" {
		store, err := notesqlite.Open(cfg.Notes.DB)
		if err != nil {
			return nil, WrapExit(ExitIOFailure, err)
		}
		a.closers = append(a.closers, store)
		noteStore = store
	}

	a.assistant = houston.New(func(o *houston.Options) {
		o.Config = cfg
		o.UsageStore = usageStore
		o.NoteStore = noteStore
		o.Logger = logger
	})

	return a, nil
}
