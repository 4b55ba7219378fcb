// Package workdir manages the local Lifebooks working directory.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/salcon83/lifebooks-ai/internal/config"
)

// ErrLocked is returned when another interview already holds the work directory.
var ErrLocked = errors.New("another interview is already running")

// Root returns the base directory for all working files.
// The path is expanded at runtime to resolve to:
//
//	$HOME/Documents/Lifebooks
func Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "Lifebooks"), nil
}

// Paths are the resolved locations used by the CLI and server.
type Paths struct {
	Root     string
	Database string
	Exports  string
	Log      string
	Lock     string
}

// Resolve fills in paths, honoring overrides from cfg.
func Resolve(cfg *config.Config) (Paths, error) {
	root, err := Root()
	if err != nil {
		return Paths{}, err
	}

	return ResolveIn(root, cfg), nil
}

// ResolveIn is Resolve with an explicit root.
func ResolveIn(root string, cfg *config.Config) Paths {
	p := Paths{
		Root:     root,
		Database: filepath.Join(root, "lifebooks.db"),
		Exports:  filepath.Join(root, "exports"),
		Log:      filepath.Join(root, "lifebooks.log"),
		Lock:     filepath.Join(root, "interview.lock"),
	}
	if cfg != nil && cfg.DatabasePath != "" {
		p.Database = cfg.DatabasePath
	}
	if cfg != nil && cfg.ExportDir != "" {
		p.Exports = cfg.ExportDir
	}

	return p
}

// Prep ensures that every directory in p exists.
func Prep(p Paths) error {
	for _, dir := range []string{p.Root, p.Exports, filepath.Dir(p.Database)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create working directory %s: %w", dir, err)
		}
	}

	return nil
}

// Lock takes the interview lock so only one recording session runs per user.
// The returned function releases it.
func Lock(p Paths) (func() error, error) {
	lock := flock.New(p.Lock)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", p.Lock, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return lock.Unlock, nil
}
