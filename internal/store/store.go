// Package store keeps rio's local state: config.toml and the prefs database,
// both under the config dir.
package store

import (
	"errors"
	"os"
	"strings"
)

type Store struct {
	Dir string
}

// Open resolves the config dir (override first) and returns a Store on it.
func Open(override string) (Store, error) {
	if dir := strings.TrimSpace(override); dir != "" {
		return Store{Dir: dir}, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store: empty directory")
	}
	return os.MkdirAll(s.Dir, 0o755)
}
