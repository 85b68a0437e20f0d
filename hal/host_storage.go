//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// hostStorage serves a directory as the SD card.
type hostStorage struct {
	root    string
	mounted bool
}

func (s *hostStorage) Mount() error {
	if s.root == "" {
		return fmt.Errorf("sd: no card (storage root not set)")
	}
	fi, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("sd: mount %q: %w", s.root, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("sd: mount %q: not a directory", s.root)
	}
	s.mounted = true
	return nil
}

func (s *hostStorage) Open(name string) (io.ReadCloser, error) {
	if !s.mounted {
		return nil, fmt.Errorf("sd: open %q: not mounted", name)
	}
	return os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
}
