// Package storage reads firmware metadata from the SD card.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"beatbyte/hal"
)

const (
	// MountPoint is where the card appears in log output.
	MountPoint = "/sdcard"
	// VersionFile holds the firmware version on its first line.
	VersionFile = "version.txt"
	// MaxVersionLen is the longest version line kept.
	MaxVersionLen = 63
)

var (
	ErrNotMounted   = errors.New("sd card not mounted")
	ErrEmptyVersion = errors.New("version file is empty")
)

// Card is the SD card slot.
type Card struct {
	dev     hal.Storage
	log     *slog.Logger
	mounted bool
}

// NewCard wraps dev. The card is not mounted yet.
func NewCard(dev hal.Storage, log *slog.Logger) *Card {
	if log == nil {
		log = slog.Default()
	}
	return &Card{dev: dev, log: log.With("component", "sd")}
}

// Mount mounts the card filesystem. The card is read-only to the firmware
// and is never formatted.
func (c *Card) Mount() error {
	if c.dev == nil {
		return fmt.Errorf("mount %s: %w", MountPoint, hal.ErrNotImplemented)
	}
	if err := c.dev.Mount(); err != nil {
		return fmt.Errorf("mount %s: %w", MountPoint, err)
	}
	c.mounted = true
	c.log.Info("filesystem mounted", "path", MountPoint)
	return nil
}

// Mounted reports whether Mount succeeded.
func (c *Card) Mounted() bool { return c.mounted }

// Open opens name relative to the card root.
func (c *Card) Open(name string) (io.ReadCloser, error) {
	if !c.mounted {
		return nil, fmt.Errorf("open %s: %w", Path(name), ErrNotMounted)
	}
	f, err := c.dev.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", Path(name), err)
	}
	return f, nil
}

// ReadVersion returns the first line of VersionFile without its line
// ending, truncated to MaxVersionLen bytes.
func (c *Card) ReadVersion() (string, error) {
	f, err := c.Open(VersionFile)
	if err != nil {
		return "", err
	}
	defer f.Close()

	line, err := bufio.NewReader(io.LimitReader(f, MaxVersionLen)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", Path(VersionFile), err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("read %s: %w", Path(VersionFile), ErrEmptyVersion)
	}
	c.log.Info("firmware version", "version", line)
	return line, nil
}

// Path returns name as seen under MountPoint.
func Path(name string) string {
	return path.Join(MountPoint, name)
}

// FromFS exposes fsys as an always-present card.
func FromFS(fsys fs.FS) hal.Storage {
	return fsStorage{fsys: fsys}
}

type fsStorage struct {
	fsys fs.FS
}

func (s fsStorage) Mount() error {
	if s.fsys == nil {
		return errors.New("no filesystem")
	}
	return nil
}

func (s fsStorage) Open(name string) (io.ReadCloser, error) {
	return s.fsys.Open(strings.TrimPrefix(name, "/"))
}
