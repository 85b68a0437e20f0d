//go:build !tinygo

package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BuildCard fills dst with a copy of src (if not empty) and writes version
// as VersionFile. dst is the directory the host serves as the SD card.
func BuildCard(src, dst, version string) error {
	if strings.ContainsAny(version, "\r\n") {
		return errors.New("version must be a single line")
	}
	if version == "" || len(version) > MaxVersionLen {
		return fmt.Errorf("version must be 1..%d bytes, got %d", MaxVersionLen, len(version))
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("create card dir %q: %w", dst, err)
	}
	if src != "" {
		if err := copyTree(filepath.Clean(src), dst); err != nil {
			return err
		}
	}
	path := filepath.Join(dst, VersionFile)
	if err := os.WriteFile(path, []byte(version+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

func copyTree(src, dst string) error {
	st, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat src %q: %w", src, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("src %q is not a directory", src)
	}

	var dirs, files []string
	walkErr := filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == src || entry.Type()&os.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		switch {
		case entry.IsDir():
			dirs = append(dirs, rel)
		case entry.Type().IsRegular():
			files = append(files, rel)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk src %q: %w", src, walkErr)
	}

	sort.Strings(dirs)
	sort.Strings(files)

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dst, d), 0o755); err != nil {
			return fmt.Errorf("mkdir %q: %w", d, err)
		}
	}
	for _, f := range files {
		if err := copyFile(filepath.Join(src, f), filepath.Join(dst, f)); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return fmt.Errorf("open %q: %w", from, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %q: %w", to, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %q: %w", from, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %q: %w", to, err)
	}
	return nil
}
