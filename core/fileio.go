package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// document is a text file held as lines. The trailing newline is tracked
// separately so a rewrite does not change it.
type document struct {
	lines           []string
	trailingNewline bool
}

func parseDocument(content string) document {
	if content == "" {
		return document{}
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	doc := document{trailingNewline: strings.HasSuffix(content, "\n")}
	doc.lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	return doc
}

func (d document) String() string {
	out := strings.Join(d.lines, "\n")
	if d.trailingNewline && len(d.lines) > 0 {
		out += "\n"
	}
	return out
}

func readDocument(fs afero.Fs, path string) (document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parseDocument(string(data)), nil
}

// maxLinkHops bounds symlink resolution so a loop fails instead of spinning.
const maxLinkHops = 40

// resolveLink follows symlinks at path on filesystems that expose them. A
// path that does not exist yet is returned unchanged.
func resolveLink(fs afero.Fs, path string) (string, error) {
	lstater, ok := fs.(afero.Lstater)
	if !ok {
		return path, nil
	}
	reader, _ := fs.(afero.LinkReader)

	for hop := 0; hop < maxLinkHops; hop++ {
		info, lstatCalled, err := lstater.LstatIfPossible(path)
		if err != nil {
			if os.IsNotExist(err) {
				return path, nil
			}
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !lstatCalled || info.Mode()&os.ModeSymlink == 0 || reader == nil {
			return path, nil
		}
		target, err := reader.ReadlinkIfPossible(path)
		if err != nil {
			return "", fmt.Errorf("failed to read link %s: %w", path, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = target
	}
	return "", fmt.Errorf("too many levels of symbolic links at %s", path)
}

// writeFileAtomic writes data to a temp file next to the file path points at
// and renames it into place. A symlinked path stays a symlink and the real
// target is replaced. The target's mode and, where the platform reports it,
// owner are kept when it already exists.
func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	target, err := resolveLink(fs, path)
	if err != nil {
		return err
	}

	perm := os.FileMode(0644)
	var existing os.FileInfo
	if info, err := fs.Stat(target); err == nil {
		existing = info
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(target)
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %s: %w", tmpName, err)
	}
	if err := fs.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", tmpName, err)
	}
	if existing != nil {
		if uid, gid, ok := fileOwner(existing); ok {
			if err := fs.Chown(tmpName, uid, gid); err != nil {
				return fmt.Errorf("failed to keep owner of %s: %w", target, err)
			}
		}
	}
	if err := fs.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	committed = true
	return nil
}

func writeDocument(fs afero.Fs, path string, doc document) error {
	return writeFileAtomic(fs, path, []byte(doc.String()))
}

// copyFile replaces dst with the contents of src.
func copyFile(fs afero.Fs, src, dst string) error {
	data, err := afero.ReadFile(fs, src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	return writeFileAtomic(fs, dst, data)
}
