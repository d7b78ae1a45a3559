package core

import (
	"errors"
	"fmt"
	"path/filepath"

	"pcswitch/logger"

	"github.com/spf13/afero"
)

// ErrBackupNotFound is returned by Restore when no snapshot exists.
var ErrBackupNotFound = errors.New("backup not found")

// Backup keeps a single snapshot of the proxychains config.
type Backup struct {
	fs         afero.Fs
	configPath string
	backupPath string
}

func NewBackup(fs afero.Fs, configPath, backupPath string) *Backup {
	return &Backup{fs: fs, configPath: configPath, backupPath: backupPath}
}

// Backup overwrites the snapshot with the current config.
func (b *Backup) Backup() error {
	dir := filepath.Dir(b.backupPath)
	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup folder %s: %w", dir, err)
	}
	if err := copyFile(b.fs, b.configPath, b.backupPath); err != nil {
		return fmt.Errorf("failed to backup config file: %w", err)
	}
	logger.Info("Backed up %s to %s", b.configPath, b.backupPath)
	return nil
}

// Restore copies the snapshot over the live config.
func (b *Backup) Restore() error {
	exists, err := afero.Exists(b.fs, b.backupPath)
	if err != nil {
		return fmt.Errorf("failed to stat backup %s: %w", b.backupPath, err)
	}
	if !exists {
		return ErrBackupNotFound
	}
	if err := copyFile(b.fs, b.backupPath, b.configPath); err != nil {
		return fmt.Errorf("failed to restore config file: %w", err)
	}
	logger.Info("Restored %s from %s", b.configPath, b.backupPath)
	return nil
}
