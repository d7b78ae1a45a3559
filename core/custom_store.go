package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pcswitch/logger"

	"github.com/spf13/afero"
)

var (
	// ErrNoCustomProxies means the custom list file does not exist yet.
	ErrNoCustomProxies = errors.New("no custom proxies found")
	// ErrInvalidSelection is returned for an index outside 1..len(list).
	ErrInvalidSelection = errors.New("invalid selection")
)

// Store keeps user-added proxy directives in a line-delimited file and
// mirrors additions and deletions into the proxychains config.
type Store struct {
	fs       afero.Fs
	listPath string
	config   *Rewriter
}

func NewStore(fs afero.Fs, listPath string, config *Rewriter) *Store {
	return &Store{fs: fs, listPath: listPath, config: config}
}

// Add appends proxyLine to the config and to the custom list. Duplicates are
// allowed.
func (s *Store) Add(proxyLine string) error {
	if err := s.config.Append(proxyLine); err != nil {
		return fmt.Errorf("failed to add proxy to config: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.listPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", s.listPath, err)
	}
	doc, err := readDocument(s.fs, s.listPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to add proxy to custom list: %w", err)
	}
	doc.lines = append(doc.lines, proxyLine)
	doc.trailingNewline = true
	if err := writeDocument(s.fs, s.listPath, doc); err != nil {
		return fmt.Errorf("failed to add proxy to custom list: %w", err)
	}
	logger.Info("Custom proxy added: %q (list now has %d entries)", proxyLine, len(doc.lines))
	return nil
}

// List returns the stored directives in insertion order.
func (s *Store) List() ([]string, error) {
	doc, err := readDocument(s.fs, s.listPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCustomProxies
		}
		return nil, err
	}
	return doc.lines, nil
}

// Render writes the list as "<n>: <directive>" lines, numbered from 1.
func (s *Store) Render(w io.Writer) error {
	proxies, err := s.List()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "[+] Custom proxies:")
	for i, p := range proxies {
		fmt.Fprintf(w, "%d: %s\n", i+1, p)
	}
	return nil
}

// Get returns the entry at the 1-based index.
func (s *Store) Get(index int) (string, error) {
	proxies, err := s.List()
	if err != nil {
		return "", err
	}
	if index < 1 || index > len(proxies) {
		return "", fmt.Errorf("%w: %d (have %d entries)", ErrInvalidSelection, index, len(proxies))
	}
	return proxies[index-1], nil
}

// Select makes the entry at index the only active directive in the config.
func (s *Store) Select(index int) (string, error) {
	proxy, err := s.Get(index)
	if err != nil {
		return "", err
	}
	if err := s.config.SuppressOthers(); err != nil {
		return "", err
	}
	if err := s.config.Enable(proxy); err != nil {
		return "", err
	}
	logger.Info("Switched to custom proxy #%d: %q", index, proxy)
	return proxy, nil
}

// Delete removes the entry at index from the list, along with every other
// entry equal to it, and strips it from the config whether commented or not.
// The two files are not updated atomically as a pair.
func (s *Store) Delete(index int) (string, error) {
	proxy, err := s.Get(index)
	if err != nil {
		return "", err
	}

	doc, err := readDocument(s.fs, s.listPath)
	if err != nil {
		return "", err
	}
	remaining := make([]string, 0, len(doc.lines))
	for _, p := range doc.lines {
		if p != proxy {
			remaining = append(remaining, p)
		}
	}
	doc.lines = remaining
	doc.trailingNewline = len(remaining) > 0
	if err := writeDocument(s.fs, s.listPath, doc); err != nil {
		return "", fmt.Errorf("failed to update custom list: %w", err)
	}

	removed, err := s.config.Remove(proxy)
	if err != nil {
		return "", fmt.Errorf("failed to update config file: %w", err)
	}
	logger.Info("Custom proxy deleted: %q (%d config line(s) removed)", proxy, removed)
	return proxy, nil
}
