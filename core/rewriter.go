package core

import (
	"errors"
	"fmt"
	"strings"

	"pcswitch/logger"
	"pcswitch/models"

	"github.com/spf13/afero"
)

// ErrNoActiveDirective is returned when no supported-protocol line is
// uncommented in the proxychains config.
var ErrNoActiveDirective = errors.New("no active proxy directive in config")

// Rewriter edits the proxychains config line by line. It matches raw text
// only; it does not understand the proxychains format.
type Rewriter struct {
	fs   afero.Fs
	path string
}

func NewRewriter(fs afero.Fs, path string) *Rewriter {
	return &Rewriter{fs: fs, path: path}
}

func (r *Rewriter) Path() string {
	return r.path
}

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

func uncomment(line string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
}

// Enable uncomments every commented line that contains proxyLine as a
// substring. The match is containment, not equality: a comment that merely
// mentions proxyLine is uncommented too.
func (r *Rewriter) Enable(proxyLine string) error {
	doc, err := readDocument(r.fs, r.path)
	if err != nil {
		return err
	}
	changed := 0
	for i, line := range doc.lines {
		if isComment(line) && strings.Contains(line, proxyLine) {
			doc.lines[i] = uncomment(line)
			changed++
		}
	}
	logger.Debug("Enable %q: uncommented %d line(s) in %s", proxyLine, changed, r.path)
	return writeDocument(r.fs, r.path, doc)
}

// SuppressOthers comments out every active supported-protocol directive.
func (r *Rewriter) SuppressOthers() error {
	doc, err := readDocument(r.fs, r.path)
	if err != nil {
		return err
	}
	changed := 0
	for i, line := range doc.lines {
		if models.IsDirectiveLine(line) {
			doc.lines[i] = "# " + line
			changed++
		}
	}
	logger.Debug("SuppressOthers: commented %d directive(s) in %s", changed, r.path)
	return writeDocument(r.fs, r.path, doc)
}

// Append adds proxyLine at the end of the config, preceded by a blank line.
func (r *Rewriter) Append(proxyLine string) error {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	data = append(data, []byte("\n"+proxyLine+"\n")...)
	return writeFileAtomic(r.fs, r.path, data)
}

// Remove drops lines equal to proxyLine or to "# "+proxyLine and reports
// how many were removed.
func (r *Rewriter) Remove(proxyLine string) (int, error) {
	doc, err := readDocument(r.fs, r.path)
	if err != nil {
		return 0, err
	}
	commented := "# " + proxyLine
	kept := doc.lines[:0]
	removed := 0
	for _, line := range doc.lines {
		if line == proxyLine || line == commented {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	doc.lines = kept
	if err := writeDocument(r.fs, r.path, doc); err != nil {
		return 0, err
	}
	return removed, nil
}

// ActiveDirective returns the first uncommented supported-protocol line.
func (r *Rewriter) ActiveDirective() (models.Directive, error) {
	doc, err := readDocument(r.fs, r.path)
	if err != nil {
		return models.Directive{}, err
	}
	for _, line := range doc.lines {
		if models.IsDirectiveLine(line) {
			return models.ParseDirective(line)
		}
	}
	return models.Directive{}, ErrNoActiveDirective
}
