// Package stamp writes a release version into a static file by replacing a
// literal placeholder token. Content is treated as opaque bytes: nothing is
// parsed or decoded, and every byte outside a replaced token is preserved.
package stamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/jmgilman/uiversion/internal/slogger"
)

// Default target and token used when nothing else is configured.
const (
	DefaultFile        = "data/index.html"
	DefaultPlaceholder = "UI_VERSION_PLACEHOLDER"
)

// ErrEmptyPlaceholder is returned when the placeholder token is empty.
var ErrEmptyPlaceholder = errors.New("placeholder must not be empty")

// Result describes the outcome of stamping a single file.
type Result struct {
	Path         string
	Version      string
	Replacements int
	Changed      bool
}

// Stamper replaces placeholders in files on a filesystem.
type Stamper struct {
	fs afero.Fs
}

// New creates a Stamper over the given filesystem.
// If fs is nil, the OS filesystem is used.
func New(fs afero.Fs) *Stamper {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Stamper{fs: fs}
}

// Replace substitutes every occurrence of placeholder in content with version
// and reports how many occurrences were found. The input slice is not modified.
func Replace(content []byte, placeholder, version string) ([]byte, int) {
	if placeholder == "" {
		return content, 0
	}

	old := []byte(placeholder)
	n := bytes.Count(content, old)
	if n == 0 {
		return content, 0
	}
	return bytes.ReplaceAll(content, old, []byte(version)), n
}

// Stamp rewrites path in place with all placeholders replaced by version.
// The file is always written back, even when no placeholder was found.
func (s *Stamper) Stamp(ctx context.Context, path, placeholder, version string) (*Result, error) {
	if placeholder == "" {
		return nil, ErrEmptyPlaceholder
	}

	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	content, result, err := s.render(path, placeholder, version)
	if err != nil {
		return nil, err
	}

	if err := afero.WriteFile(s.fs, path, content, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	logResult(ctx, result)
	return result, nil
}

// Preview renders the stamped content of path to w without modifying the file.
func (s *Stamper) Preview(ctx context.Context, path, placeholder, version string, w io.Writer) (*Result, error) {
	if placeholder == "" {
		return nil, ErrEmptyPlaceholder
	}

	content, result, err := s.render(path, placeholder, version)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(content); err != nil {
		return nil, fmt.Errorf("write preview: %w", err)
	}

	slogger.L(ctx).Debug("rendered preview", "path", path, "replacements", result.Replacements)
	return result, nil
}

func (s *Stamper) render(path, placeholder, version string) ([]byte, *Result, error) {
	original, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	content, n := Replace(original, placeholder, version)

	return content, &Result{
		Path:         path,
		Version:      version,
		Replacements: n,
		Changed:      !bytes.Equal(original, content),
	}, nil
}

func logResult(ctx context.Context, r *Result) {
	logger := slogger.L(ctx)
	if r.Replacements == 0 {
		logger.Info("placeholder not found", "path", r.Path)
		return
	}
	logger.Info("stamped file", "path", r.Path, "version", r.Version, "replacements", r.Replacements)
}
