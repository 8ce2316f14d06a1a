// Package source reads contract sources from a filesystem or standard input.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	domain "contractabi/internal/domain/errors/domain"
	"contractabi/internal/port/outbound"

	"github.com/spf13/afero"
)

// FileProvider implements outbound.SourceProvider on an afero filesystem.
type FileProvider struct {
	fs       afero.Fs
	stdin    io.Reader
	maxBytes int64
}

// NewFileProvider creates a FileProvider. maxBytes <= 0 disables the size limit.
func NewFileProvider(fs afero.Fs, stdin io.Reader, maxBytes int) *FileProvider {
	return &FileProvider{fs: fs, stdin: stdin, maxBytes: int64(maxBytes)}
}

// NewOSFileProvider creates a FileProvider over the host filesystem and os.Stdin.
func NewOSFileProvider(maxBytes int) *FileProvider {
	return NewFileProvider(afero.NewOsFs(), os.Stdin, maxBytes)
}

// Read loads a source file, or standard input for outbound.StdinSourceName.
func (p *FileProvider) Read(ctx context.Context, name string) (outbound.Source, error) {
	if err := ctx.Err(); err != nil {
		return outbound.Source{}, err
	}

	if name == outbound.StdinSourceName {
		text, err := p.readLimited(p.stdin)
		if err != nil {
			return outbound.Source{}, fmt.Errorf("read stdin: %w", err)
		}
		return outbound.Source{Name: "stdin", Text: text}, nil
	}

	info, err := p.fs.Stat(name)
	if err != nil {
		return outbound.Source{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return outbound.Source{}, fmt.Errorf("%s is a directory: %w", name, domain.ErrInvalidInput)
	}
	if p.maxBytes > 0 && info.Size() > p.maxBytes {
		return outbound.Source{}, fmt.Errorf("%s is %d bytes: %w", name, info.Size(), domain.ErrSourceTooLarge)
	}

	f, err := p.fs.Open(name)
	if err != nil {
		return outbound.Source{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	text, err := p.readLimited(f)
	if err != nil {
		return outbound.Source{}, fmt.Errorf("read %s: %w", name, err)
	}
	return outbound.Source{Name: name, Text: text}, nil
}

func (p *FileProvider) readLimited(r io.Reader) (string, error) {
	if r == nil {
		return "", domain.ErrEmptySource
	}
	if p.maxBytes <= 0 {
		data, err := io.ReadAll(r)
		return string(data), err
	}
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > p.maxBytes {
		return "", domain.ErrSourceTooLarge
	}
	return string(data), nil
}

// List walks root and returns the files whose base name matches pattern, sorted.
// A root that is itself a file is returned as the only match.
func (p *FileProvider) List(ctx context.Context, root, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	info, err := p.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var matches []string
	err = afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			if path != root && isHiddenOrBuildDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, info.Name()); ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(matches)
	return matches, nil
}

// isHiddenOrBuildDir skips VCS metadata and cargo build output.
func isHiddenOrBuildDir(name string) bool {
	return (len(name) > 1 && name[0] == '.') || name == "target"
}
