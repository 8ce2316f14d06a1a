// Package sink writes ABI lists as JSON or YAML documents.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"contractabi/internal/application/dto"
	"contractabi/internal/port/outbound"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode renders functions in the given format. The list always encodes as an
// array, so an empty ABI is written as [] rather than null.
func Encode(functions []dto.FunctionDTO, format string, pretty bool) ([]byte, error) {
	functions = slices.Clone(functions)
	if functions == nil {
		functions = []dto.FunctionDTO{}
	}
	for i := range functions {
		if functions[i].Params == nil {
			functions[i].Params = []dto.ParamDTO{}
		}
	}

	switch strings.ToLower(format) {
	case FormatJSON, "":
		var (
			data []byte
			err  error
		)
		if pretty {
			data, err = json.MarshalIndent(functions, "", "  ")
		} else {
			data, err = json.Marshal(functions)
		}
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML, "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(functions); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriterSink writes to an io.Writer such as standard output.
type WriterSink struct {
	w      io.Writer
	format string
	pretty bool
}

// NewWriterSink creates a WriterSink.
func NewWriterSink(w io.Writer, format string, pretty bool) *WriterSink {
	return &WriterSink{w: w, format: format, pretty: pretty}
}

// WriteABI implements outbound.ABISink.
func (s *WriterSink) WriteABI(ctx context.Context, functions []dto.FunctionDTO) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(functions, s.format, s.pretty)
	if err != nil {
		return err
	}
	_, err = s.w.Write(data)
	return err
}

// FileSink replaces a file with each ABI it writes.
type FileSink struct {
	fs     afero.Fs
	path   string
	format string
	pretty bool
}

// NewFileSink creates a FileSink.
func NewFileSink(fs afero.Fs, path, format string, pretty bool) *FileSink {
	return &FileSink{fs: fs, path: path, format: format, pretty: pretty}
}

// WriteABI implements outbound.ABISink. The document is written to a temporary
// file in the same directory and renamed over the target.
func (s *FileSink) WriteABI(ctx context.Context, functions []dto.FunctionDTO) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(functions, s.format, s.pretty)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", s.path, err)
	}
	return nil
}

// Factory implements outbound.ABISinkFactory.
type Factory struct {
	fs     afero.Fs
	stdout io.Writer
	format string
	pretty bool
}

// NewFactory creates a Factory that writes files on fs and "-" to stdout.
func NewFactory(fs afero.Fs, stdout io.Writer, format string, pretty bool) *Factory {
	return &Factory{fs: fs, stdout: stdout, format: format, pretty: pretty}
}

// NewOSFactory creates a Factory over the host filesystem and os.Stdout.
func NewOSFactory(format string, pretty bool) *Factory {
	return NewFactory(afero.NewOsFs(), os.Stdout, format, pretty)
}

// Open returns the sink for destination.
func (f *Factory) Open(destination string) (outbound.ABISink, error) {
	if _, err := Encode(nil, f.format, false); err != nil {
		return nil, err
	}
	if destination == "" || destination == outbound.StdinSourceName {
		return NewWriterSink(f.stdout, f.format, f.pretty), nil
	}
	return NewFileSink(f.fs, destination, f.format, f.pretty), nil
}

// Extension returns the file extension for the factory's format.
func (f *Factory) Extension() string {
	if strings.EqualFold(f.format, FormatYAML) || strings.EqualFold(f.format, "yml") {
		return ".abi.yaml"
	}
	return ".abi.json"
}
