package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/keygraph/pkg/errors"
)

// =============================================================================
// Formats
// =============================================================================

// Serialization formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath infers the serialization format from a file extension.
// Unknown extensions default to JSON, the format the assistant replies in.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Reading
// =============================================================================

// ReadFile reads a dataset file, choosing the decoder by extension.
func ReadFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path))
}

// Read decodes a dataset from r in the given format.
func Read(r io.Reader, format string) (Dataset, error) {
	var ds Dataset
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&ds); err != nil {
			return Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json dataset")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&ds); err != nil && err != io.EOF {
			return Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml dataset")
		}
	default:
		return Dataset{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset format %q", format)
	}
	return ds, nil
}

// Unmarshal decodes a JSON dataset from memory.
func Unmarshal(data []byte) (Dataset, error) {
	return Read(bytes.NewReader(data), FormatJSON)
}

// =============================================================================
// Writing
// =============================================================================

// Write encodes ds to w in the given format.
func Write(ds Dataset, w io.Writer, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset format %q", format)
	}
	return nil
}

// WriteFile writes ds to path, choosing the encoder by extension.
func WriteFile(ds Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(ds, f, FormatFromPath(path))
}
