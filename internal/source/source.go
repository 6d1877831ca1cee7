package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/prereq/internal/ir"
)

// Format names an input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// Stdin is the path that reads records from standard input.
const Stdin = "-"

// ParseFormat validates a user-supplied format name. The empty string is
// returned as-is and means "detect from the file extension".
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "", FormatJSON, FormatYAML, FormatCUE:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported input format %q (want json, yaml or cue)", name),
		}
	}
}

// DetectFormat picks a format from the file extension. Standard input and
// unknown extensions default to JSON, the format the tool was built around.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue":
		return FormatCUE
	default:
		return FormatJSON
	}
}

// LoadFile reads records from path, or from standard input when path is "-".
// An empty format is detected from the extension.
func LoadFile(path string, format Format) ([]ir.Record, error) {
	if format == "" {
		format = DetectFormat(path)
	}

	if path == Stdin {
		return Parse(os.Stdin, format, "<stdin>")
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, &LoadError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("%s is not a valid existing file.", path),
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error(), Path: path}
	}
	defer f.Close()

	return Parse(f, format, path)
}

// Parse decodes records from r. name labels the input in error messages and
// CUE positions.
func Parse(r io.Reader, format Format, name string) ([]ir.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error(), Path: name}
	}

	var records []ir.Record
	switch format {
	case FormatJSON:
		records, err = parseJSON(data, name)
	case FormatYAML:
		records, err = parseYAML(data, name)
	case FormatCUE:
		records, err = parseCUE(data, name)
	default:
		return nil, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported input format %q", format),
			Path:    name,
		}
	}
	if err != nil {
		return nil, err
	}

	return ir.NormalizeRecords(records), nil
}

func parseJSON(data []byte, name string) ([]ir.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var records []ir.Record
	if err := dec.Decode(&records); err != nil {
		return nil, jsonError(err, name)
	}
	if dec.More() {
		return nil, &LoadError{
			Code:    ErrCodeParseFailed,
			Message: "unexpected data after the record list",
			Path:    name,
		}
	}
	if records == nil && !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return nil, &LoadError{
			Code:    ErrCodeSchema,
			Message: "expected a list of records",
			Path:    name,
		}
	}
	return records, nil
}

func jsonError(err error, name string) *LoadError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return &LoadError{
			Code:    ErrCodeParseFailed,
			Message: fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, err),
			Path:    name,
		}
	case errors.As(err, &typeErr):
		return &LoadError{
			Code:    ErrCodeSchema,
			Message: fmt.Sprintf("expected a list of records: %v", err),
			Path:    name,
		}
	case errors.Is(err, io.EOF):
		return &LoadError{Code: ErrCodeParseFailed, Message: "empty input", Path: name}
	case strings.Contains(err.Error(), "unknown field"):
		return &LoadError{Code: ErrCodeSchema, Message: err.Error(), Path: name}
	default:
		return &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), Path: name}
	}
}

func parseYAML(data []byte, name string) ([]ir.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: "empty input", Path: name}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var records []ir.Record
	if err := dec.Decode(&records); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return nil, &LoadError{
				Code:    ErrCodeSchema,
				Message: strings.Join(typeErr.Errors, "; "),
				Path:    name,
			}
		}
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), Path: name}
	}
	return records, nil
}
