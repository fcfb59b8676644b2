package io

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

	"github.com/matzehuels/flowsankey/pkg/flow"
)

// Format is a row file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTSV  Format = "tsv"
)

// ErrUnknownFormat is returned when a file extension or format name is not
// recognized.
var ErrUnknownFormat = errors.New("unknown row file format")

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".tsv", ".txt":
		return FormatTSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

type document struct {
	Rows []flow.Row `json:"rows"`
}

// ReadRows decodes rows in the given format from r. ReadRows does not
// close r.
func ReadRows(r io.Reader, format Format) ([]flow.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var rows []flow.Row
	switch format {
	case FormatJSON:
		rows, err = decodeJSON(data)
	case FormatYAML:
		err = yaml.Unmarshal(data, &rows)
	case FormatTSV:
		rows = flow.ParsePaste(string(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return flow.EnsureIDs(rows), nil
}

func decodeJSON(data []byte) ([]flow.Row, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		return doc.Rows, nil
	}
	var rows []flow.Row
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ImportRows reads the row file at path, choosing the format from its
// extension.
func ImportRows(path string) ([]flow.Row, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRows(f, format)
}
