package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowsankey/pkg/flow"
)

// WriteRows encodes rows in the given format and writes them to w.
// The output can be re-imported with [ReadRows].
func WriteRows(rows []flow.Row, w io.Writer, format Format) error {
	rows = flow.Sanitize(rows)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatTSV:
		var b strings.Builder
		b.WriteString("source\ttarget\tcurrentPeriod\tpreviousPeriod\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n",
				tsvField(r.Source), tsvField(r.Target),
				strconv.FormatFloat(r.CurrentPeriod, 'f', -1, 64),
				strconv.FormatFloat(r.PreviousPeriod, 'f', -1, 64))
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// tsvField strips characters that would split a TSV record.
func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(s)
}

// ExportRows writes rows to path, choosing the format from its extension.
func ExportRows(rows []flow.Row, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteRows(rows, f, format)
}
