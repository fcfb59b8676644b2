// Package io reads and writes flow rows as files.
//
// # Formats
//
// Three encodings are supported, chosen by file extension:
//
//   - .json: an array of rows, or an object with a "rows" array
//   - .yaml, .yml: a sequence of rows
//   - .tsv, .txt: tab-separated source, target, current, previous, one row
//     per line, with an optional header line
//
// A JSON row looks like:
//
//	{"id": "…", "source": "Выручка", "target": "Себестоимость",
//	 "currentPeriod": 380, "previousPeriod": 360}
//
// # Import
//
// Use [ImportRows] to read a file by path, or [ReadRows] to decode from any
// io.Reader in a given [Format]. Imported rows always carry an ID; rows
// without one are assigned a fresh UUID. Invalid rows (missing names,
// non-positive values) are kept as-is so they can be reported and fixed.
//
//	rows, err := io.ImportRows("statement.yaml")
//
// TSV input goes through [flow.ParsePaste], so files exported from a
// spreadsheet with grouped or comma-decimal numbers import unchanged.
//
// # Export
//
// Use [ExportRows] or [WriteRows]. Non-finite values are written as zero.
//
// [flow.ParsePaste]: github.com/matzehuels/flowsankey/pkg/flow.ParsePaste
package io
