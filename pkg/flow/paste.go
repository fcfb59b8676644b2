package flow

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePaste converts tab/newline-delimited text (as copied from a
// spreadsheet) into rows. Columns are source, target, current value and
// previous value; missing trailing columns are zero. Blank lines are
// skipped. A first line whose value columns are not numeric is treated as a
// header. Unparsable numbers become zero rather than failing the import, so
// the rows stay editable and are later flagged by the balance checker.
func ParsePaste(text string) []Row {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var rows []Row
	first := true
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		for len(cols) < 4 {
			cols = append(cols, "")
		}
		cur, curOK := ParseNumber(cols[2])
		prev, prevOK := ParseNumber(cols[3])
		if first {
			first = false
			if isHeader(cols, curOK, prevOK) {
				continue
			}
		}
		rows = append(rows, NewRow(strings.TrimSpace(cols[0]), strings.TrimSpace(cols[1]), cur, prev))
	}
	return rows
}

func isHeader(cols []string, curOK, prevOK bool) bool {
	curText := strings.TrimSpace(cols[2]) != ""
	prevText := strings.TrimSpace(cols[3]) != ""
	return (curText && !curOK) || (prevText && !prevOK)
}

// ParseNumber parses a spreadsheet number. It accepts ordinary and
// non-breaking space grouping, an apostrophe grouping mark, and a comma as
// decimal separator when no dot is present ("1 234,5"). Empty input parses
// as zero with ok=true; garbage returns 0 and ok=false.
func ParseNumber(s string) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\'', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, true
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d.InexactFloat64(), true
	}
	switch {
	case strings.Contains(s, ",") && !strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// "1,234.5": comma is grouping.
		if strings.LastIndex(s, ",") < strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			// "1.234,5": dot is grouping.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
