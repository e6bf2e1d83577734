// Package render turns the assistant's answer markup into terminal output.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
)

const (
	openTag  = "<tabledata>"
	closeTag = "</tabledata>"
)

// Answer expands every tabledata block in an assistant answer into an
// aligned text table. Blocks that fail to parse are kept verbatim so the
// user still sees the raw data.
func Answer(text string) string {
	var b strings.Builder
	rest := text
	for {
		start := strings.Index(rest, openTag)
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], closeTag)
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start

		b.WriteString(rest[:start])
		payload := rest[start+len(openTag) : end]
		table, err := renderTable(payload)
		if err != nil {
			b.WriteString(rest[start : end+len(closeTag)])
		} else {
			b.WriteString(table)
		}
		rest = rest[end+len(closeTag):]
	}
	return b.String()
}

// renderTable converts a JSON array of flat objects into an aligned table.
// Column order follows key order of the first row's sorted keys.
func renderTable(payload string) (string, error) {
	var rows []map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &rows); err != nil {
		return "", fmt.Errorf("parse tabledata: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("parse tabledata: empty array")
	}

	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	var out strings.Builder
	out.WriteString("\n")
	w := tabwriter.NewWriter(&out, 0, 4, 2, ' ', 0)

	header := make([]string, len(cols))
	rule := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c
		rule[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	fmt.Fprintln(w, strings.Join(rule, "\t"))

	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatValue(row[c])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	out.WriteString("\n")
	return out.String(), nil
}

func formatValue(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case float64:
		if vv == float64(int64(vv)) {
			return fmt.Sprintf("%d", int64(vv))
		}
		return fmt.Sprintf("%.2f", vv)
	case string:
		return vv
	default:
		return fmt.Sprint(v)
	}
}
