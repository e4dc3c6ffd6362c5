// Package reporting builds CSV reports of neurons and account transactions.
package reporting

import (
	"fmt"
	"strings"
)

// CsvHeader maps a row key (Id) to the column title written in the file (Label).
type CsvHeader struct {
	Id    string
	Label string
}

// formulaPrefixes are leading characters spreadsheets interpret as a formula.
const formulaPrefixes = "=+@|"

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// EscapeCsvValue quotes a single field. Embedded double quotes are doubled and
// values that would be read as a formula are prefixed with a single quote.
func EscapeCsvValue(value any) string {
	s := stringify(value)
	if s != "" && strings.ContainsRune(formulaPrefixes, rune(s[0])) {
		s = "'" + s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func joinRow(values []string) string {
	return strings.Join(values, ",")
}

// ConvertToCsv renders the header row followed by one row per entry in data.
// Rows are separated by "\n" and there is no trailing newline. Missing keys
// render as empty fields. Without headers the result is empty.
func ConvertToCsv(data []map[string]any, headers []CsvHeader) string {
	if len(headers) == 0 {
		return ""
	}
	rows := make([]string, 0, len(data)+1)

	labels := make([]string, 0, len(headers))
	for _, h := range headers {
		labels = append(labels, EscapeCsvValue(h.Label))
	}
	rows = append(rows, joinRow(labels))

	for _, entry := range data {
		values := make([]string, 0, len(headers))
		for _, h := range headers {
			values = append(values, EscapeCsvValue(entry[h.Id]))
		}
		rows = append(rows, joinRow(values))
	}
	return strings.Join(rows, "\n")
}
