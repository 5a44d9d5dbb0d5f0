// Package csvparse reads the spreadsheet CSV exports used as card sources.
//
// The scanner is deliberately lenient: it never fails, an unterminated quote
// simply runs to the end of the input, and CR, LF and CRLF all end a row.
package csvparse

import "strings"

// Parse splits text into rows of fields.
func Parse(text string) [][]string {
	var (
		out   [][]string
		row   []string
		field strings.Builder
		inQ   bool
	)

	pushField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	pushRow := func() {
		out = append(out, row)
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQ {
			if c != '"' {
				field.WriteByte(c)
				continue
			}
			if i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			inQ = false
			continue
		}

		switch c {
		case '"':
			inQ = true
		case ',':
			pushField()
		case '\n', '\r':
			pushField()
			pushRow()
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		default:
			field.WriteByte(c)
		}
	}

	if field.Len() > 0 || len(row) > 0 {
		pushField()
		pushRow()
	}
	return out
}

// Format serializes rows back to CSV, quoting fields that need it.
// Every row, including the last, ends with a newline.
func Format(rows [][]string) string {
	var sb strings.Builder
	for _, r := range rows {
		for i, f := range r {
			if i > 0 {
				sb.WriteByte(',')
			}
			if strings.ContainsAny(f, ",\"\r\n") {
				sb.WriteByte('"')
				sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
				sb.WriteByte('"')
				continue
			}
			sb.WriteString(f)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
