// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package csvline splits single lines of broker statement text into fields.
//
// Statement exports are not strictly RFC 4180: quoted fields are sometimes left
// unterminated, and each line must be tokenized on its own so that one broken
// row cannot swallow the rest of the document. Split never fails. An unmatched
// quote keeps the tokenizer in quoted mode until the end of the line.
package csvline

import (
	"strings"
)

// Split returns the comma-separated fields of line, each trimmed of surrounding
// whitespace.
//
// A field may be wrapped in double quotes, in which case commas inside it are
// literal and a doubled quote ("") stands for one quote character.
func Split(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	var fields []string
	var field strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes && c == '"':
			if i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			inQuotes = false
		case inQuotes:
			field.WriteByte(c)
		case c == '"':
			inQuotes = true
		case c == ',':
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	return append(fields, strings.TrimSpace(field.String()))
}

// Lines splits text into lines, accepting both \n and \r\n endings.
func Lines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// IsBlank reports whether the line has no content other than whitespace and commas.
func IsBlank(line string) bool {
	return strings.TrimSpace(strings.ReplaceAll(line, ",", "")) == ""
}
