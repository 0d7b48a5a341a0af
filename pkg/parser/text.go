package parser

import (
	"html"
	"strings"
)

// normalizeJSXText applies JSX whitespace rules: lines are trimmed, blank
// lines dropped, and the remaining lines joined by single spaces. Whitespace
// inside a single line is kept.
func normalizeJSXText(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\t", " "), "\n")

	lastNonEmpty := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lastNonEmpty = i
		}
	}

	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			line = strings.TrimLeft(line, " \r")
		}
		if i < len(lines)-1 {
			line = strings.TrimRight(line, " \r")
		}
		if line == "" {
			continue
		}
		sb.WriteString(line)
		if i != lastNonEmpty {
			sb.WriteByte(' ')
		}
	}
	return html.UnescapeString(sb.String())
}

// blockBody returns the statements of a "{ ... }" block, without the braces,
// with surrounding blank lines removed and common indentation stripped.
func blockBody(block string) string {
	block = strings.TrimSpace(block)
	block = strings.TrimPrefix(block, "{")
	block = strings.TrimSuffix(block, "}")
	return dedent(block)
}

// dedent strips leading and trailing blank lines and the longest common
// indentation prefix.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}

	for i, line := range lines {
		lines[i] = strings.TrimRight(strings.TrimPrefix(line, prefix), " \t\r")
	}
	return strings.Join(lines, "\n")
}
