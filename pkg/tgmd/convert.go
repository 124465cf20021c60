// Package tgmd converts common markdown text into Telegram's MarkdownV2
// dialect. Constructs Telegram understands (bold, italic, underline,
// strikethrough, inline code, fenced blocks, links, headings) are kept;
// every other reserved character is escaped so the API accepts the text.
package tgmd

import "strings"

var escaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`~`, `\~`,
	"`", "\\`",
	`>`, `\>`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`=`, `\=`,
	`|`, `\|`,
	`{`, `\{`,
	`}`, `\}`,
	`.`, `\.`,
	`!`, `\!`,
)

func escape(s string) string { return escaper.Replace(s) }

// Convert rewrites markdown text as MarkdownV2.
//
// Fenced code blocks pass through untouched, line by line, including the
// fence markers themselves.
func Convert(text string) string {
	lines := strings.Split(text, "\n")
	var out strings.Builder
	inCodeBlock := false

	for i, line := range lines {
		if i > 0 {
			out.WriteByte('\n')
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			out.WriteString(line)
			continue
		}
		if inCodeBlock {
			out.WriteString(line)
			continue
		}

		out.WriteString(convertLine(line))
	}

	return out.String()
}

func convertLine(line string) string {
	// Headings become bold lines; Telegram has no heading construct.
	if rest, ok := headingText(line); ok {
		return "*" + escape(rest) + "*"
	}

	var out strings.Builder
	runes := []rune(line)
	n := len(runes)
	i := 0

	for i < n {
		// Inline code: ` ... ` passes through verbatim (no escaping inside).
		if runes[i] == '`' {
			if end := findClosing(runes, i+1, '`'); end > i+1 {
				out.WriteString(string(runes[i : end+1]))
				i = end + 1
				continue
			}
		}

		// Link: [text](url). Text is escaped, the URL stays raw.
		if runes[i] == '[' {
			if text, url, next, ok := parseLink(runes, i); ok {
				out.WriteByte('[')
				out.WriteString(escape(text))
				out.WriteString("](")
				out.WriteString(url)
				out.WriteByte(')')
				i = next
				continue
			}
		}

		// Bold: **text** becomes *text* (Telegram bold is a single asterisk).
		if i+1 < n && runes[i] == '*' && runes[i+1] == '*' {
			if end := findDoubleClosing(runes, i+2, '*'); end > i+2 {
				out.WriteByte('*')
				out.WriteString(escape(string(runes[i+2 : end])))
				out.WriteByte('*')
				i = end + 2
				continue
			}
		}

		// Underline: __text__ (Telegram keeps the double underscore).
		if i+1 < n && runes[i] == '_' && runes[i+1] == '_' {
			if end := findDoubleClosing(runes, i+2, '_'); end > i+2 {
				out.WriteString("__")
				out.WriteString(escape(string(runes[i+2 : end])))
				out.WriteString("__")
				i = end + 2
				continue
			}
		}

		// Strikethrough: ~~text~~ becomes ~text~.
		if i+1 < n && runes[i] == '~' && runes[i+1] == '~' {
			if end := findDoubleClosing(runes, i+2, '~'); end > i+2 {
				out.WriteByte('~')
				out.WriteString(escape(string(runes[i+2 : end])))
				out.WriteByte('~')
				i = end + 2
				continue
			}
		}

		// Emphasis with a single marker: *text* stays bold, _text_ italic.
		if runes[i] == '*' {
			if end := findClosing(runes, i+1, '*'); end > i+1 {
				out.WriteByte('*')
				out.WriteString(escape(string(runes[i+1 : end])))
				out.WriteByte('*')
				i = end + 1
				continue
			}
		}
		if runes[i] == '_' {
			if end := findClosing(runes, i+1, '_'); end > i+1 {
				out.WriteByte('_')
				out.WriteString(escape(string(runes[i+1 : end])))
				out.WriteByte('_')
				i = end + 1
				continue
			}
		}

		// Everything else: escape.
		out.WriteString(escape(string(runes[i])))
		i++
	}

	return out.String()
}

// headingText recognizes "# ..." through "###### ..." lines.
func headingText(line string) (string, bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || n >= len(line) || line[n] != ' ' {
		return "", false
	}
	return strings.TrimSpace(line[n+1:]), true
}

// parseLink matches [text](url) starting at the opening bracket.
func parseLink(runes []rune, start int) (text, url string, next int, ok bool) {
	closeBracket := findClosing(runes, start+1, ']')
	if closeBracket < 0 || closeBracket+1 >= len(runes) || runes[closeBracket+1] != '(' {
		return "", "", 0, false
	}
	closeParen := findClosing(runes, closeBracket+2, ')')
	if closeParen < 0 {
		return "", "", 0, false
	}
	return string(runes[start+1 : closeBracket]), string(runes[closeBracket+2 : closeParen]), closeParen + 1, true
}

// findClosing finds the index of the closing delimiter starting from start.
// Returns -1 if not found.
func findClosing(runes []rune, start int, delim rune) int {
	for i := start; i < len(runes); i++ {
		if runes[i] == delim {
			return i
		}
	}
	return -1
}

// findDoubleClosing finds the index of a double-character closing delimiter
// (e.g. ** or __) starting from start. Returns the index of the first
// character of the closing pair, or -1 if not found.
func findDoubleClosing(runes []rune, start int, delim rune) int {
	for i := start; i < len(runes)-1; i++ {
		if runes[i] == delim && runes[i+1] == delim {
			return i
		}
	}
	return -1
}
