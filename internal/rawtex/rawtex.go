// Package rawtex concretizes the raw-LaTeX-recognition collaborator the
// Markdown reader's external-interface section asks for (spec §6):
// RawLaTeXInline and RawLaTeXEnvironment. No LaTeX-aware library exists
// anywhere in the retrieved example pack, so this package implements the
// same technique the teacher's text() parser already uses for citation
// brackets — counting balanced delimiters — generalized from '[]'/'()' to
// '{}'/'[]' around a control sequence or a \begin{env}...\end{env}
// environment.
package rawtex

import "strings"

// isLetter reports whether r belongs to a LaTeX control word (a run of
// ASCII letters following the backslash).
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// scanBalanced scans a single {...} or [...] group starting at input[0],
// returning the full group text (delimiters included) and how much of input
// it consumed. It understands nested groups of the same bracket kind.
func scanBalanced(input string, open, close byte) (string, int, bool) {
	if len(input) == 0 || input[0] != open {
		return "", 0, false
	}
	depth := 0
	for i := 0; i < len(input); i++ {
		switch input[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return input[:i+1], i + 1, true
			}
		}
	}
	return "", 0, false
}

// RawLaTeXInline recognizes a single LaTeX inline command: a backslash, a
// control word (one or more letters — a lone backslash followed by a
// non-letter is an escaped character, spec §4.E's escapedChar production,
// not raw TeX), and any immediately following sequence of balanced [...]
// and {...} argument groups.
func RawLaTeXInline(input string) (consumed string, ok bool) {
	if len(input) == 0 || input[0] != '\\' {
		return "", false
	}
	i := 1
	if i >= len(input) || !isLetter(rune(input[i])) {
		return "", false
	}
	for i < len(input) && isLetter(rune(input[i])) {
		i++
	}
	for i < len(input) && (input[i] == '{' || input[i] == '[') {
		var close byte = '}'
		if input[i] == '[' {
			close = ']'
		}
		_, n, ok := scanBalanced(input[i:], input[i], close)
		if !ok {
			break
		}
		i += n
	}
	return input[:i], true
}

// RawLaTeXEnvironment recognizes a \begin{name}...\end{name} environment,
// including nested environments of the same or different names.
func RawLaTeXEnvironment(input string) (consumed string, ok bool) {
	const beginTok = `\begin{`
	if !strings.HasPrefix(input, beginTok) {
		return "", false
	}
	nameEnd := strings.IndexByte(input[len(beginTok):], '}')
	if nameEnd < 0 {
		return "", false
	}
	name := input[len(beginTok) : len(beginTok)+nameEnd]
	begin := beginTok + name + "}"
	end := `\end{` + name + "}"
	pos := len(begin)
	depth := 1
	for depth > 0 {
		nextBegin := strings.Index(input[pos:], begin)
		nextEnd := strings.Index(input[pos:], end)
		switch {
		case nextEnd < 0:
			return "", false
		case nextBegin >= 0 && nextBegin < nextEnd:
			pos += nextBegin + len(begin)
			depth++
		default:
			pos += nextEnd + len(end)
			depth--
		}
	}
	return input[:pos], true
}
