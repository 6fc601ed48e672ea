package markdown

import (
	"strings"

	"github.com/opendocs-go/mdreader/ast"
	"github.com/opendocs-go/mdreader/internal/combinator"
)

// Cursor is the rune cursor used throughout this package, carrying a State.
type Cursor = combinator.Cursor[State]

// normalizeSpaces trims any leading/trailing ast.Space and collapses runs
// of adjacent ast.Space into one, per spec §3's normalizeSpaces invariant.
// It is idempotent.
func normalizeSpaces(inlines []ast.Inline) []ast.Inline {
	out := make([]ast.Inline, 0, len(inlines))
	for _, in := range inlines {
		if _, isSpace := in.(ast.Space); isSpace {
			if len(out) == 0 {
				continue
			}
			if _, prevSpace := out[len(out)-1].(ast.Space); prevSpace {
				continue
			}
		}
		out = append(out, in)
	}
	for len(out) > 0 {
		if _, isSpace := out[len(out)-1].(ast.Space); isSpace {
			out = out[:len(out)-1]
		} else {
			break
		}
	}
	return out
}

// lastIsPara reports whether blocks ends in a Para node, and returns it.
func lastIsPara(blocks []ast.Block) (ast.Para, bool) {
	if len(blocks) == 0 {
		return ast.Para{}, false
	}
	p, ok := blocks[len(blocks)-1].(ast.Para)
	return p, ok
}

// compactify converts each item's trailing Para into a Plain when the list
// is tight (as listIsTight decides: no blank line separated any two of its
// items and no item holds more than one block), so a tight list
// renders without paragraph wrapping. Block count and relative order within
// each item are preserved (spec §8 invariant 5); an item whose last block is
// not a Para is left untouched even in a tight list (e.g. an item ending in
// a nested list).
func compactify(items [][]ast.Block, tight bool) [][]ast.Block {
	if !tight {
		return items
	}
	out := make([][]ast.Block, len(items))
	for i, blocks := range items {
		p, ok := lastIsPara(blocks)
		if !ok {
			out[i] = blocks
			continue
		}
		cp := make([]ast.Block, len(blocks))
		copy(cp, blocks)
		cp[len(cp)-1] = ast.Plain{Inlines: p.Inlines}
		out[i] = cp
	}
	return out
}

// splitByIndices splits s at the given rune offsets (each the start column
// of the next piece), used by the table sub-parser to break a header/data
// line into cells (spec §4.F).
func splitByIndices(s string, indices []int) []string {
	runes := []rune(s)
	parts := make([]string, 0, len(indices)+1)
	prev := 0
	for _, idx := range indices {
		if idx > len(runes) {
			idx = len(runes)
		}
		if idx < prev {
			idx = prev
		}
		parts = append(parts, string(runes[prev:idx]))
		prev = idx
	}
	parts = append(parts, string(runes[prev:]))
	return parts
}

func joinWithSep(sep string, parts []string) string {
	return strings.Join(parts, sep)
}

// removeLeadingTrailingSpace trims leading/trailing spaces and tabs, but not
// newlines.
func removeLeadingTrailingSpace(s string) string {
	return strings.Trim(s, " \t")
}

func removeTrailingSpace(s string) string {
	return strings.TrimRight(s, " \t")
}

func stripTrailingNewlines(s string) string {
	return strings.TrimRight(s, "\n")
}

// charsInBalanced consumes a bracketed group starting with open at the
// cursor (which must be positioned on open) through its matching close,
// honoring nesting of the same bracket pair and backslash escapes, and
// returns the group's interior text (delimiters excluded).
func charsInBalanced(c *Cursor, open, close rune) (string, bool) {
	if c.Peek() != open {
		return "", false
	}
	c.Advance()
	var buf strings.Builder
	depth := 1
	for {
		r := c.Peek()
		if r == combinator.EOF {
			return "", false
		}
		if r == '\\' {
			buf.WriteRune(c.Advance())
			if c.Peek() != combinator.EOF {
				buf.WriteRune(c.Advance())
			}
			continue
		}
		if r == open {
			depth++
		} else if r == close {
			depth--
			if depth == 0 {
				c.Advance()
				return buf.String(), true
			}
		}
		buf.WriteRune(c.Advance())
	}
}

// anyLine consumes characters up to (not including) the next '\n' or EOF,
// always succeeding (possibly with an empty line). It does not consume the
// newline itself.
func anyLine(c *Cursor) (string, bool) {
	var buf strings.Builder
	for {
		r := c.Peek()
		if r == combinator.EOF || r == '\n' {
			return buf.String(), true
		}
		buf.WriteRune(c.Advance())
	}
}

// nonEndline matches any single rune other than '\n'.
func nonEndline(c *Cursor) (rune, bool) {
	return combinator.NoneOf[State]("\n")(c)
}

// blankline matches a line containing only spaces/tabs, followed by (and
// consuming) its newline. It also matches a final all-blank line at EOF
// with no trailing newline.
func blankline(c *Cursor) (struct{}, bool) {
	snap := *c
	for {
		r := c.Peek()
		if r == ' ' || r == '\t' {
			c.Advance()
			continue
		}
		break
	}
	switch c.Peek() {
	case '\n':
		c.Advance()
		return struct{}{}, true
	case combinator.EOF:
		return struct{}{}, true
	default:
		*c = snap
		return struct{}{}, false
	}
}

// blanklines matches one or more consecutive blank lines. It stops as soon
// as a match makes no further progress (the EOF sentinel blankline can
// match without consuming anything), so it terminates even when called
// repeatedly at end of input.
func blanklines(c *Cursor) (int, bool) {
	var n int
	for {
		before := c.Offset()
		if _, ok := blankline(c); !ok {
			break
		}
		n++
		if c.Offset() == before {
			break
		}
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}

// lookupKeySrc resolves a reference label against the key table installed
// in state after preprocessing (spec §6 "lookupKeySrc").
func lookupKeySrc(keys *KeyTable, label string) (ast.Target, bool) {
	return keys.Get(label)
}
