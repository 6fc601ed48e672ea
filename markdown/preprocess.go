package markdown

import (
	"strings"

	"github.com/opendocs-go/mdreader/ast"
	"github.com/opendocs-go/mdreader/internal/combinator"
)

// keyBlock is the ephemeral record produced by referenceKey (spec §3); it
// never reaches the AST.
type keyBlock struct {
	label  string
	target ast.Target
}

// noteBlock is the ephemeral record produced by the footnote preprocessing
// pass: an id and its raw, not-yet-reparsed body text.
type noteBlock struct {
	id   string
	body string
}

// referenceKey matches a reference-style link definition (spec §4.B):
// 0..tabStop-1 leading spaces, "[label]:", whitespace, an optional
// '<'-bracketed or bare URL, an optional title, then one or more blank
// lines (or EOF).
func referenceKey(c *Cursor) (keyBlock, bool) {
	snap := *c
	for i := 0; i < c.State.TabStop-1; i++ {
		if c.Peek() != ' ' {
			break
		}
		c.Advance()
	}
	if c.Peek() != '[' {
		*c = snap
		return keyBlock{}, false
	}
	label, ok := charsInBalanced(c, '[', ']')
	if !ok || c.Peek() != ':' {
		*c = snap
		return keyBlock{}, false
	}
	c.Advance()
	skipInlineSpace(c)
	var url string
	if c.Peek() == '<' {
		c.Advance()
		var buf strings.Builder
		for c.Peek() != '>' && c.Peek() != combinator.EOF && c.Peek() != '\n' {
			buf.WriteRune(c.Advance())
		}
		if c.Peek() != '>' {
			*c = snap
			return keyBlock{}, false
		}
		c.Advance()
		url = buf.String()
	} else {
		var buf strings.Builder
		for {
			r := c.Peek()
			if r == combinator.EOF || r == '\n' || r == ' ' || r == '\t' || r == '>' {
				break
			}
			buf.WriteRune(c.Advance())
		}
		url = buf.String()
	}
	if url == "" {
		*c = snap
		return keyBlock{}, false
	}
	title := optionalTitle(c)
	if c.Peek() != combinator.EOF {
		if _, ok := blanklines(c); !ok {
			*c = snap
			return keyBlock{}, false
		}
	}
	return keyBlock{label: label, target: ast.Target{URL: url, Title: title}}, true
}

// optionalTitle parses a link title: same-line whitespace (optionally
// folding across one newline), then a '"'-, '\''-, or '('-delimited title.
// It always succeeds, returning "" when no title is present.
func optionalTitle(c *Cursor) string {
	snap := *c
	skipInlineSpace(c)
	if c.Peek() == '\n' {
		save2 := *c
		c.Advance()
		skipInlineSpace(c)
		if c.Peek() != '"' && c.Peek() != '\'' && c.Peek() != '(' {
			*c = save2
		}
	}
	var open, close rune
	switch c.Peek() {
	case '"':
		open, close = '"', '"'
	case '\'':
		open, close = '\'', '\''
	case '(':
		open, close = '(', ')'
	default:
		*c = snap
		return ""
	}
	c.Advance()
	var buf strings.Builder
	for {
		r := c.Peek()
		if r == close {
			c.Advance()
			return buf.String()
		}
		if r == combinator.EOF || r == '\n' {
			*c = snap
			return ""
		}
		buf.WriteRune(c.Advance())
	}
}

func skipInlineSpace(c *Cursor) {
	for c.Peek() == ' ' || c.Peek() == '\t' {
		c.Advance()
	}
}

// noteDef matches a footnote definition: "[^id]:", then the remainder of
// the line, then any further lines indented by one tab stop (spec §4.B).
func noteDef(c *Cursor) (noteBlock, bool) {
	snap := *c
	for i := 0; i < c.State.TabStop-1; i++ {
		if c.Peek() != ' ' {
			break
		}
		c.Advance()
	}
	if c.Peek() != '[' || c.PeekAt(1) != '^' {
		*c = snap
		return noteBlock{}, false
	}
	c.Advance()
	c.Advance()
	var idBuf strings.Builder
	for c.Peek() != ']' && c.Peek() != combinator.EOF && c.Peek() != '\n' {
		idBuf.WriteRune(c.Advance())
	}
	if c.Peek() != ']' || c.PeekAt(1) != ':' {
		*c = snap
		return noteBlock{}, false
	}
	c.Advance()
	c.Advance()
	skipInlineSpace(c)
	first, _ := anyLine(c)
	if c.Peek() == '\n' {
		c.Advance()
	}
	var lines []string
	first = strings.TrimLeft(first, " \t")
	if first != "" {
		lines = append(lines, first)
	}
	for {
		save2 := *c
		if _, ok := blankline(c); ok {
			indent, ok := consumeIndent(c, c.State.TabStop)
			if !ok {
				*c = save2
				break
			}
			line, _ := anyLine(c)
			if c.Peek() == '\n' {
				c.Advance()
			}
			lines = append(lines, "")
			lines = append(lines, indent+line)
			continue
		}
		indent, ok := consumeIndent(c, c.State.TabStop)
		if !ok {
			break
		}
		line, _ := anyLine(c)
		if c.Peek() == '\n' {
			c.Advance()
		}
		_ = indent
		lines = append(lines, line)
	}
	return noteBlock{id: idBuf.String(), body: strings.Join(lines, "\n")}, true
}

// consumeIndent consumes exactly one tab stop's worth of leading
// indentation (n literal spaces, or a single tab), returning the
// de-indented remainder marker ("" — the indentation itself is discarded,
// not part of the body) and whether indentation of that width was present.
func consumeIndent(c *Cursor, tabStop int) (string, bool) {
	if c.Peek() == '\t' {
		c.Advance()
		return "", true
	}
	snap := *c
	for i := 0; i < tabStop; i++ {
		if c.Peek() != ' ' {
			*c = snap
			return "", false
		}
		c.Advance()
	}
	return "", true
}

// lineClump consumes a maximal run of non-blank lines followed by any
// number of blank lines (spec §4.B); it is the fallback when neither
// referenceKey nor noteDef matches at the cursor. It always succeeds unless
// already at EOF.
func lineClump(c *Cursor) (string, bool) {
	if c.AtEOF() {
		return "", false
	}
	var buf strings.Builder
	for {
		if c.AtEOF() {
			break
		}
		if peekBlank(c) {
			break
		}
		line, _ := anyLine(c)
		buf.WriteString(line)
		buf.WriteByte('\n')
		if c.Peek() == '\n' {
			c.Advance()
		}
	}
	for !c.AtEOF() && peekBlank(c) {
		line, _ := anyLine(c)
		buf.WriteString(line)
		buf.WriteByte('\n')
		if c.Peek() == '\n' {
			c.Advance()
		}
	}
	return buf.String(), true
}

// peekBlank reports whether the current line (from the cursor to the next
// newline or EOF) consists only of spaces/tabs, without consuming it.
func peekBlank(c *Cursor) bool {
	for n := 0; ; n++ {
		r := c.PeekAt(n)
		switch r {
		case ' ', '\t':
			continue
		case '\n', combinator.EOF:
			return true
		default:
			return false
		}
	}
}

// runPreprocessPass implements one of the first two preprocessing passes
// (spec §4.B): it repeatedly tries `try`, collecting matches, and falls
// back to consuming one line clump into the residual buffer otherwise.
func runPreprocessPass[T any](input string, state State, try combinator.Parser[State, T], onMatch func(T)) string {
	c := combinator.NewCursor(input, state)
	var residual strings.Builder
	for !c.AtEOF() {
		if v, ok := combinator.Try(try)(c); ok {
			onMatch(v)
			continue
		}
		clump, ok := lineClump(c)
		if !ok {
			break
		}
		residual.WriteString(clump)
	}
	return residual.String()
}

// preprocess runs the three preprocessing passes over source (spec §4.B):
// extracting reference keys, then footnote definitions, then handing the
// doubly-residual text to the caller for block parsing. Footnote bodies are
// parsed into blocks eagerly, right after pass 2, using the re-entry bridge
// (spec §9: "a note's body is parsed ... eagerly after pass 2").
func preprocess(source string, state State) (residual string, keys *KeyTable, notes *NoteTable) {
	keys = state.Keys
	pass1 := runPreprocessPass(source, state, referenceKey, func(kb keyBlock) {
		keys.Put(kb.label, kb.target)
	})

	notes = state.Notes
	var rawNotes []noteBlock
	pass2 := runPreprocessPass(pass1, state, noteDef, func(nb noteBlock) {
		rawNotes = append(rawNotes, nb)
	})
	for _, nb := range rawNotes {
		notes.Put(nb.id, reenterBlocks(state, nb.body))
	}

	return pass2, keys, notes
}
