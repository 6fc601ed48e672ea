package markdown

import (
	"strings"

	"github.com/opendocs-go/mdreader/ast"
	"github.com/opendocs-go/mdreader/internal/charref"
	"github.com/opendocs-go/mdreader/internal/combinator"
	"github.com/opendocs-go/mdreader/internal/frontmatter"
)

// parseTitleBlock recognizes an optional leading title block (spec §4.G,
// expanded by SPEC_FULL.md §3.1, §4.G): either the classic '%'-prefixed
// title/author/date lines, or a YAML metadata block. It returns the
// decoded Meta and the remainder of the source following the title block.
// A single '%' line is not a title unless it is non-empty and the parser
// is not in strict mode (spec §8 boundary case).
func parseTitleBlock(source string, state State) (ast.Meta, string) {
	if meta, rest, ok := parsePercentTitle(source, state); ok {
		return meta, rest
	}
	if body, rest, ok := frontmatter.Split(source); ok {
		if decoded, ok := frontmatter.Decode(body); ok {
			return ast.Meta{
				Title:   reenterInlines(state, decoded.Title),
				Authors: decodeAuthors(decoded.Authors),
				Date:    charref.Decode(decoded.Date),
			}, rest
		}
	}
	return ast.Meta{}, source
}

func decodeAuthors(authors []string) []string {
	out := make([]string, len(authors))
	for i, a := range authors {
		out[i] = charref.Decode(a)
	}
	return out
}

// parsePercentTitle matches Pandoc's original title block: one or more
// '%'-prefixed lines (title, then optionally authors, then optionally a
// date), each continued by indented following lines, terminated by a blank
// line.
func parsePercentTitle(source string, state State) (ast.Meta, string, bool) {
	if state.Strict {
		return ast.Meta{}, source, false
	}
	c := combinator.NewCursor(source, state)
	var titleLine, authorLine, dateLine string
	var haveTitle, haveAuthor, haveDate bool

	readPercentLine := func() (string, bool) {
		if c.Peek() != '%' {
			return "", false
		}
		c.Advance()
		skipInlineSpace(c)
		line, _ := anyLine(c)
		if c.Peek() == '\n' {
			c.Advance()
		}
		var cont []string
		for c.Peek() == ' ' || c.Peek() == '\t' {
			skipInlineSpace(c)
			more, _ := anyLine(c)
			if c.Peek() == '\n' {
				c.Advance()
			}
			cont = append(cont, strings.TrimSpace(more))
		}
		if len(cont) > 0 {
			line = strings.TrimSpace(line) + " " + strings.Join(cont, " ")
		}
		return line, true
	}

	if line, ok := readPercentLine(); ok {
		titleLine, haveTitle = line, true
	} else {
		return ast.Meta{}, source, false
	}
	if !haveTitle || strings.TrimSpace(titleLine) == "" {
		return ast.Meta{}, source, false
	}
	if line, ok := readPercentLine(); ok {
		authorLine, haveAuthor = line, true
	}
	if haveAuthor {
		if line, ok := readPercentLine(); ok {
			dateLine, haveDate = line, true
		}
	}
	if _, ok := blanklines(c); !ok && !c.AtEOF() {
		return ast.Meta{}, source, false
	}

	meta := ast.Meta{Title: reenterInlines(state, titleLine)}
	if haveAuthor {
		for _, a := range strings.Split(authorLine, ";") {
			a = strings.TrimSpace(a)
			if a != "" {
				meta.Authors = append(meta.Authors, charref.Decode(a))
			}
		}
	}
	if haveDate {
		meta.Date = charref.Decode(strings.TrimSpace(dateLine))
	}
	return meta, c.Rest(), true
}
