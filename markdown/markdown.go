// Package markdown implements a Pandoc-style Markdown-to-AST reader: a
// backtracking, context-sensitive recursive-descent parser built on the
// generic combinator engine in internal/combinator. ReadMarkdown is the sole
// entry point; every other declaration in this package is an implementation
// detail of the parse.
package markdown

import (
	"github.com/opendocs-go/mdreader/ast"
	"github.com/opendocs-go/mdreader/internal/combinator"
)

// ReadMarkdown parses source into a Pandoc document (spec §2, §6.1). It
// first recognizes an optional title block (a classic '%'-prefixed Pandoc
// title, or a YAML front-matter block), runs the three preprocessing passes
// that extract reference-link and footnote definitions, and then parses the
// remaining text as a block sequence.
//
// ReadMarkdown never fails: every construct it does not recognize as a more
// specific block degrades to a paragraph or is passed through as raw text.
// The error return exists for API symmetry with the YAML front-matter
// decode path (internal/frontmatter) and is always nil today (see
// DESIGN.md).
func ReadMarkdown(opts Options, source string) (*ast.Pandoc, error) {
	state := newState(opts)
	meta, rest := parseTitleBlock(source, state)
	residual, keys, notes := preprocess(rest, state)
	state.Keys = keys
	state.Notes = notes
	c := combinator.NewCursor(residual+"\n\n", state)
	blocks, _ := blockSequence(c)
	return &ast.Pandoc{Meta: meta, Blocks: blocks}, nil
}

// MustReadMarkdown is ReadMarkdown but panics instead of returning a non-nil
// error, mirroring the teacher's MustParse.
func MustReadMarkdown(opts Options, source string) *ast.Pandoc {
	doc, err := ReadMarkdown(opts, source)
	if err != nil {
		panic(err)
	}
	return doc
}
