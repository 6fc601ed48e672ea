package markdown

import (
	"github.com/opendocs-go/mdreader/ast"
	"github.com/opendocs-go/mdreader/internal/combinator"
)

// reenterBlocks is the re-entry bridge (spec §4.H): given a captured text
// fragment (a list item's body, a block quote's interior, a footnote's
// body), it runs the block parser against that fragment with a fresh
// cursor but the caller's current state, so key/note lookups and
// strict/smart/tab-stop configuration are inherited. The outer cursor is
// untouched — callers have already consumed the fragment's source text for
// themselves before re-entering.
func reenterBlocks(outer State, text string) []ast.Block {
	c := combinator.NewCursor(text+"\n\n", outer)
	blocks, _ := blockSequence(c)
	return blocks
}

// reenterBlocksContext is reenterBlocks but installs the given
// ParserContext (e.g. ListItemState) for the duration of the nested parse,
// restoring nothing on the caller's side since the caller's own State value
// is never mutated by a re-entrant parse (spec §9: context flags are
// scoped, installed on entry).
func reenterBlocksContext(outer State, ctx ParserContext, text string) []ast.Block {
	outer.ParserContext = ctx
	return reenterBlocks(outer, text)
}

// reenterInlines runs the inline parser to EOF against a captured text
// fragment (a paragraph's or header's text, a link label, a table cell, a
// title line), inheriting the caller's state.
func reenterInlines(outer State, text string) []ast.Inline {
	c := combinator.NewCursor(text, outer)
	inlines, _ := inlineSequence(c, combinator.EOF)
	return normalizeSpaces(inlines)
}
