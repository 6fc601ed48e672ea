// Tests for markdown.go, block.go, table.go, preprocess.go, inline.go.
package markdown_test

import (
	"testing"

	"github.com/opendocs-go/mdreader/ast"
	"github.com/opendocs-go/mdreader/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func read(t *testing.T, opts markdown.Options, src string) *ast.Pandoc {
	t.Helper()
	doc, err := markdown.ReadMarkdown(opts, src)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

// S1. "# Hi\n" -> [Header(1, [Str "Hi"])]
func TestAtxHeader(t *testing.T) {
	doc := read(t, markdown.Options{}, "# Hi\n")
	require.Len(t, doc.Blocks, 1)
	h, ok := doc.Blocks[0].(ast.Header)
	require.True(t, ok, "expected Header, got %T", doc.Blocks[0])
	assert.Equal(t, 1, h.Level)
	assert.Equal(t, []ast.Inline{ast.Str{Text: "Hi"}}, h.Inlines)
}

// S2. "Hi\n==\n" -> [Header(1, [Str "Hi"])]
func TestSetextHeader(t *testing.T) {
	doc := read(t, markdown.Options{}, "Hi\n==\n")
	require.Len(t, doc.Blocks, 1)
	h, ok := doc.Blocks[0].(ast.Header)
	require.True(t, ok, "expected Header, got %T", doc.Blocks[0])
	assert.Equal(t, 1, h.Level)
	assert.Equal(t, []ast.Inline{ast.Str{Text: "Hi"}}, h.Inlines)
}

// S3. "---\n" -> [HorizontalRule]
func TestHorizontalRule(t *testing.T) {
	doc := read(t, markdown.Options{}, "---\n")
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, ast.HorizontalRule{}, doc.Blocks[0])
}

// S4. "[a]: http://x \"t\"\n\n[a]\n" -> [Para [Link [Str "a"] ("http://x", "t")]]
func TestReferenceLink(t *testing.T) {
	doc := read(t, markdown.Options{}, "[a]: http://x \"t\"\n\n[a]\n")
	require.Len(t, doc.Blocks, 1)
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	require.Len(t, p.Inlines, 1)
	link, ok := p.Inlines[0].(ast.Link)
	require.True(t, ok, "expected Link, got %T", p.Inlines[0])
	assert.Equal(t, []ast.Inline{ast.Str{Text: "a"}}, link.Inlines)
	assert.Equal(t, ast.Target{URL: "http://x", Title: "t"}, link.Target)
}

// Invariant 4: key collisions, last definition wins.
func TestReferenceKeyCollisionLastWins(t *testing.T) {
	doc := read(t, markdown.Options{}, "[a]: http://first\n\n[a]: http://second\n\n[a]\n")
	para, ok := doc.Blocks[len(doc.Blocks)-1].(ast.Para)
	require.True(t, ok, "expected trailing Para, got %T", doc.Blocks[len(doc.Blocks)-1])
	require.Len(t, para.Inlines, 1)
	link, ok := para.Inlines[0].(ast.Link)
	require.True(t, ok, "expected Link, got %T", para.Inlines[0])
	assert.Equal(t, "http://second", link.Target.URL)
}

// S5. "1. a\n2. b\n" (non-strict) ->
// [OrderedList (1, Decimal, Period) [[Plain [Str "a"]],[Plain [Str "b"]]]]
func TestOrderedList(t *testing.T) {
	doc := read(t, markdown.Options{}, "1. a\n2. b\n")
	require.Len(t, doc.Blocks, 1)
	ol, ok := doc.Blocks[0].(ast.OrderedList)
	require.True(t, ok, "expected OrderedList, got %T", doc.Blocks[0])
	assert.Equal(t, ast.OrderedListAttrs{Start: 1, Style: ast.Decimal, Delim: ast.Period}, ol.Attrs)
	require.Len(t, ol.Items, 2)
	assert.Equal(t, []ast.Block{ast.Plain{Inlines: []ast.Inline{ast.Str{Text: "a"}}}}, ol.Items[0])
	assert.Equal(t, []ast.Block{ast.Plain{Inlines: []ast.Inline{ast.Str{Text: "b"}}}}, ol.Items[1])
}

// S6. Table shape only: the exact Alignment reading of the header/dash-rule
// pseudocode is ambiguous (see DESIGN.md), so only structural identity is
// asserted here, not the Aligns slice.
func TestSimpleTableShape(t *testing.T) {
	doc := read(t, markdown.Options{}, " a    b    c\n --- --- ---\n 1   2   3\n\n")
	require.Len(t, doc.Blocks, 1)
	tbl, ok := doc.Blocks[0].(ast.Table)
	require.True(t, ok, "expected Table, got %T", doc.Blocks[0])
	require.Len(t, tbl.Headers, 3)
	require.Len(t, tbl.Aligns, 3)
	require.Len(t, tbl.Rows, 1)
	require.Len(t, tbl.Rows[0], 3)
	assert.Equal(t, []ast.Block{ast.Plain{Inlines: []ast.Inline{ast.Str{Text: "a"}}}}, tbl.Headers[0])
	assert.Equal(t, []ast.Block{ast.Plain{Inlines: []ast.Inline{ast.Str{Text: "b"}}}}, tbl.Headers[1])
	assert.Equal(t, []ast.Block{ast.Plain{Inlines: []ast.Inline{ast.Str{Text: "c"}}}}, tbl.Headers[2])
	assert.Equal(t, []ast.Block{ast.Plain{Inlines: []ast.Inline{ast.Str{Text: "1"}}}}, tbl.Rows[0][0])
	assert.Equal(t, []ast.Block{ast.Plain{Inlines: []ast.Inline{ast.Str{Text: "2"}}}}, tbl.Rows[0][1])
	assert.Equal(t, []ast.Block{ast.Plain{Inlines: []ast.Inline{ast.Str{Text: "3"}}}}, tbl.Rows[0][2])
}

// Invariant 6: table column widths sum to <= 1.0, equal to total/max(total,columns).
func TestTableWidthsRatio(t *testing.T) {
	doc := read(t, markdown.Options{Columns: 80}, " a    b    c\n --- --- ---\n 1   2   3\n\n")
	tbl := doc.Blocks[0].(ast.Table)
	var sum float64
	for _, w := range tbl.Widths {
		sum += w
	}
	assert.LessOrEqual(t, sum, 1.0+1e-9)
	assert.InDelta(t, 12.0/80.0, sum, 1e-9)
}

// S7. "*em* and **strong**\n" ->
// [Para [Emph [Str "em"], Space, Str "and", Space, Strong [Str "strong"]]]
func TestEmphAndStrong(t *testing.T) {
	doc := read(t, markdown.Options{}, "*em* and **strong**\n")
	require.Len(t, doc.Blocks, 1)
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	want := []ast.Inline{
		ast.Emph{Inlines: []ast.Inline{ast.Str{Text: "em"}}},
		ast.Space{},
		ast.Str{Text: "and"},
		ast.Space{},
		ast.Strong{Inlines: []ast.Inline{ast.Str{Text: "strong"}}},
	}
	assert.Equal(t, want, p.Inlines)
}

// S8. "Here[^1] is.\n\n[^1]: footnote body.\n" ->
// [Para [Str "Here", Note [Para [Str "footnote", Space, Str "body."]], Space, Str "is."]]
func TestFootnote(t *testing.T) {
	doc := read(t, markdown.Options{}, "Here[^1] is.\n\n[^1]: footnote body.\n")
	require.Len(t, doc.Blocks, 1)
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	require.Len(t, p.Inlines, 4)
	assert.Equal(t, ast.Str{Text: "Here"}, p.Inlines[0])
	note, ok := p.Inlines[1].(ast.Note)
	require.True(t, ok, "expected Note, got %T", p.Inlines[1])
	require.Len(t, note.Blocks, 1)
	body, ok := note.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para inside note, got %T", note.Blocks[0])
	assert.Equal(t, []ast.Inline{
		ast.Str{Text: "footnote"}, ast.Space{}, ast.Str{Text: "body."},
	}, body.Inlines)
	assert.Equal(t, ast.Space{}, p.Inlines[2])
	assert.Equal(t, ast.Str{Text: "is."}, p.Inlines[3])
}

// Invariant: a note referenced twice expands identically both times (spec
// §9: duplicate references are allowed, each expands identically, no cycle).
func TestFootnoteDuplicateReference(t *testing.T) {
	doc := read(t, markdown.Options{}, "a[^1] b[^1]\n\n[^1]: body.\n")
	p := doc.Blocks[0].(ast.Para)
	var notes []ast.Note
	for _, in := range p.Inlines {
		if n, ok := in.(ast.Note); ok {
			notes = append(notes, n)
		}
	}
	require.Len(t, notes, 2)
	assert.Equal(t, notes[0], notes[1])
}

// Invariant 1: parse never fails, for arbitrary and malformed input.
func TestNeverFails(t *testing.T) {
	inputs := []string{
		"",
		"\n",
		"%",
		"[unterminated",
		"[no key][missing]\n",
		"[^nosuch]\n",
		"```\nfenceless\n",
		"<div>unterminated\n",
		"| a | b\n",
		"****\n",
	}
	for _, in := range inputs {
		in := in
		t.Run(in, func(t *testing.T) {
			doc, err := markdown.ReadMarkdown(markdown.Options{}, in)
			require.NoError(t, err)
			require.NotNil(t, doc)
		})
	}
}

// Recovery: a link with no matching key backtracks to literal text, with
// any inner emphasis intact (spec §7).
func TestUnresolvedLinkBacktracksToText(t *testing.T) {
	doc := read(t, markdown.Options{}, "[*no* such key][missing]\n")
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	for _, in := range p.Inlines {
		_, isLink := in.(ast.Link)
		assert.False(t, isLink, "expected no Link node, got one")
	}
	var hasEmph bool
	for _, in := range p.Inlines {
		if _, ok := in.(ast.Emph); ok {
			hasEmph = true
		}
	}
	assert.True(t, hasEmph, "expected inner emphasis to survive the backtrack")
}

// Recovery: an unresolved note id appears as literal text.
func TestUnresolvedNoteBacktracksToText(t *testing.T) {
	doc := read(t, markdown.Options{}, "See[^nosuch].\n")
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	for _, in := range p.Inlines {
		_, isNote := in.(ast.Note)
		assert.False(t, isNote, "expected no Note node, got one")
	}
}

// Boundary: empty input.
func TestEmptyInput(t *testing.T) {
	doc := read(t, markdown.Options{}, "")
	assert.Equal(t, ast.Meta{}, doc.Meta)
	assert.Empty(t, doc.Blocks)
}

// Boundary: a single newline behaves like empty input.
func TestSingleNewline(t *testing.T) {
	doc := read(t, markdown.Options{}, "\n")
	assert.Equal(t, ast.Meta{}, doc.Meta)
	assert.Empty(t, doc.Blocks)
}

// Boundary: a single '%' line is not a title (must be non-empty, non-strict).
func TestBarePercentIsNotTitle(t *testing.T) {
	doc := read(t, markdown.Options{}, "%\n")
	assert.Empty(t, doc.Meta.Title)
}

func TestPercentTitleNonStrict(t *testing.T) {
	doc := read(t, markdown.Options{}, "% My Title\n\nBody.\n")
	assert.Equal(t, []ast.Inline{ast.Str{Text: "My"}, ast.Space{}, ast.Str{Text: "Title"}}, doc.Meta.Title)
}

// Boundary: tab stop affects what counts as a code block.
func TestTabStopChangesCodeBlockRecognition(t *testing.T) {
	src := "    four spaces\n"
	doc4 := read(t, markdown.Options{TabStop: 4}, src)
	require.Len(t, doc4.Blocks, 1)
	_, isCode4 := doc4.Blocks[0].(ast.CodeBlock)
	assert.True(t, isCode4, "expected CodeBlock at tab-stop 4, got %T", doc4.Blocks[0])

	doc8 := read(t, markdown.Options{TabStop: 8}, src)
	require.Len(t, doc8.Blocks, 1)
	_, isCode8 := doc8.Blocks[0].(ast.CodeBlock)
	assert.False(t, isCode8, "expected non-code block at tab-stop 8, got CodeBlock")
}

// Invariant 2: a paragraph's inlines, after normalizeSpaces, have no
// leading, trailing, or adjacent Space.
func TestParagraphHasNoLeadingTrailingOrDoubleSpace(t *testing.T) {
	doc := read(t, markdown.Options{}, "   a    b   \n")
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	require.NotEmpty(t, p.Inlines)
	_, leadingSpace := p.Inlines[0].(ast.Space)
	assert.False(t, leadingSpace)
	_, trailingSpace := p.Inlines[len(p.Inlines)-1].(ast.Space)
	assert.False(t, trailingSpace)
	for i := 1; i < len(p.Inlines); i++ {
		_, prevSpace := p.Inlines[i-1].(ast.Space)
		_, curSpace := p.Inlines[i].(ast.Space)
		assert.False(t, prevSpace && curSpace, "adjacent Space at %d", i)
	}
}

// Invariant 5: compactify preserves block count and order within each item;
// a list with a blank line between items is loose (each item keeps its Para).
func TestLooseListKeepsParaBlocks(t *testing.T) {
	doc := read(t, markdown.Options{}, "- a\n\n- b\n")
	bl, ok := doc.Blocks[0].(ast.BulletList)
	require.True(t, ok, "expected BulletList, got %T", doc.Blocks[0])
	require.Len(t, bl.Items, 2)
	for _, item := range bl.Items {
		require.Len(t, item, 1)
		_, isPara := item[0].(ast.Para)
		assert.True(t, isPara, "expected loose list item to keep Para, got %T", item[0])
	}
}

func TestTightListDemotesParaToPlain(t *testing.T) {
	doc := read(t, markdown.Options{}, "- a\n- b\n")
	bl, ok := doc.Blocks[0].(ast.BulletList)
	require.True(t, ok, "expected BulletList, got %T", doc.Blocks[0])
	require.Len(t, bl.Items, 2)
	for _, item := range bl.Items {
		require.Len(t, item, 1)
		_, isPlain := item[0].(ast.Plain)
		assert.True(t, isPlain, "expected tight list item to demote to Plain, got %T", item[0])
	}
}

// Open question check (spec §9): in strict mode, a paragraph separated by a
// blank line from a following "---" line stays a Para, and the "---" line
// becomes a HorizontalRule rather than a setext level-2 underline.
func TestParagraphFollowedByHruleNotSetext(t *testing.T) {
	doc := read(t, markdown.Options{Strict: true}, "Some text\n\n---\n")
	require.Len(t, doc.Blocks, 2)
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	assert.Equal(t, []ast.Inline{ast.Str{Text: "Some"}, ast.Space{}, ast.Str{Text: "text"}}, p.Inlines)
	assert.Equal(t, ast.HorizontalRule{}, doc.Blocks[1])
}

// anyOrderedListStart must not misread a page-number line ("p. 5") as a
// list item (spec §9 guard).
func TestPageNumberNotOrderedList(t *testing.T) {
	doc := read(t, markdown.Options{}, "p. 5\n")
	_, isList := doc.Blocks[0].(ast.OrderedList)
	assert.False(t, isList, "expected \"p. 5\" not to parse as an ordered list")
}

// Escaped punctuation (spec §4.E escapedChar: "\" followed by a punctuation
// char yields the literal character) must survive even though
// rawLaTeXInlineNode is tried first in inlineOnce — a lone backslash
// followed by a non-letter is not a LaTeX control word and must fall
// through to escapedChar instead of being swallowed as raw TeX.
func TestEscapedPunctuationSurvives(t *testing.T) {
	doc := read(t, markdown.Options{}, "foo\\_bar\\_baz\n")
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	assert.Equal(t, []ast.Inline{
		ast.Str{Text: "foo"}, ast.Str{Text: "_"}, ast.Str{Text: "bar"}, ast.Str{Text: "_"}, ast.Str{Text: "baz"},
	}, p.Inlines)
}

func TestEscapedAsteriskSurvives(t *testing.T) {
	doc := read(t, markdown.Options{}, "a \\* b\n")
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	assert.Equal(t, []ast.Inline{
		ast.Str{Text: "a"}, ast.Space{}, ast.Str{Text: "*"}, ast.Space{}, ast.Str{Text: "b"},
	}, p.Inlines)
}

// A real LaTeX control word is still recognized as raw TeX, not as escaped
// punctuation, and vanishes by default (ParseRaw unset).
func TestRawLaTeXControlWordStillRecognized(t *testing.T) {
	doc := read(t, markdown.Options{}, "a \\alpha b\n")
	p, ok := doc.Blocks[0].(ast.Para)
	require.True(t, ok, "expected Para, got %T", doc.Blocks[0])
	for _, in := range p.Inlines {
		s, ok := in.(ast.Str)
		if ok {
			assert.NotContains(t, s.Text, "alpha")
		}
		_, isTeX := in.(ast.TeX)
		assert.False(t, isTeX, "TeX node should not appear with ParseRaw unset")
	}
}

// Strict-mode HTML block recognition must handle a block element that
// contains text, not just nested tags (rawhtml.HTMLBlockElement).
func TestStrictHTMLBlockWithText(t *testing.T) {
	doc := read(t, markdown.Options{Strict: true}, "<div>hello</div>\n")
	require.Len(t, doc.Blocks, 1)
	h, ok := doc.Blocks[0].(ast.RawHTML)
	require.True(t, ok, "expected RawHTML, got %T", doc.Blocks[0])
	assert.Contains(t, h.Text, "hello")
}

func TestStrictHTMLBlockWithNestedTagsAndText(t *testing.T) {
	doc := read(t, markdown.Options{Strict: true}, "<div><p>x</p></div>\n")
	require.Len(t, doc.Blocks, 1)
	h, ok := doc.Blocks[0].(ast.RawHTML)
	require.True(t, ok, "expected RawHTML, got %T", doc.Blocks[0])
	assert.Contains(t, h.Text, "x")
}

// Smart typography is only applied when requested.
func TestSmartTypographyOptIn(t *testing.T) {
	doc := read(t, markdown.Options{Smart: true}, "It's a test -- really...\n")
	p := doc.Blocks[0].(ast.Para)
	var sawApostrophe, sawEnDash, sawEllipses bool
	for _, in := range p.Inlines {
		switch in.(type) {
		case ast.Apostrophe:
			sawApostrophe = true
		case ast.EnDash:
			sawEnDash = true
		case ast.Ellipses:
			sawEllipses = true
		}
	}
	assert.True(t, sawApostrophe)
	assert.True(t, sawEnDash)
	assert.True(t, sawEllipses)
}

func TestSmartTypographyOffByDefault(t *testing.T) {
	doc := read(t, markdown.Options{}, "It's a test -- really...\n")
	p := doc.Blocks[0].(ast.Para)
	for _, in := range p.Inlines {
		switch in.(type) {
		case ast.Apostrophe, ast.EnDash, ast.Ellipses:
			t.Fatalf("unexpected smart-typography node %T with Smart unset", in)
		}
	}
}
