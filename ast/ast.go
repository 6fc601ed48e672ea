// MIT License

// Copyright (c) 2018 Akhil Indurti

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package ast declares the document tree produced by a Markdown parse: a
// Pandoc value made of Block and Inline nodes, plus the small closed set of
// enums (Alignment, ListNumberStyle, ListNumberDelim, QuoteType) that those
// nodes carry. Renderers consume this tree; the ast package has no knowledge
// of any output format.
package ast

// Pandoc is the root of a parsed document: its metadata and its top-level
// block sequence.
type Pandoc struct {
	Meta   Meta
	Blocks []Block
}

// Meta holds the document-level title block, whether it came from a
// '%'-prefixed Pandoc title line or a YAML metadata block.
type Meta struct {
	Title   []Inline
	Authors []string
	Date    string
}

// Target is the destination of a Link or Image: a URL and an optional title
// (the string Pandoc prints as a tooltip).
type Target struct {
	URL   string
	Title string
}

// Block is implemented by every block-level node. The method is unexported
// so the set of Block implementations is closed to this package.
type Block interface {
	block()
}

// Plain is inline content with no block-level wrapper: the body of a tight
// list item, for instance.
type Plain struct {
	Inlines []Inline
}

// Para is a paragraph.
type Para struct {
	Inlines []Inline
}

// Header is an ATX or setext heading. Level is 1-6 (setext produces only
// levels 1 and 2; ATX headers beyond level 6 degrade to Para, per the
// parser's disambiguation rules).
type Header struct {
	Level   int
	Inlines []Inline
}

// CodeBlock is an indented block of literal text.
type CodeBlock struct {
	Text string
}

// BlockQuote is a quoted sequence of blocks, from either an email-style or
// an emacs-box quote.
type BlockQuote struct {
	Blocks []Block
}

// BulletList is an unordered list; each element of Items is one item's block
// sequence.
type BulletList struct {
	Items [][]Block
}

// OrderedListAttrs carries an ordered list's starting number, numbering
// style, and the delimiter that follows each number.
type OrderedListAttrs struct {
	Start int
	Style ListNumberStyle
	Delim ListNumberDelim
}

// OrderedList is a numbered list sharing one OrderedListAttrs across all its
// items (style mixing within a single list is rejected by the parser, §4.D).
type OrderedList struct {
	Attrs OrderedListAttrs
	Items [][]Block
}

// DefinitionItem pairs one definition list's term with its definitions.
type DefinitionItem struct {
	Term        []Inline
	Definitions [][]Block
}

// DefinitionList is a sequence of term/definition pairs.
type DefinitionList struct {
	Items []DefinitionItem
}

// HorizontalRule is a thematic break.
type HorizontalRule struct{}

// Table is a simple or multiline table: a caption, per-column alignment and
// width, a header row, and the body rows.
type Table struct {
	Caption []Inline
	Aligns  []Alignment
	Widths  []float64
	Headers [][]Block
	Rows    [][][]Block
}

// RawHTML is a raw HTML block passed through verbatim.
type RawHTML struct {
	Text string
}

// Null is an empty block, produced when every other block alternative and
// even Plain fails to consume anything (e.g. a run of blank lines).
type Null struct{}

func (Plain) block()          {}
func (Para) block()           {}
func (Header) block()         {}
func (CodeBlock) block()      {}
func (BlockQuote) block()     {}
func (BulletList) block()     {}
func (OrderedList) block()    {}
func (DefinitionList) block() {}
func (HorizontalRule) block() {}
func (Table) block()          {}
func (RawHTML) block()        {}
func (Null) block()           {}

// Inline is implemented by every inline-level node. The method is
// unexported so the set of Inline implementations is closed to this
// package.
type Inline interface {
	inline()
}

// Str is a run of literal text with no interior structure.
type Str struct {
	Text string
}

// Emph is emphasized (typically italic) text.
type Emph struct {
	Inlines []Inline
}

// Strong is strongly emphasized (typically bold) text.
type Strong struct {
	Inlines []Inline
}

// Strikeout is struck-through text.
type Strikeout struct {
	Inlines []Inline
}

// Superscript is superscripted text.
type Superscript struct {
	Inlines []Inline
}

// Subscript is subscripted text.
type Subscript struct {
	Inlines []Inline
}

// QuoteType distinguishes single from double smart quotes.
type QuoteType int

const (
	SingleQuote QuoteType = iota
	DoubleQuote
)

// Quoted is smart-quoted text (only produced when the reader's Smart option
// is set).
type Quoted struct {
	Type    QuoteType
	Inlines []Inline
}

// Code is an inline code span; its text is what appeared between the
// backtick delimiters, with all leading/trailing spaces trimmed and each
// newline turned into a space.
type Code struct {
	Text string
}

// Space is an inline word-separating space.
type Space struct{}

// EmDash is a smart-typography em dash ('---').
type EmDash struct{}

// EnDash is a smart-typography en dash ('--').
type EnDash struct{}

// Ellipses is a smart-typography ellipsis ('...').
type Ellipses struct{}

// Apostrophe is a smart-typography apostrophe (' or U+2019).
type Apostrophe struct{}

// LineBreak is a hard line break.
type LineBreak struct{}

// Math is an inline math span ('$...$').
type Math struct {
	Text string
}

// TeX is a raw LaTeX fragment, kept verbatim when the reader's ParseRaw
// option is set.
type TeX struct {
	Text string
}

// HTMLInline is a raw inline HTML fragment, kept verbatim when the reader's
// ParseRaw option is set.
type HTMLInline struct {
	Text string
}

// Link is a hyperlink: its visible text and its resolved target.
type Link struct {
	Inlines []Inline
	Target  Target
}

// Image is an image reference: its alt text and its resolved target.
type Image struct {
	Inlines []Inline
	Target  Target
}

// Note is a footnote; it carries the footnote body's blocks, parsed once
// right after the footnote preprocessing pass. Every reference to the same
// id gets that same block list (§9 — notes form no cycle in the AST).
type Note struct {
	Blocks []Block
}

func (Str) inline()         {}
func (Emph) inline()        {}
func (Strong) inline()      {}
func (Strikeout) inline()   {}
func (Superscript) inline() {}
func (Subscript) inline()   {}
func (Quoted) inline()      {}
func (Code) inline()        {}
func (Space) inline()       {}
func (EmDash) inline()      {}
func (EnDash) inline()      {}
func (Ellipses) inline()    {}
func (Apostrophe) inline()  {}
func (LineBreak) inline()   {}
func (Math) inline()        {}
func (TeX) inline()         {}
func (HTMLInline) inline()  {}
func (Link) inline()        {}
func (Image) inline()       {}
func (Note) inline()        {}

// Alignment is a table column's horizontal alignment.
type Alignment int

const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignRight
	AlignCenter
)

// ListNumberStyle is the numeral style of an ordered list.
type ListNumberStyle int

const (
	DefaultStyle ListNumberStyle = iota
	Decimal
	LowerRoman
	UpperRoman
	LowerAlpha
	UpperAlpha
)

// ListNumberDelim is the punctuation following an ordered list's number.
type ListNumberDelim int

const (
	DefaultDelim ListNumberDelim = iota
	Period
	OneParen
	TwoParens
)
