package markdown

import (
	"strings"

	"github.com/opendocs-go/mdreader/ast"
)

// QuoteContext prevents a smart single/double quote from nesting inside a
// quote of the same kind (spec §3, §9 "quote_context").
type QuoteContext int

const (
	NoQuoteContext QuoteContext = iota
	InSingleQuote
	InDoubleQuote
)

// ParserContext flags that the current production is a list item's body, so
// that endline (§4.E) treats a new top-level list marker as a structural
// break instead of ordinary text.
type ParserContext int

const (
	NullState ParserContext = iota
	ListItemState
)

// KeyTable is the ordered label -> link-target mapping built by the
// reference-key preprocessing pass (spec §4.B). Lookup is case-insensitive
// after whitespace normalization of the label; Put implements "last
// definition wins" on duplicate labels (spec §3).
type KeyTable struct {
	order []string
	m     map[string]ast.Target
}

// NormalizeLabel collapses a reference label to its matching key: case-
// folded, with runs of whitespace collapsed to a single space and
// leading/trailing whitespace trimmed.
func NormalizeLabel(label string) string {
	fields := strings.Fields(label)
	return strings.ToLower(strings.Join(fields, " "))
}

// Put inserts or overwrites the target for label. Later calls for the same
// normalized label win.
func (kt *KeyTable) Put(label string, target ast.Target) {
	if kt.m == nil {
		kt.m = make(map[string]ast.Target)
	}
	key := NormalizeLabel(label)
	if _, exists := kt.m[key]; !exists {
		kt.order = append(kt.order, key)
	}
	kt.m[key] = target
}

// Get looks up the target for label, if any key matches it.
func (kt *KeyTable) Get(label string) (ast.Target, bool) {
	if kt.m == nil {
		return ast.Target{}, false
	}
	t, ok := kt.m[NormalizeLabel(label)]
	return t, ok
}

// NoteTable is the id -> footnote-body mapping built by the footnote
// preprocessing pass (spec §4.B). Every lookup of an id returns the same
// resolved block list, so duplicate references are allowed and each expands
// identically (spec §9); the Note nodes built from them share that list.
type NoteTable struct {
	m map[string][]ast.Block
}

func (nt *NoteTable) Put(id string, blocks []ast.Block) {
	if nt.m == nil {
		nt.m = make(map[string][]ast.Block)
	}
	nt.m[id] = blocks
}

func (nt *NoteTable) Get(id string) ([]ast.Block, bool) {
	if nt.m == nil {
		return nil, false
	}
	blocks, ok := nt.m[id]
	return blocks, ok
}

// State is the mutable bag threaded through every parser production (spec
// §3 "Parser state S"). Keys and Notes are pointers: after the three
// preprocessing passes populate them, they are never mutated again, so
// copying a State by value (as Try/LookAhead do on every backtrack) is
// cheap and correct without a separate undo journal — design note (a) in
// spec §9.
type State struct {
	TabStop  int
	Columns  int
	Strict   bool
	Smart    bool
	ParseRaw bool

	QuoteContext  QuoteContext
	ParserContext ParserContext

	Keys  *KeyTable
	Notes *NoteTable
}

// Options configures a single call to ReadMarkdown (spec §3 "Global
// config", §9 "read-only after initialization").
type Options struct {
	// TabStop is the column width of a tab character when determining
	// block indentation. Default 4.
	TabStop int
	// Columns is the total column budget used to compute table column
	// widths (spec §4.F). Default 80.
	Columns int
	// Strict restricts parsing to the original Markdown.pl grammar:
	// ordered-list markers are only digits followed by '.', an HTML block
	// must be a single block-level element, only Markdown.pl's escape set
	// is honored, email autolinks show their address as Str, and the '%'
	// title block, math, raw LaTeX and smart typography are off (Smart is
	// ignored).
	Strict bool
	// Smart enables smart-typography inlines: curly quotes, em/en dashes,
	// ellipses (spec §4.E). Ignored when Strict is set.
	Smart bool
	// ParseRaw keeps recognized raw HTML/LaTeX fragments as HTMLInline/TeX
	// inline nodes instead of discarding their text.
	ParseRaw bool
}

func newState(opts Options) State {
	tabStop := opts.TabStop
	if tabStop <= 0 {
		tabStop = 4
	}
	columns := opts.Columns
	if columns <= 0 {
		columns = 80
	}
	return State{
		TabStop:  tabStop,
		Columns:  columns,
		Strict:   opts.Strict,
		Smart:    opts.Smart && !opts.Strict,
		ParseRaw: opts.ParseRaw,
		Keys:     &KeyTable{},
		Notes:    &NoteTable{},
	}
}
