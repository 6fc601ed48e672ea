package markdown

import (
	"strings"
	"unicode"

	"github.com/opendocs-go/mdreader/ast"
	"github.com/opendocs-go/mdreader/internal/combinator"
	"github.com/opendocs-go/mdreader/internal/rawhtml"
	"github.com/opendocs-go/mdreader/internal/rawtex"
)

// blockSequence parses a sequence of blocks to EOF, skipping blank-line runs
// between them and dropping the Null placeholder they would otherwise
// produce. It is the parser re-entry invokes on every captured fragment
// (spec §4.H) as well as the top-level entry point.
func blockSequence(c *Cursor) ([]ast.Block, bool) {
	var out []ast.Block
	for !c.AtEOF() {
		if _, ok := blanklines(c); ok {
			continue
		}
		b, ok := block(c)
		if !ok {
			break
		}
		if _, isNull := b.(ast.Null); isNull {
			continue
		}
		out = append(out, b)
	}
	return out, true
}

// block tries each block-level alternative in the disambiguation order spec
// §4.D prescribes: header, table, codeBlock, hrule, list, blockQuote,
// htmlBlock, rawLaTeXEnvironment, para, plain, null.
func block(c *Cursor) (ast.Block, bool) {
	return combinator.Choice(
		combinator.Try(combinator.Parser[State, ast.Block](header)),
		combinator.Try(combinator.Parser[State, ast.Block](table)),
		combinator.Try(combinator.Parser[State, ast.Block](codeBlock)),
		combinator.Try(combinator.Parser[State, ast.Block](hrule)),
		combinator.Try(combinator.Parser[State, ast.Block](list)),
		combinator.Try(combinator.Parser[State, ast.Block](blockQuote)),
		combinator.Try(combinator.Parser[State, ast.Block](htmlBlock)),
		combinator.Try(combinator.Parser[State, ast.Block](rawLaTeXEnvironmentBlock)),
		combinator.Try(combinator.Parser[State, ast.Block](para)),
		combinator.Try(combinator.Parser[State, ast.Block](plain)),
		combinator.Try(combinator.Parser[State, ast.Block](null)),
	)(c)
}

// consumeUpTo advances past at most max leading ' ' characters.
func consumeUpTo(c *Cursor, max int) {
	for i := 0; i < max; i++ {
		if c.Peek() != ' ' {
			break
		}
		c.Advance()
	}
}

// countBlankLines consumes and counts a run of consecutive blank lines,
// stopping at EOF (blankline's EOF sentinel match never advances the
// cursor, so an unbounded count would otherwise loop forever there).
func countBlankLines(c *Cursor) int {
	n := 0
	for !c.AtEOF() {
		save := *c
		if _, ok := blankline(c); !ok {
			*c = save
			break
		}
		n++
	}
	return n
}

// consumeCodeIndent consumes one tab_stop's worth of indentation: a literal
// tab, or exactly tabStop spaces. Used both by codeBlock and by every
// construct whose continuation lines are indented one tab stop (list items,
// definitions).
func consumeCodeIndent(c *Cursor, tabStop int) bool {
	if c.Peek() == '\t' {
		c.Advance()
		return true
	}
	snap := *c
	for i := 0; i < tabStop; i++ {
		if c.Peek() != ' ' {
			*c = snap
			return false
		}
		c.Advance()
	}
	return true
}

// ---- header --------------------------------------------------------------

func header(c *Cursor) (ast.Block, bool) {
	if h, ok := atxHeader(c); ok {
		return h, true
	}
	return setextHeader(c)
}

// atxHeader: 1-6 leading '#'s (not immediately followed by '.' or ')', which
// would make this a list marker instead), then inline content with any
// trailing '#'s and surrounding space stripped.
func atxHeader(c *Cursor) (ast.Block, bool) {
	snap := *c
	level := 0
	for c.Peek() == '#' && level < 6 {
		c.Advance()
		level++
	}
	if level == 0 || c.Peek() == '#' {
		*c = snap
		return nil, false
	}
	if r := c.Peek(); r == '.' || r == ')' {
		*c = snap
		return nil, false
	}
	skipInlineSpace(c)
	line, _ := anyLine(c)
	line = strings.TrimRight(line, " \t")
	line = strings.TrimRight(line, "#")
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		*c = snap
		return nil, false
	}
	if c.Peek() == '\n' {
		c.Advance()
	}
	blanklines(c)
	return ast.Header{Level: level, Inlines: reenterInlines(c.State, line)}, true
}

// setextHeader: a text line, then a line of only '=' (level 1) or '-' (level
// 2), then blank line(s) or EOF.
func setextHeader(c *Cursor) (ast.Block, bool) {
	snap := *c
	line, ok := anyLine(c)
	if !ok || strings.TrimSpace(line) == "" {
		*c = snap
		return nil, false
	}
	if c.Peek() != '\n' {
		*c = snap
		return nil, false
	}
	c.Advance()
	underline, ok := anyLine(c)
	trimmed := strings.TrimSpace(underline)
	if trimmed == "" {
		*c = snap
		return nil, false
	}
	var level int
	switch {
	case allRune(trimmed, '='):
		level = 1
	case allRune(trimmed, '-'):
		level = 2
	default:
		*c = snap
		return nil, false
	}
	if c.Peek() == '\n' {
		c.Advance()
	}
	if _, ok := blanklines(c); !ok && !c.AtEOF() {
		*c = snap
		return nil, false
	}
	return ast.Header{Level: level, Inlines: reenterInlines(c.State, line)}, true
}

func allRune(s string, r rune) bool {
	for _, c := range s {
		if c != r {
			return false
		}
	}
	return true
}

// ---- horizontal rule -------------------------------------------------------

// hrule: a line holding 3 or more occurrences of the same character from
// {*, -, _}, interleaved with any amount of whitespace.
func hrule(c *Cursor) (ast.Block, bool) {
	snap := *c
	consumeUpTo(c, c.State.TabStop-1)
	r := c.Peek()
	if r != '*' && r != '-' && r != '_' {
		*c = snap
		return nil, false
	}
	count := 0
	for {
		cur := c.Peek()
		if cur == r {
			c.Advance()
			count++
			continue
		}
		if cur == ' ' || cur == '\t' {
			c.Advance()
			continue
		}
		break
	}
	if count < 3 {
		*c = snap
		return nil, false
	}
	if c.Peek() != '\n' && !c.AtEOF() {
		*c = snap
		return nil, false
	}
	if c.Peek() == '\n' {
		c.Advance()
	}
	blanklines(c)
	return ast.HorizontalRule{}, true
}

// ---- code block -------------------------------------------------------------

// codeBlock: one or more tab-stop-indented lines, blank lines between them
// permitted as long as indented content resumes afterward; trailing blank
// lines stripped.
func codeBlock(c *Cursor) (ast.Block, bool) {
	snap := *c
	var lines []string
	for {
		save := *c
		blanks := countBlankLines(c)
		if blanks > 0 {
			if !consumeCodeIndent(c, c.State.TabStop) {
				*c = save
				break
			}
			for i := 0; i < blanks; i++ {
				lines = append(lines, "")
			}
		} else if !consumeCodeIndent(c, c.State.TabStop) {
			*c = save
			break
		}
		line, _ := anyLine(c)
		lines = append(lines, line)
		if c.Peek() == '\n' {
			c.Advance()
		}
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		*c = snap
		return nil, false
	}
	return ast.CodeBlock{Text: strings.Join(lines, "\n")}, true
}

// ---- lists ------------------------------------------------------------------

func list(c *Cursor) (ast.Block, bool) {
	if in, ok := orderedList(c); ok {
		return in, true
	}
	if in, ok := definitionList(c); ok {
		return in, true
	}
	return bulletList(c)
}

// startsListMarker reports, without consuming, whether the cursor sits at
// the start of a bullet or ordered list item marker. Used by inline
// endline (§4.E) to treat a new list marker as a structural line break
// inside ListItemState.
func startsListMarker(c *Cursor) bool {
	save := *c
	consumeUpTo(c, c.State.TabStop-1)
	_, ok := bulletMarker(c)
	*c = save
	if ok {
		return true
	}
	save2 := *c
	consumeUpTo(c, c.State.TabStop-1)
	_, _, _, ok = orderedMarkerAttrs(c)
	*c = save2
	return ok
}

func bulletMarker(c *Cursor) (rune, bool) {
	r := c.Peek()
	if r != '*' && r != '+' && r != '-' {
		return 0, false
	}
	snap := *c
	c.Advance()
	if !combinator.RuneIsSpace(c.Peek()) {
		*c = snap
		return 0, false
	}
	c.Advance()
	return r, true
}

// captureListItemBody reads a marker line's own text (the cursor must
// already be positioned just past the marker and its separator space) plus
// any following lines indented by one tab stop, including blank-separated
// continuations, dedenting each by that one tab stop.
func captureListItemBody(c *Cursor, tabStop int) string {
	var buf strings.Builder
	first, _ := anyLine(c)
	buf.WriteString(first)
	if c.Peek() == '\n' {
		c.Advance()
	}
	for {
		save := *c
		blanks := countBlankLines(c)
		if blanks > 0 {
			if !consumeCodeIndent(c, tabStop) {
				*c = save
				return buf.String()
			}
			for i := 0; i < blanks; i++ {
				buf.WriteByte('\n')
			}
			buf.WriteByte('\n')
			appendLine(c, &buf)
			continue
		}
		if !consumeCodeIndent(c, tabStop) {
			return buf.String()
		}
		buf.WriteByte('\n')
		appendLine(c, &buf)
	}
}

func appendLine(c *Cursor, buf *strings.Builder) {
	line, _ := anyLine(c)
	buf.WriteString(line)
	if c.Peek() == '\n' {
		c.Advance()
	}
}

func bulletList(c *Cursor) (ast.Block, bool) {
	snap := *c
	save := *c
	consumeUpTo(c, c.State.TabStop-1)
	marker, ok := bulletMarker(c)
	*c = save
	if !ok {
		return nil, false
	}
	var items [][]ast.Block
	var gapAfter []bool
	for {
		itemSnap := *c
		gapHere := countBlankLines(c) > 0
		consumeUpTo(c, c.State.TabStop-1)
		got, ok := bulletMarker(c)
		if !ok || got != marker {
			*c = itemSnap
			break
		}
		body := captureListItemBody(c, c.State.TabStop)
		blocks := reenterBlocksContext(c.State, ListItemState, body)
		if len(items) > 0 && gapHere {
			gapAfter[len(gapAfter)-1] = true
		}
		items = append(items, blocks)
		gapAfter = append(gapAfter, false)
	}
	if len(items) == 0 {
		*c = snap
		return nil, false
	}
	return ast.BulletList{Items: compactify(items, listIsTight(items, gapAfter))}, true
}

func listIsTight(items [][]ast.Block, gapAfter []bool) bool {
	for i, blocks := range items {
		if len(blocks) > 1 {
			return false
		}
		if i < len(gapAfter)-1 && gapAfter[i] {
			return false
		}
	}
	return true
}

// ---- ordered list markers ---------------------------------------------------

var romanValues = map[rune]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}

// romanNumeral recognizes a run of same-case roman-numeral letters and
// decodes its value. Because only {i,v,x,l,c,d,m} (values
// {1,5,10,50,100,500,1000}, spec §9's open question) are valid roman
// digits, this single check is what disambiguates a roman marker from an
// alphabetic one: letters outside that set simply never match here and
// fall through to orderedNumeral's alpha branch.
func romanNumeral(c *Cursor) (value int, upper bool, ok bool) {
	snap := *c
	var letters []rune
	for {
		r := c.Peek()
		if _, isRoman := romanValues[unicode.ToLower(r)]; !isRoman {
			break
		}
		letters = append(letters, r)
		c.Advance()
	}
	if len(letters) == 0 {
		return 0, false, false
	}
	isUpper := letters[0] >= 'A' && letters[0] <= 'Z'
	for _, l := range letters {
		thisUpper := l >= 'A' && l <= 'Z'
		if thisUpper != isUpper {
			*c = snap
			return 0, false, false
		}
	}
	total, prev := 0, 0
	for i := len(letters) - 1; i >= 0; i-- {
		v := romanValues[unicode.ToLower(letters[i])]
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	if total <= 0 {
		*c = snap
		return 0, false, false
	}
	return total, isUpper, true
}

func orderedNumeral(c *Cursor) (int, ast.ListNumberStyle, bool) {
	if r := c.Peek(); r >= '0' && r <= '9' {
		n := 0
		for {
			rr := c.Peek()
			if rr < '0' || rr > '9' {
				break
			}
			n = n*10 + int(c.Advance()-'0')
		}
		return n, ast.Decimal, true
	}
	if v, upper, ok := romanNumeral(c); ok {
		if upper {
			return v, ast.UpperRoman, true
		}
		return v, ast.LowerRoman, true
	}
	if r := c.Peek(); (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
		c.Advance()
		if r >= 'a' && r <= 'z' {
			return int(r-'a') + 1, ast.LowerAlpha, true
		}
		return int(r-'A') + 1, ast.UpperAlpha, true
	}
	return 0, 0, false
}

// orderedMarkerAttrs recognizes one ordered-list marker at the cursor and
// consumes it (number, style, delimiter, and separating space), enforcing
// the two guards spec §9 calls out: the "p. "+digit page-number suppression,
// and the tab-or-two-spaces separator required after an UpperAlpha/UpperRoman
// marker with Period delimiter (so "A. " at a sentence start is not misread
// as a list item).
func orderedMarkerAttrs(c *Cursor) (int, ast.ListNumberStyle, ast.ListNumberDelim, bool) {
	snap := *c
	consumeUpTo(c, c.State.TabStop-1)
	twoParens := false
	if c.Peek() == '(' {
		c.Advance()
		twoParens = true
	}
	n, style, ok := orderedNumeral(c)
	if !ok {
		*c = snap
		return 0, 0, 0, false
	}
	var delim ast.ListNumberDelim
	switch {
	case twoParens:
		if c.Peek() != ')' {
			*c = snap
			return 0, 0, 0, false
		}
		c.Advance()
		delim = ast.TwoParens
	case c.Peek() == ')':
		c.Advance()
		delim = ast.OneParen
	case c.Peek() == '.':
		c.Advance()
		delim = ast.Period
	default:
		*c = snap
		return 0, 0, 0, false
	}
	if c.State.Strict && (style != ast.Decimal || delim != ast.Period) {
		*c = snap
		return 0, 0, 0, false
	}
	if style == ast.LowerAlpha && n == int('p'-'a')+1 && delim == ast.Period {
		if r := c.PeekAt(1); combinator.RuneIsSpace(c.Peek()) && r >= '0' && r <= '9' {
			*c = snap
			return 0, 0, 0, false
		}
	}
	if delim == ast.Period && (style == ast.UpperAlpha || style == ast.UpperRoman) {
		switch {
		case c.Peek() == '\t':
			c.Advance()
		case c.Peek() == ' ' && c.PeekAt(1) == ' ':
			c.Advance()
			c.Advance()
		default:
			*c = snap
			return 0, 0, 0, false
		}
	} else {
		if !combinator.RuneIsSpace(c.Peek()) {
			*c = snap
			return 0, 0, 0, false
		}
		c.Advance()
	}
	return n, style, delim, true
}

func orderedMarkerWith(c *Cursor, style ast.ListNumberStyle, delim ast.ListNumberDelim) (int, bool) {
	snap := *c
	n, s, d, ok := orderedMarkerAttrs(c)
	if !ok || s != style || d != delim {
		*c = snap
		return 0, false
	}
	return n, true
}

func orderedList(c *Cursor) (ast.Block, bool) {
	snap := *c
	lookSave := *c
	_, style, delim, ok := orderedMarkerAttrs(c)
	*c = lookSave
	if !ok {
		return nil, false
	}
	var items [][]ast.Block
	var gapAfter []bool
	start := 1
	first := true
	for {
		itemSnap := *c
		gapHere := countBlankLines(c) > 0
		num, ok := orderedMarkerWith(c, style, delim)
		if !ok {
			*c = itemSnap
			break
		}
		if first {
			start = num
			first = false
		}
		body := captureListItemBody(c, c.State.TabStop)
		blocks := reenterBlocksContext(c.State, ListItemState, body)
		if len(items) > 0 && gapHere {
			gapAfter[len(gapAfter)-1] = true
		}
		items = append(items, blocks)
		gapAfter = append(gapAfter, false)
	}
	if len(items) == 0 {
		*c = snap
		return nil, false
	}
	attrs := ast.OrderedListAttrs{Start: start, Style: style, Delim: delim}
	return ast.OrderedList{Attrs: attrs, Items: compactify(items, listIsTight(items, gapAfter))}, true
}

// ---- definition list ----------------------------------------------------

func definitionList(c *Cursor) (ast.Block, bool) {
	snap := *c
	var items []ast.DefinitionItem
	for {
		itemSnap := *c
		term, defs, ok := definitionItem(c)
		if !ok {
			*c = itemSnap
			break
		}
		items = append(items, ast.DefinitionItem{Term: term, Definitions: defs})
	}
	if len(items) == 0 {
		*c = snap
		return nil, false
	}
	return ast.DefinitionList{Items: items}, true
}

func peekDefMarker(c *Cursor) bool {
	save := *c
	consumeUpTo(c, c.State.TabStop-1)
	ok := c.Peek() == ':' && combinator.RuneIsSpace(c.PeekAt(1))
	*c = save
	return ok
}

func definitionItem(c *Cursor) ([]ast.Inline, [][]ast.Block, bool) {
	snap := *c
	termLine, ok := anyLine(c)
	if !ok || strings.TrimSpace(termLine) == "" {
		*c = snap
		return nil, nil, false
	}
	if c.Peek() != '\n' {
		*c = snap
		return nil, nil, false
	}
	c.Advance()
	if !peekDefMarker(c) {
		*c = snap
		return nil, nil, false
	}
	var defs [][]ast.Block
	for peekDefMarker(c) {
		consumeUpTo(c, c.State.TabStop-1)
		c.Advance() // ':'
		skipInlineSpace(c)
		body := captureListItemBody(c, c.State.TabStop)
		defs = append(defs, reenterBlocksContext(c.State, NullState, body))
		countBlankLines(c)
	}
	if len(defs) == 0 {
		*c = snap
		return nil, nil, false
	}
	return reenterInlines(c.State, termLine), defs, true
}

// ---- block quotes ---------------------------------------------------------

func blockQuote(c *Cursor) (ast.Block, bool) {
	if in, ok := emacsBoxQuote(c); ok {
		return in, true
	}
	return emailBlockQuote(c)
}

func emailBlockQuote(c *Cursor) (ast.Block, bool) {
	snap := *c
	if c.Peek() != '>' {
		return nil, false
	}
	var buf strings.Builder
	first := true
	for {
		save := *c
		if c.Peek() == '>' {
			c.Advance()
			if c.Peek() == ' ' {
				c.Advance()
			}
			line, _ := anyLine(c)
			if !first {
				buf.WriteByte('\n')
			}
			buf.WriteString(line)
			first = false
			if c.Peek() == '\n' {
				c.Advance()
				continue
			}
			break
		}
		if peekBlank(c) {
			*c = save
			break
		}
		line, _ := anyLine(c)
		buf.WriteByte('\n')
		buf.WriteString(line)
		if c.Peek() == '\n' {
			c.Advance()
			continue
		}
		break
	}
	if first {
		*c = snap
		return nil, false
	}
	blanklines(c)
	return ast.BlockQuote{Blocks: reenterBlocksContext(c.State, NullState, buf.String())}, true
}

func emacsBoxQuote(c *Cursor) (ast.Block, bool) {
	snap := *c
	if c.Peek() != ',' {
		return nil, false
	}
	line, _ := anyLine(c)
	if !strings.HasPrefix(line, ",") || strings.Trim(line[1:], "-") != "" || line == "," {
		*c = snap
		return nil, false
	}
	if c.Peek() != '\n' {
		*c = snap
		return nil, false
	}
	c.Advance()
	var buf strings.Builder
	first := true
	for {
		if c.Peek() == '`' {
			closeLine, _ := anyLine(c)
			if strings.HasPrefix(closeLine, "`") && strings.Trim(closeLine[1:], "-") == "" {
				if c.Peek() == '\n' {
					c.Advance()
				}
				blanklines(c)
				return ast.BlockQuote{Blocks: reenterBlocksContext(c.State, NullState, buf.String())}, true
			}
			*c = snap
			return nil, false
		}
		if c.Peek() != '|' {
			*c = snap
			return nil, false
		}
		c.Advance()
		if c.Peek() == ' ' {
			c.Advance()
		}
		l, _ := anyLine(c)
		if !first {
			buf.WriteByte('\n')
		}
		buf.WriteString(l)
		first = false
		if c.Peek() != '\n' {
			*c = snap
			return nil, false
		}
		c.Advance()
	}
}

// ---- HTML block -----------------------------------------------------------

func htmlBlock(c *Cursor) (ast.Block, bool) {
	text, ok := rawhtml.RawHTMLBlock(c.Rest(), c.State.Strict)
	if !ok {
		return nil, false
	}
	for range []rune(text) {
		c.Advance()
	}
	if c.Peek() == '\n' {
		c.Advance()
	}
	blanklines(c)
	return ast.RawHTML{Text: strings.TrimRight(text, "\n")}, true
}

// ---- raw LaTeX environment --------------------------------------------------

// rawLaTeXEnvironmentBlock recognizes a \begin{env}...\end{env} environment
// at block level. The AST's Block union has no dedicated raw-TeX variant
// (TeX is inline-only, §3), so a kept environment is represented as a
// RawHTML block carrying its verbatim source — the same "pass the format's
// raw text through" shape RawHTML already has, just for a different source
// format (see DESIGN.md).
func rawLaTeXEnvironmentBlock(c *Cursor) (ast.Block, bool) {
	if c.State.Strict {
		return nil, false
	}
	text, ok := rawtex.RawLaTeXEnvironment(c.Rest())
	if !ok {
		return nil, false
	}
	for range []rune(text) {
		c.Advance()
	}
	if c.Peek() == '\n' {
		c.Advance()
	}
	blanklines(c)
	if !c.State.ParseRaw {
		return ast.Null{}, true
	}
	return ast.RawHTML{Text: text}, true
}

// ---- paragraph & plain ------------------------------------------------------

func peekHeaderStart(c *Cursor) bool    { return c.Peek() == '#' }
func peekEmailQuoteStart(c *Cursor) bool { return c.Peek() == '>' }
func peekEmacsBoxStart(c *Cursor) bool  { return c.Peek() == ',' }

// para: one or more inline lines, stopping before a blank line or (to avoid
// swallowing a following block with no blank line separating them) before a
// block quote/header in strict mode, or an emacs-box quote otherwise.
func para(c *Cursor) (ast.Block, bool) {
	snap := *c
	if peekBlank(c) {
		*c = snap
		return nil, false
	}
	var lines []string
	for {
		line, _ := anyLine(c)
		lines = append(lines, line)
		if c.Peek() != '\n' {
			break
		}
		c.Advance()
		if peekBlank(c) {
			break
		}
		if c.State.Strict {
			if peekEmailQuoteStart(c) || peekHeaderStart(c) {
				break
			}
		} else if peekEmacsBoxStart(c) {
			break
		}
	}
	if len(lines) == 0 {
		*c = snap
		return nil, false
	}
	blanklines(c)
	return ast.Para{Inlines: reenterInlines(c.State, strings.Join(lines, "\n"))}, true
}

// plain is para's fallback: inline content not framed by a trailing blank
// line, used for runs of text at EOF with no terminating blank line.
func plain(c *Cursor) (ast.Block, bool) {
	if c.AtEOF() {
		return nil, false
	}
	line, _ := anyLine(c)
	if line == "" {
		return nil, false
	}
	if c.Peek() == '\n' {
		c.Advance()
	}
	return ast.Plain{Inlines: reenterInlines(c.State, line)}, true
}

func null(c *Cursor) (ast.Block, bool) {
	if _, ok := blanklines(c); ok {
		return ast.Null{}, true
	}
	if c.AtEOF() {
		return ast.Null{}, true
	}
	return nil, false
}
