package markdown

import (
	"strings"

	"github.com/opendocs-go/mdreader/ast"
	"github.com/opendocs-go/mdreader/internal/charref"
	"github.com/opendocs-go/mdreader/internal/combinator"
	"github.com/opendocs-go/mdreader/internal/rawhtml"
	"github.com/opendocs-go/mdreader/internal/rawtex"
)

// inlineSequence parses inlines up to (but not consuming) end or EOF (spec
// §4.E's inline choice, applied repeatedly). It is the workhorse behind
// paragraphs, headers, table cells, and every re-entrant inline context.
func inlineSequence(c *Cursor, end rune) ([]ast.Inline, bool) {
	var out []ast.Inline
	for {
		if c.AtEOF() || c.Peek() == end {
			return out, true
		}
		in, ok := inlineOnce(c)
		if !ok {
			return out, true
		}
		out = append(out, in)
	}
}

// specialChar reports whether r can begin something other than a plain
// text run: a delimiter, escape, or structural character that inlineOnce's
// dedicated productions need first refusal on.
func specialChar(r rune, smart bool) bool {
	switch r {
	case '\\', '`', '*', '_', '[', ']', '!', '<', '&', '~', '^', '$', '\n', ' ', '\t':
		return true
	}
	if smart {
		switch r {
		case '-', '.', '\'', '"', '’':
			return true
		}
	}
	return false
}

// inlineOnce parses exactly one inline node at the cursor, trying, in
// order, the alternatives of spec §4.E: a greedy run of ordinary text,
// then (subject to Choice's backtracking rule, §4.A) smart punctuation,
// breaks, whitespace, code, entities, strong/emph, notes, links/images,
// math, strikeout/super/subscript, autolinks, raw HTML, raw LaTeX, escapes,
// and finally a literal symbol.
func inlineOnce(c *Cursor) (ast.Inline, bool) {
	if !specialChar(c.Peek(), c.State.Smart) {
		return plainText(c)
	}
	if c.State.Smart {
		if in, ok := smartPunctuation(c); ok {
			return in, true
		}
	}
	if in, ok := hardBreak(c); ok {
		return in, true
	}
	if in, ok := softBreak(c); ok {
		return in, true
	}
	if in, ok := whitespace(c); ok {
		return in, true
	}
	if in, ok := inlineCode(c); ok {
		return in, true
	}
	if in, ok := entity(c); ok {
		return in, true
	}
	if in, ok := strongEmph(c); ok {
		return in, true
	}
	if in, ok := noteRef(c); ok {
		return in, true
	}
	if in, ok := inlineNote(c); ok {
		return in, true
	}
	if in, ok := linkOrImage(c, true); ok {
		return in, true
	}
	if in, ok := linkOrImage(c, false); ok {
		return in, true
	}
	if in, ok := mathInline(c); ok {
		return in, true
	}
	if in, ok := strikeout(c); ok {
		return in, true
	}
	if in, ok := superscript(c); ok {
		return in, true
	}
	if in, ok := subscript(c); ok {
		return in, true
	}
	if in, ok := autolink(c); ok {
		return in, true
	}
	if in, ok := rawHTMLInline(c); ok {
		return in, true
	}
	if in, ok := rawLaTeXInlineNode(c); ok {
		return in, true
	}
	if in, ok := escapedChar(c); ok {
		return in, true
	}
	return symbol(c)
}

// plainText consumes a maximal run of characters that cannot begin any
// other inline production.
func plainText(c *Cursor) (ast.Inline, bool) {
	var buf strings.Builder
	for !c.AtEOF() && !specialChar(c.Peek(), c.State.Smart) {
		buf.WriteRune(c.Advance())
	}
	if buf.Len() == 0 {
		return nil, false
	}
	return ast.Str{Text: buf.String()}, true
}

// symbol consumes exactly one rune as a literal Str, used as the final
// fallback when nothing else claims a special character (spec §7: the
// parser never fails outright, every alternative eventually bottoms out
// here or in plainText).
func symbol(c *Cursor) (ast.Inline, bool) {
	if c.AtEOF() {
		return nil, false
	}
	return ast.Str{Text: string(c.Advance())}, true
}

// whitespace consumes a run of spaces/tabs not immediately followed by a
// newline (that case belongs to hardBreak/softBreak) and produces a single
// Space.
func whitespace(c *Cursor) (ast.Inline, bool) {
	if !combinator.RuneIsSpace(c.Peek()) {
		return nil, false
	}
	snap := *c
	n := 0
	for combinator.RuneIsSpace(c.Peek()) {
		c.Advance()
		n++
	}
	if c.Peek() == '\n' {
		*c = snap
		return nil, false
	}
	return ast.Space{}, true
}

// hardBreak recognizes two or more trailing spaces before a newline, or a
// trailing backslash before a newline, and produces a LineBreak.
func hardBreak(c *Cursor) (ast.Inline, bool) {
	snap := *c
	if c.Peek() == '\\' && c.PeekAt(1) == '\n' {
		c.Advance()
		c.Advance()
		return ast.LineBreak{}, true
	}
	n := 0
	for c.Peek() == ' ' {
		c.Advance()
		n++
	}
	if n >= 2 && c.Peek() == '\n' {
		c.Advance()
		return ast.LineBreak{}, true
	}
	*c = snap
	return nil, false
}

// softBreak recognizes a single '\n' not followed by a blank line and
// produces a Space (spec §4.E "endline"). Inside ListItemState it refuses
// to cross into a new top-level list marker; in strict mode it also
// refuses a following block quote or header.
func softBreak(c *Cursor) (ast.Inline, bool) {
	if c.Peek() != '\n' {
		return nil, false
	}
	snap := *c
	c.Advance()
	if peekBlank(c) {
		*c = snap
		return nil, false
	}
	if c.State.ParserContext == ListItemState && startsListMarker(c) {
		*c = snap
		return nil, false
	}
	if c.State.Strict && (c.Peek() == '>' || c.Peek() == '#') {
		*c = snap
		return nil, false
	}
	return ast.Space{}, true
}

// inlineCode parses a backtick-delimited code span: the opener is a run of
// N backticks, the closer a run of exactly N, and interior runs of
// backticks of any other length are literal.
func inlineCode(c *Cursor) (ast.Inline, bool) {
	if c.Peek() != '`' {
		return nil, false
	}
	snap := *c
	n := 0
	for c.Peek() == '`' {
		c.Advance()
		n++
	}
	var buf strings.Builder
	for {
		if c.AtEOF() {
			*c = snap
			return nil, false
		}
		if c.Peek() == '`' {
			m := 0
			for c.Peek() == '`' {
				c.Advance()
				m++
			}
			if m == n {
				text := strings.Trim(buf.String(), " ")
				text = strings.ReplaceAll(text, "\n", " ")
				return ast.Code{Text: text}, true
			}
			for i := 0; i < m; i++ {
				buf.WriteByte('`')
			}
			continue
		}
		buf.WriteRune(c.Advance())
	}
}

// entity decodes a single HTML character reference ('&amp;', '&#233;',
// '&#x2014;') via the charref collaborator.
func entity(c *Cursor) (ast.Inline, bool) {
	if c.Peek() != '&' {
		return nil, false
	}
	snap := *c
	var buf strings.Builder
	buf.WriteRune(c.Advance())
	for i := 0; i < 32; i++ {
		r := c.Peek()
		if r == ';' {
			buf.WriteRune(c.Advance())
			decoded := charref.Decode(buf.String())
			if decoded == buf.String() {
				*c = snap
				return nil, false
			}
			return ast.Str{Text: decoded}, true
		}
		if r == combinator.EOF || r == '\n' || r == ' ' || r == '&' {
			break
		}
		buf.WriteRune(c.Advance())
	}
	*c = snap
	return nil, false
}

// escapedChar recognizes a backslash followed by a punctuation character,
// producing the literal character. In strict mode only the classic
// Markdown.pl escape set is honored; otherwise any non-alphanumeric rune
// may be escaped. An unknown escape yields the literal backslash.
func escapedChar(c *Cursor) (ast.Inline, bool) {
	if c.Peek() != '\\' {
		return nil, false
	}
	snap := *c
	c.Advance()
	r := c.Peek()
	if r == combinator.EOF {
		*c = snap
		return nil, false
	}
	if escapable(r, c.State.Strict) {
		c.Advance()
		return ast.Str{Text: string(r)}, true
	}
	return ast.Str{Text: "\\"}, true
}

const strictEscapeSet = "\\`*_{}[]()>#+-.!"

func escapable(r rune, strict bool) bool {
	if strict {
		return strings.ContainsRune(strictEscapeSet, r)
	}
	return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
}

// strongEmph tries, in order, "**...**", "__...__", "*...*", "_..._" — the
// double forms first so that "**x**" is never misread as an empty emph
// immediately followed by literal asterisks (spec §4.E: "strong is tried
// before emph").
func strongEmph(c *Cursor) (ast.Inline, bool) {
	if in, ok := enclosedInline(c, "**", func(in []ast.Inline) ast.Inline { return ast.Strong{Inlines: in} }); ok {
		return in, true
	}
	if in, ok := enclosedInline(c, "__", func(in []ast.Inline) ast.Inline { return ast.Strong{Inlines: in} }); ok {
		return in, true
	}
	if in, ok := enclosedInline(c, "*", func(in []ast.Inline) ast.Inline { return ast.Emph{Inlines: in} }); ok {
		return in, true
	}
	if in, ok := enclosedInline(c, "_", func(in []ast.Inline) ast.Inline { return ast.Emph{Inlines: in} }); ok {
		return in, true
	}
	return nil, false
}

func strikeout(c *Cursor) (ast.Inline, bool) {
	return enclosedInline(c, "~~", func(in []ast.Inline) ast.Inline { return ast.Strikeout{Inlines: in} })
}

func superscript(c *Cursor) (ast.Inline, bool) {
	return enclosedInline(c, "^", func(in []ast.Inline) ast.Inline { return ast.Superscript{Inlines: in} })
}

func subscript(c *Cursor) (ast.Inline, bool) {
	return enclosedInline(c, "~", func(in []ast.Inline) ast.Inline { return ast.Subscript{Inlines: in} })
}

// enclosedInline implements the "enclosed opener closer inline" combinator
// of spec §4.E: require the opening delimiter (which must not be
// immediately followed by whitespace or a newline, ruling out an empty or
// space-led span), then many1Till(inline, try(closer)).
func enclosedInline(c *Cursor, delim string, build func([]ast.Inline) ast.Inline) (ast.Inline, bool) {
	snap := *c
	if _, ok := combinator.Try(combinator.String[State](delim))(c); !ok {
		return nil, false
	}
	if r := c.Peek(); r == combinator.EOF || combinator.RuneIsSpace(r) || r == '\n' {
		*c = snap
		return nil, false
	}
	closer := combinator.String[State](delim)
	inner, ok := combinator.Many1Till[State, ast.Inline, string](combinator.Parser[State, ast.Inline](inlineOnce), closer)(c)
	if !ok {
		*c = snap
		return nil, false
	}
	return build(inner), true
}

// noteRef recognizes a footnote reference "[^label]" against the note
// table installed by preprocessing; a miss backtracks so the brackets are
// reparsed as literal text (spec §7).
func noteRef(c *Cursor) (ast.Inline, bool) {
	snap := *c
	if c.Peek() != '[' || c.PeekAt(1) != '^' {
		return nil, false
	}
	c.Advance()
	c.Advance()
	var buf strings.Builder
	for c.Peek() != ']' && !c.AtEOF() && c.Peek() != '\n' {
		buf.WriteRune(c.Advance())
	}
	if c.Peek() != ']' {
		*c = snap
		return nil, false
	}
	c.Advance()
	blocks, ok := c.State.Notes.Get(buf.String())
	if !ok {
		*c = snap
		return nil, false
	}
	return ast.Note{Blocks: blocks}, true
}

// inlineNote recognizes Pandoc's inline footnote syntax "^[text]",
// re-parsing its bracketed content as a block sequence of its own (spec
// §4.H re-entry bridge).
func inlineNote(c *Cursor) (ast.Inline, bool) {
	if c.Peek() != '^' || c.PeekAt(1) != '[' {
		return nil, false
	}
	c.Advance()
	body, ok := charsInBalanced(c, '[', ']')
	if !ok {
		return nil, false
	}
	return ast.Note{Blocks: reenterBlocks(c.State, body)}, true
}

// linkOrImage parses "[label](url \"title\")", "[label][ref]",
// "[label][]", or "[label]" (and, when wantImage, the same forms prefixed
// with '!'). A failed reference lookup backtracks entirely so the caller
// falls back to treating the brackets as literal text.
func linkOrImage(c *Cursor, wantImage bool) (ast.Inline, bool) {
	snap := *c
	if wantImage {
		if c.Peek() != '!' {
			return nil, false
		}
		c.Advance()
	} else if c.Peek() == '!' {
		return nil, false
	}
	if c.Peek() != '[' {
		*c = snap
		return nil, false
	}
	labelText, ok := charsInBalanced(c, '[', ']')
	if !ok {
		*c = snap
		return nil, false
	}
	var target ast.Target
	if c.Peek() == '(' {
		urlText, ok := charsInBalanced(c, '(', ')')
		if !ok {
			*c = snap
			return nil, false
		}
		target = parseURLTitle(urlText)
	} else {
		refLabel := labelText
		if c.Peek() == '[' {
			explicit, ok := charsInBalanced(c, '[', ']')
			if !ok {
				*c = snap
				return nil, false
			}
			if strings.TrimSpace(explicit) != "" {
				refLabel = explicit
			}
		}
		t, ok := lookupKeySrc(c.State.Keys, refLabel)
		if !ok {
			*c = snap
			return nil, false
		}
		target = t
	}
	inlines := reenterInlines(c.State, labelText)
	if wantImage {
		return ast.Image{Inlines: inlines, Target: target}, true
	}
	return ast.Link{Inlines: inlines, Target: target}, true
}

// parseURLTitle splits "url" or "url \"title\"" captured from inside a
// link's parentheses. The URL may itself be '<'-bracketed.
func parseURLTitle(s string) ast.Target {
	c := combinator.NewCursor(s, State{})
	skipInlineSpace(c)
	var url string
	if c.Peek() == '<' {
		c.Advance()
		var buf strings.Builder
		for c.Peek() != '>' && !c.AtEOF() {
			buf.WriteRune(c.Advance())
		}
		if c.Peek() == '>' {
			c.Advance()
		}
		url = buf.String()
	} else {
		var buf strings.Builder
		for !c.AtEOF() && c.Peek() != ' ' && c.Peek() != '\t' {
			buf.WriteRune(c.Advance())
		}
		url = buf.String()
	}
	title := optionalTitle(c)
	return ast.Target{URL: url, Title: title}
}

// mathInline parses an inline math span "$...$": the opener must not be
// immediately followed by whitespace, and '\$' is an escaped literal
// dollar inside the body. Disabled entirely in strict mode.
func mathInline(c *Cursor) (ast.Inline, bool) {
	if c.State.Strict || c.Peek() != '$' {
		return nil, false
	}
	if r := c.PeekAt(1); r == ' ' || r == '\t' || r == combinator.EOF || r == '\n' {
		return nil, false
	}
	snap := *c
	c.Advance()
	var buf strings.Builder
	for {
		r := c.Peek()
		if r == '\\' && c.PeekAt(1) == '$' {
			c.Advance()
			buf.WriteRune(c.Advance())
			continue
		}
		if r == '$' {
			c.Advance()
			return ast.Math{Text: buf.String()}, true
		}
		if r == combinator.EOF || r == '\n' {
			*c = snap
			return nil, false
		}
		buf.WriteRune(c.Advance())
	}
}

// autolink recognizes "<scheme:...>" for http(s)/ftp/mailto, and the bare
// email form "<local@dom.ain>", producing a mailto: Link. The visible text
// of an email autolink is Code in non-strict mode (Pandoc's convention) and
// Str in strict mode.
func autolink(c *Cursor) (ast.Inline, bool) {
	if c.Peek() != '<' {
		return nil, false
	}
	snap := *c
	c.Advance()
	var buf strings.Builder
	for {
		r := c.Peek()
		if r == '>' {
			break
		}
		if r == combinator.EOF || r == '\n' || r == ' ' || r == '<' {
			*c = snap
			return nil, false
		}
		buf.WriteRune(c.Advance())
	}
	c.Advance()
	s := buf.String()
	for _, scheme := range []string{"http://", "https://", "ftp://", "mailto:"} {
		if strings.HasPrefix(s, scheme) {
			return ast.Link{Inlines: []ast.Inline{ast.Str{Text: s}}, Target: ast.Target{URL: s}}, true
		}
	}
	if looksLikeEmail(s) {
		url := "mailto:" + s
		if c.State.Strict {
			return ast.Link{Inlines: []ast.Inline{ast.Str{Text: s}}, Target: ast.Target{URL: url}}, true
		}
		return ast.Link{Inlines: []ast.Inline{ast.Code{Text: s}}, Target: ast.Target{URL: url}}, true
	}
	*c = snap
	return nil, false
}

func looksLikeEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	if strings.ContainsAny(s, " \t\n<>") {
		return false
	}
	return strings.Contains(s[at+1:], ".")
}

// rawHTMLInline recognizes a single raw inline HTML tag via the rawhtml
// collaborator.
func rawHTMLInline(c *Cursor) (ast.Inline, bool) {
	tag, ok := rawhtml.AnyHTMLInlineTag(c.Rest())
	if !ok {
		return nil, false
	}
	for i := 0; i < tag.Consumed; i++ {
		c.Advance()
	}
	if !c.State.ParseRaw {
		return ast.Str{Text: ""}, true
	}
	return ast.HTMLInline{Text: tag.Raw}, true
}

// rawLaTeXInlineNode recognizes a single LaTeX inline command via the
// rawtex collaborator. Disabled in strict mode, matching mathInline and
// Pandoc's own strict-mode behavior.
func rawLaTeXInlineNode(c *Cursor) (ast.Inline, bool) {
	if c.State.Strict {
		return nil, false
	}
	text, ok := rawtex.RawLaTeXInline(c.Rest())
	if !ok {
		return nil, false
	}
	for range []rune(text) {
		c.Advance()
	}
	if !c.State.ParseRaw {
		return ast.Str{Text: ""}, true
	}
	return ast.TeX{Text: text}, true
}

// smartPunctuation recognizes dashes, ellipses, and curly quotes (spec
// §4.E), only consulted when State.Smart is set.
func smartPunctuation(c *Cursor) (ast.Inline, bool) {
	if in, ok := smartDash(c); ok {
		return in, true
	}
	if in, ok := smartEllipses(c); ok {
		return in, true
	}
	if in, ok := smartQuote(c); ok {
		return in, true
	}
	if in, ok := smartApostrophe(c); ok {
		return in, true
	}
	return nil, false
}

func smartDash(c *Cursor) (ast.Inline, bool) {
	if c.Peek() != '-' {
		return nil, false
	}
	snap := *c
	c.Advance()
	if c.Peek() == '-' {
		c.Advance()
		if c.Peek() == '-' {
			c.Advance()
			for c.Peek() == ' ' {
				c.Advance()
			}
			return ast.EmDash{}, true
		}
		return ast.EnDash{}, true
	}
	if c.PeekAt(0) >= '0' && c.PeekAt(0) <= '9' {
		return ast.EnDash{}, true
	}
	*c = snap
	return nil, false
}

func smartEllipses(c *Cursor) (ast.Inline, bool) {
	for _, pat := range []string{"...", ". . .", " . . .", " . . . "} {
		if _, ok := combinator.Try(combinator.String[State](pat))(c); ok {
			return ast.Ellipses{}, true
		}
	}
	return nil, false
}

func smartQuote(c *Cursor) (ast.Inline, bool) {
	if in, ok := smartQuoteOf(c, '"', ast.DoubleQuote); ok {
		return in, true
	}
	return smartQuoteOf(c, '\'', ast.SingleQuote)
}

func smartQuoteOf(c *Cursor, delim rune, qtype ast.QuoteType) (ast.Inline, bool) {
	if c.Peek() != delim {
		return nil, false
	}
	ctx := InDoubleQuote
	if qtype == ast.SingleQuote {
		ctx = InSingleQuote
	}
	if c.State.QuoteContext == ctx {
		c.Advance()
		c.State.QuoteContext = NoQuoteContext
		return ast.Quoted{Type: qtype}, true
	}
	if qtype == ast.SingleQuote {
		if r := c.PeekAt(1); strings.ContainsRune(")!],.;:-? \t\n", r) {
			return nil, false
		}
		if isContractionSuffix(c.Rest()[1:]) {
			return nil, false
		}
	}
	snap := *c
	c.Advance()
	prevCtx := c.State.QuoteContext
	c.State.QuoteContext = ctx
	inner, ok := combinator.Many1Till[State, ast.Inline, string](
		combinator.Parser[State, ast.Inline](inlineOnce),
		combinator.String[State](string(delim)),
	)(c)
	if !ok {
		*c = snap
		c.State.QuoteContext = prevCtx
		return nil, false
	}
	c.State.QuoteContext = prevCtx
	return ast.Quoted{Type: qtype, Inlines: inner}, true
}

func isContractionSuffix(rest string) bool {
	for _, suf := range []string{"s", "t", "m", "ve", "ll", "re"} {
		if strings.HasPrefix(rest, suf) {
			after := rest[len(suf):]
			if after == "" {
				return true
			}
			r := rune(after[0])
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
				return true
			}
		}
	}
	return false
}

// smartApostrophe recognizes an apostrophe (ASCII ' or U+2019) that
// smartQuote did not take as a quote opener or closer. It does not check
// that the apostrophe sits inside a word.
func smartApostrophe(c *Cursor) (ast.Inline, bool) {
	if c.Peek() != '\'' && c.Peek() != '’' {
		return nil, false
	}
	c.Advance()
	return ast.Apostrophe{}, true
}
