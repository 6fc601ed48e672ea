// Package rawhtml concretizes the raw-HTML-tag-recognition collaborator the
// Markdown reader's external-interface section asks for (spec §6):
// AnyHTMLTag, AnyHTMLEndTag, AnyHTMLInlineTag, HTMLEndTag, AnyHTMLBlockTag,
// HTMLBlockElement, RawHTMLBlock, and ExtractTagType. Recognition is built
// on golang.org/x/net/html's tokenizer rather than a hand-written tag
// grammar, grounded on cozy-prosemirror-go's model/to_dom.go, which uses the
// same package (html.Node, atom.Atom) to walk and classify HTML tags.
package rawhtml

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BlockTags is the set of tag names Pandoc treats as top-level HTML block
// elements in strict mode.
var BlockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"details": true, "dialog": true, "dd": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"iframe": true, "li": true, "main": true, "math": true, "nav": true,
	"noscript": true, "ol": true, "p": true, "pre": true, "script": true,
	"section": true, "style": true, "table": true, "ul": true, "ins": true,
	"del": true,
}

// Tag describes one recognized HTML tag at the front of an input.
type Tag struct {
	Raw      string // exact source text of the tag, e.g. "<div class=\"x\">"
	Name     string
	Type     html.TokenType
	Consumed int // rune count consumed from the input
}

// scanOne tokenizes the single HTML token at the very front of input, if
// any. It reports ok=false for plain text, EOF, or parse errors.
func scanOne(input string) (Tag, bool) {
	z := html.NewTokenizer(strings.NewReader(input))
	tt := z.Next()
	switch tt {
	case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken, html.CommentToken, html.DoctypeToken:
		raw := string(z.Raw())
		name, _ := z.TagName()
		return Tag{
			Raw:      raw,
			Name:     string(name),
			Type:     tt,
			Consumed: len([]rune(raw)),
		}, true
	default:
		return Tag{}, false
	}
}

// AnyHTMLTag recognizes any well-formed HTML tag (opening, closing,
// self-closing, comment, or doctype) at the front of input.
func AnyHTMLTag(input string) (Tag, bool) {
	return scanOne(input)
}

// AnyHTMLEndTag recognizes a closing tag at the front of input.
func AnyHTMLEndTag(input string) (Tag, bool) {
	t, ok := scanOne(input)
	if !ok || t.Type != html.EndTagToken {
		return Tag{}, false
	}
	return t, true
}

// AnyHTMLBlockTag recognizes an opening or self-closing tag whose name is in
// BlockTags.
func AnyHTMLBlockTag(input string) (Tag, bool) {
	t, ok := scanOne(input)
	if !ok {
		return Tag{}, false
	}
	if t.Type != html.StartTagToken && t.Type != html.SelfClosingTagToken {
		return Tag{}, false
	}
	if !BlockTags[t.Name] {
		return Tag{}, false
	}
	return t, true
}

// AnyHTMLInlineTag recognizes an opening, closing, or self-closing tag
// whose name is NOT in BlockTags.
func AnyHTMLInlineTag(input string) (Tag, bool) {
	t, ok := scanOne(input)
	if !ok {
		return Tag{}, false
	}
	switch t.Type {
	case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
	default:
		return Tag{}, false
	}
	if BlockTags[t.Name] {
		return Tag{}, false
	}
	return t, true
}

// HTMLEndTag builds the literal closing tag text for a given tag name, e.g.
// HTMLEndTag("div") == "</div>".
func HTMLEndTag(tagName string) string {
	return "</" + tagName + ">"
}

// ExtractTagType returns the element name of a single raw tag string, e.g.
// ExtractTagType("<div class=\"x\">") == ("div", true).
func ExtractTagType(tag string) (string, bool) {
	t, ok := scanOne(tag)
	if !ok {
		return "", false
	}
	return t.Name, true
}

// scanAny tokenizes the single token at the very front of input, whatever
// its kind — including plain text — so a caller can advance past it. It
// reports ok=false only at EOF or on a tokenizer error.
func scanAny(input string) (raw string, tt html.TokenType, name string, ok bool) {
	z := html.NewTokenizer(strings.NewReader(input))
	t := z.Next()
	if t == html.ErrorToken {
		return "", 0, "", false
	}
	raw = string(z.Raw())
	if raw == "" {
		return "", 0, "", false
	}
	nm, _ := z.TagName()
	return raw, t, string(nm), true
}

// HTMLBlockElement recognizes one top-level HTML block element — an opening
// block tag, its contents (including any nested tags of the same or
// different names, and any intervening text), and the matching closing tag
// — at the front of input. It returns the full consumed text. Self-closing
// and void tags like <hr/> are single-token blocks.
func HTMLBlockElement(input string) (consumed string, ok bool) {
	open, ok := AnyHTMLBlockTag(input)
	if !ok {
		return "", false
	}
	if open.Type == html.SelfClosingTagToken || atom.Lookup([]byte(open.Name)) == atom.Hr {
		return open.Raw, true
	}
	rest := input[len(open.Raw):]
	depth := 1
	pos := 0
	for depth > 0 {
		raw, tt, name, ok := scanAny(rest[pos:])
		if !ok {
			return "", false
		}
		switch {
		case tt == html.StartTagToken && name == open.Name:
			depth++
		case tt == html.EndTagToken && name == open.Name:
			depth--
		}
		pos += len(raw)
		if pos > len(rest) {
			return "", false
		}
	}
	return input[:len(open.Raw)+pos], true
}

// RawHTMLBlock recognizes, starting at the front of input, either (in
// strict mode) a single HTMLBlockElement, or (non-strict / lax mode) one or
// more consecutive raw tags concatenated with the plain text between them up
// to the next blank line.
func RawHTMLBlock(input string, strict bool) (consumed string, ok bool) {
	if strict {
		return HTMLBlockElement(input)
	}
	lines := strings.SplitAfter(input, "\n")
	var buf strings.Builder
	consumedAny := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		if !consumedAny {
			if _, ok := scanOne(strings.TrimLeft(line, " \t")); !ok {
				return "", false
			}
		}
		buf.WriteString(line)
		consumedAny = true
	}
	if !consumedAny {
		return "", false
	}
	return buf.String(), true
}
