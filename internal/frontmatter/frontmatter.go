// Package frontmatter implements the YAML metadata-block extension to
// Pandoc's title block (SPEC_FULL.md §3.1, §4.G): a document may open with
// a '---'-delimited YAML block giving title/author/date instead of (or in
// addition to, though only one form is consulted per document) the classic
// '%'-prefixed title lines.
package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

type raw struct {
	Title  string      `yaml:"title"`
	Author interface{} `yaml:"author"`
	Date   string      `yaml:"date"`
}

// Decoded is the plain (not-yet-reparsed-as-inlines) metadata extracted from
// a YAML block.
type Decoded struct {
	Title   string
	Authors []string
	Date    string
}

// Split finds a leading YAML metadata block in input: a line consisting of
// exactly "---" at column 1, a body, and a closing line consisting of
// exactly "---" or "..." at column 1. It returns the block's body and the
// remainder of input following the closing delimiter line.
func Split(input string) (body, rest string, ok bool) {
	if !strings.HasPrefix(input, "---\n") && input != "---" {
		return "", "", false
	}
	lines := strings.Split(input, "\n")
	if len(lines) < 2 || lines[0] != "---" {
		return "", "", false
	}
	for i := 1; i < len(lines); i++ {
		if lines[i] == "---" || lines[i] == "..." {
			body = strings.Join(lines[1:i], "\n")
			rest = strings.Join(lines[i+1:], "\n")
			return body, rest, true
		}
	}
	return "", "", false
}

// Decode unmarshals a YAML metadata block body into title/author/date
// fields. A malformed block reports ok=false rather than an error, so the
// caller can fall back to parsing the block as ordinary document content
// (§7's "no error return" contract).
func Decode(body string) (Decoded, bool) {
	var r raw
	if err := yaml.Unmarshal([]byte(body), &r); err != nil {
		return Decoded{}, false
	}
	var authors []string
	switch v := r.Author.(type) {
	case nil:
	case string:
		if v != "" {
			authors = []string{v}
		}
	case []interface{}:
		for _, a := range v {
			if s, ok := a.(string); ok && s != "" {
				authors = append(authors, s)
			}
		}
	default:
		return Decoded{}, false
	}
	return Decoded{Title: r.Title, Authors: authors, Date: r.Date}, true
}
