// Package charref implements the "decodeCharacterReferences" collaborator
// the Markdown reader's external-interface section calls for (spec §6):
// resolving named and numeric HTML character references ('&amp;', '&#233;',
// '&#x2014;') inside already-extracted text such as title-block lines and
// single inline entity references.
//
// The standard library's html.UnescapeString already is the correct
// collaborator here — decoding character references is precisely what it
// does, byte for byte, against the same reference table browsers use — so
// this package is a thin, named wrapper rather than a hand-rolled entity
// table. See DESIGN.md for why no third-party package in the retrieved pack
// improves on this.
package charref

import "html"

// Decode resolves character references in s, leaving any other text
// untouched.
func Decode(s string) string {
	return html.UnescapeString(s)
}
