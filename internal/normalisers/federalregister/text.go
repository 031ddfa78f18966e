package federalregister

import (
	"encoding/xml"
	"errors"
	"html"
	"io"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for text cleanup.
var (
	blockTags   = regexp.MustCompile(`(?i)</?(p|div|br|li|h[1-6])[^>]*>`)
	allTags     = regexp.MustCompile(`<[^>]+>`)
	whitespaces = regexp.MustCompile(`\s+`)
)

// cleanText strips markup, decodes entities and collapses whitespace.
// Abstracts occasionally carry inline HTML and entities.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		s = blockTags.ReplaceAllString(s, " ")
		s = allTags.ReplaceAllString(s, "")
		s = html.UnescapeString(s)
	}
	return strings.TrimSpace(whitespaces.ReplaceAllString(s, " "))
}

// xmlText extracts the character data of a full-text XML body. Element
// boundaries separate words. A body that stops parsing midway keeps the
// text read so far; one that is not XML at all is cleaned as markup.
func xmlText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	dec := xml.NewDecoder(strings.NewReader(s))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var b strings.Builder
	parsed := false
	for {
		tok, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) && !parsed {
				return cleanText(s)
			}
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			parsed = true
			b.WriteByte(' ')
		case xml.EndElement:
			b.WriteByte(' ')
		case xml.CharData:
			b.Write(t)
		}
	}
	return strings.TrimSpace(whitespaces.ReplaceAllString(b.String(), " "))
}
