package textutil

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

var droppedElements = map[string]bool{"script": true, "iframe": true}

// SanitizeHTML removes script and iframe elements and every on* attribute.
// Other markup passes through unchanged.
func SanitizeHTML(s string) string {
	if s == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var out bytes.Buffer
	skip := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or malformed input; keep what was sanitized so far.
			return out.String()
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken:
			if droppedElements[tok.Data] {
				skip++
				continue
			}
		case html.EndTagToken:
			if droppedElements[tok.Data] {
				if skip > 0 {
					skip--
				}
				continue
			}
		case html.SelfClosingTagToken:
			if droppedElements[tok.Data] {
				continue
			}
		}
		if skip > 0 {
			continue
		}
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			tok.Attr = safeAttrs(tok.Attr)
		}
		out.WriteString(tok.String())
	}
}

func safeAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		out = append(out, a)
	}
	return out
}

// PlainText strips markup from item HTML. Paragraph tags become blank lines
// and entities are decoded.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "p":
				if b.Len() > 0 {
					b.WriteString("\n\n")
				}
			case "br":
				b.WriteString("\n")
			case "script", "style":
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
		}
	}
}
