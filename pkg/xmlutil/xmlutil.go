// Package xmlutil builds XML-delimited prompt fragments. Values are escaped so
// that document content cannot open or close the surrounding tags.
package xmlutil

import (
	"encoding/xml"
	"strings"
)

// Escape returns s with XML special characters replaced by entities. Invalid
// UTF-8 becomes U+FFFD.
func Escape(s string) string {
	var buf strings.Builder
	// EscapeText only returns write errors, and strings.Builder never fails.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Attr is one attribute of an element.
type Attr struct {
	Name, Value string
}

// Element renders <name k="v">text</name> with the attribute values and text
// escaped. Attributes keep the given order.
func Element(name string, text string, attrs ...Attr) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(Escape(a.Value))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	b.WriteString(Escape(text))
	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')
	return b.String()
}
