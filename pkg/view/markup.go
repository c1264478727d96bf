package view

import "strings"

// TextTag is the element every Text view materializes as.
const TextTag = "span"

// ToMarkupString serializes the subtree rooted at v to HTML.
//
// Scalar props and the entries of "attributes" render as attributes, "style"
// renders as a single style attribute. Null props and other object-valued
// props are left out; the latter are assigned as node properties when the
// subtree is materialized.
func ToMarkupString(v *View) string {
	var b strings.Builder
	writeMarkup(&b, v)
	return b.String()
}

func writeMarkup(b *strings.Builder, v *View) {
	if v == nil {
		return
	}
	switch v.Kind {
	case KindText:
		b.WriteString("<" + TextTag + ">")
		b.WriteString(escapeHTML(v.Text))
		b.WriteString("</" + TextTag + ">")
	case KindData:
		b.WriteByte('<')
		b.WriteString(v.Tag)
		writeAttributes(b, v.Props)
		b.WriteByte('>')
		if IsVoidElement(v.Tag) {
			return
		}
		for _, child := range v.Children {
			writeMarkup(b, child)
		}
		b.WriteString("</")
		b.WriteString(v.Tag)
		b.WriteByte('>')
	}
}

func writeAttributes(b *strings.Builder, props *Props) {
	for _, e := range props.Entries() {
		if e.Value == nil {
			continue
		}
		switch e.Key {
		case PropAttributes:
			attrs, ok := Entries(e.Value)
			if !ok {
				writeAttr(b, e.Key, ValueString(e.Value))
				continue
			}
			for _, attr := range attrs {
				if attr.Value == nil {
					continue
				}
				writeAttr(b, attr.Key, ValueString(attr.Value))
			}
		case PropStyle:
			if decls, ok := Entries(e.Value); ok {
				if css := StyleString(decls); css != "" {
					writeAttr(b, PropStyle, css)
				}
				continue
			}
			writeAttr(b, PropStyle, ValueString(e.Value))
		default:
			if IsObject(e.Value) {
				continue
			}
			writeAttr(b, e.Key, ValueString(e.Value))
		}
	}
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(escapeAttr(value))
	b.WriteByte('"')
}

// StyleString renders style declarations as "name: value;" pairs separated
// by a space. Null declarations are skipped.
func StyleString(decls []Entry) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		if d.Value == nil {
			continue
		}
		parts = append(parts, d.Key+": "+ValueString(d.Value)+";")
	}
	return strings.Join(parts, " ")
}
