package memdom

import (
	"html"
	"strings"
)

// voidTags are elements serialized without a closing tag.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// HTML serializes the document body's content. Markers render as empty
// comments so a serialized tree round-trips through the hydration walker.
func (d *Document) HTML() string {
	var sb strings.Builder
	for _, c := range d.body.children {
		writeNode(&sb, c)
	}
	return sb.String()
}

// OuterHTML serializes a single node and its subtree.
func (n *Node) OuterHTML() string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

func renderNode(n *Node) string {
	return n.OuterHTML()
}

func writeNode(sb *strings.Builder, n *Node) {
	switch n.kind {
	case KindText:
		sb.WriteString(html.EscapeString(n.text))
	case KindMarker:
		sb.WriteString("<!---->")
	case KindElement:
		sb.WriteByte('<')
		sb.WriteString(n.tag)
		for _, name := range n.attrOrder {
			sb.WriteByte(' ')
			sb.WriteString(name)
			if v := n.attrs[name]; v != "" {
				sb.WriteString(`="`)
				sb.WriteString(html.EscapeString(v))
				sb.WriteByte('"')
			}
		}
		sb.WriteByte('>')
		if voidTags[n.tag] {
			return
		}
		for _, c := range n.children {
			writeNode(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(n.tag)
		sb.WriteByte('>')
	}
}
