package scl

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse reads an XML document into a Document.
func Parse(reader io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(reader)
	d := &Document{root: NoHandle}
	var stack []Handle
	var pending []string

	for {
		token, err := decoder.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch tok := token.(type) {
		case xml.StartElement:
			attrs := make([]Attribute, 0, len(tok.Attr))
			for _, attr := range tok.Attr {
				attrs = append(attrs, Attribute{Name: qualified(attr.Name), Value: attr.Value})
			}
			parent := NoHandle
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			} else if d.root != NoHandle {
				return nil, errors.New("存在多个根元素")
			}
			h := d.newNode(qualified(tok.Name), parent, attrs)
			if parent == NoHandle {
				d.root = h
			}
			d.nodes[h].leading, pending = pending, nil
			stack = append(stack, h)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("XML 结构不匹配")
			}
			top := stack[len(stack)-1]
			if name := qualified(tok.Name); d.nodes[top].tag != name {
				return nil, fmt.Errorf("XML 结构不匹配: 期望 </%s>，实际 </%s>", d.nodes[top].tag, name)
			}
			d.nodes[top].trailing, pending = pending, nil
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			data := strings.TrimSpace(string(tok))
			if data == "" {
				continue
			}
			current := d.nodes[stack[len(stack)-1]]
			if current.text == "" {
				current.text = data
			} else {
				current.text += " " + data
			}
		case xml.Comment:
			pending = append(pending, "<!--"+string(tok)+"-->")
		case xml.ProcInst:
			if tok.Target == "xml" {
				continue
			}
			inst := strings.TrimSpace(string(tok.Inst))
			if inst == "" {
				pending = append(pending, "<?"+tok.Target+"?>")
			} else {
				pending = append(pending, "<?"+tok.Target+" "+inst+"?>")
			}
		case xml.Directive:
			pending = append(pending, "<!"+string(tok)+">")
		}
	}
	d.epilog = pending

	if len(stack) != 0 {
		return nil, fmt.Errorf("XML 未闭合元素: %s", d.nodes[stack[len(stack)-1]].tag)
	}
	if d.root == NoHandle {
		return nil, errors.New("未找到根元素")
	}
	d.reindex()
	return d, nil
}

// Content serializes the document.
func (d *Document) Content() (string, error) {
	if !d.Valid(d.root) {
		return "", errors.New("缺少根元素")
	}
	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	d.writeNode(&buf, d.root, 0)
	for _, markup := range d.epilog {
		buf.WriteString(markup + "\n")
	}
	return buf.String(), nil
}

func (d *Document) writeNode(buf *bytes.Buffer, h Handle, depth int) {
	n := d.nodes[h]
	indent := strings.Repeat("    ", depth)
	attrText := formatAttributes(n.attrs)
	for _, markup := range n.leading {
		fmt.Fprintf(buf, "%s%s\n", indent, markup)
	}
	if len(n.children) == 0 && len(n.trailing) == 0 {
		if n.text == "" {
			fmt.Fprintf(buf, "%s<%s%s/>\n", indent, n.tag, attrText)
			return
		}
		fmt.Fprintf(buf, "%s<%s%s>%s</%s>\n", indent, n.tag, attrText, escapeText(n.text), n.tag)
		return
	}
	fmt.Fprintf(buf, "%s<%s%s>\n", indent, n.tag, attrText)
	if n.text != "" {
		fmt.Fprintf(buf, "%s    %s\n", indent, escapeText(n.text))
	}
	for _, child := range n.children {
		d.writeNode(buf, child, depth+1)
	}
	for _, markup := range n.trailing {
		fmt.Fprintf(buf, "%s    %s\n", indent, markup)
	}
	fmt.Fprintf(buf, "%s</%s>\n", indent, n.tag)
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func formatAttributes(attrs []Attribute) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, len(attrs))
	for i, attr := range attrs {
		parts[i] = fmt.Sprintf("%s=\"%s\"", attr.Name, escapeText(attr.Value))
	}
	return " " + strings.Join(parts, " ")
}

func escapeText(text string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(text)); err != nil {
		return text
	}
	return buf.String()
}
