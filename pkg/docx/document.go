package docx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Document represents a Word document structure
type Document struct {
	XMLName xml.Name   `xml:"document"`
	Body    *Body      `xml:"body"`
	Attrs   []xml.Attr `xml:"-"` // Preserve root element attributes (namespaces)
}

// UnmarshalXML implements custom XML unmarshaling to preserve root attributes
func (doc *Document) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	// Save the attributes from the root element
	doc.Attrs = start.Attr

	// Use an anonymous struct to avoid recursive UnmarshalXML calls
	var temp struct {
		XMLName xml.Name `xml:"document"`
		Body    *Body    `xml:"body"`
	}

	if err := d.DecodeElement(&temp, &start); err != nil {
		return err
	}

	doc.XMLName = temp.XMLName
	doc.Body = temp.Body

	return nil
}

// Body represents the document body
type Body struct {
	// Elements maintains the order of all body elements
	Elements []BodyElement `xml:"-"`
	// SectionProperties at the end of the body (critical for Word compatibility)
	SectionProperties *RawXMLElement `xml:"-"`
}

// UnmarshalXML implements custom XML unmarshaling to preserve element order
func (b *Body) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var para Paragraph
				if err := d.DecodeElement(&para, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &para)
			case "tbl":
				var table Table
				if err := d.DecodeElement(&table, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &table)
			case "sectPr":
				// Capture section properties as raw XML
				var raw RawXMLElement
				raw.XMLName = t.Name
				raw.Attrs = t.Attr

				depth := 1
				var buf strings.Builder

				for depth > 0 {
					tok, err := d.Token()
					if err != nil {
						return err
					}

					switch tt := tok.(type) {
					case xml.StartElement:
						depth++
						writeRawStartTag(&buf, tt)
					case xml.EndElement:
						depth--
						if depth > 0 {
							writeRawEndTag(&buf, tt)
						}
					case xml.CharData:
						buf.WriteString(escapeRawCharData(string(tt)))
					}
				}

				raw.Content = []byte(buf.String())
				b.SectionProperties = &raw
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				return nil
			}
		}
	}

	return nil
}

// MarshalXML implements custom XML marshaling to preserve element order
func (b Body) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:body"}
	start.Attr = nil
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	for _, elem := range b.Elements {
		switch el := elem.(type) {
		case *Paragraph:
			if err := e.EncodeElement(el, xml.StartElement{Name: xml.Name{Local: "w:p"}}); err != nil {
				return err
			}
		case *Table:
			if err := e.EncodeElement(el, xml.StartElement{Name: xml.Name{Local: "w:tbl"}}); err != nil {
				return err
			}
		}
	}

	// Note: Section properties are reinjected in marshal.go with namespace conversion

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Paragraphs returns the top-level paragraphs of the body, in order.
func (b *Body) Paragraphs() []*Paragraph {
	var paras []*Paragraph
	for _, elem := range b.Elements {
		if p, ok := elem.(*Paragraph); ok {
			paras = append(paras, p)
		}
	}
	return paras
}

// Tables returns the top-level tables of the body, in order.
func (b *Body) Tables() []*Table {
	var tables []*Table
	for _, elem := range b.Elements {
		if t, ok := elem.(*Table); ok {
			tables = append(tables, t)
		}
	}
	return tables
}

// insertAfter splices the given elements into the body directly after the
// element at index idx.
func (b *Body) insertAfter(idx int, elems []BodyElement) {
	if len(elems) == 0 {
		return
	}
	rest := make([]BodyElement, len(b.Elements[idx+1:]))
	copy(rest, b.Elements[idx+1:])
	b.Elements = append(b.Elements[:idx+1], elems...)
	b.Elements = append(b.Elements, rest...)
}

// ParseDocument parses a Word document XML
func ParseDocument(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Body == nil {
		return nil, fmt.Errorf("failed to parse document: missing body")
	}

	return &doc, nil
}

// writeRawStartTag writes the opening tag of a raw-captured element with
// namespace URIs converted to their conventional prefixes.
func writeRawStartTag(buf *strings.Builder, t xml.StartElement) {
	buf.WriteString("<")
	if t.Name.Space != "" {
		buf.WriteString(namespaceToPrefix(t.Name.Space))
		buf.WriteString(":")
	}
	buf.WriteString(t.Name.Local)
	for _, attr := range t.Attr {
		buf.WriteString(" ")
		if attr.Name.Space != "" {
			buf.WriteString(namespaceToPrefix(attr.Name.Space))
			buf.WriteString(":")
		}
		buf.WriteString(attr.Name.Local)
		buf.WriteString("=\"")
		buf.WriteString(escapeRawCharData(attr.Value))
		buf.WriteString("\"")
	}
	buf.WriteString(">")
}

// writeRawEndTag writes the closing tag of a raw-captured element.
func writeRawEndTag(buf *strings.Builder, t xml.EndElement) {
	buf.WriteString("</")
	if t.Name.Space != "" {
		buf.WriteString(namespaceToPrefix(t.Name.Space))
		buf.WriteString(":")
	}
	buf.WriteString(t.Name.Local)
	buf.WriteString(">")
}

func escapeRawCharData(s string) string {
	s = strings.Replace(s, "&", "&amp;", -1)
	s = strings.Replace(s, "<", "&lt;", -1)
	s = strings.Replace(s, ">", "&gt;", -1)
	s = strings.Replace(s, "\"", "&quot;", -1)
	return s
}
