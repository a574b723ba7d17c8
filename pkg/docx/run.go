package docx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// namespaceToPrefix converts a namespace URI to its conventional prefix
func namespaceToPrefix(uri string) string {
	prefixMap := map[string]string{
		// Core Word namespaces
		"http://schemas.openxmlformats.org/wordprocessingml/2006/main":        "w",
		"http://schemas.openxmlformats.org/officeDocument/2006/relationships": "r",
		"http://schemas.openxmlformats.org/officeDocument/2006/math":          "m",
		"http://www.w3.org/XML/1998/namespace":                                "xml",
		// Drawing namespaces
		"http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing": "wp",
		"http://schemas.openxmlformats.org/drawingml/2006/main":                  "a",
		"http://schemas.openxmlformats.org/drawingml/2006/picture":               "pic",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing":    "wp14",
		"http://schemas.microsoft.com/office/drawing/2010/main":                  "a14",
		// VML namespaces
		"urn:schemas-microsoft-com:vml":           "v",
		"urn:schemas-microsoft-com:office:office": "o",
		"urn:schemas-microsoft-com:office:word":   "w10",
		// Markup compatibility namespace
		"http://schemas.openxmlformats.org/markup-compatibility/2006": "mc",
		// Word processing shapes and canvas
		"http://schemas.microsoft.com/office/word/2010/wordprocessingShape":  "wps",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingCanvas": "wpc",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingGroup":  "wpg",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingInk":    "wpi",
		// Extended Word namespaces
		"http://schemas.microsoft.com/office/word/2010/wordml":               "w14",
		"http://schemas.microsoft.com/office/word/2012/wordml":               "w15",
		"http://schemas.microsoft.com/office/word/2015/wordml/symex":         "w16se",
		"http://schemas.microsoft.com/office/word/2016/wordml/cid":           "w16cid",
		"http://schemas.microsoft.com/office/word/2018/wordml":               "w16",
		"http://schemas.microsoft.com/office/word/2018/wordml/cex":           "w16cex",
		"http://schemas.microsoft.com/office/word/2020/wordml/sdtdatahash":   "w16sdtdh",
		"http://schemas.microsoft.com/office/word/2024/wordml/sdtformatlock": "w16sdtfl",
		"http://schemas.microsoft.com/office/word/2023/wordml/word16du":      "w16du",
		"http://schemas.microsoft.com/office/word/2006/wordml":               "wne",
		// Chart namespaces
		"http://schemas.microsoft.com/office/drawing/2014/chartex":       "cx",
		"http://schemas.microsoft.com/office/drawing/2015/9/8/chartex":   "cx1",
		"http://schemas.microsoft.com/office/drawing/2015/10/21/chartex": "cx2",
		"http://schemas.microsoft.com/office/drawing/2016/5/9/chartex":   "cx3",
		"http://schemas.microsoft.com/office/drawing/2016/5/10/chartex":  "cx4",
		"http://schemas.microsoft.com/office/drawing/2016/5/11/chartex":  "cx5",
		"http://schemas.microsoft.com/office/drawing/2016/5/12/chartex":  "cx6",
		"http://schemas.microsoft.com/office/drawing/2016/5/13/chartex":  "cx7",
		"http://schemas.microsoft.com/office/drawing/2016/5/14/chartex":  "cx8",
		// Other drawing namespaces
		"http://schemas.microsoft.com/office/drawing/2016/ink":     "aink",
		"http://schemas.microsoft.com/office/drawing/2017/model3d": "am3d",
		// Office extension namespaces
		"http://schemas.microsoft.com/office/2019/extlst": "oel",
	}

	if prefix, ok := prefixMap[uri]; ok {
		return prefix
	}
	// For unknown namespaces, return the URI as-is (shouldn't happen in practice)
	return uri
}

// Run represents a run of text with common properties
type Run struct {
	Properties *RunProperties
	Text       *Text
	Break      *Break
	// RawXML stores unparsed XML elements (like drawings) to preserve them
	RawXML []RawXMLElement
}

// isParagraphContent implements the ParagraphContent interface
func (r Run) isParagraphContent() {}

// UnmarshalXML implements custom XML unmarshaling to preserve unknown elements
func (r *Run) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			case "rPr":
				var props RunProperties
				if err := d.DecodeElement(&props, &t); err != nil {
					return err
				}
				r.Properties = &props
			case "t":
				var text Text
				if err := d.DecodeElement(&text, &t); err != nil {
					return err
				}
				r.Text = &text
			case "br":
				var br Break
				if err := d.DecodeElement(&br, &t); err != nil {
					return err
				}
				r.Break = &br
			default:
				// Preserve unknown elements (drawings and friends) as raw XML
				// in namespace-prefix form
				var raw RawXMLElement
				raw.XMLName = t.Name
				raw.Attrs = t.Attr

				depth := 1
				var buf strings.Builder
				writeRawStartTag(&buf, t)

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
						writeRawEndTag(&buf, tt)
					case xml.CharData:
						buf.WriteString(escapeRawCharData(string(tt)))
					}
				}

				raw.Content = []byte(buf.String())
				r.RawXML = append(r.RawXML, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "r" {
				return nil
			}
		}
	}

	return nil
}

// MarshalXML implements custom XML marshaling for Run to ensure proper namespacing
func (r Run) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:r"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if r.Properties != nil {
		if err := e.EncodeElement(r.Properties, xml.StartElement{Name: xml.Name{Local: "w:rPr"}}); err != nil {
			return err
		}
	}

	// A break before the text keeps multi-line substitutions in order
	if r.Break != nil {
		if err := e.Encode(r.Break); err != nil {
			return err
		}
	}

	if r.Text != nil {
		if err := e.EncodeElement(r.Text, xml.StartElement{Name: xml.Name{Local: "w:t"}}); err != nil {
			return err
		}
	}

	// Note: RawXML is handled separately after initial marshaling

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// GetText returns the text content of a run
func (r *Run) GetText() string {
	if r.Text == nil {
		return ""
	}
	return r.Text.Content
}

// RunProperties represents run formatting properties
type RunProperties struct {
	Bold          *Empty          `xml:"b"`
	Italic        *Empty          `xml:"i"`
	Underline     *UnderlineStyle `xml:"u"`
	Strike        *Empty          `xml:"strike"`
	VerticalAlign *VerticalAlign  `xml:"vertAlign"`
	Color         *Color          `xml:"color"`
	Size          *Size           `xml:"sz"`
	SizeCs        *Size           `xml:"szCs"`
	Font          *Font           `xml:"rFonts"`
	Style         *RunStyle       `xml:"rStyle"`
}

// Text represents text content
type Text struct {
	XMLName xml.Name `xml:"t"`
	Space   string   `xml:"space,attr"`
	Content string   `xml:",chardata"`
}

// MarshalXML implements custom XML marshaling for Text to ensure proper namespacing
func (t Text) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:t"}
	if t.Space == "preserve" {
		// Use the predefined XML namespace
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Space: "http://www.w3.org/XML/1998/namespace", Local: "space"},
			Value: "preserve",
		})
	}
	return e.EncodeElement(t.Content, start)
}

// Break represents a line or page break
type Break struct {
	Type string `xml:"type,attr,omitempty"`
}

// MarshalXML implements xml.Marshaler to ensure Break is self-closing
func (b *Break) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	// Use w:br since the w namespace is already defined in the document
	start.Name = xml.Name{
		Local: "w:br",
	}
	start.Attr = nil
	if b.Type != "" {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Local: "w:type"},
			Value: b.Type,
		})
	}
	return e.EncodeElement(struct{}{}, start)
}

// IsPageBreak reports whether the break is a hard page break.
func (b *Break) IsPageBreak() bool {
	return b != nil && b.Type == "page"
}

// Color represents text color
type Color struct {
	Val string `xml:"val,attr"`
}

// Size represents font size in half-points
type Size struct {
	Val int `xml:"val,attr"`
}

// MarshalXML implements custom XML marshaling for Size
func (s Size) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if !strings.HasPrefix(start.Name.Local, "w:") {
		start.Name.Local = "w:" + start.Name.Local
	}
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:val"}, Value: fmt.Sprintf("%d", s.Val)},
	}
	return e.EncodeElement(struct{}{}, start)
}

// Font represents font information
type Font struct {
	ASCII string `xml:"ascii,attr"`
}

// MarshalXML implements custom XML marshaling for Font
func (f Font) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if !strings.HasPrefix(start.Name.Local, "w:") {
		start.Name.Local = "w:" + start.Name.Local
	}
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:ascii"}, Value: f.ASCII},
	}
	return e.EncodeElement(struct{}{}, start)
}

// RunStyle represents a run style reference
type RunStyle struct {
	Val string `xml:"val,attr"`
}

// MarshalXML implements custom XML marshaling for RunStyle
func (s RunStyle) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:rStyle"}
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:val"}, Value: s.Val},
	}
	return e.EncodeElement(struct{}{}, start)
}

// UnderlineStyle represents underline formatting
type UnderlineStyle struct {
	Val string `xml:"val,attr"`
}

// VerticalAlign represents vertical alignment (cell or superscript/subscript)
type VerticalAlign struct {
	Val string `xml:"val,attr"`
}

// MarshalXML implements custom XML marshaling for VerticalAlign
func (v VerticalAlign) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:val"}, Value: v.Val},
	}
	return e.EncodeElement(struct{}{}, start)
}
