package docx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Paragraph represents a paragraph in the document
type Paragraph struct {
	Properties *ParagraphProperties
	// Content maintains the order of runs and hyperlinks
	Content []ParagraphContent
}

// isBodyElement implements the BodyElement interface
func (p Paragraph) isBodyElement() {}

// UnmarshalXML implements custom XML unmarshaling to preserve element order
func (p *Paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			case "pPr":
				var props ParagraphProperties
				if err := d.DecodeElement(&props, &t); err != nil {
					return err
				}
				p.Properties = &props
			case "r":
				var run Run
				if err := d.DecodeElement(&run, &t); err != nil {
					return err
				}
				p.Content = append(p.Content, &run)
			case "hyperlink":
				var hyperlink Hyperlink
				if err := d.DecodeElement(&hyperlink, &t); err != nil {
					return err
				}
				p.Content = append(p.Content, &hyperlink)
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				return nil
			}
		}
	}

	return nil
}

// MarshalXML implements custom XML marshaling for Paragraph to ensure proper namespacing
func (p Paragraph) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:p"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Properties != nil {
		if err := e.EncodeElement(p.Properties, xml.StartElement{Name: xml.Name{Local: "w:pPr"}}); err != nil {
			return err
		}
	}

	for _, content := range p.Content {
		switch c := content.(type) {
		case *Run:
			if err := e.EncodeElement(c, xml.StartElement{Name: xml.Name{Local: "w:r"}}); err != nil {
				return err
			}
		case *Hyperlink:
			if err := e.EncodeElement(c, xml.StartElement{Name: xml.Name{Local: "w:hyperlink"}}); err != nil {
				return err
			}
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Runs returns pointers to the runs of the paragraph, in order.
// Runs inside hyperlinks are not included, matching how substitution
// treats hyperlink text as untouchable.
func (p *Paragraph) Runs() []*Run {
	var runs []*Run
	for _, content := range p.Content {
		if r, ok := content.(*Run); ok {
			runs = append(runs, r)
		}
	}
	return runs
}

// AppendRun adds a run to the end of the paragraph.
func (p *Paragraph) AppendRun(r *Run) {
	p.Content = append(p.Content, r)
}

// GetText returns the concatenated text of all runs in a paragraph
func (p *Paragraph) GetText() string {
	var texts []string
	for _, content := range p.Content {
		switch c := content.(type) {
		case *Run:
			if text := c.GetText(); text != "" {
				texts = append(texts, text)
			}
		case *Hyperlink:
			if text := c.GetText(); text != "" {
				texts = append(texts, text)
			}
		}
	}
	return strings.Join(texts, "")
}

// ParagraphProperties represents paragraph formatting properties
type ParagraphProperties struct {
	Style         *Style         `xml:"pStyle"`
	Alignment     *Alignment     `xml:"jc"`
	Indentation   *Indentation   `xml:"ind"`
	Spacing       *Spacing       `xml:"spacing"`
	RunProperties *RunProperties `xml:"rPr"` // Default run properties for paragraph
	// RawXML stores unparsed XML elements to preserve all paragraph properties
	RawXML []RawXMLElement `xml:"-"`
	// RawXMLMarkers stores marker strings for RawXML elements (used during marshaling)
	RawXMLMarkers []string `xml:"-"`
}

// UnmarshalXML implements custom XML unmarshaling to preserve unknown elements
func (p *ParagraphProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			case "pStyle":
				var style Style
				if err := d.DecodeElement(&style, &t); err != nil {
					return err
				}
				p.Style = &style
			case "jc":
				var alignment Alignment
				if err := d.DecodeElement(&alignment, &t); err != nil {
					return err
				}
				p.Alignment = &alignment
			case "ind":
				var indentation Indentation
				if err := d.DecodeElement(&indentation, &t); err != nil {
					return err
				}
				p.Indentation = &indentation
			case "spacing":
				var spacing Spacing
				if err := d.DecodeElement(&spacing, &t); err != nil {
					return err
				}
				p.Spacing = &spacing
			case "rPr":
				var runProps RunProperties
				if err := d.DecodeElement(&runProps, &t); err != nil {
					return err
				}
				p.RunProperties = &runProps
			default:
				// Preserve unknown elements as raw XML in prefix form
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
				p.RawXML = append(p.RawXML, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "pPr" {
				return nil
			}
		}
	}

	return nil
}

// MarshalXML implements custom XML marshaling for ParagraphProperties
func (p ParagraphProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:pPr"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Style != nil {
		if err := e.EncodeElement(p.Style, xml.StartElement{Name: xml.Name{Local: "w:pStyle"}}); err != nil {
			return err
		}
	}

	// Markers stand in for raw property elements; they are swapped for the
	// preserved XML after marshaling
	for _, marker := range p.RawXMLMarkers {
		markerElem := struct {
			XMLName xml.Name
			Content string `xml:",chardata"`
		}{
			XMLName: xml.Name{Local: "rawXMLMarker"},
			Content: marker,
		}
		if err := e.EncodeElement(&markerElem, xml.StartElement{Name: xml.Name{Local: "rawXMLMarker"}}); err != nil {
			return err
		}
	}

	if p.Spacing != nil {
		if err := e.EncodeElement(p.Spacing, xml.StartElement{Name: xml.Name{Local: "w:spacing"}}); err != nil {
			return err
		}
	}

	if p.Indentation != nil {
		if err := e.EncodeElement(p.Indentation, xml.StartElement{Name: xml.Name{Local: "w:ind"}}); err != nil {
			return err
		}
	}

	if p.Alignment != nil {
		if err := e.EncodeElement(p.Alignment, xml.StartElement{Name: xml.Name{Local: "w:jc"}}); err != nil {
			return err
		}
	}

	// Output run properties last (sets defaults for runs in this paragraph)
	if p.RunProperties != nil {
		if err := e.EncodeElement(p.RunProperties, xml.StartElement{Name: xml.Name{Local: "w:rPr"}}); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Alignment represents text alignment
type Alignment struct {
	Val string `xml:"val,attr"`
}

// MarshalXML implements custom XML marshaling for Alignment
func (a Alignment) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:jc"}
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:val"}, Value: a.Val},
	}
	return e.EncodeElement(struct{}{}, start)
}

// Indentation represents paragraph indentation
type Indentation struct {
	Left  int `xml:"left,attr"`
	Right int `xml:"right,attr"`
}

// MarshalXML implements custom XML marshaling for Indentation
func (i Indentation) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:ind"}
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:left"}, Value: fmt.Sprintf("%d", i.Left)},
		{Name: xml.Name{Local: "w:right"}, Value: fmt.Sprintf("%d", i.Right)},
	}
	return e.EncodeElement(struct{}{}, start)
}

// Spacing represents paragraph spacing in twentieths of a point
type Spacing struct {
	Before   int    `xml:"before,attr,omitempty"`
	After    int    `xml:"after,attr,omitempty"`
	Line     int    `xml:"line,attr,omitempty"`
	LineRule string `xml:"lineRule,attr,omitempty"`
}

// MarshalXML implements custom XML marshaling for Spacing
func (s Spacing) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:spacing"}
	start.Attr = []xml.Attr{}

	if s.Before != 0 {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "w:before"}, Value: fmt.Sprintf("%d", s.Before)})
	}
	if s.After != 0 {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "w:after"}, Value: fmt.Sprintf("%d", s.After)})
	}
	if s.Line != 0 {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "w:line"}, Value: fmt.Sprintf("%d", s.Line)})
	}
	if s.LineRule != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "w:lineRule"}, Value: s.LineRule})
	}

	return e.EncodeElement(struct{}{}, start)
}

// Hyperlink represents a hyperlink in the document
type Hyperlink struct {
	ID      string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	History string `xml:"history,attr,omitempty"`
	Runs    []Run  `xml:"r"`
}

// isParagraphContent implements the ParagraphContent interface
func (h Hyperlink) isParagraphContent() {}

// MarshalXML implements custom XML marshaling for Hyperlink to ensure proper namespacing
func (h Hyperlink) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:hyperlink"}

	start.Attr = []xml.Attr{}
	if h.ID != "" {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Space: "http://schemas.openxmlformats.org/officeDocument/2006/relationships", Local: "id"},
			Value: h.ID,
		})
	}
	if h.History != "" {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Local: "w:history"},
			Value: h.History,
		})
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}

	for _, run := range h.Runs {
		if err := e.EncodeElement(&run, xml.StartElement{Name: xml.Name{Local: "w:r"}}); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// GetText returns the concatenated text of all runs in a hyperlink
func (h *Hyperlink) GetText() string {
	var texts []string
	for _, run := range h.Runs {
		if text := run.GetText(); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "")
}
