package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// marshalDocument serializes a document back to the XML that belongs in
// word/document.xml.
//
// encoding/xml cannot emit the namespace-prefixed form Word expects, so
// marshaling happens in three stages: preserved raw XML (drawings, exotic
// paragraph properties, sectPr) is swapped for unique text markers, the
// tree is marshaled and the element/attribute names are rewritten to their
// w: prefixed form, and finally the markers are replaced with the raw
// content, which was captured in prefix form at parse time.
func marshalDocument(doc *Document) ([]byte, error) {
	rawXMLMap := make(map[string][]byte)
	markerIndex := 0

	// Marker insertion mutates the tree; the mutations are reverted after
	// marshaling so the document can be saved more than once.
	var restores []func()

	nextMarker := func(content []byte) string {
		marker := fmt.Sprintf("__RAW_XML_MARKER_%d__", markerIndex)
		rawXMLMap[marker] = content
		markerIndex++
		return marker
	}

	collectParagraph := func(p *Paragraph) {
		if p.Properties != nil && len(p.Properties.RawXML) > 0 {
			props := p.Properties
			for _, raw := range props.RawXML {
				props.RawXMLMarkers = append(props.RawXMLMarkers, nextMarker(raw.Content))
			}
			restores = append(restores, func() { props.RawXMLMarkers = nil })
		}
		for _, run := range p.Runs() {
			if len(run.RawXML) == 0 {
				continue
			}
			prevText := run.Text
			for _, raw := range run.RawXML {
				marker := nextMarker(raw.Content)
				// Insert marker as text in the run
				if run.Text == nil {
					run.Text = &Text{Content: marker}
				} else {
					run.Text = &Text{Space: run.Text.Space, Content: run.Text.Content + marker}
				}
			}
			restores = append(restores, func() { run.Text = prevText })
		}
	}
	defer func() {
		for _, restore := range restores {
			restore()
		}
	}()

	// Walk every paragraph, including the ones inside table cells
	for _, elem := range doc.Body.Elements {
		switch el := elem.(type) {
		case *Paragraph:
			collectParagraph(el)
		case *Table:
			for ri := range el.Rows {
				for ci := range el.Rows[ri].Cells {
					cell := &el.Rows[ri].Cells[ci]
					for pi := range cell.Paragraphs {
						collectParagraph(&cell.Paragraphs[pi])
					}
				}
			}
		}
	}

	data, err := xml.Marshal(doc.Body)
	if err != nil {
		return nil, err
	}

	xmlStr := string(data)

	// Elements whose marshaling could not apply the w: prefix itself
	// (struct-tag marshaled run properties, width/span attributes)
	xmlStr = strings.ReplaceAll(xmlStr, "<b></b>", `<w:b/>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<b/>", `<w:b/>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<i></i>", `<w:i/>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<i/>", `<w:i/>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<strike></strike>", `<w:strike/>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<strike/>", `<w:strike/>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<u ", `<w:u `)
	xmlStr = strings.ReplaceAll(xmlStr, "</u>", `</w:u>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<vertAlign ", `<w:vertAlign `)
	xmlStr = strings.ReplaceAll(xmlStr, "</vertAlign>", `</w:vertAlign>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<vAlign ", `<w:vAlign `)
	xmlStr = strings.ReplaceAll(xmlStr, "</vAlign>", `</w:vAlign>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<color ", `<w:color `)
	xmlStr = strings.ReplaceAll(xmlStr, "</color>", `</w:color>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<tcW ", `<w:tcW `)
	xmlStr = strings.ReplaceAll(xmlStr, "</tcW>", `</w:tcW>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<tblW ", `<w:tblW `)
	xmlStr = strings.ReplaceAll(xmlStr, "</tblW>", `</w:tblW>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<gridSpan ", `<w:gridSpan `)
	xmlStr = strings.ReplaceAll(xmlStr, "</gridSpan>", `</w:gridSpan>`)
	xmlStr = strings.ReplaceAll(xmlStr, "<trHeight ", `<w:trHeight `)
	xmlStr = strings.ReplaceAll(xmlStr, "</trHeight>", `</w:trHeight>`)

	// encoding/xml does not emit self-closing tags
	xmlStr = strings.ReplaceAll(xmlStr, "<w:br></w:br>", `<w:br/>`)
	xmlStr = strings.ReplaceAll(xmlStr, `"></w:br>`, `"/>`)

	// Remove empty property containers
	xmlStr = strings.ReplaceAll(xmlStr, `<w:pPr></w:pPr>`, ``)
	xmlStr = strings.ReplaceAll(xmlStr, `<w:rPr></w:rPr>`, ``)
	xmlStr = strings.ReplaceAll(xmlStr, `space=""`, ``)

	// Fix attribute namespaces (while markers are still in place)
	xmlStr = strings.ReplaceAll(xmlStr, ` val="`, ` w:val="`)
	xmlStr = strings.ReplaceAll(xmlStr, ` type="`, ` w:type="`)
	xmlStr = strings.ReplaceAll(xmlStr, ` w="`, ` w:w="`)
	xmlStr = strings.ReplaceAll(xmlStr, ` ascii="`, ` w:ascii="`)

	// Now replace markers with the preserved raw XML (AFTER attribute fixing).
	// Raw run-level elements (like drawings) must be siblings of <w:t>, not
	// children, so the whole <w:t>marker</w:t> wrapper is replaced.
	for marker, rawXML := range rawXMLMap {
		if !strings.Contains(xmlStr, marker) {
			continue
		}
		content := string(rawXML)

		textWithMarker := fmt.Sprintf("<w:t>%s</w:t>", marker)
		textWithMarkerPreserve := fmt.Sprintf(`<w:t xml:space="preserve">%s</w:t>`, marker)
		propMarker := fmt.Sprintf("<rawXMLMarker>%s</rawXMLMarker>", marker)

		switch {
		case strings.Contains(xmlStr, textWithMarker):
			xmlStr = strings.ReplaceAll(xmlStr, textWithMarker, content)
		case strings.Contains(xmlStr, textWithMarkerPreserve):
			xmlStr = strings.ReplaceAll(xmlStr, textWithMarkerPreserve, content)
		case strings.Contains(xmlStr, propMarker):
			xmlStr = strings.ReplaceAll(xmlStr, propMarker, content)
		default:
			// Marker shares a text node with other content; splice in place
			xmlStr = strings.ReplaceAll(xmlStr, marker, content)
		}
	}

	// Reinject section properties before </w:body>
	if doc.Body.SectionProperties != nil {
		bodyEndTag := "</w:body>"
		if idx := strings.LastIndex(xmlStr, bodyEndTag); idx >= 0 {
			var sectBuf bytes.Buffer
			sectBuf.WriteString("<w:sectPr")
			for _, attr := range doc.Body.SectionProperties.Attrs {
				sectBuf.WriteString(" w:")
				sectBuf.WriteString(attr.Name.Local)
				sectBuf.WriteString(`="`)
				sectBuf.WriteString(attr.Value)
				sectBuf.WriteString(`"`)
			}
			sectBuf.WriteString(">")
			sectBuf.Write(doc.Body.SectionProperties.Content)
			sectBuf.WriteString("</w:sectPr>")

			xmlStr = xmlStr[:idx] + sectBuf.String() + xmlStr[idx:]
		}
	}

	// Wrap in the document root with the preserved namespace attributes
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	buf.WriteString("\n")
	buf.WriteString("<w:document")

	if len(doc.Attrs) > 0 {
		for _, attr := range doc.Attrs {
			// Skip a default xmlns declaration since we emit w:document
			if attr.Name.Local == "xmlns" && attr.Name.Space == "" {
				continue
			}
			buf.WriteString(" ")
			if attr.Name.Space != "" {
				buf.WriteString(namespaceToPrefix(attr.Name.Space))
				buf.WriteString(":")
			}
			buf.WriteString(attr.Name.Local)
			buf.WriteString(`="`)
			buf.WriteString(attr.Value)
			buf.WriteString(`"`)
		}
	} else {
		// Fallback to a minimal namespace set for documents built from scratch
		buf.WriteString(` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`)
		buf.WriteString(` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"`)
		buf.WriteString(` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`)
		buf.WriteString(` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`)
		buf.WriteString(` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`)
	}

	buf.WriteString(">")
	buf.WriteString(xmlStr)
	buf.WriteString(`</w:document>`)

	return buf.Bytes(), nil
}
