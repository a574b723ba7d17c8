package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// Template is a parsed DOCX package whose document body can be mutated and
// written back out as a new package. All other parts are carried over
// unchanged apart from relationships and content types, which are extended
// when media is added.
type Template struct {
	reader *Reader
	doc    *Document
	rels   *Relationships

	// media parts added since opening, keyed by part name
	// (e.g. "word/media/image1.png")
	media      map[string][]byte
	relsDirty  bool
	imageCount int
}

// contentTypes mirrors the structure of [Content_Types].xml.
type contentTypes struct {
	XMLName   xml.Name              `xml:"Types"`
	Namespace string                `xml:"xmlns,attr"`
	Defaults  []contentTypeDefault  `xml:"Default"`
	Overrides []contentTypeOverride `xml:"Override"`
}

type contentTypeDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypeOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Open parses a DOCX package from a reader.
func Open(r io.Reader) (*Template, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, NewDocumentError("open template", "", err)
	}
	return openBytes(content, "")
}

// OpenFile parses a DOCX package from a file path.
func OpenFile(path string) (*Template, error) {
	reader, err := ReaderFromFile(path)
	if err != nil {
		return nil, NewDocumentError("open template", path, err)
	}
	return openReader(reader, path)
}

func openBytes(content []byte, path string) (*Template, error) {
	reader, err := NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, NewDocumentError("open template", path, err)
	}
	return openReader(reader, path)
}

func openReader(reader *Reader, path string) (*Template, error) {
	docXML, err := reader.GetDocumentXML()
	if err != nil {
		return nil, NewDocumentError("open template", path, err)
	}

	doc, err := ParseDocument(strings.NewReader(docXML))
	if err != nil {
		return nil, NewDocumentError("parse document", path, err)
	}

	relList, err := reader.GetRelationships("word/document.xml")
	if err != nil {
		return nil, NewDocumentError("parse relationships", path, err)
	}
	rels := &Relationships{
		Namespace:    "http://schemas.openxmlformats.org/package/2006/relationships",
		Relationship: relList,
	}

	return &Template{
		reader: reader,
		doc:    doc,
		rels:   rels,
		media:  make(map[string][]byte),
	}, nil
}

// Document returns the parsed document tree for direct inspection.
func (t *Template) Document() *Document {
	return t.doc
}

// addImage stores the image as a new media part, registers its relationship
// and returns the relationship ID to embed in drawing markup.
func (t *Template) addImage(img *Image) string {
	t.imageCount++
	name := fmt.Sprintf("word/media/image%d.%s", t.imageCount, img.Extension())
	for _, exists := t.reader.Parts[name]; exists; _, exists = t.reader.Parts[name] {
		t.imageCount++
		name = fmt.Sprintf("word/media/image%d.%s", t.imageCount, img.Extension())
	}
	t.media[name] = img.Data

	relID := addImageRelationship(t.rels, strings.TrimPrefix(name, "word/"))
	t.relsDirty = true
	return relID
}

// Save writes the modified package to w. The source parts are copied over
// as-is except for the document body, the document relationships when media
// was added, and [Content_Types].xml when new media extensions appeared.
func (t *Template) Save(w io.Writer) error {
	docXML, err := marshalDocument(t.doc)
	if err != nil {
		return NewDocumentError("marshal document", "word/document.xml", err)
	}

	zw := zip.NewWriter(w)

	names := t.reader.ListParts()
	sort.Strings(names)

	const relsPart = "word/_rels/document.xml.rels"
	relsWritten := false

	for _, name := range names {
		var content []byte

		switch {
		case name == "word/document.xml":
			content = docXML
		case name == relsPart && t.relsDirty:
			content, err = xml.Marshal(t.rels)
			if err != nil {
				return NewDocumentError("marshal relationships", name, err)
			}
			content = append([]byte(xml.Header), content...)
			relsWritten = true
		case name == "[Content_Types].xml" && len(t.media) > 0:
			content, err = t.contentTypesWithMedia()
			if err != nil {
				return NewDocumentError("update content types", name, err)
			}
		default:
			content, err = t.reader.GetPart(name)
			if err != nil {
				return NewDocumentError("copy part", name, err)
			}
		}

		fw, err := zw.Create(name)
		if err != nil {
			return NewDocumentError("write part", name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return NewDocumentError("write part", name, err)
		}
	}

	// A package without a document rels part still needs one once media
	// relationships exist
	if t.relsDirty && !relsWritten {
		content, err := xml.Marshal(t.rels)
		if err != nil {
			return NewDocumentError("marshal relationships", relsPart, err)
		}
		fw, err := zw.Create(relsPart)
		if err != nil {
			return NewDocumentError("write part", relsPart, err)
		}
		if _, err := fw.Write(append([]byte(xml.Header), content...)); err != nil {
			return NewDocumentError("write part", relsPart, err)
		}
	}

	mediaNames := make([]string, 0, len(t.media))
	for name := range t.media {
		mediaNames = append(mediaNames, name)
	}
	sort.Strings(mediaNames)

	for _, name := range mediaNames {
		fw, err := zw.Create(name)
		if err != nil {
			return NewDocumentError("write media", name, err)
		}
		if _, err := fw.Write(t.media[name]); err != nil {
			return NewDocumentError("write media", name, err)
		}
	}

	return zw.Close()
}

// contentTypesWithMedia extends the package content types with defaults for
// any media extensions not yet declared.
func (t *Template) contentTypesWithMedia() ([]byte, error) {
	raw, err := t.reader.GetPart("[Content_Types].xml")
	if err != nil {
		return nil, err
	}

	var types contentTypes
	if err := xml.Unmarshal(raw, &types); err != nil {
		return nil, err
	}

	declared := make(map[string]bool, len(types.Defaults))
	for _, d := range types.Defaults {
		declared[strings.ToLower(d.Extension)] = true
	}

	added := make(map[string]bool)
	for name := range t.media {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if declared[ext] || added[ext] {
			continue
		}
		mime, ok := imageContentTypes[ext]
		if !ok {
			return nil, fmt.Errorf("no content type for media extension %q", ext)
		}
		types.Defaults = append(types.Defaults, contentTypeDefault{Extension: ext, ContentType: mime})
		added[ext] = true
	}

	out, err := xml.Marshal(types)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
