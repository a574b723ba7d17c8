package docx

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Registered formats for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// EMU is a length in English Metric Units, the native unit of DrawingML.
// One EMU is 1/914400 inch.
type EMU int64

const (
	emuPerCm    = 360000
	emuPerInch  = 914400
	emuPerPixel = 9525 // at 96 DPI
)

// Cm converts centimeters to EMUs.
func Cm(cm float64) EMU {
	return EMU(cm * emuPerCm)
}

// Inches converts inches to EMUs.
func Inches(in float64) EMU {
	return EMU(in * emuPerInch)
}

// Image holds decoded metadata and raw bytes for a picture to be embedded
// in a document.
type Image struct {
	Path     string // original file name, may be empty for in-memory images
	Data     []byte
	Format   string // decoded format name: "png", "jpeg", "gif", "bmp", "tiff"
	WidthPx  int
	HeightPx int
}

// LoadImage reads and decodes image metadata from a file.
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("load image", path, err)
	}

	img, err := LoadImageBytes(data)
	if err != nil {
		return nil, NewDocumentError("load image", path, err)
	}

	img.Path = filepath.Base(path)
	return img, nil
}

// LoadImageBytes decodes image metadata from raw bytes.
func LoadImageBytes(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported image data: %w", err)
	}

	return &Image{
		Data:     data,
		Format:   format,
		WidthPx:  cfg.Width,
		HeightPx: cfg.Height,
	}, nil
}

// Extension returns the file extension for the image format, without a dot.
func (img *Image) Extension() string {
	switch img.Format {
	case "jpeg":
		return "jpg"
	default:
		return img.Format
	}
}

// scaled computes the display size in EMUs. A zero width or height is
// derived from the pixel aspect ratio; if both are zero the natural pixel
// size at 96 DPI is used.
func (img *Image) scaled(width, height EMU) (EMU, EMU) {
	if width == 0 && height == 0 {
		return EMU(img.WidthPx) * emuPerPixel, EMU(img.HeightPx) * emuPerPixel
	}
	if width == 0 {
		if img.HeightPx > 0 {
			width = height * EMU(img.WidthPx) / EMU(img.HeightPx)
		} else {
			width = height
		}
	}
	if height == 0 {
		if img.WidthPx > 0 {
			height = width * EMU(img.HeightPx) / EMU(img.WidthPx)
		} else {
			height = width
		}
	}
	return width, height
}

// ImageOptions controls the display size of an embedded picture. Zero
// values keep the image aspect ratio, or its natural size when both are
// zero.
type ImageOptions struct {
	Width  EMU
	Height EMU
}

const imageRelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

// imageContentTypes maps media extensions to the MIME types declared in
// [Content_Types].xml.
var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
}

// nextRelationshipID returns an unused rId for the relationships part.
func nextRelationshipID(rels *Relationships) string {
	maxID := 0
	for _, rel := range rels.Relationship {
		var n int
		if _, err := fmt.Sscanf(rel.ID, "rId%d", &n); err == nil && n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("rId%d", maxID+1)
}

// addImageRelationship registers a media part in the document relationships
// and returns the new relationship ID.
func addImageRelationship(rels *Relationships, target string) string {
	id := nextRelationshipID(rels)
	rels.Relationship = append(rels.Relationship, Relationship{
		ID:     id,
		Type:   imageRelationshipType,
		Target: target,
	})
	return id
}

// ReplaceImage finds the first table cell whose text contains token,
// replaces the cell content with the embedded picture, and returns the
// cell so callers can adjust its properties. Returns ErrTokenNotFound
// when no cell matches.
func (t *Template) ReplaceImage(token string, img *Image, opts ImageOptions) (*TableCell, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}

	for _, tbl := range t.doc.Body.Tables() {
		for ri := range tbl.Rows {
			for ci := range tbl.Rows[ri].Cells {
				cell := &tbl.Rows[ri].Cells[ci]
				if !strings.Contains(cell.GetText(), token) {
					continue
				}

				cell.Paragraphs = []Paragraph{t.pictureParagraph(img, opts)}
				return cell, nil
			}
		}
	}

	return nil, ErrTokenNotFound
}

// pictureParagraph embeds the image as a media part and wraps the drawing
// in a centered paragraph.
func (t *Template) pictureParagraph(img *Image, opts ImageOptions) Paragraph {
	cx, cy := img.scaled(opts.Width, opts.Height)
	relID := t.addImage(img)

	name := img.Path
	if name == "" {
		name = fmt.Sprintf("image%d", t.imageCount)
	}

	return Paragraph{
		Properties: &ParagraphProperties{
			Alignment: &Alignment{Val: "center"},
		},
		Content: []ParagraphContent{
			&Run{RawXML: []RawXMLElement{{Content: drawingXML(relID, name, t.imageCount, cx, cy)}}},
		},
	}
}

// drawingXML builds the inline drawing markup for an embedded picture.
// Namespaces used inside the drawing are declared on wp:inline so the
// result stays valid in documents whose root only declares xmlns:w.
var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func drawingXML(relID, name string, docPrID int, cx, cy EMU) []byte {
	name = attrEscaper.Replace(name)
	var b strings.Builder
	fmt.Fprintf(&b, `<w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0"`+
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"`+
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`+
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`+
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`)
	fmt.Fprintf(&b, `<wp:extent cx="%d" cy="%d"/>`, cx, cy)
	fmt.Fprintf(&b, `<wp:effectExtent l="0" t="0" r="0" b="0"/>`)
	fmt.Fprintf(&b, `<wp:docPr id="%d" name="%s"/>`, docPrID, name)
	fmt.Fprintf(&b, `<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`)
	fmt.Fprintf(&b, `<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	fmt.Fprintf(&b, `<pic:pic>`)
	fmt.Fprintf(&b, `<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, docPrID, name)
	fmt.Fprintf(&b, `<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, relID)
	fmt.Fprintf(&b, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, cx, cy)
	fmt.Fprintf(&b, `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`)
	fmt.Fprintf(&b, `</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`)
	return []byte(b.String())
}
