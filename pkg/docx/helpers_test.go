package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
)

// buildDocxBytes assembles a minimal DOCX package whose body contains the
// given WordprocessingML fragment.
func buildDocxBytes(t *testing.T, body string) []byte {
	t.Helper()

	documentXML := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`, body)

	parts := map[string]string{
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": documentXML,
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}

// openTemplate parses a package built by buildDocxBytes.
func openTemplate(t *testing.T, body string) *Template {
	t.Helper()

	tpl, err := Open(bytes.NewReader(buildDocxBytes(t, body)))
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	return tpl
}

// saveAndReopen round-trips a template through Save and Open.
func saveAndReopen(t *testing.T, tpl *Template) *Template {
	t.Helper()

	var buf bytes.Buffer
	if err := tpl.Save(&buf); err != nil {
		t.Fatalf("save template: %v", err)
	}

	reopened, err := Open(&buf)
	if err != nil {
		t.Fatalf("reopen saved template: %v", err)
	}
	return reopened
}

// savedPart saves the template and returns the named part's content.
func savedPart(t *testing.T, tpl *Template, name string) string {
	t.Helper()

	var buf bytes.Buffer
	if err := tpl.Save(&buf); err != nil {
		t.Fatalf("save template: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read saved package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open part %s: %v", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read part %s: %v", name, err)
		}
		return string(content)
	}

	t.Fatalf("part %s not found in saved package", name)
	return ""
}

// testPNG encodes a solid-color PNG of the given pixel size.
func testPNG(t *testing.T, w, h int) *Image {
	t.Helper()

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			rgba.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	img, err := LoadImageBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

// bodyText concatenates the text of all body paragraphs.
func bodyText(tpl *Template) string {
	var out string
	for _, p := range tpl.Document().Body.Paragraphs() {
		out += p.GetText()
	}
	return out
}
