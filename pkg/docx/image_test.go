package docx

import (
	"errors"
	"strings"
	"testing"
)

func TestUnitConversions(t *testing.T) {
	if got := Cm(1); got != 360000 {
		t.Errorf("Cm(1) = %d, want 360000", got)
	}
	if got := Inches(1.5); got != 1371600 {
		t.Errorf("Inches(1.5) = %d, want 1371600", got)
	}
}

func TestImageScaled(t *testing.T) {
	img := &Image{WidthPx: 400, HeightPx: 300}

	tests := []struct {
		name          string
		width, height EMU
		wantW, wantH  EMU
	}{
		{"both fixed", Cm(8), Cm(5), Cm(8), Cm(5)},
		{"height from aspect", Cm(4), 0, Cm(4), Cm(3)},
		{"width from aspect", 0, Cm(3), Cm(4), Cm(3)},
		{"natural size", 0, 0, 400 * 9525, 300 * 9525},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := img.scaled(tt.width, tt.height)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("scaled(%d, %d) = (%d, %d), want (%d, %d)", tt.width, tt.height, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestLoadImageBytes(t *testing.T) {
	img := testPNG(t, 16, 9)

	if img.Format != "png" {
		t.Errorf("format = %q, want png", img.Format)
	}
	if img.WidthPx != 16 || img.HeightPx != 9 {
		t.Errorf("size = %dx%d, want 16x9", img.WidthPx, img.HeightPx)
	}
	if img.Extension() != "png" {
		t.Errorf("extension = %q, want png", img.Extension())
	}
}

func TestLoadImageBytesRejectsGarbage(t *testing.T) {
	if _, err := LoadImageBytes([]byte("not an image")); err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestReplaceImage(t *testing.T) {
	tpl := openTemplate(t, `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>{{LOGO1}}</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Title</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	img := testPNG(t, 120, 60)
	cell, err := tpl.ReplaceImage("{{LOGO1}}", img, ImageOptions{Width: Inches(1.5)})
	if err != nil {
		t.Fatalf("ReplaceImage: %v", err)
	}
	if cell == nil {
		t.Fatal("ReplaceImage returned nil cell")
	}
	if got := cell.GetText(); got != "" {
		t.Errorf("picture cell still carries text %q", got)
	}

	docXML := savedPart(t, tpl, "word/document.xml")
	if !strings.Contains(docXML, "<w:drawing>") {
		t.Errorf("saved document has no drawing:\n%s", docXML)
	}
	if strings.Contains(docXML, "{{LOGO1}}") {
		t.Error("placeholder token survived image replacement")
	}
	if !strings.Contains(docXML, `cx="1371600"`) {
		t.Error("drawing extent does not reflect the 1.5in width")
	}
	// The second cell is untouched
	if !strings.Contains(docXML, "Title") {
		t.Error("neighboring cell content lost")
	}
}

func TestReplaceImageMissingToken(t *testing.T) {
	tpl := openTemplate(t, `<w:p><w:r><w:t>no tables</w:t></w:r></w:p>`)

	_, err := tpl.ReplaceImage("{{LOGO1}}", testPNG(t, 4, 4), ImageOptions{})
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestReplaceImageRegistersMedia(t *testing.T) {
	tpl := openTemplate(t, `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>{{LOGO1}}</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	if _, err := tpl.ReplaceImage("{{LOGO1}}", testPNG(t, 4, 4), ImageOptions{}); err != nil {
		t.Fatalf("ReplaceImage: %v", err)
	}

	rels := savedPart(t, tpl, "word/_rels/document.xml.rels")
	if !strings.Contains(rels, "media/image1.png") {
		t.Errorf("relationships missing media target:\n%s", rels)
	}
	if !strings.Contains(rels, imageRelationshipType) {
		t.Error("relationship type missing")
	}

	contentTypes := savedPart(t, tpl, "[Content_Types].xml")
	if !strings.Contains(contentTypes, `Extension="png"`) {
		t.Errorf("content types missing png default:\n%s", contentTypes)
	}

	if got := savedPart(t, tpl, "word/media/image1.png"); len(got) == 0 {
		t.Error("media part is empty")
	}
}

func TestNextRelationshipID(t *testing.T) {
	rels := &Relationships{Relationship: []Relationship{
		{ID: "rId1"}, {ID: "rId7"}, {ID: "rId3"},
	}}
	if got := nextRelationshipID(rels); got != "rId8" {
		t.Errorf("got %q, want rId8", got)
	}

	if got := nextRelationshipID(&Relationships{}); got != "rId1" {
		t.Errorf("got %q, want rId1 for empty set", got)
	}
}
