package report

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/trainkit/reportgen/pkg/docx"
)

// ErrTemplateNotFound marks a template selection that has no file on disk.
var ErrTemplateNotFound = errors.New("report template not found")

// ImageItem is an uploaded picture with its optional caption.
type ImageItem struct {
	Path    string
	Caption string
}

// Assets holds the uploaded image files referenced by a submission. Paths
// point at files in the upload directory; empty paths mean not uploaded.
type Assets struct {
	Logo1   string
	Logo2   string
	Gallery []ImageItem

	// Annexures holds one image list per annexure section
	Annexures [5][]ImageItem
}

// Generator fills report templates and writes finished documents.
type Generator struct {
	TemplateDir string
	OutputDir   string
	Logger      *slog.Logger
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Generate produces the report document for a submission and returns the
// output filename within the generator's output directory. A missing
// template file yields ErrTemplateNotFound.
func (g *Generator) Generate(sub *Submission, assets *Assets) (string, error) {
	templatePath := filepath.Join(g.TemplateDir, TemplateFile(sub.Template))
	if _, err := os.Stat(templatePath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, filepath.Base(templatePath))
	}

	tpl, err := docx.OpenFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("open template: %w", err)
	}

	for token, value := range sub.Replacements() {
		tpl.ReplaceText(token, value)
	}

	if err := g.placeLogos(tpl, assets); err != nil {
		return "", err
	}
	if err := g.placeGallery(tpl, assets.Gallery); err != nil {
		return "", err
	}
	if err := g.placeAnnexures(tpl, assets); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Save(&buf); err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}

	name := sub.OutputFilename()
	outPath := filepath.Join(g.OutputDir, name)
	if err := atomic.WriteFile(outPath, &buf); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}

	g.logger().Info("report generated",
		"output", name,
		"template", TemplateFile(sub.Template),
		"organization", sub.Organization(),
		"gallery_images", len(assets.Gallery))

	return name, nil
}

// placeLogos embeds the two optional header logos at 1.5 inch width.
// A template without logo cells is fine; the upload is skipped.
func (g *Generator) placeLogos(tpl *docx.Template, assets *Assets) error {
	logos := []struct {
		token string
		path  string
	}{
		{"{{LOGO_1}}", assets.Logo1},
		{"{{LOGO_2}}", assets.Logo2},
	}

	for _, logo := range logos {
		if logo.path == "" {
			continue
		}
		img, err := docx.LoadImage(logo.path)
		if err != nil {
			return fmt.Errorf("logo %s: %w", filepath.Base(logo.path), err)
		}
		opts := docx.ImageOptions{Width: docx.Inches(1.5)}
		if _, err := tpl.ReplaceImage(logo.token, img, opts); err != nil && !errors.Is(err, docx.ErrTokenNotFound) {
			return fmt.Errorf("place logo: %w", err)
		}
	}
	return nil
}

// placeGallery builds the gallery at its anchor token. With no images the
// call still runs so the anchor token is removed from the output.
func (g *Generator) placeGallery(tpl *docx.Template, items []ImageItem) error {
	galleryItems := make([]docx.GalleryItem, 0, len(items))
	for _, item := range items {
		img, err := docx.LoadImage(item.Path)
		if err != nil {
			return fmt.Errorf("gallery image %s: %w", filepath.Base(item.Path), err)
		}
		galleryItems = append(galleryItems, docx.GalleryItem{Image: img, Caption: item.Caption})
	}

	err := tpl.InsertGallery("{{GALLERY_TABLE}}", galleryItems, docx.GalleryOptions{})
	if err != nil && !errors.Is(err, docx.ErrTokenNotFound) {
		return fmt.Errorf("insert gallery: %w", err)
	}
	return nil
}

func (g *Generator) placeAnnexures(tpl *docx.Template, assets *Assets) error {
	for i, items := range assets.Annexures {
		annexureItems := make([]docx.AnnexureItem, 0, len(items))
		for _, item := range items {
			img, err := docx.LoadImage(item.Path)
			if err != nil {
				return fmt.Errorf("annexure %d image %s: %w", i+1, filepath.Base(item.Path), err)
			}
			annexureItems = append(annexureItems, docx.AnnexureItem{Image: img, Caption: item.Caption})
		}

		token := fmt.Sprintf("{{ANNEXURE%d_TABLE}}", i+1)
		// A break after the last image keeps the next annexure section on
		// its own page.
		opts := docx.AnnexureOptions{Width: docx.Cm(12), Height: docx.Cm(20), TrailingBreak: true}
		if err := tpl.InsertAnnexure(token, annexureItems, opts); err != nil && !errors.Is(err, docx.ErrTokenNotFound) {
			return fmt.Errorf("insert annexure %d: %w", i+1, err)
		}
	}
	return nil
}
