package docx

import "strings"

// twipsPerEMU converts EMUs to twentieths of a point for table widths.
const twipsPerEMU = 635

// GalleryItem is one captioned picture in a gallery grid.
type GalleryItem struct {
	Image   *Image
	Caption string
}

// GalleryOptions controls the gallery grid layout. Zero values fall back
// to a 2x3 grid of 8.13cm x 5.81cm pictures per page.
type GalleryOptions struct {
	PerRow      int
	RowsPerPage int
	Width       EMU
	Height      EMU

	// TrailingBreak adds a page break after the last gallery page
	TrailingBreak bool
}

func (o GalleryOptions) withDefaults() GalleryOptions {
	if o.PerRow <= 0 {
		o.PerRow = 2
	}
	if o.RowsPerPage <= 0 {
		o.RowsPerPage = 3
	}
	if o.Width == 0 {
		o.Width = Cm(8.13)
	}
	if o.Height == 0 {
		o.Height = Cm(5.81)
	}
	return o
}

// InsertGallery replaces the paragraph containing token with a paged grid
// of captioned pictures. Each page holds up to PerRow*RowsPerPage items in
// its own table, with a page break between consecutive pages. An empty item
// list just removes the token. Returns ErrTokenNotFound when no body
// paragraph contains the token.
func (t *Template) InsertGallery(token string, items []GalleryItem, opts GalleryOptions) error {
	anchor, err := t.findAnchor(token)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	opts = opts.withDefaults()
	perPage := opts.PerRow * opts.RowsPerPage

	var elems []BodyElement
	for start := 0; start < len(items); start += perPage {
		end := start + perPage
		if end > len(items) {
			end = len(items)
		}

		if start > 0 {
			elems = append(elems, pageBreakParagraph())
		}
		elems = append(elems, t.galleryTable(items[start:end], opts))
	}
	if opts.TrailingBreak {
		elems = append(elems, pageBreakParagraph())
	}

	t.doc.Body.insertAfter(anchor, elems)
	return nil
}

// findAnchor locates the body paragraph containing token, removes the
// token text, and returns the paragraph's element index. Matching uses
// runText so a token inside a hyperlink, which substitution cannot
// rewrite, never anchors an insertion.
func (t *Template) findAnchor(token string) (int, error) {
	if token == "" {
		return 0, ErrTokenNotFound
	}
	for idx, elem := range t.doc.Body.Elements {
		p, ok := elem.(*Paragraph)
		if !ok || !strings.Contains(runText(p), token) {
			continue
		}
		replaceInParagraph(p, token, "")
		return idx, nil
	}
	return 0, ErrTokenNotFound
}

// galleryTable lays out up to one page of items as a centered borderless
// grid. Every cell holds the picture and, below it, its bold caption.
func (t *Template) galleryTable(items []GalleryItem, opts GalleryOptions) *Table {
	colWidth := int(opts.Width) / twipsPerEMU
	imgOpts := ImageOptions{Width: opts.Width, Height: opts.Height}

	grid := &TableGrid{}
	for i := 0; i < opts.PerRow; i++ {
		grid.Columns = append(grid.Columns, GridColumn{Width: colWidth})
	}

	tbl := &Table{
		Properties: &TableProperties{
			Width:  &Width{Type: "auto"},
			Layout: &TableLayout{Type: "autofit"},
		},
		Grid: grid,
	}

	for start := 0; start < len(items); start += opts.PerRow {
		row := TableRow{}
		for col := 0; col < opts.PerRow; col++ {
			cell := TableCell{
				Properties: &TableCellProperties{
					Width:  &Width{Type: "dxa", Val: colWidth},
					VAlign: &VerticalAlign{Val: "center"},
				},
			}
			if i := start + col; i < len(items) {
				item := items[i]
				cell.Paragraphs = append(cell.Paragraphs, t.pictureParagraph(item.Image, imgOpts))
				if item.Caption != "" {
					cell.Paragraphs = append(cell.Paragraphs, captionParagraph(item.Caption, 20, nil))
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	return tbl
}

// captionParagraph builds a centered bold caption with the given font size
// in half-points.
func captionParagraph(text string, size int, spacing *Spacing) Paragraph {
	return Paragraph{
		Properties: &ParagraphProperties{
			Alignment: &Alignment{Val: "center"},
			Spacing:   spacing,
		},
		Content: []ParagraphContent{
			&Run{
				Properties: &RunProperties{
					Bold: &Empty{},
					Size: &Size{Val: size},
				},
				Text: &Text{Content: text},
			},
		},
	}
}

// pageBreakParagraph builds an empty paragraph carrying a hard page break.
func pageBreakParagraph() *Paragraph {
	return &Paragraph{
		Content: []ParagraphContent{
			&Run{Break: &Break{Type: "page"}},
		},
	}
}
