package docx

// AnnexureItem is one full-page picture with an optional caption.
type AnnexureItem struct {
	Image   *Image
	Caption string
}

// AnnexureOptions controls the one-picture-per-page layout. Zero sizes
// default to 15cm x 20cm.
type AnnexureOptions struct {
	Width  EMU
	Height EMU

	// TrailingBreak adds a page break after the final item
	TrailingBreak bool
}

func (o AnnexureOptions) withDefaults() AnnexureOptions {
	if o.Width == 0 {
		o.Width = Cm(15)
	}
	if o.Height == 0 {
		o.Height = Cm(20)
	}
	return o
}

// InsertAnnexure replaces the paragraph containing token with one picture
// per page, each followed by its bold caption when present, separated by
// page breaks. An empty item list just removes the token. Returns
// ErrTokenNotFound when no body paragraph contains the token.
func (t *Template) InsertAnnexure(token string, items []AnnexureItem, opts AnnexureOptions) error {
	anchor, err := t.findAnchor(token)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	opts = opts.withDefaults()
	imgOpts := ImageOptions{Width: opts.Width, Height: opts.Height}

	var elems []BodyElement
	for i, item := range items {
		if i > 0 {
			elems = append(elems, pageBreakParagraph())
		}

		pic := t.pictureParagraph(item.Image, imgOpts)
		elems = append(elems, &pic)

		if item.Caption != "" {
			caption := captionParagraph(item.Caption, 22, &Spacing{After: 240})
			elems = append(elems, &caption)
		}
	}
	if opts.TrailingBreak {
		elems = append(elems, pageBreakParagraph())
	}

	t.doc.Body.insertAfter(anchor, elems)
	return nil
}
