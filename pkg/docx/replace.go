package docx

import "strings"

// ReplaceText replaces every occurrence of old with new throughout the
// document body, including paragraphs inside table cells. Word frequently
// splits a placeholder across several runs, so matching happens against
// the concatenated paragraph text rather than individual runs.
//
// Multi-line replacement values become line breaks within the paragraph.
// Replacing with a token that is absent is a no-op, not an error.
func (t *Template) ReplaceText(old, new string) {
	if old == "" {
		return
	}

	for _, p := range t.doc.Body.Paragraphs() {
		replaceInParagraph(p, old, new)
	}
	for _, tbl := range t.doc.Body.Tables() {
		for ri := range tbl.Rows {
			for ci := range tbl.Rows[ri].Cells {
				cell := &tbl.Rows[ri].Cells[ci]
				for pi := range cell.Paragraphs {
					replaceInParagraph(&cell.Paragraphs[pi], old, new)
				}
			}
		}
	}
}

// runText concatenates the text of the paragraph's plain runs. This is the
// view substitution works on; hyperlink text is excluded.
func runText(p *Paragraph) string {
	var combined strings.Builder
	for _, run := range p.Runs() {
		if run.Text != nil {
			combined.WriteString(run.Text.Content)
		}
	}
	return combined.String()
}

// replaceInParagraph applies one substitution to a paragraph. When the
// placeholder spans multiple runs the combined result is placed in the
// first text run and the remaining run texts are cleared; non-text run
// content such as drawings is left alone.
func replaceInParagraph(p *Paragraph, old, new string) {
	runs := p.Runs()
	if len(runs) == 0 {
		return
	}

	full := runText(p)
	if !strings.Contains(full, old) {
		return
	}

	replaced := strings.ReplaceAll(full, old, new)
	lines := strings.Split(replaced, "\n")

	var first *Run
	for _, run := range runs {
		if run.Text == nil {
			continue
		}
		if first == nil {
			first = run
			run.Text.Content = lines[0]
		} else {
			run.Text.Content = ""
		}
	}
	if first == nil {
		first = runs[0]
		first.Text = &Text{Content: lines[0]}
	}

	// Additional lines become break-prefixed runs with the same formatting
	for _, line := range lines[1:] {
		p.AppendRun(&Run{
			Properties: first.Properties,
			Break:      &Break{},
			Text:       &Text{Content: line},
		})
	}
}
