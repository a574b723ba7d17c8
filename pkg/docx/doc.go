// Package docx reads, mutates and writes Word documents (DOCX).
//
// A Template wraps an existing .docx file and exposes targeted mutation
// operations: placeholder text substitution (robust against text split
// across runs), image substitution inside table cells, paginated photo
// gallery tables, and one-image-per-page annexure sections. Everything
// the mutator does not model (drawings, section properties, exotic
// formatting) is preserved verbatim as raw XML so that saved documents
// keep the template's original appearance.
//
// Basic usage:
//
//	tpl, err := docx.OpenFile("template.docx")
//	if err != nil {
//		return err
//	}
//	tpl.ReplaceText("{{EVENT_TITLE}}", "Solar Rooftop Workshop")
//	img, err := docx.LoadImage("logo.png")
//	if err != nil {
//		return err
//	}
//	tpl.ReplaceImage("{{LOGO_1}}", img, docx.ImageOptions{Width: docx.Inches(1.5)})
//
//	var buf bytes.Buffer
//	if err := tpl.Save(&buf); err != nil {
//		return err
//	}
package docx
