package docx

import (
	"strings"
	"testing"
)

func TestReplaceText(t *testing.T) {
	tpl := openTemplate(t, `<w:p><w:r><w:t>Hello {{NAME}}!</w:t></w:r></w:p>`)

	tpl.ReplaceText("{{NAME}}", "World")

	if got := bodyText(tpl); got != "Hello World!" {
		t.Errorf("got %q, want %q", got, "Hello World!")
	}
}

func TestReplaceTextSplitRuns(t *testing.T) {
	// Word splits placeholders across runs after edits
	tpl := openTemplate(t, `<w:p><w:r><w:t>Venue: {{</w:t></w:r><w:r><w:t>VEN</w:t></w:r><w:r><w:t>UE}}</w:t></w:r></w:p>`)

	tpl.ReplaceText("{{VENUE}}", "Jaipur")

	if got := bodyText(tpl); got != "Venue: Jaipur" {
		t.Errorf("got %q, want %q", got, "Venue: Jaipur")
	}
}

func TestReplaceTextAbsentTokenIsNoOp(t *testing.T) {
	tpl := openTemplate(t, `<w:p><w:r><w:t>Nothing here</w:t></w:r></w:p>`)

	tpl.ReplaceText("{{MISSING}}", "value")

	if got := bodyText(tpl); got != "Nothing here" {
		t.Errorf("got %q, want %q", got, "Nothing here")
	}
}

func TestReplaceTextMultiline(t *testing.T) {
	tpl := openTemplate(t, `<w:p><w:r><w:t>{{ADDRESS}}</w:t></w:r></w:p>`)

	tpl.ReplaceText("{{ADDRESS}}", "Line one\nLine two\nLine three")

	paras := tpl.Document().Body.Paragraphs()
	if len(paras) != 1 {
		t.Fatalf("got %d paragraphs, want 1", len(paras))
	}

	runs := paras[0].Runs()
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].Break != nil {
		t.Error("first line should not carry a break")
	}
	for i, run := range runs[1:] {
		if run.Break == nil {
			t.Errorf("run %d missing line break", i+1)
		}
	}

	// The breaks must survive serialization as w:br elements before the text
	docXML := savedPart(t, tpl, "word/document.xml")
	if strings.Count(docXML, "<w:br/>") != 2 {
		t.Errorf("saved document has %d breaks, want 2:\n%s", strings.Count(docXML, "<w:br/>"), docXML)
	}
	if !strings.Contains(docXML, "Line two") || !strings.Contains(docXML, "Line three") {
		t.Errorf("saved document missing line text:\n%s", docXML)
	}
}

func TestReplaceTextInTableCell(t *testing.T) {
	tpl := openTemplate(t, `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>{{ORGANIZER}}</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	tpl.ReplaceText("{{ORGANIZER}}", "RRECL")

	tables := tpl.Document().Body.Tables()
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	if got := tables[0].Rows[0].Cells[0].GetText(); got != "RRECL" {
		t.Errorf("cell text = %q, want %q", got, "RRECL")
	}
}

func TestReplaceTextMultipleOccurrences(t *testing.T) {
	tpl := openTemplate(t, `<w:p><w:r><w:t>{{X}} and {{X}}</w:t></w:r></w:p><w:p><w:r><w:t>{{X}}</w:t></w:r></w:p>`)

	tpl.ReplaceText("{{X}}", "y")

	if got := bodyText(tpl); got != "y and yy" {
		t.Errorf("got %q, want %q", got, "y and yy")
	}
}

func TestReplaceTextPreservesOtherRuns(t *testing.T) {
	tpl := openTemplate(t, `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Date: </w:t></w:r><w:r><w:t>{{EVENT_DATE}}</w:t></w:r></w:p>`)

	tpl.ReplaceText("{{EVENT_DATE}}", "29/05/2023")

	if got := bodyText(tpl); got != "Date: 29/05/2023" {
		t.Errorf("got %q, want %q", got, "Date: 29/05/2023")
	}

	runs := tpl.Document().Body.Paragraphs()[0].Runs()
	if runs[0].Properties == nil || runs[0].Properties.Bold == nil {
		t.Error("bold formatting on the first run was lost")
	}
}
