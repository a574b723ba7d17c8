// Package report assembles training workshop reports from form submissions
// by filling a numbered DOCX template with text, logos, gallery pictures
// and annexure pictures.
package report

import (
	"fmt"
	"strings"
)

// Person is one entry of a participant list on the form.
type Person struct {
	Prefix      string
	Name        string
	Designation string
}

// CombinePeople formats a participant list as a single comma-separated
// string. Entries without a name are skipped; entries without a
// designation omit the parentheses.
func CombinePeople(people []Person) string {
	var parts []string
	for _, p := range people {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}

		entry := strings.TrimSpace(strings.TrimSpace(p.Prefix) + " " + name)
		if designation := strings.TrimSpace(p.Designation); designation != "" {
			entry = fmt.Sprintf("%s (%s)", entry, designation)
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, ", ")
}

// Submission carries the text fields of one report form submission.
type Submission struct {
	EventTitle   string
	EventDetails string
	EventDate    string // as submitted, e.g. "2023-05-29"
	AddressLines [3]string
	CellName     string
	WorkshopType string
	Organizer    string
	Venue        string
	DateTime     string
	Template     string // template selection, "1".."5"

	RRECLPeople    []Person
	GuestTrainers  []Person
	ChiefGuests    []Person
	GuidancePeople []Person
}

// Replacements returns the placeholder token to value mapping for the
// submission. The address joins its non-empty lines with line breaks.
func (s *Submission) Replacements() map[string]string {
	var addressLines []string
	for _, line := range s.AddressLines {
		if line = strings.TrimSpace(line); line != "" {
			addressLines = append(addressLines, line)
		}
	}

	return map[string]string{
		"{{EVENT_TITLE}}":     s.EventTitle,
		"{{EVENT_DETAILS}}":   s.EventDetails,
		"{{EVENT_DATE}}":      s.EventDate,
		"{{ADDRESS}}":         strings.Join(addressLines, "\n"),
		"{{CELL_NAME}}":       s.CellName,
		"{{WORKSHOP_TYPE}}":   s.WorkshopType,
		"{{ORGANIZER}}":       s.Organizer,
		"{{VENUE}}":           s.Venue,
		"{{DATETIME}}":        s.DateTime,
		"{{RRECL_PEOPLE}}":    CombinePeople(s.RRECLPeople),
		"{{GUEST_TRAINERS}}":  CombinePeople(s.GuestTrainers),
		"{{CHIEF_GUESTS}}":    CombinePeople(s.ChiefGuests),
		"{{GUIDANCE_PERSON}}": CombinePeople(s.GuidancePeople),
	}
}

// Organization names the submitting unit for filenames and history. It is
// the cell name, not the organizer field, so two organizers within the
// same cell file their reports under one name.
func (s *Submission) Organization() string {
	return strings.TrimSpace(s.CellName)
}

// OutputFilename derives the deterministic report filename:
// the event date reduced to digits, the cell name with spaces replaced by
// underscores, and a fixed suffix. "2023-05-29" and "RRECL" produce
// "20230529_RRECL_report.docx".
func (s *Submission) OutputFilename() string {
	var date strings.Builder
	for _, r := range s.EventDate {
		if r >= '0' && r <= '9' {
			date.WriteRune(r)
		}
	}

	org := s.Organization()
	if org == "" {
		org = "report"
	}
	org = strings.ReplaceAll(org, " ", "_")

	return fmt.Sprintf("%s_%s_report.docx", date.String(), org)
}

// templateCount is the number of numbered report templates shipped with
// the service.
const templateCount = 5

// TemplateFile maps a form template selection to its file name. Unknown
// selections fall back to the first template.
func TemplateFile(selection string) string {
	for i := 1; i <= templateCount; i++ {
		if selection == fmt.Sprintf("%d", i) {
			return fmt.Sprintf("word_template_%d.docx", i)
		}
	}
	return "word_template_1.docx"
}
