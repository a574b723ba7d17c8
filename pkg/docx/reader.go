package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader handles reading and parsing the parts of a DOCX package
type Reader struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
}

// Relationship represents a relationship in the DOCX package
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// NewReader creates a new DOCX reader over an in-memory or on-disk package
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}

	dr := &Reader{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}

	// Index all parts by name
	for _, file := range zipReader.File {
		dr.Parts[file.Name] = file
	}

	// Check if this is a valid DOCX file by looking for required parts
	if _, ok := dr.Parts["word/document.xml"]; !ok {
		return nil, fmt.Errorf("not a valid DOCX file: missing word/document.xml")
	}

	return dr, nil
}

// ReaderFromFile creates a Reader from a file path
func ReaderFromFile(path string) (*Reader, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	reader := bytes.NewReader(content)
	return NewReader(reader, int64(len(content)))
}

// GetDocumentXML retrieves the content of word/document.xml
func (dr *Reader) GetDocumentXML() (string, error) {
	file, ok := dr.Parts["word/document.xml"]
	if !ok {
		return "", fmt.Errorf("document.xml not found")
	}

	rc, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read document.xml: %w", err)
	}

	return string(content), nil
}

// GetRelationships retrieves relationships for a given part
func (dr *Reader) GetRelationships(partName string) ([]Relationship, error) {
	// Convert part name to its relationships file name
	// e.g., "word/document.xml" -> "word/_rels/document.xml.rels"
	dir := ""
	base := partName
	if idx := strings.LastIndex(partName, "/"); idx != -1 {
		dir = partName[:idx]
		base = partName[idx+1:]
	}

	relPath := fmt.Sprintf("%s/_rels/%s.rels", dir, base)
	if dir == "" {
		relPath = fmt.Sprintf("_rels/%s.rels", base)
	}

	file, ok := dr.Parts[relPath]
	if !ok {
		// Missing relationships file is not an error, just return empty
		return []Relationship{}, nil
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open relationships file: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read relationships file: %w", err)
	}

	var rels Relationships
	if err := xml.Unmarshal(content, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}

	return rels.Relationship, nil
}

// GetPart retrieves the content of a specific part
func (dr *Reader) GetPart(partName string) ([]byte, error) {
	file, ok := dr.Parts[partName]
	if !ok {
		return nil, fmt.Errorf("part %s not found", partName)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", partName, err)
	}

	return content, nil
}

// ListParts returns a list of all part names in the DOCX
func (dr *Reader) ListParts() []string {
	parts := make([]string, 0, len(dr.Parts))
	for name := range dr.Parts {
		parts = append(parts, name)
	}
	return parts
}
