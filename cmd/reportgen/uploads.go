package main

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// allowedImageExtensions is the upload allow-list; matches what the
// document engine can probe for dimensions (tiff excluded: browsers do
// not produce it from the form).
var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// sanitizeFilename reduces an uploaded name to ASCII letters, digits,
// dashes, underscores and dots. Unicode is NFKD-decomposed first so
// accented characters keep their base letter.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "upload"
	}
	return out
}

// saveUpload writes one multipart file into the upload directory under a
// unique name and returns its path. The content is sniffed so a renamed
// non-image is rejected even with an allowed extension.
func saveUpload(dir string, fh *multipart.FileHeader) (string, error) {
	name := sanitizeFilename(fh.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedImageExtensions[ext] {
		return "", fmt.Errorf("file type %q not allowed", ext)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return "", fmt.Errorf("%s is not an image", name)
	}

	unique := fmt.Sprintf("%d_%s_%s", time.Now().Unix(), uuid.NewString()[:8], name)
	path := filepath.Join(dir, unique)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := dst.Write(head[:n]); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return path, nil
}

// removeFiles deletes the given paths, ignoring misses. Used to discard
// uploads once they are embedded in the document.
func removeFiles(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		os.Remove(p)
	}
}
