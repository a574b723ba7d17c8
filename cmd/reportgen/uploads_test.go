package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"photo.png", "photo.png"},
		{"my photo (1).png", "my_photo_1.png"},
		{"../../etc/passwd", "passwd"},
		{"résumé.jpg", "resume.jpg"},
		{"....", "upload"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	rgba.Set(0, 0, color.RGBA{A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// multipartFile builds a request carrying one uploaded file and returns
// its parsed header.
func multipartFile(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File[field][0]
}

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	fh := multipartFile(t, "logo1", "logo.png", pngBytes(t))

	path, err := saveUpload(dir, fh)
	if err != nil {
		t.Fatalf("saveUpload: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("upload saved outside upload dir: %s", path)
	}
	if !strings.HasSuffix(path, "_logo.png") {
		t.Errorf("unique name should keep the original name: %s", path)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(saved, pngBytes(t)) {
		t.Error("saved content differs from upload")
	}
}

func TestSaveUploadRejectsExtension(t *testing.T) {
	fh := multipartFile(t, "logo1", "script.exe", pngBytes(t))

	if _, err := saveUpload(t.TempDir(), fh); err == nil {
		t.Error("expected rejection of .exe upload")
	}
}

func TestSaveUploadRejectsFakeImage(t *testing.T) {
	fh := multipartFile(t, "logo1", "fake.png", []byte("#!/bin/sh\necho"))

	if _, err := saveUpload(t.TempDir(), fh); err == nil {
		t.Error("expected rejection of non-image content")
	}
}

func TestSaveUploadUniqueNames(t *testing.T) {
	dir := t.TempDir()
	content := pngBytes(t)

	p1, err := saveUpload(dir, multipartFile(t, "f", "same.png", content))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := saveUpload(dir, multipartFile(t, "f", "same.png", content))
	if err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Error("two uploads of the same name collided")
	}
}
