// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func fixedNameProcessor(maxWidth int) *Processor {
	p := NewProcessor(maxWidth)
	p.newName = func() string { return "fixed" }
	return p
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{MimeTypeJPEG, true},
		{MimeTypePNG, true},
		{MimeTypeGIF, true},
		{MimeTypeWebP, true},
		{"application/pdf", false},
		{"application/octet-stream", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := IsImage(tt.mimeType); got != tt.want {
				t.Errorf("IsImage(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg magic bytes", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png magic bytes", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"gif magic bytes", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, "gif"},
		{"tiff rejected", []byte{0x49, 0x49, 0x2A, 0x00}, ""},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_DownscalesWideImages(t *testing.T) {
	p := fixedNameProcessor(100)

	res, err := p.Normalize(bytes.NewReader(encodePNG(t, createTestImage(400, 200))))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if res.Width != 100 || res.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", res.Width, res.Height)
	}
	if !res.Resized {
		t.Error("Resized = false")
	}
	if res.Filename != "fixed.png" || res.ContentType != MimeTypePNG {
		t.Errorf("Filename/ContentType = %q/%q", res.Filename, res.ContentType)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if cfg.Width != 100 {
		t.Errorf("encoded width = %d", cfg.Width)
	}
}

func TestNormalize_KeepsSmallJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createTestImage(40, 30), nil); err != nil {
		t.Fatal(err)
	}

	res, err := fixedNameProcessor(100).Normalize(&buf)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if res.Resized || res.Width != 40 || res.Height != 30 {
		t.Errorf("got %dx%d resized=%v", res.Width, res.Height, res.Resized)
	}
	if res.Filename != "fixed.jpg" || res.ContentType != MimeTypeJPEG {
		t.Errorf("Filename/ContentType = %q/%q", res.Filename, res.ContentType)
	}
}

func TestNormalize_GIFPassThrough(t *testing.T) {
	var buf bytes.Buffer
	pal := image.NewPaletted(image.Rect(0, 0, 300, 10), []color.Color{color.Black, color.White})
	if err := gif.Encode(&buf, pal, nil); err != nil {
		t.Fatal(err)
	}
	original := append([]byte(nil), buf.Bytes()...)

	res, err := fixedNameProcessor(100).Normalize(&buf)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !bytes.Equal(res.Data, original) {
		t.Error("gif data should be untouched")
	}
	if res.Width != 300 || res.ContentType != MimeTypeGIF {
		t.Errorf("Width/ContentType = %d/%q", res.Width, res.ContentType)
	}
}

func TestNormalize_Unsupported(t *testing.T) {
	_, err := NewProcessor(0).Normalize(strings.NewReader("%PDF-1.4 not an image"))
	if err != ErrUnsupportedFormat {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestNormalize_RandomNames(t *testing.T) {
	p := NewProcessor(0)
	data := encodePNG(t, createTestImage(4, 4))

	a, err := p.Normalize(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Normalize(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if a.Filename == b.Filename {
		t.Errorf("expected distinct names, both %q", a.Filename)
	}
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(10, 20)
	tests := []struct {
		orientation int
		wantW       int
		wantH       int
	}{
		{0, 10, 20},
		{1, 10, 20},
		{2, 10, 20},
		{3, 10, 20},
		{4, 10, 20},
		{5, 20, 10},
		{6, 20, 10},
		{7, 20, 10},
		{8, 20, 10},
		{9, 10, 20},
	}
	for _, tt := range tests {
		got := applyOrientation(img, tt.orientation).Bounds()
		if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
			t.Errorf("orientation %d: %dx%d, want %dx%d", tt.orientation, got.Dx(), got.Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestDetectMimeType(t *testing.T) {
	if got := DetectMimeType([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}); got != MimeTypePNG {
		t.Errorf("DetectMimeType = %q", got)
	}
}
