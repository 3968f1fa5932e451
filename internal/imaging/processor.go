// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes images uploaded through the admin dashboard
// before they are forwarded to the backend.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// MIME types accepted for upload.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// ErrUnsupportedFormat is returned for data that is not a JPEG, PNG, GIF or WebP image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Result is a normalized upload.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
	Width       int
	Height      int
	Resized     bool
}

// Processor re-encodes uploads: EXIF orientation is applied, metadata is
// stripped and images wider than MaxWidth are downscaled.
type Processor struct {
	maxWidth int
	quality  int
	newName  func() string
}

// NewProcessor creates a processor. A maxWidth of 0 disables downscaling.
func NewProcessor(maxWidth int) *Processor {
	return &Processor{
		maxWidth: maxWidth,
		quality:  85,
		newName:  func() string { return uuid.NewString() },
	}
}

// Normalize decodes data, fixes its orientation, downscales it and encodes it
// again. GIFs are passed through untouched to keep animation. The returned
// filename is random with the output format's extension.
func (p *Processor) Normalize(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	if format == "gif" {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding gif: %w", err)
		}
		return &Result{
			Data:        data,
			Filename:    p.newName() + ".gif",
			ContentType: MimeTypeGIF,
			Width:       cfg.Width,
			Height:      cfg.Height,
		}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	resized := false
	if p.maxWidth > 0 && img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
		resized = true
	}

	// WebP has no pure Go encoder.
	if format == "webp" {
		format = "jpeg"
	}

	out, err := encodeImage(img, format, p.quality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	b := img.Bounds()
	return &Result{
		Data:        out,
		Filename:    p.newName() + extension(format),
		ContentType: formatToMimeType(format),
		Width:       b.Dx(),
		Height:      b.Dy(),
		Resized:     resized,
	}, nil
}

// IsImage checks if a MIME type represents an image that can be processed.
func IsImage(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	default:
		return false
	}
}

// DetectMimeType detects the MIME type of image data.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation applies an EXIF orientation value (1-8) to img.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// TIFF is rejected outright (CVE-2023-36308 in disintegration/imaging).
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func extension(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

func formatToMimeType(format string) string {
	switch format {
	case "png":
		return MimeTypePNG
	case "gif":
		return MimeTypeGIF
	case "webp":
		return MimeTypeWebP
	default:
		return MimeTypeJPEG
	}
}

