// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging checks uploaded featured images and shrinks oversized
// ones before they are sent to the image host. Decoding uses the standard
// image codecs plus golang.org/x/image for WebP; resizing uses x/image/draw.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxUploadSize is the largest featured image accepted (10 MB).
	MaxUploadSize = 10 << 20

	// MaxPixels caps width*height to keep decodes bounded.
	// 8000x8000 = 64 million pixels, ~256 MB decoded in RGBA.
	MaxPixels = 64_000_000

	// MaxWidth is the widest image stored; wider ones are scaled down.
	MaxWidth = 2000

	jpegQuality = 85
)

var (
	ErrEmpty           = errors.New("image is empty")
	ErrTooLarge        = errors.New("image exceeds the upload size limit")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooManyPixels   = errors.New("image dimensions are too large")
)

// extensions maps accepted content types to file extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is an inspected upload.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Ext returns the file extension for the image's content type.
func (img *Image) Ext() string {
	return extensions[img.ContentType]
}

// Inspect sniffs data, rejects anything that is not a JPEG, PNG, GIF or
// WebP within the size and pixel limits, and reads its dimensions without
// a full decode.
func Inspect(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	contentType := http.DetectContentType(data)
	if _, ok := extensions[contentType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode config: %v", ErrUnsupportedType, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	return &Image{
		Data:        data,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// Fit scales img down to maxWidth, keeping the aspect ratio. Images that
// already fit are returned unchanged, and so are GIFs (to keep animation).
// PNGs stay PNG; JPEG and WebP are re-encoded as JPEG.
func Fit(img *Image, maxWidth int) (*Image, error) {
	if img.Width <= maxWidth || img.ContentType == "image/gif" {
		return img, nil
	}

	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	newHeight := bounds.Dy() * maxWidth / bounds.Dx()
	if newHeight < 1 {
		newHeight = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	contentType := "image/jpeg"
	if img.ContentType == "image/png" {
		contentType = "image/png"
		err = png.Encode(&buf, dst)
	} else {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}

	return &Image{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Width:       maxWidth,
		Height:      newHeight,
	}, nil
}
