// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imagehost uploads featured images to an external host and
// returns the durable URL to store on the post. Each host implements
// Provider; Uploader checks and resizes the image before handing it over.
//
// Upload configuration is checked on every call rather than at startup,
// so a site without image credentials still serves and edits posts, and
// the missing setting is reported the moment someone tries to upload.
package imagehost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"portfolio/internal/apperr"
	"portfolio/internal/imaging"
)

// Provider stores an inspected image and returns its public URL.
type Provider interface {
	// Put uploads img under name (no extension) and returns the URL.
	// Errors are classified with apperr kinds.
	Put(ctx context.Context, img *imaging.Image, name string) (string, error)

	// Name returns the provider identifier ("cloudinary", "s3").
	Name() string
}

// Uploader validates images and sends them to the configured provider.
type Uploader struct {
	provider Provider
	maxWidth int
	now      func() time.Time
}

// NewUploader returns an Uploader for provider.
func NewUploader(provider Provider) *Uploader {
	return &Uploader{provider: provider, maxWidth: imaging.MaxWidth, now: time.Now}
}

// Provider returns the name of the active provider.
func (u *Uploader) Provider() string {
	return u.provider.Name()
}

// Upload checks data, scales it down if needed, and uploads it.
func (u *Uploader) Upload(ctx context.Context, data []byte) (string, error) {
	const op = "imagehost.Upload"

	img, err := imaging.Inspect(data)
	if err != nil {
		return "", apperr.Wrap(apperr.ValidationFailed, op, err, inspectMessage(err))
	}

	fitted, err := imaging.Fit(img, u.maxWidth)
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, op, err, "The image could not be processed.")
	}

	now := u.now().UTC()
	name := fmt.Sprintf("posts/%d/%02d/%s", now.Year(), now.Month(), uuid.NewString())

	url, err := u.provider.Put(ctx, fitted, name)
	if err != nil {
		if apperr.Is(err, apperr.ConfigMissing) {
			slog.Error("image host not configured", "provider", u.provider.Name(), "error", err)
		} else {
			slog.Warn("image upload failed", "provider", u.provider.Name(), "error", err)
		}
		return "", err
	}

	slog.Info("image uploaded",
		"provider", u.provider.Name(),
		"type", fitted.ContentType,
		"width", fitted.Width,
		"bytes", len(fitted.Data),
	)
	return url, nil
}

func inspectMessage(err error) string {
	switch {
	case errors.Is(err, imaging.ErrEmpty):
		return "No image was provided."
	case errors.Is(err, imaging.ErrTooLarge):
		return "Image is too large. Maximum size is 10 MB."
	case errors.Is(err, imaging.ErrTooManyPixels):
		return "Image dimensions are too large."
	default:
		return "Only PNG, JPG, GIF and WebP images are supported."
	}
}

// configMissing builds the error returned when required settings are empty.
func configMissing(op string, vars []string) error {
	msg := "Image uploads are not configured: missing " + joinVars(vars) + "."
	return apperr.New(apperr.ConfigMissing, op, msg)
}

func joinVars(vars []string) string {
	switch len(vars) {
	case 0:
		return ""
	case 1:
		return vars[0]
	}
	s := vars[0]
	for _, v := range vars[1 : len(vars)-1] {
		s += ", " + v
	}
	return s + " and " + vars[len(vars)-1]
}
