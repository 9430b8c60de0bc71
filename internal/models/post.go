// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the post and category documents shared by the
// service layer and every storage backend.
package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"portfolio/internal/slug"
)

// Post is a blog article. CategoryName is a denormalized copy of the
// category's name taken when the post was written.
type Post struct {
	ID           string    `json:"id" validate:"required"`
	Title        string    `json:"title" validate:"required"`
	Slug         string    `json:"slug" validate:"required,slug"`
	Content      string    `json:"content"`
	ContentHTML  string    `json:"contentHtml"`
	Date         time.Time `json:"date" validate:"required"`
	Image        string    `json:"image,omitempty" validate:"omitempty,url"`
	CategoryID   string    `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
}

// DateISO returns the publish date as an RFC 3339 UTC string.
func (p *Post) DateISO() string {
	return p.Date.UTC().Format(time.RFC3339)
}

// HasImage reports whether a featured image is set.
func (p *Post) HasImage() bool {
	return p.Image != ""
}

// Validate checks a post decoded from a store before it is trusted.
func (p *Post) Validate() error {
	return validate.Struct(p)
}

// PostUpdate holds the fields of a partial post update. Nil fields are
// left untouched by the store.
type PostUpdate struct {
	Title        *string
	Slug         *string
	Content      *string
	ContentHTML  *string
	Image        *string
	CategoryID   *string
	CategoryName *string
}

// Empty reports whether the update would change nothing.
func (u PostUpdate) Empty() bool {
	return u.Title == nil && u.Slug == nil && u.Content == nil &&
		u.ContentHTML == nil && u.Image == nil && u.CategoryID == nil &&
		u.CategoryName == nil
}

// Apply copies the non-nil fields of u onto p.
func (u PostUpdate) Apply(p *Post) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Slug != nil {
		p.Slug = *u.Slug
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.ContentHTML != nil {
		p.ContentHTML = *u.ContentHTML
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.CategoryID != nil {
		p.CategoryID = *u.CategoryID
	}
	if u.CategoryName != nil {
		p.CategoryName = *u.CategoryName
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slug.Valid(fl.Field().String())
	})
	return v
}

// Errors returned by storage backends. Stores return (nil, nil) from Find
// methods for missing documents; writes addressed at a missing document
// return ErrNotFound.
var (
	ErrNotFound  = errors.New("document not found")
	ErrSlugTaken = errors.New("slug already taken")
)
