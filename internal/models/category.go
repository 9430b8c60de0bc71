// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Sentinel category that posts fall back to when their category is deleted.
// It is never stored as a category document.
const (
	UnknownCategoryID   = "unknown"
	UnknownCategoryName = "Unknown"
)

// Category groups posts under a free-text name. Names are not unique.
type Category struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required,max=100"`
}

// UnknownCategory returns the sentinel category pair.
func UnknownCategory() Category {
	return Category{ID: UnknownCategoryID, Name: UnknownCategoryName}
}

// IsUnknown reports whether c is the sentinel category.
func (c Category) IsUnknown() bool {
	return c.ID == UnknownCategoryID
}

// Validate checks a category decoded from a store before it is trusted.
func (c *Category) Validate() error {
	return validate.Struct(c)
}
