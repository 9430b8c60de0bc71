package handlers

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"portfolio/internal/apperr"
	"portfolio/internal/blog"
)

// formValidator checks the struct tags on submitted forms.
var formValidator = validator.New()

// contactForm is the public contact form.
type contactForm struct {
	Name    string `validate:"required,max=100"`
	Email   string `validate:"required,email,max=254"`
	Subject string `validate:"required,max=200"`
	Message string `validate:"required,min=10,max=5000"`
}

// loginForm is the first sign-in step.
type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,max=1024"`
}

// codeForm is the authenticator code step.
type codeForm struct {
	Code string `validate:"required,len=6,numeric"`
}

// editorForm holds the post editor fields so a rejected submission can be
// shown again as typed.
type editorForm struct {
	Title      string
	Content    string
	Image      string
	CategoryID string
}

// validateForm runs the struct tags on form and classifies the first
// failure as ValidationFailed.
func validateForm(op string, form any) error {
	if err := formValidator.Struct(form); err != nil {
		return apperr.Wrap(apperr.ValidationFailed, op, err, blog.ValidationMessage(err))
	}
	return nil
}

// trimmed returns the named form value without surrounding whitespace.
func trimmed(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}
