package handlers

import (
	"log/slog"
	"net/http"

	"portfolio/internal/render"
)

// Contact serves the contact page. Accepted messages are logged for the
// site owner; there is no mail transport.
type Contact struct {
	renderer *render.Renderer
}

// NewContact creates a new Contact handler group.
func NewContact(renderer *render.Renderer) *Contact {
	return &Contact{renderer: renderer}
}

// Page renders an empty contact form.
func (c *Contact) Page(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, http.StatusOK, contactForm{}, nil)
}

// Submit validates the form. On success the message is logged and a
// fresh form is shown with a confirmation.
func (c *Contact) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := contactForm{
		Name:    trimmed(r.PostForm, "name"),
		Email:   trimmed(r.PostForm, "email"),
		Subject: trimmed(r.PostForm, "subject"),
		Message: trimmed(r.PostForm, "message"),
	}

	if err := validateForm("handlers.ContactSubmit", form); err != nil {
		c.render(w, r, http.StatusUnprocessableEntity, form, []render.Flash{errorFlash(r.Context(), err)})
		return
	}

	slog.Info("contact message received",
		"name", form.Name,
		"email", form.Email,
		"subject", form.Subject,
		"message", form.Message,
	)
	c.render(w, r, http.StatusOK, contactForm{}, []render.Flash{
		{Type: "success", Message: "Thanks for reaching out! I'll get back to you soon."},
	})
}

func (c *Contact) render(w http.ResponseWriter, r *http.Request, status int, form contactForm, flashes []render.Flash) {
	site := c.renderer.Site()
	c.renderer.PageStatus(w, r, status, "contact", &render.PageData{
		Title:       "Contact",
		Description: "Get in touch with " + site.Name + ".",
		Canonical:   site.URL + "/contact",
		Section:     "contact",
		Flashes:     flashes,
		Data:        map[string]any{"Form": form},
	})
}
