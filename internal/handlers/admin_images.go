package handlers

import (
	"errors"
	"io"
	"net/http"

	"portfolio/internal/apperr"
	"portfolio/internal/imaging"
	"portfolio/internal/session"
)

// multipartOverhead is allowed on top of the image for form boundaries.
const multipartOverhead = 1 << 20

// imageResponse is the JSON body of a successful upload.
type imageResponse struct {
	URL string `json:"url"`
}

// ImageUpload accepts a multipart "file" field, sends it to the image host
// and answers with {url}. Failures answer with {error, kind}. The upload
// is tracked for the caller's session so the editor cannot be submitted
// while it is in flight.
func (a *Admin) ImageUpload(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ImageUpload"
	ctx := r.Context()

	// The upload counts as in flight from before the body is read, so the
	// editor stays blocked for the whole transfer.
	release, err := a.uploads.Begin(ctx, session.ID(r))
	if err != nil {
		writeJSONError(w, r, apperr.Wrap(apperr.StoreUnavailable, op, err, "Uploads are unavailable right now. Please try again."))
		return
	}
	defer release()

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSONError(w, r, apperr.Wrap(apperr.ValidationFailed, op, err, "Image is too large. Maximum size is 10 MB."))
			return
		}
		writeJSONError(w, r, apperr.Wrap(apperr.ValidationFailed, op, err, "No file provided."))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, r, apperr.Wrap(apperr.ValidationFailed, op, err, "No file provided."))
		return
	}
	defer file.Close()

	if header.Size > imaging.MaxUploadSize {
		writeJSONError(w, r, apperr.New(apperr.ValidationFailed, op, "Image is too large. Maximum size is 10 MB."))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, imaging.MaxUploadSize+1))
	if err != nil {
		writeJSONError(w, r, apperr.Wrap(apperr.UploadFailed, op, err, "Failed to read the file."))
		return
	}

	url, err := a.images.Upload(ctx, data)
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, imageResponse{URL: url})
}
