package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"portfolio/internal/apperr"
	"portfolio/internal/imaging"
)

// DefaultCloudinaryAPIBase is the public Cloudinary API endpoint.
const DefaultCloudinaryAPIBase = "https://api.cloudinary.com"

// CloudinaryConfig holds the unsigned upload settings.
type CloudinaryConfig struct {
	CloudName    string
	UploadPreset string
	APIBase      string
}

// Missing returns the environment variable names of empty settings.
func (c CloudinaryConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.CloudName) == "" {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}
	if strings.TrimSpace(c.UploadPreset) == "" {
		missing = append(missing, "CLOUDINARY_UPLOAD_PRESET")
	}
	return missing
}

// cloudinaryProvider uploads through Cloudinary's unsigned upload API
// (POST {base}/v1_1/{cloud}/image/upload with file and upload_preset).
type cloudinaryProvider struct {
	config CloudinaryConfig
	client *http.Client
}

// NewCloudinary returns a Cloudinary provider. The config is not checked
// here; Put reports missing values.
func NewCloudinary(cfg CloudinaryConfig) Provider {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultCloudinaryAPIBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &cloudinaryProvider{
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *cloudinaryProvider) Name() string { return "cloudinary" }

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *cloudinaryProvider) Put(ctx context.Context, img *imaging.Image, name string) (string, error) {
	const op = "imagehost.Cloudinary"

	if missing := p.config.Missing(); len(missing) > 0 {
		return "", configMissing(op, missing)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("upload_preset", p.config.UploadPreset); err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, op, err, "Image upload failed.")
	}
	part, err := mw.CreateFormFile("file", path.Base(name)+img.Ext())
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, op, err, "Image upload failed.")
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, op, err, "Image upload failed.")
	}
	if err := mw.Close(); err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, op, err, "Image upload failed.")
	}

	url := fmt.Sprintf("%s/v1_1/%s/image/upload", p.config.APIBase, p.config.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, op, err, "Image upload failed.")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, op, fmt.Errorf("cloudinary http: %w", err), "The image host could not be reached.")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, op, fmt.Errorf("cloudinary read body: %w", err), "Image upload failed.")
	}

	var result cloudinaryResponse
	_ = json.Unmarshal(respBody, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(respBody))
		if result.Error != nil && result.Error.Message != "" {
			detail = result.Error.Message
		}
		return "", apperr.Wrap(apperr.UploadFailed, op,
			fmt.Errorf("cloudinary API error (status %d): %s", resp.StatusCode, detail),
			"The image host rejected the upload.")
	}
	if result.SecureURL == "" {
		return "", apperr.Wrap(apperr.UploadFailed, op,
			fmt.Errorf("cloudinary: no secure_url in response"),
			"The image host returned no URL.")
	}
	return result.SecureURL, nil
}
