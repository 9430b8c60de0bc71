package imagehost

import (
	"fmt"

	"portfolio/internal/storage"
)

// Config selects and configures the provider.
type Config struct {
	Host       string // "cloudinary" (default) or "s3"
	Cloudinary CloudinaryConfig
	S3         storage.Settings
}

// New returns the provider named by cfg.Host.
func New(cfg Config) (Provider, error) {
	switch cfg.Host {
	case "", "cloudinary":
		return NewCloudinary(cfg.Cloudinary), nil
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown image host %q", cfg.Host)
	}
}
