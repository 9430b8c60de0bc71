package imagehost

import (
	"context"

	"portfolio/internal/apperr"
	"portfolio/internal/imaging"
	"portfolio/internal/storage"
)

// s3Provider stores images in an S3-compatible bucket.
type s3Provider struct {
	settings storage.Settings
	client   *storage.Client
}

// NewS3 returns an S3 provider. With incomplete settings every Put fails
// with ConfigMissing.
func NewS3(settings storage.Settings) (Provider, error) {
	client, err := storage.New(settings)
	if err != nil {
		return nil, err
	}
	return &s3Provider{settings: settings, client: client}, nil
}

func (p *s3Provider) Name() string { return "s3" }

func (p *s3Provider) Put(ctx context.Context, img *imaging.Image, name string) (string, error) {
	const op = "imagehost.S3"

	if p.client == nil {
		return "", configMissing(op, p.settings.Missing())
	}
	url, err := p.client.Upload(ctx, name+img.Ext(), img.ContentType, img.Data)
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, op, err, "The image could not be stored.")
	}
	return url, nil
}
