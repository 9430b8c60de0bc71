// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage is an S3-compatible object store for featured images,
// used when the site is configured with IMAGE_HOST=s3. It wraps the AWS
// SDK v2 with path-style addressing so MinIO, Ceph and Hetzner work too.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Settings configures the S3 client.
type Settings struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string // optional CDN or custom domain in front of the bucket
}

// Missing returns the environment variable names of required settings
// that are empty.
func (s Settings) Missing() []string {
	var missing []string
	if s.Endpoint == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if s.AccessKey == "" {
		missing = append(missing, "S3_ACCESS_KEY")
	}
	if s.SecretKey == "" {
		missing = append(missing, "S3_SECRET_KEY")
	}
	if s.Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	return missing
}

// putObjectAPI is the part of *s3.Client the store calls.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client stores objects in a single public-read bucket.
type Client struct {
	s3        putObjectAPI
	bucket    string
	endpoint  string
	publicURL string
}

// New creates an S3 client. Returns (nil, nil) when required settings
// are missing, so the caller can decide whether that is fatal.
func New(s Settings) (*Client, error) {
	if len(s.Missing()) > 0 {
		return nil, nil
	}
	region := s.Region
	if region == "" {
		region = "us-east-1"
	}
	endpoint := strings.TrimRight(s.Endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, ""),
		UsePathStyle: true,
	})
	return newClient(s3Client, s.Bucket, endpoint, s.PublicURL), nil
}

func newClient(api putObjectAPI, bucket, endpoint, publicURL string) *Client {
	return &Client{
		s3:        api,
		bucket:    bucket,
		endpoint:  strings.TrimRight(endpoint, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Upload stores data under key with a public-read ACL and returns the
// URL it is served from.
func (c *Client) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return c.FileURL(key), nil
}

// FileURL returns the public URL for key. Uses the configured public URL
// if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}
