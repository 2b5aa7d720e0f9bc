package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// S3API is the subset of *s3.Client the relay needs.
type S3API interface {
	manager.UploadAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Relay uploads media to Amazon S3 (or compatible APIs).
type S3Relay struct {
	client   S3API
	uploader *manager.Uploader
	opts     Options
}

func NewS3Relay(client S3API, opts Options) *S3Relay {
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &S3Relay{
		client:   client,
		uploader: manager.NewUploader(client),
		opts:     opts,
	}
}

func (s *S3Relay) Upload(ctx context.Context, localPath string) (string, error) {
	if s.opts.Bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}

	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file %s: %w", localPath, err)
	}
	defer f.Close()

	key := s.objectKey(localPath, mtype.Extension())
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(mtype.String()),
		ACL:         types.ObjectCannedACLPrivate,
	}
	if s.opts.PublicACL {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	out, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}

	if s.opts.PublicBaseURL != "" {
		return s.opts.PublicBaseURL + "/" + key, nil
	}
	if out.Location == "" {
		return "", fmt.Errorf("upload %s: no location returned", localPath)
	}
	return out.Location, nil
}

func (s *S3Relay) Delete(ctx context.Context, rawURL string) error {
	key, err := s.keyFromURL(rawURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Relay) objectKey(localPath, detectedExt string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	if ext == "" {
		ext = detectedExt
	}
	name := uuid.NewString() + ext
	if s.opts.KeyPrefix == "" {
		return name
	}
	return s.opts.KeyPrefix + "/" + name
}

// keyFromURL maps a URL returned by Upload back to its object key. Both virtual-hosted
// and path-style locations are accepted.
func (s *S3Relay) keyFromURL(rawURL string) (string, error) {
	var key string
	if s.opts.PublicBaseURL != "" && strings.HasPrefix(rawURL, s.opts.PublicBaseURL+"/") {
		key = strings.TrimPrefix(rawURL, s.opts.PublicBaseURL+"/")
	} else {
		parsed, err := url.Parse(rawURL)
		if err != nil || parsed.Host == "" {
			return "", ErrForeignURL
		}
		key = strings.TrimPrefix(parsed.Path, "/")
		key = strings.TrimPrefix(key, s.opts.Bucket+"/")
	}

	if key == "" || (s.opts.KeyPrefix != "" && !strings.HasPrefix(key, s.opts.KeyPrefix+"/")) {
		return "", ErrForeignURL
	}
	return key, nil
}

var _ MediaRelay = (*S3Relay)(nil)
