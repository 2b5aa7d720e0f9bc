package storage

import (
	"context"
	"errors"
)

// ErrForeignURL is returned when a URL was not produced by this relay.
var ErrForeignURL = errors.New("url does not belong to this media store")

// Options conveys upload destination metadata.
type Options struct {
	Bucket    string
	KeyPrefix string
	// PublicBaseURL, when set, is joined with the object key to form the returned URL
	// (a CDN or bucket website endpoint). Otherwise the upload location is used.
	PublicBaseURL string
	PublicACL     bool
}

// MediaRelay moves a local file to remote object storage and hands back a public URL.
// Callers own the local file and must remove it whatever the outcome.
type MediaRelay interface {
	Upload(ctx context.Context, localPath string) (string, error)
	Delete(ctx context.Context, url string) error
}
