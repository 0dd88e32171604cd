// Package source resolves connector paths to local files, downloading
// s3://bucket/key objects through an S3-compatible object store.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/logger"
)

// Scheme prefixes paths served from object storage.
const Scheme = "s3://"

// Opener fetches source files. The object storage client is created on
// first use, so an Opener without object storage settings only serves
// local paths.
type Opener struct {
	settings domain.ObjectStorageSettings

	once      sync.Once
	client    *minio.Client
	clientErr error
}

// NewOpener creates an Opener for the given object storage settings.
func NewOpener(settings domain.ObjectStorageSettings) *Opener {
	return &Opener{settings: settings}
}

// IsRemote reports whether path names an object storage object.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, Scheme)
}

// ParseObjectPath splits s3://bucket/key into its bucket and key.
func ParseObjectPath(path string) (bucket, key string, err error) {
	if !IsRemote(path) {
		return "", "", fmt.Errorf("%w: %q is not an %s path", domain.ErrInvalidInput, path, Scheme)
	}
	bucket, key, _ = strings.Cut(strings.TrimPrefix(path, Scheme), "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q must be %sbucket/key", domain.ErrInvalidInput, path, Scheme)
	}
	return bucket, key, nil
}

// Fetch returns a local file for path. Remote objects are downloaded into
// a temporary file that cleanup removes; for local paths cleanup is a no-op.
func (o *Opener) Fetch(ctx context.Context, path string) (local string, cleanup func(), err error) {
	noop := func() {}
	if !IsRemote(path) {
		if _, err := os.Stat(path); err != nil {
			return "", noop, fmt.Errorf("open source: %w", err)
		}
		return path, noop, nil
	}

	bucket, key, err := ParseObjectPath(path)
	if err != nil {
		return "", noop, err
	}
	client, err := o.minioClient()
	if err != nil {
		return "", noop, err
	}

	// Keep the extension so format detection works on the local copy.
	tmp, err := os.CreateTemp("", "loam-*"+filepath.Ext(key))
	if err != nil {
		return "", noop, fmt.Errorf("create temp file: %w", err)
	}
	local = tmp.Name()
	_ = tmp.Close()
	cleanup = func() { _ = os.Remove(local) }

	logger.Debug("downloading %s", path)
	if err := client.FGetObject(ctx, bucket, key, local, minio.GetObjectOptions{}); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("download %s: %w", path, err)
	}
	return local, cleanup, nil
}

func (o *Opener) minioClient() (*minio.Client, error) {
	o.once.Do(func() {
		if !o.settings.Configured() {
			o.clientErr = fmt.Errorf("%w: object storage endpoint is not set", domain.ErrConfiguration)
			return
		}
		o.client, o.clientErr = minio.New(o.settings.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(o.settings.AccessKey, o.settings.SecretKey, ""),
			Secure: o.settings.UseSSL,
			Region: o.settings.Region,
		})
		if o.clientErr != nil {
			o.clientErr = fmt.Errorf("object storage client: %w", o.clientErr)
		}
	})
	return o.client, o.clientErr
}
