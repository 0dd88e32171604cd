package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/core/domain"
)

func TestParseObjectPath(t *testing.T) {
	bucket, key, err := ParseObjectPath("s3://refs/taxonomy/2024.csv")
	require.NoError(t, err)
	assert.Equal(t, "refs", bucket)
	assert.Equal(t, "taxonomy/2024.csv", key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "/tmp/x.csv"} {
		_, _, err := ParseObjectPath(bad)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), bad)
	}
}

func TestFetch_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots.csv")
	require.NoError(t, os.WriteFile(path, []byte("id\n1\n"), 0o600))

	local, cleanup, err := NewOpener(domain.ObjectStorageSettings{}).Fetch(context.Background(), path)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, path, local)
}

func TestFetch_LocalMissing(t *testing.T) {
	_, cleanup, err := NewOpener(domain.ObjectStorageSettings{}).Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	cleanup()
}

func TestFetch_RemoteWithoutEndpoint(t *testing.T) {
	_, _, err := NewOpener(domain.ObjectStorageSettings{}).Fetch(context.Background(), "s3://refs/plots.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
