package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
)

func TestIsNoSuchKey(t *testing.T) {
	assert.False(t, IsNoSuchKey(nil))
	assert.True(t, IsNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, IsNoSuchKey(fmt.Errorf("wrapped: %w", minio.ErrorResponse{Code: "NotFound"})))
	assert.True(t, IsNoSuchKey(minio.ErrorResponse{StatusCode: 404}))
	assert.False(t, IsNoSuchKey(errors.New("The specified key does not exist.")))
	assert.False(t, IsNoSuchKey(minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403, Message: "denied"}))
	assert.False(t, IsNoSuchKey(minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}))
}

func TestPublicBaseURL(t *testing.T) {
	base, err := publicBaseURL(config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "portfolio"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/portfolio", base)

	base, err = publicBaseURL(config.MinIOConfig{Endpoint: "s3.example", Bucket: "b", UseSSL: true})
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/b", base)

	base, err = publicBaseURL(config.MinIOConfig{PublicBaseURL: "https://cdn.example/media/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/media", base)

	_, err = publicBaseURL(config.MinIOConfig{PublicBaseURL: "not a url"})
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	c := &Client{publicBase: "https://cdn.example/media"}
	assert.Equal(t, "https://cdn.example/media/portfolio/a.png", c.PublicURL("portfolio/a.png"))
	assert.Equal(t, "https://cdn.example/media/portfolio/a.png", c.PublicURL("/portfolio/a.png"))
}
