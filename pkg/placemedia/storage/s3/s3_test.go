package s3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "default aws url",
			config: Config{Bucket: "photos", Region: "ap-northeast-1"},
			want:   "https://photos.s3.ap-northeast-1.amazonaws.com/users/u1/media/m1/original",
		},
		{
			name:   "custom endpoint",
			config: Config{Bucket: "photos", Endpoint: "http://localhost:9000", UsePathStyle: true},
			want:   "http://localhost:9000/photos/users/u1/media/m1/original",
		},
		{
			name:   "public base url wins",
			config: Config{Bucket: "photos", Endpoint: "http://localhost:9000", PublicBaseURL: "https://cdn.example.com/"},
			want:   "https://cdn.example.com/users/u1/media/m1/original",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := New(tt.config)
			require.NoError(t, err)

			url, err := backend.PublicURL(ctx, "users/u1/media/m1/original")
			require.NoError(t, err)
			assert.Equal(t, tt.want, url)
		})
	}
}
