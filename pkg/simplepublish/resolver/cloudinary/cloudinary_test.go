package cloudinary_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/simplepublish"
	"github.com/tendant/simple-publish/pkg/simplepublish/resolver/cloudinary"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) *cloudinary.Resolver {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	resolver, err := cloudinary.New(cloudinary.Config{
		CloudName:    "demo",
		UploadPreset: "news_unsigned",
		APIBase:      server.URL,
	})
	require.NoError(t, err)
	return resolver
}

func TestNewValidation(t *testing.T) {
	_, err := cloudinary.New(cloudinary.Config{UploadPreset: "p"})
	assert.Error(t, err)

	_, err = cloudinary.New(cloudinary.Config{CloudName: "c"})
	assert.Error(t, err)
}

func TestUploadSuccess(t *testing.T) {
	var gotPath string
	var gotPreset, gotFolder string

	resolver := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPreset = r.FormValue("upload_preset")
		gotFolder = r.FormValue("folder")
		json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://res.cloudinary.com/demo/image/upload/v1/x.jpg",
		})
	})

	url, err := resolver.Upload(context.Background(), &simplepublish.Blob{
		Data:     []byte("jpeg bytes"),
		MimeType: "image/jpeg",
		FileName: "x.jpg",
	}, "ana/auto_sync/2026-08-28", "auto_sync")

	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/x.jpg", url)
	assert.Equal(t, "/demo/image/upload", gotPath)
	assert.Equal(t, "news_unsigned", gotPreset)
	assert.Equal(t, "ana/auto_sync/2026-08-28", gotFolder)
}

func TestUploadRoutesVideosByMimeType(t *testing.T) {
	var gotPath string
	resolver := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://res/x.mp4"})
	})

	_, err := resolver.Upload(context.Background(), &simplepublish.Blob{
		Data:     []byte("mp4 bytes"),
		MimeType: "video/mp4",
	}, "f", "auto_sync")

	require.NoError(t, err)
	assert.Equal(t, "/demo/video/upload", gotPath)
}

func TestUploadErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		message  string
		wantKind simplepublish.ProviderErrorKind
		wantHint bool
	}{
		{"401 is auth", http.StatusUnauthorized, "unauthorized", simplepublish.ProviderErrorAuth, true},
		{"preset message is auth", http.StatusBadRequest, "Upload preset not found", simplepublish.ProviderErrorAuth, true},
		{"404 is auth", http.StatusNotFound, "unknown cloud", simplepublish.ProviderErrorAuth, true},
		{"file size is quota", http.StatusBadRequest, "File size too large", simplepublish.ProviderErrorQuota, false},
		{"413 is quota", http.StatusRequestEntityTooLarge, "", simplepublish.ProviderErrorQuota, false},
		{"500 is network", http.StatusInternalServerError, "oops", simplepublish.ProviderErrorNetwork, false},
		{"unclassified stays unknown", http.StatusBadRequest, "something else", simplepublish.ProviderErrorUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"message": tt.message},
				})
			})

			_, err := resolver.Upload(context.Background(), &simplepublish.Blob{Data: []byte("x")}, "f", "auto_sync")
			require.Error(t, err)

			var perr *simplepublish.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantKind, perr.Kind)
			assert.Equal(t, "cloudinary", perr.Provider)
			if tt.wantHint {
				assert.NotEmpty(t, perr.Hint)
			}
		})
	}
}

func TestUploadTransportFailureIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // refuse all connections

	resolver, err := cloudinary.New(cloudinary.Config{
		CloudName:    "demo",
		UploadPreset: "p",
		APIBase:      server.URL,
	})
	require.NoError(t, err)

	_, err = resolver.Upload(context.Background(), &simplepublish.Blob{Data: []byte("x")}, "f", "auto_sync")
	require.Error(t, err)

	var perr *simplepublish.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, simplepublish.ProviderErrorNetwork, perr.Kind)
	assert.True(t, perr.Retryable())
}
