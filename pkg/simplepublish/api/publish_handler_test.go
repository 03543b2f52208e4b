package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/simplepublish"
	"github.com/tendant/simple-publish/pkg/simplepublish/api"
	memoryassets "github.com/tendant/simple-publish/pkg/simplepublish/assetstore/memory"
	repomemory "github.com/tendant/simple-publish/pkg/simplepublish/repo/memory"
)

// cdnStub resolves every upload to a fixed CDN URL.
type cdnStub struct{}

func (cdnStub) Upload(ctx context.Context, blob *simplepublish.Blob, folder, uploadContext string) (string, error) {
	return "https://cdn.example.com/" + folder + "/" + blob.FileName, nil
}

func newTestHandler(t *testing.T) (*api.PublishHandler, *memoryassets.Store) {
	t.Helper()

	assets := memoryassets.New()
	svc, err := simplepublish.New(
		simplepublish.WithPersistenceStore(repomemory.New()),
		simplepublish.WithAssetStore(assets),
		simplepublish.WithSyncResolver(cdnStub{}),
		simplepublish.WithSEOConfig(simplepublish.SEOConfig{
			SiteName: "Momento News",
			BaseURL:  "https://news.example.com",
		}),
	)
	require.NoError(t, err)

	return api.NewPublishHandler(svc, assets), assets
}

func publishableBody(t *testing.T, mutate func(map[string]any)) *bytes.Reader {
	t.Helper()
	doc := map[string]any{
		"title":    "Prefeitura anuncia reforma da praça central",
		"lead":     strings.Repeat("O investimento previsto passa de um milhão de reais. ", 2),
		"body":     strings.Repeat("A obra deve começar no próximo semestre. ", 10),
		"category": "cidade",
		"city":     "Lagoa Formosa",
	}
	if mutate != nil {
		mutate(doc)
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestStageAsset(t *testing.T) {
	handler, assets := newTestHandler(t)
	router := handler.Routes()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	part.Write([]byte("jpeg bytes"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/assets", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp api.StageAssetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.LocalID, simplepublish.LocalRefPrefix))
	assert.Equal(t, 1, assets.Len())
}

func TestStageAssetRequiresFile(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := handler.Routes()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/assets", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishDocument(t *testing.T) {
	handler, assets := newTestHandler(t)
	router := handler.Routes()

	localID, err := assets.Put(context.Background(), simplepublish.Blob{
		Data:     []byte("jpeg bytes"),
		FileName: "banner.jpg",
	})
	require.NoError(t, err)

	body := publishableBody(t, func(doc map[string]any) {
		doc["banner_images"] = []string{localID}
	})

	req := httptest.NewRequest(http.MethodPost, "/documents/publish", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.PublishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Document)
	assert.Equal(t, simplepublish.DocumentStatusPublished, resp.Document.Status)
	assert.NotEmpty(t, resp.Document.Slug)
	assert.Equal(t, simplepublish.MediaRefRemote, resp.Document.BannerImages[0].State)

	require.NotEmpty(t, resp.Progress)
	assert.Equal(t, 100, resp.Progress[len(resp.Progress)-1].Percent)
}

func TestPublishDocumentValidationFailure(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := handler.Routes()

	body := publishableBody(t, func(doc map[string]any) {
		doc["title"] = "curto"
	})

	req := httptest.NewRequest(http.MethodPost, "/documents/publish", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "content is incomplete")
}

func TestSaveDraft(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := handler.Routes()

	body := publishableBody(t, func(doc map[string]any) {
		doc["title"] = "rascunho"
	})

	req := httptest.NewRequest(http.MethodPost, "/documents/drafts", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.PublishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, simplepublish.DocumentStatusDraft, resp.Document.Status)
	assert.Empty(t, resp.Document.Slug)
}

func TestGetDocument(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := handler.Routes()

	// Publish one first.
	req := httptest.NewRequest(http.MethodPost, "/documents/publish", publishableBody(t, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.PublishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	req = httptest.NewRequest(http.MethodGet, "/documents/"+resp.Document.ID.String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched simplepublish.ContentDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, resp.Document.Slug, fetched.Slug)
}

func TestGetDocumentErrors(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := handler.Routes()

	req := httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/documents/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateDocumentEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := handler.Routes()

	req := httptest.NewRequest(http.MethodPost, "/documents/validate", publishableBody(t, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var ok map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.Equal(t, true, ok["valid"])

	req = httptest.NewRequest(http.MethodPost, "/documents/validate",
		publishableBody(t, func(doc map[string]any) { doc["category"] = "" }))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var bad map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bad))
	assert.Equal(t, false, bad["valid"])
	assert.NotEmpty(t, bad["issues"])
}
