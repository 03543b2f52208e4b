package social_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/simplepublish"
	"github.com/tendant/simple-publish/pkg/simplepublish/social"
)

func testDoc() *simplepublish.ContentDocument {
	return &simplepublish.ContentDocument{
		ID:            uuid.New(),
		Title:         "Obra da praça começa em setembro",
		Lead:          "A prefeitura confirmou o cronograma nesta quinta-feira.",
		Category:      "cidade",
		Author:        "Ana Souza",
		CanonicalURL:  "https://news.example.com/news/obra-da-praca",
		FeaturedImage: simplepublish.RemoteRef("https://cdn.example.com/feat.jpg"),
	}
}

func TestDispatchPostsEveryChannel(t *testing.T) {
	var payloads []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		payloads = append(payloads, p)
	}))
	defer server.Close()

	distributor := social.New(social.Config{Channels: []string{"facebook", "whatsapp"}})

	var settled []simplepublish.DistributionState
	err := distributor.Dispatch(context.Background(), testDoc(), server.URL,
		func(channel string, state simplepublish.DistributionState) {
			settled = append(settled, state)
		})
	require.NoError(t, err)

	require.Len(t, payloads, 2)
	assert.Equal(t, "facebook", payloads[0]["target_platform"])
	assert.Equal(t, "whatsapp", payloads[1]["target_platform"])
	assert.Equal(t, "news_link", payloads[0]["type"])
	assert.Equal(t, "image", payloads[0]["media_type"])
	assert.Equal(t, "https://cdn.example.com/feat.jpg", payloads[0]["media_url"])
	// Caption falls back to the lead.
	assert.Equal(t, "A prefeitura confirmou o cronograma nesta quinta-feira.", payloads[0]["text"])

	assert.Equal(t, []simplepublish.DistributionState{
		simplepublish.DistributionPending, simplepublish.DistributionPosted,
		simplepublish.DistributionPending, simplepublish.DistributionPosted,
	}, settled)
}

func TestDispatchCustomCaption(t *testing.T) {
	var texts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		texts = append(texts, p["text"].(string))
	}))
	defer server.Close()

	doc := testDoc()
	doc.SocialDistribution = []simplepublish.DistributionStatus{
		{Channel: "facebook", Caption: "Legenda especial para o Facebook"},
	}

	distributor := social.New(social.Config{Channels: []string{"facebook", "whatsapp"}})
	require.NoError(t, distributor.Dispatch(context.Background(), doc, server.URL, nil))

	assert.Equal(t, []string{
		"Legenda especial para o Facebook",
		"A prefeitura confirmou o cronograma nesta quinta-feira.",
	}, texts)
}

func TestDispatchVideoBanner(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	}))
	defer server.Close()

	doc := testDoc()
	doc.BannerVideo = simplepublish.RemoteRef("https://www.youtube.com/watch?v=abc")

	distributor := social.New(social.Config{Channels: []string{"youtube"}})
	require.NoError(t, distributor.Dispatch(context.Background(), doc, server.URL, nil))

	assert.Equal(t, "video", payload["media_type"])
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", payload["media_url"])
}

func TestDispatchFailedChannelDoesNotAbort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	distributor := social.New(social.Config{Channels: []string{"facebook", "whatsapp"}})

	settled := make(map[string]simplepublish.DistributionState)
	err := distributor.Dispatch(context.Background(), testDoc(), server.URL,
		func(channel string, state simplepublish.DistributionState) {
			settled[channel] = state
		})
	require.NoError(t, err)

	assert.Equal(t, simplepublish.DistributionFailed, settled["facebook"])
	assert.Equal(t, simplepublish.DistributionFailed, settled["whatsapp"])
}

func TestDispatchInvalidWebhookMarksFailed(t *testing.T) {
	distributor := social.New(social.Config{Channels: []string{"facebook"}})

	settled := make(map[string]simplepublish.DistributionState)
	err := distributor.Dispatch(context.Background(), testDoc(), "not-a-url",
		func(channel string, state simplepublish.DistributionState) {
			settled[channel] = state
		})
	require.NoError(t, err)
	assert.Equal(t, simplepublish.DistributionFailed, settled["facebook"])
}

func TestDefaultChannels(t *testing.T) {
	distributor := social.New(social.Config{})
	settled := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	err := distributor.Dispatch(context.Background(), testDoc(), server.URL,
		func(channel string, state simplepublish.DistributionState) {
			if state == simplepublish.DistributionPosted {
				settled++
			}
		})
	require.NoError(t, err)
	assert.Equal(t, len(social.DefaultChannels), settled)
}
