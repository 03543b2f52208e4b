package simplepublish_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

func TestParseMediaRef(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want simplepublish.MediaRef
	}{
		{
			name: "empty string is absent",
			in:   "",
			want: simplepublish.MediaRef{},
		},
		{
			name: "local prefix classifies as local",
			in:   "local_abc123",
			want: simplepublish.LocalRef("local_abc123"),
		},
		{
			name: "pending segment classifies as queued",
			in:   "https://www.youtube.com/embed/pending_job42",
			want: simplepublish.QueuedRef("job42", "https://www.youtube.com/embed/pending_job42"),
		},
		{
			name: "bare pending token classifies as queued",
			in:   "pending_job42",
			want: simplepublish.QueuedRef("job42", "pending_job42"),
		},
		{
			name: "pending mid-path does not classify as queued",
			in:   "https://cdn.example.com/pending_jobs/photo.jpg",
			want: simplepublish.RemoteRef("https://cdn.example.com/pending_jobs/photo.jpg"),
		},
		{
			name: "https url classifies as remote",
			in:   "https://cdn.example.com/a/b.jpg",
			want: simplepublish.RemoteRef("https://cdn.example.com/a/b.jpg"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := simplepublish.ParseMediaRef(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestMediaRefStates(t *testing.T) {
	assert.True(t, simplepublish.MediaRef{}.IsZero())
	assert.False(t, simplepublish.LocalRef("local_x").IsZero())

	assert.True(t, simplepublish.LocalRef("local_x").IsLocal())
	assert.False(t, simplepublish.RemoteRef("https://x").IsLocal())
	assert.False(t, simplepublish.QueuedRef("j", "u").IsLocal())
}

func TestMediaRefJSON(t *testing.T) {
	type doc struct {
		Image simplepublish.MediaRef `json:"image"`
	}

	in := doc{Image: simplepublish.LocalRef("local_abc")}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"image":"local_abc"}`, string(data))

	var out doc
	require.NoError(t, json.Unmarshal([]byte(`{"image":"https://www.youtube.com/embed/pending_j1"}`), &out))
	assert.Equal(t, simplepublish.MediaRefQueued, out.Image.State)
	assert.Equal(t, "j1", out.Image.JobID)
}
