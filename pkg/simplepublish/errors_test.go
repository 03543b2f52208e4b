package simplepublish_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

func TestProviderErrorRetryable(t *testing.T) {
	tests := []struct {
		kind      simplepublish.ProviderErrorKind
		retryable bool
	}{
		{simplepublish.ProviderErrorAuth, false},
		{simplepublish.ProviderErrorQuota, false},
		{simplepublish.ProviderErrorNetwork, true},
		{simplepublish.ProviderErrorUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := &simplepublish.ProviderError{Kind: tt.kind}
			assert.Equal(t, tt.retryable, err.Retryable())
		})
	}
}

func TestUserMessage(t *testing.T) {
	wrap := func(err error) error {
		return &simplepublish.PipelineError{
			Stage: simplepublish.StageResolve,
			Err:   &simplepublish.TaskError{LogicalPath: "banner[0]", LocalID: "local_x", Err: err},
		}
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation lists the issues",
			err: &simplepublish.ValidationError{
				Issues: []string{"title must be at least 10 characters"},
			},
			want: "content is incomplete: title must be at least 10 characters",
		},
		{
			name: "auth failure surfaces the hint",
			err: wrap(&simplepublish.ProviderError{
				Provider: "cloudinary",
				Kind:     simplepublish.ProviderErrorAuth,
				Hint:     `check that upload preset "news" exists and allows unsigned uploads`,
				Err:      errors.New("status 401"),
			}),
			want: `upload rejected by cloudinary: check that upload preset "news" exists and allows unsigned uploads`,
		},
		{
			name: "auth failure without hint points at credentials",
			err: wrap(&simplepublish.ProviderError{
				Provider: "s3",
				Kind:     simplepublish.ProviderErrorAuth,
				Err:      errors.New("AccessDenied"),
			}),
			want: "upload rejected by s3: check the configured credentials",
		},
		{
			name: "quota failure names the limit",
			err: wrap(&simplepublish.ProviderError{
				Provider: "cloudinary",
				Kind:     simplepublish.ProviderErrorQuota,
				Err:      errors.New("file size too large"),
			}),
			want: "upload rejected by cloudinary: file exceeds the plan or size limit",
		},
		{
			name: "network failure suggests retrying",
			err: wrap(&simplepublish.ProviderError{
				Provider: "cloudinary",
				Kind:     simplepublish.ProviderErrorNetwork,
				Err:      errors.New("connection reset"),
			}),
			want: "upload interrupted by a network failure, try again",
		},
		{
			name: "unknown provider failure",
			err: wrap(&simplepublish.ProviderError{
				Provider: "cloudinary",
				Kind:     simplepublish.ProviderErrorUnknown,
				Err:      errors.New("weird"),
			}),
			want: "upload to cloudinary failed, try again",
		},
		{
			name: "unclassified error passes through",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, simplepublish.UserMessage(tt.err))
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	inner := &simplepublish.ProviderError{
		Provider: "cloudinary",
		Kind:     simplepublish.ProviderErrorNetwork,
		Err:      errors.New("reset"),
	}
	err := &simplepublish.PipelineError{
		Stage: simplepublish.StageResolve,
		Err:   &simplepublish.TaskError{LocalID: "local_x", Err: inner},
	}

	var perr *simplepublish.ProviderError
	assert.ErrorAs(t, err, &perr)
	assert.Same(t, inner, perr)
}
