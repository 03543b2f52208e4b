package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

const providerName = "s3"

// Config options for the S3 resolver
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// PublicBaseURL is the delivery prefix for uploaded objects, e.g. a
	// CDN distribution in front of the bucket. When empty, the standard
	// virtual-hosted bucket URL is used.
	PublicBaseURL string
}

// Resolver uploads blobs to an S3-compatible bucket and implements the
// simplepublish.SyncResolver interface. Objects are keyed under the
// requested folder with a generated name so repeated uploads of the
// same file never collide.
type Resolver struct {
	client *s3.Client
	config Config
}

// New creates a new S3-compatible resolver
func New(config Config) (*Resolver, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	return &Resolver{
		client: s3.NewFromConfig(awsCfg, s3Options...),
		config: config,
	}, nil
}

// Upload stores one blob under the folder prefix and returns its public
// delivery URL.
func (r *Resolver) Upload(ctx context.Context, blob *simplepublish.Blob, folder, uploadContext string) (string, error) {
	key := objectKey(folder, blob.FileName)

	uploader := manager.NewUploader(r.client)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(blob.Data),
		ContentType: aws.String(blob.MimeType),
		Metadata:    map[string]string{"upload-context": uploadContext},
	}

	if _, err := uploader.Upload(ctx, input); err != nil {
		return "", r.classify(err)
	}

	return r.publicURL(key), nil
}

// classify maps an SDK failure onto a ProviderError kind using the
// smithy API error code when one is present. Failures without an API
// code never reached the service and count as network errors.
func (r *Resolver) classify(err error) error {
	kind := simplepublish.ProviderErrorNetwork
	hint := ""

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			kind = simplepublish.ProviderErrorAuth
			hint = "check the configured access key and bucket policy"
		case "EntityTooLarge", "QuotaExceeded", "ServiceQuotaExceededException":
			kind = simplepublish.ProviderErrorQuota
		case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
			kind = simplepublish.ProviderErrorNetwork
		default:
			kind = simplepublish.ProviderErrorUnknown
		}
	}

	return &simplepublish.ProviderError{
		Provider: providerName,
		Kind:     kind,
		Op:       "upload",
		Hint:     hint,
		Err:      err,
	}
}

// publicURL composes the delivery URL for a stored object.
func (r *Resolver) publicURL(key string) string {
	if r.config.PublicBaseURL != "" {
		return strings.TrimSuffix(r.config.PublicBaseURL, "/") + "/" + key
	}
	if r.config.Endpoint != "" {
		return strings.TrimSuffix(r.config.Endpoint, "/") + "/" + r.config.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", r.config.Bucket, r.config.Region, key)
}

// objectKey joins the folder prefix with a generated object name,
// keeping the original extension so delivery content types stay right.
func objectKey(folder, fileName string) string {
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	if ext := path.Ext(fileName); ext != "" {
		name += strings.ToLower(ext)
	}
	return strings.Trim(folder, "/") + "/" + name
}
