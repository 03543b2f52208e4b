package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-publish/pkg/simplepublish"
	fsassets "github.com/tendant/simple-publish/pkg/simplepublish/assetstore/fs"
	memoryassets "github.com/tendant/simple-publish/pkg/simplepublish/assetstore/memory"
	repomemory "github.com/tendant/simple-publish/pkg/simplepublish/repo/memory"
	repopg "github.com/tendant/simple-publish/pkg/simplepublish/repo/postgres"
	"github.com/tendant/simple-publish/pkg/simplepublish/resolver/cloudinary"
	s3resolver "github.com/tendant/simple-publish/pkg/simplepublish/resolver/s3"
	"github.com/tendant/simple-publish/pkg/simplepublish/resolver/youtube"
	"github.com/tendant/simple-publish/pkg/simplepublish/social"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8080",
		Environment:    "development",
		DatabaseType:   "memory",
		AssetStoreType: "memory",
		SyncProvider:   "cloudinary",
		Concurrency:    simplepublish.DefaultConcurrency,
	}
}

// ServerConfig represents server configuration for the simple-publish service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Asset staging configuration
	AssetStoreType string // "memory", "fs"
	AssetStoreDir  string // Base directory when AssetStoreType is "fs"

	// Sync upload provider
	SyncProvider string // "cloudinary", "s3"
	Cloudinary   cloudinary.Config
	S3           s3resolver.Config

	// Queued video provider (optional)
	YouTube youtube.Config

	// Social fan-out (optional; enabled when the webhook URL is set)
	SocialWebhookURL string
	SocialChannels   []string

	// Pipeline tuning
	Concurrency int
	MaxRetries  int

	// Site identity for SEO synthesis
	SEO simplepublish.SEOConfig

	assetStore simplepublish.AssetStore
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.AssetStoreType != "memory" && c.AssetStoreType != "fs" {
		return errors.New("asset_store_type must be 'memory' or 'fs'")
	}
	if c.AssetStoreType == "fs" && c.AssetStoreDir == "" {
		return errors.New("asset_store_dir is required when using fs staging")
	}

	if c.SyncProvider != "cloudinary" && c.SyncProvider != "s3" {
		return errors.New("sync_provider must be 'cloudinary' or 's3'")
	}

	return nil
}

// BuildService creates a publication Service instance from the server configuration
func (c *ServerConfig) BuildService() (simplepublish.Service, error) {
	var options []simplepublish.Option

	store, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, simplepublish.WithPersistenceStore(store))

	assets, err := c.BuildAssetStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build asset store: %w", err)
	}
	options = append(options, simplepublish.WithAssetStore(assets))

	sync, err := c.buildSyncResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to build sync resolver: %w", err)
	}
	if sync != nil {
		options = append(options, simplepublish.WithSyncResolver(sync))
	}

	if c.YouTube.Endpoint != "" {
		queued, err := youtube.New(c.YouTube)
		if err != nil {
			return nil, fmt.Errorf("failed to build queued resolver: %w", err)
		}
		options = append(options, simplepublish.WithQueuedResolver(queued))
	}

	if c.SocialWebhookURL != "" {
		distributor := social.New(social.Config{Channels: c.SocialChannels})
		options = append(options, simplepublish.WithSocialDistributor(distributor, c.SocialWebhookURL))
	}

	options = append(options,
		simplepublish.WithSEOConfig(c.SEO),
		simplepublish.WithConcurrency(c.Concurrency),
	)
	if c.MaxRetries > 0 {
		options = append(options, simplepublish.WithRetryPolicy(simplepublish.RetryPolicy{
			MaxRetries:      c.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
		}))
	}

	return simplepublish.New(options...)
}

// buildRepository creates a PersistenceStore based on the configuration
func (c *ServerConfig) buildRepository() (simplepublish.PersistenceStore, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildAssetStore creates the AssetStore for this configuration. The
// instance is cached so the HTTP staging endpoint and the pipeline
// share one store; staged keys must resolve inside pipeline runs.
func (c *ServerConfig) BuildAssetStore() (simplepublish.AssetStore, error) {
	if c.assetStore != nil {
		return c.assetStore, nil
	}

	switch c.AssetStoreType {
	case "memory":
		c.assetStore = memoryassets.New()
	case "fs":
		store, err := fsassets.New(fsassets.Config{BaseDir: c.AssetStoreDir})
		if err != nil {
			return nil, err
		}
		c.assetStore = store
	default:
		return nil, fmt.Errorf("unsupported asset store type: %s", c.AssetStoreType)
	}
	return c.assetStore, nil
}

// buildSyncResolver creates a SyncResolver based on the configuration.
// Missing provider credentials are not an error here: a service can run
// drafts-only and fail lazily when an upload is actually attempted.
func (c *ServerConfig) buildSyncResolver() (simplepublish.SyncResolver, error) {
	switch c.SyncProvider {
	case "cloudinary":
		if c.Cloudinary.CloudName == "" {
			return nil, nil
		}
		return cloudinary.New(c.Cloudinary)
	case "s3":
		if c.S3.Bucket == "" {
			return nil, nil
		}
		return s3resolver.New(c.S3)
	default:
		return nil, fmt.Errorf("unsupported sync provider: %s", c.SyncProvider)
	}
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
