// Package simplepublish implements the media asset resolution and
// publication pipeline for structured news documents.
//
// A document handed to the pipeline may reference media that is still
// staged in a local asset store. The pipeline discovers every pending
// reference exactly once, routes each to a sync host or a queued video
// platform, rewrites the document with durable references, then runs
// SEO synthesis, unique slug assignment, optional social fan-out and
// persistence, reporting monotonic progress along the way.
//
// The package is storage- and provider-agnostic: asset stores,
// resolvers, persistence and social distribution are all interfaces
// with implementations under subpackages (assetstore/, resolver/,
// repo/, social/).
package simplepublish
