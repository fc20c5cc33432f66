// Package cache provides pluggable byte caches and cache-key derivation
// for the layout pipeline.
//
// Two artifact classes are cached: normalized relationship graphs
// (keyed by source and content hash) and final visual documents (keyed
// by graph hash plus every layout input that affects positions). Keys
// embed all inputs so a settings change never serves stale output.
//
// Backends: FileCache for CLI usage, RedisCache for the serve command,
// NullCache to disable caching.
package cache

import (
	"context"
	"time"
)

// TTLs per artifact class. Graphs change when the source file changes,
// so they can live long; documents are cheap to recompute but are the
// hot path for the serve command.
const (
	// TTLGraph is the lifetime of cached relationship graphs.
	TTLGraph = 7 * 24 * time.Hour

	// TTLDocument is the lifetime of cached visual documents.
	TTLDocument = 24 * time.Hour
)

// Cache is a byte cache with TTL support.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a
// clean miss; errors are reserved for backend failures. A ttl of zero
// means no expiration.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys. Implementations must be deterministic: the
// same inputs always yield the same key.
type Keyer interface {
	// GraphKey derives the key for a normalized relationship graph.
	GraphKey(source, graphHash string) string

	// DocumentKey derives the key for a final visual document.
	DocumentKey(graphHash string, opts DocumentKeyOpts) string
}

// DocumentKeyOpts carries every layout input that affects a document's
// content. Two runs with equal graph hash and equal opts produce
// byte-identical documents, so they may share a cache entry.
type DocumentKeyOpts struct {
	CanvasWidth       float64  `json:"canvas_width"`
	CanvasHeight      float64  `json:"canvas_height"`
	NodeSpacing       float64  `json:"node_spacing"`
	GenerationSpacing float64  `json:"generation_spacing"`
	SpouseSpacing     float64  `json:"spouse_spacing"`
	FamilySpacing     float64  `json:"family_spacing"`
	TreeSpacing       float64  `json:"tree_spacing"`
	Stages            []string `json:"stages"`
}

// DefaultKeyer is the standard key derivation.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for relationship graph caching.
func (k *DefaultKeyer) GraphKey(source, graphHash string) string {
	return hashKey("graph", source, graphHash)
}

// DocumentKey generates a key for visual document caching.
func (k *DefaultKeyer) DocumentKey(graphHash string, opts DocumentKeyOpts) string {
	return hashKey("document", graphHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
