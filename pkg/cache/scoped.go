package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The serve command uses this to keep per-deployment cache namespaces
// apart when several instances share one Redis.
//
// Example usage:
//
//	// Deployment-specific keys
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "prod:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GraphKey generates a prefixed key for relationship graph caching.
func (k *ScopedKeyer) GraphKey(source, graphHash string) string {
	return k.prefix + k.inner.GraphKey(source, graphHash)
}

// DocumentKey generates a prefixed key for visual document caching.
func (k *ScopedKeyer) DocumentKey(graphHash string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(graphHash, opts)
}
