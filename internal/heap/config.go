package heap

// Config controls allocator behavior, following the functional-options
// pattern used throughout the teacher's allocator package
// (internal/allocator.Config/Option/defaultConfig/With*), generalized from
// a generic byte-pool allocator's options to this boundary-tag design's.
type Config struct {
	// ChunkSize is the minimum number of bytes requested from the region
	// provider on a cache miss (spec's CHUNKSIZE), even when the
	// requested allocation is smaller.
	ChunkSize int

	// MaxRegionBytes bounds how far the region provider is allowed to
	// grow; it is only consulted when the caller builds a provider via
	// NewWithDefaultProvider.
	MaxRegionBytes int

	// EnableLeakCheck, if set, makes Close report any allocations that
	// were never freed.
	EnableLeakCheck bool
}

// Option mutates a Config. Unlike the teacher's AlignmentSize option, this
// design does not expose alignment as configurable: payload alignment is
// fixed at 8 bytes by the boundary-tag wire format itself (spec.md §3),
// not a policy choice.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		ChunkSize:       4096,
		MaxRegionBytes:  64 * 1024 * 1024,
		EnableLeakCheck: true,
	}
}

// WithChunkSize overrides the minimum heap-growth increment.
func WithChunkSize(n int) Option {
	return func(c *Config) { c.ChunkSize = n }
}

// WithMaxRegionBytes overrides the region provider's reservation size.
func WithMaxRegionBytes(n int) Option {
	return func(c *Config) { c.MaxRegionBytes = n }
}

// WithLeakCheck toggles leak reporting on Close.
func WithLeakCheck(enabled bool) Option {
	return func(c *Config) { c.EnableLeakCheck = enabled }
}
