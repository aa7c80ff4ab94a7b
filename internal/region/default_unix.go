//go:build !windows

package region

// NewDefault returns the platform's native region provider.
func NewDefault(maxBytes int) (Provider, error) {
	return NewMmapProvider(maxBytes)
}
