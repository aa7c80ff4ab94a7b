// Package region implements the "region provider" collaborator from the
// allocator's external interface: a contiguous byte region whose break can
// only move up. Three concrete providers exist: an anonymous-mmap-backed
// provider for POSIX (region_unix.go), a VirtualAlloc-backed provider for
// Windows (region_windows.go), and a portable slice-growth provider used by
// tests (slice_provider.go).
package region

import "fmt"

// ErrExhausted is returned by Grow when the provider cannot satisfy the
// requested increment, e.g. the reserved address space or preallocated
// capacity has been used up.
var ErrExhausted = fmt.Errorf("region: provider exhausted")

// Provider grows a contiguous byte region on demand. Addresses handed back
// to callers are offsets into Bytes(), not raw pointers: the backing array
// never moves across calls to Grow, so an offset captured before a Grow
// remains valid after it.
type Provider interface {
	// Init reserves the provider's backing address space and establishes
	// an empty region (Break() == 0) at double-word alignment.
	Init() error

	// Grow extends the region's break by n bytes and returns the offset at
	// which the new extent begins. n must already be a multiple of the
	// allocator's word size; the provider does no rounding of its own.
	// Returns ErrExhausted if the provider's reserved capacity is used up.
	Grow(n int) (offset int, err error)

	// Bytes returns a slice view over [0, Break()). The returned slice
	// aliases the provider's backing storage: writes through it are
	// visible to subsequent calls, and the slice remains valid (is never
	// reallocated) across calls to Grow.
	Bytes() []byte

	// Break returns the current size of the region in bytes.
	Break() int

	// Close releases the provider's backing storage and any OS resources
	// it holds; the region's contents are not accessible afterwards. It is
	// meant to be called once the allocator using this provider is fully
	// torn down.
	Close() error
}
