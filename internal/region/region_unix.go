//go:build !windows

package region

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapProvider reserves a block of anonymous virtual address space up
// front with PROT_NONE, then commits pages into it (PROT_READ|PROT_WRITE)
// as Grow is called. Reserve-then-commit means Bytes()'s backing array
// never moves, exactly like the slice provider, but the address space is
// real OS memory rather than something the Go GC can relocate or that
// competes with the Go heap. Grounded on the golang.org/x/sys/unix usage
// conventions in internal/runtime/asyncio/zerocopy_unix_file.go and
// kqueue_poller_bsd.go.
type MmapProvider struct {
	mapping   []byte
	reserved  int
	committed int
	pageSize  int
}

// NewMmapProvider sets up a provider that reserves maxBytes of address
// space, rounded up to a whole number of pages. The reservation itself is
// made by Init, which fails if the OS cannot grant that much address space.
func NewMmapProvider(maxBytes int) (*MmapProvider, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("region: maxBytes must be positive")
	}

	pageSize := unix.Getpagesize()
	reserved := alignUp(maxBytes, pageSize)

	return &MmapProvider{reserved: reserved, pageSize: pageSize}, nil
}

func (p *MmapProvider) Init() error {
	mapping, err := unix.Mmap(-1, 0, p.reserved, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return fmt.Errorf("region: reserve %d bytes: %w", p.reserved, err)
	}

	p.mapping = mapping
	p.committed = 0

	return nil
}

func (p *MmapProvider) Grow(n int) (int, error) {
	if n < 0 {
		return 0, ErrExhausted
	}

	offset := p.committed
	newCommitted := p.committed + n

	if newCommitted > p.reserved {
		return 0, ErrExhausted
	}

	// Commit whole pages covering [committed, newCommitted).
	committedPages := alignUp(p.committed, p.pageSize)
	neededPages := alignUp(newCommitted, p.pageSize)

	if neededPages > committedPages {
		region := p.mapping[committedPages:neededPages]
		if err := unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return 0, fmt.Errorf("region: commit pages: %w", err)
		}
	}

	p.committed = newCommitted

	return offset, nil
}

func (p *MmapProvider) Bytes() []byte {
	return p.mapping[:p.committed]
}

func (p *MmapProvider) Break() int {
	return p.committed
}

func (p *MmapProvider) Close() error {
	if p.mapping == nil {
		return nil
	}

	err := unix.Munmap(p.mapping)
	p.mapping = nil

	return err
}
