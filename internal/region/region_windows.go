//go:build windows

package region

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// VirtualAllocProvider mirrors MmapProvider on Windows: it reserves address
// space with MEM_RESERVE and commits pages into it with MEM_COMMIT as Grow
// is called, so the backing array's address never moves. Grounded on the
// golang.org/x/sys/windows usage conventions in
// internal/runtime/asyncio/zerocopy_windows_file.go and
// iocp_poller_windows.go.
type VirtualAllocProvider struct {
	base      uintptr
	mapping   []byte
	reserved  int
	committed int
	pageSize  int
}

// NewVirtualAllocProvider sets up a provider that reserves maxBytes of
// address space, rounded up to a whole number of pages. The reservation
// itself is made by Init.
func NewVirtualAllocProvider(maxBytes int) (*VirtualAllocProvider, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("region: maxBytes must be positive")
	}

	var si windows.SystemInfo
	windows.GetSystemInfo(&si)
	pageSize := int(si.PageSize)

	return &VirtualAllocProvider{
		reserved: alignUp(maxBytes, pageSize),
		pageSize: pageSize,
	}, nil
}

func (p *VirtualAllocProvider) Init() error {
	addr, err := windows.VirtualAlloc(0, uintptr(p.reserved), windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return fmt.Errorf("region: reserve %d bytes: %w", p.reserved, err)
	}

	p.base = addr
	p.mapping = unsafe.Slice((*byte)(unsafe.Pointer(addr)), p.reserved)
	p.committed = 0

	return nil
}

func (p *VirtualAllocProvider) Grow(n int) (int, error) {
	if n < 0 {
		return 0, ErrExhausted
	}

	offset := p.committed
	newCommitted := p.committed + n

	if newCommitted > p.reserved {
		return 0, ErrExhausted
	}

	committedPages := alignUp(p.committed, p.pageSize)
	neededPages := alignUp(newCommitted, p.pageSize)

	if neededPages > committedPages {
		addr := p.base + uintptr(committedPages)
		size := uintptr(neededPages - committedPages)

		if _, err := windows.VirtualAlloc(addr, size, windows.MEM_COMMIT, windows.PAGE_READWRITE); err != nil {
			return 0, fmt.Errorf("region: commit pages: %w", err)
		}
	}

	p.committed = newCommitted

	return offset, nil
}

func (p *VirtualAllocProvider) Bytes() []byte {
	return p.mapping[:p.committed]
}

func (p *VirtualAllocProvider) Break() int {
	return p.committed
}

func (p *VirtualAllocProvider) Close() error {
	if p.base == 0 {
		return nil
	}

	err := windows.VirtualFree(p.base, 0, windows.MEM_RELEASE)
	p.base = 0
	p.mapping = nil

	return err
}
