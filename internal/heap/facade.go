package heap

import (
	"github.com/blockforge/heapcore/internal/herr"
	"github.com/blockforge/heapcore/internal/region"
)

// Heap is the allocator facade: Allocate/Free/Resize over a region
// provider, backed by the boundary-tag block layout (block.go,
// coalesce.go, growth.go) and the free-index tree (tree.go). A Heap is
// single-threaded and non-reentrant: no operation may be invoked
// concurrently with any other on the same instance, and the allocator
// performs no internal synchronization of its own.
type Heap struct {
	provider region.Provider
	mem      []byte
	root     Ptr
	listPtr  Ptr // prologue's payload pointer; the heap's traversal start
	config   *Config

	totalAllocated uintptr
	totalFreed     uintptr
	allocCount     uint64
	freeCount      uint64
}

// New creates a Heap over the given region provider. Call Init before any
// other method.
func New(provider region.Provider, opts ...Option) *Heap {
	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	return &Heap{provider: provider, config: config, root: NullPtr}
}

// NewWithDefaultProvider creates a Heap over the platform's native region
// provider (mmap on POSIX, VirtualAlloc on Windows), reserved up to
// Config.MaxRegionBytes.
func NewWithDefaultProvider(opts ...Option) (*Heap, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	provider, err := region.NewDefault(config.MaxRegionBytes)
	if err != nil {
		return nil, err
	}

	h := &Heap{provider: provider, config: config, root: NullPtr}

	return h, nil
}

// Init requests the prologue/epilogue bytes plus an initial CHUNKSIZE free
// extent from the region provider and seeds the free-index tree.
func (h *Heap) Init() error {
	if err := h.provider.Init(); err != nil {
		return err
	}

	// Four words: one padding word (keeps the prologue's payload pointer
	// double-word aligned), the prologue header, the prologue footer, and
	// the initial epilogue header.
	offset, err := h.provider.Grow(4 * wsize)
	if err != nil {
		return herr.RegionExhausted(4 * wsize)
	}

	h.mem = h.provider.Bytes()

	padding := offset
	prologueHdr := padding + wsize
	prologueFtr := prologueHdr + wsize
	epilogueHdr := prologueFtr + wsize

	writeWord(h.mem, prologueHdr, pack(dsize, true))
	writeWord(h.mem, prologueFtr, pack(dsize, true))
	writeWord(h.mem, epilogueHdr, pack(0, true))

	h.listPtr = Ptr(prologueHdr + wsize)
	h.root = NullPtr

	initial, ok := h.extendHeap(h.config.ChunkSize / wsize)
	if !ok {
		return herr.RegionExhausted(h.config.ChunkSize)
	}

	h.treeInsert(initial)

	return nil
}

// Allocate reserves requestedBytes and returns the payload address, or
// NullPtr if requestedBytes is 0 or the region provider is exhausted.
func (h *Heap) Allocate(requestedBytes int) Ptr {
	if requestedBytes <= 0 {
		return NullPtr
	}

	asize := requestedSize(requestedBytes)

	var bp Ptr

	if fit := h.treeCeiling(asize); fit != NullPtr {
		h.treeRemove(fit)
		bp = fit
	} else {
		growBytes := asize
		if h.config.ChunkSize > growBytes {
			growBytes = h.config.ChunkSize
		}

		grown, ok := h.extendHeap(wordsFor(growBytes))
		if !ok {
			return NullPtr
		}

		bp = grown
	}

	result := h.place(bp, asize)
	h.allocCount++
	h.totalAllocated += uintptr(asize)

	return result
}

// requestedSize converts a client byte count into the block size that
// must be carved out for it: header + footer + payload, rounded up to a
// double word, never smaller than the minimum block.
func requestedSize(requestedBytes int) int {
	asize := alignUp8(requestedBytes + dsize)
	if asize < minBlock {
		asize = minBlock
	}

	return asize
}

// place commits an allocation into free block bp, splitting off a free
// remainder when doing so still leaves a legal block behind. The split
// heuristic places the allocated part adjacent to the larger of bp's two
// physical neighbors once asize exceeds their average size, and adjacent
// to the smaller neighbor otherwise; the free remainder takes the other
// end of bp. Treats the prologue as size
// 8 and the epilogue as size 0, which falls out naturally from their real
// boundary tags rather than needing special-casing.
func (h *Heap) place(bp Ptr, asize int) Ptr {
	blockSize := sizeOf(h.mem, bp)
	remainder := blockSize - asize

	if remainder < minBlock {
		writeTags(h.mem, bp, blockSize, true)
		return bp
	}

	prevSize := sizeOf(h.mem, prevBlock(h.mem, bp))
	nextSize := sizeOf(h.mem, nextBlock(h.mem, bp))
	avg := (prevSize + nextSize) / 2

	largerIsPrev := prevSize >= nextSize

	var placeLow bool
	if asize > avg {
		placeLow = largerIsPrev
	} else {
		placeLow = !largerIsPrev
	}

	var allocated, free Ptr

	if placeLow {
		allocated, free = bp, bp+Ptr(asize)
	} else {
		free, allocated = bp, bp+Ptr(remainder)
	}

	writeTags(h.mem, free, remainder, false)
	writeTags(h.mem, allocated, asize, true)
	h.treeInsert(free)

	return allocated
}

// Free releases the block at p: it is stamped free, coalesced with any
// free physical neighbors, and the resulting block is inserted into the
// free-index tree. Double-free and invalid-pointer behavior are
// undefined, per spec.md §7.
func (h *Heap) Free(p Ptr) {
	if p == NullPtr {
		return
	}

	size := sizeOf(h.mem, p)
	writeTags(h.mem, p, size, false)

	merged := h.coalesce(p)
	h.treeInsert(merged)

	h.freeCount++
	h.totalFreed += uintptr(size)
}

// Resize changes the size of the block at p, attempting in-place growth
// before falling back to allocate-copy-free. A nil p behaves as Allocate.
// A newBytes of 0 frees p and returns NullPtr (spec.md §9 leaves this
// choice to the implementer; this design picked free-and-return-null to
// match SystemAllocatorImpl.Realloc(ptr, 0)'s behavior in the teacher).
func (h *Heap) Resize(p Ptr, newBytes int) Ptr {
	if p == NullPtr {
		return h.Allocate(newBytes)
	}

	if newBytes <= 0 {
		h.Free(p)
		return NullPtr
	}

	asize := requestedSize(newBytes)
	curSize := sizeOf(h.mem, p)
	next := nextBlock(h.mem, p)
	nextSize := sizeOf(h.mem, next)
	nextAllocated := isAllocated(h.mem, next)

	switch {
	case nextAllocated && nextSize == 0:
		// Next block is the epilogue: the only room to grow into is more
		// region. Extend explicitly and use the returned block rather
		// than assuming where it landed, even though in this design it
		// is always physically adjacent to p.
		if asize <= curSize {
			return h.splitOrAbsorb(p, asize, curSize)
		}

		grown, ok := h.extendHeap(wordsFor(asize - curSize))
		if !ok {
			return h.resizeCopyFallback(p, newBytes)
		}

		return h.splitOrAbsorb(p, asize, curSize+sizeOf(h.mem, grown))

	case !nextAllocated && curSize+nextSize >= asize:
		h.treeRemove(next)
		return h.splitOrAbsorb(p, asize, curSize+nextSize)

	case !nextAllocated:
		afterNext := nextBlock(h.mem, next)
		if isAllocated(h.mem, afterNext) && sizeOf(h.mem, afterNext) == 0 {
			needed := asize - curSize - nextSize
			grown, ok := h.extendHeap(wordsFor(needed))
			if !ok {
				return h.resizeCopyFallback(p, newBytes)
			}

			// extendHeap coalesced the new extent into next (taking next
			// out of the tree), so grown is next and its size covers both.
			return h.splitOrAbsorb(p, asize, curSize+sizeOf(h.mem, grown))
		}

		return h.resizeCopyFallback(p, newBytes)

	default:
		return h.resizeCopyFallback(p, newBytes)
	}
}

// splitOrAbsorb finalizes an in-place resize once totalSize bytes are
// known to be available starting at p: absorb them all if the leftover
// after asize would be too small to stand alone, otherwise split off a
// free remainder and index it.
func (h *Heap) splitOrAbsorb(p Ptr, asize, totalSize int) Ptr {
	remainder := totalSize - asize
	if remainder < minBlock {
		writeTags(h.mem, p, totalSize, true)
		return p
	}

	writeTags(h.mem, p, asize, true)

	free := p + Ptr(asize)
	writeTags(h.mem, free, remainder, false)
	h.treeInsert(free)

	return p
}

// resizeCopyFallback handles the case where no in-place growth is
// possible: allocate fresh space, copy the overlapping prefix, free the
// original block.
func (h *Heap) resizeCopyFallback(p Ptr, newBytes int) Ptr {
	newP := h.Allocate(newBytes)
	if newP == NullPtr {
		return NullPtr
	}

	oldPayload := h.PayloadBytes(p)
	newPayload := h.PayloadBytes(newP)

	n := len(oldPayload)
	if len(newPayload) < n {
		n = len(newPayload)
	}

	copy(newPayload[:n], oldPayload[:n])

	h.Free(p)

	return newP
}

// PayloadBytes returns a slice view over the readable/writable payload
// bytes of the block at p. This is the Go-idiomatic equivalent of
// returning a void* to client code: clients index and copy through the
// slice rather than through unsafe pointer arithmetic.
func (h *Heap) PayloadBytes(p Ptr) []byte {
	size := sizeOf(h.mem, p)
	start := int(p)
	end := start + size - dsize

	return h.mem[start:end]
}

// Close releases the region provider's OS resources. If leak checking is
// enabled, it returns the number of allocations that were never freed.
func (h *Heap) Close() (leaked uint64, err error) {
	if h.config.EnableLeakCheck {
		leaked = h.allocCount - h.freeCount
	}

	return leaked, h.provider.Close()
}
