package heap

// Stats reports allocator-wide statistics, mirroring
// internal/allocator.AllocatorStats's counters (TotalAllocated,
// TotalFreed, AllocationCount, FreeCount, BytesInUse) plus fields specific
// to this design's testable properties: the free-index tree's current
// depth (relevant because it is intentionally unbalanced, see spec.md
// §4.4's design notes) and the free list's shape.
type Stats struct {
	TotalAllocated   uintptr
	TotalFreed       uintptr
	AllocationCount  uint64
	FreeCount        uint64
	BytesInUse       int
	FreeBlockCount   int
	FreeBytes        int
	LargestFreeBlock int
	TreeDepth        int
}

// Stats walks the region once to compute the structural fields and
// combines them with the running allocate/free counters.
func (h *Heap) Stats() Stats {
	s := Stats{
		TotalAllocated:  h.totalAllocated,
		TotalFreed:      h.totalFreed,
		AllocationCount: h.allocCount,
		FreeCount:       h.freeCount,
		TreeDepth:       h.treeDepth(),
	}

	h.walkBlocks(func(bp Ptr, size int, allocated bool) {
		switch {
		case size == 0:
			// Epilogue: contributes nothing.
		case allocated:
			s.BytesInUse += size
		default:
			s.FreeBlockCount++
			s.FreeBytes += size

			if size > s.LargestFreeBlock {
				s.LargestFreeBlock = size
			}
		}
	})

	return s
}
