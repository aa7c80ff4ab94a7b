package heap

// coalesce merges the free block at bp with any free physical neighbors,
// removing those neighbors from the free-index tree first since their
// sizes (and therefore their tree keys) are about to change. It must run
// before the merged block is reinserted into the tree; the caller decides
// whether and when to reinsert the block this returns.
func (h *Heap) coalesce(bp Ptr) Ptr {
	prevAllocated := isAllocated(h.mem, prevBlock(h.mem, bp))
	nextAllocated := isAllocated(h.mem, nextBlock(h.mem, bp))
	size := sizeOf(h.mem, bp)

	switch {
	case prevAllocated && nextAllocated:
		// Case 1: no merge possible.
		return bp

	case prevAllocated && !nextAllocated:
		// Case 2: merge with the following block.
		next := nextBlock(h.mem, bp)
		h.treeRemove(next)
		size += sizeOf(h.mem, next)
		writeTags(h.mem, bp, size, false)

		return bp

	case !prevAllocated && nextAllocated:
		// Case 3: merge with the preceding block.
		prev := prevBlock(h.mem, bp)
		h.treeRemove(prev)
		size += sizeOf(h.mem, prev)
		writeTags(h.mem, prev, size, false)

		return prev

	default:
		// Case 4: merge with both neighbors.
		prev := prevBlock(h.mem, bp)
		next := nextBlock(h.mem, bp)
		h.treeRemove(prev)
		h.treeRemove(next)
		size += sizeOf(h.mem, prev) + sizeOf(h.mem, next)
		writeTags(h.mem, prev, size, false)

		return prev
	}
}
