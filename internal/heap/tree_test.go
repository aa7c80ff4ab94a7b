package heap

import (
	"testing"

	"github.com/blockforge/heapcore/internal/region"
)

func newTestHeap(t *testing.T) *Heap {
	t.Helper()

	h := New(region.NewSliceProvider(1 << 20))
	if err := h.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	return h
}

// freshFreeBlock carves out a standalone free block of the given size by
// growing the region and writing its tags and a new epilogue directly,
// bypassing place/coalesce, so the tree tests exercise
// insert/ceiling/remove in isolation.
func freshFreeBlock(t *testing.T, h *Heap, size int) Ptr {
	t.Helper()

	offset, err := h.provider.Grow(size)
	if err != nil {
		t.Fatalf("Grow(%d) failed: %v", size, err)
	}

	h.mem = h.provider.Bytes()

	bp := Ptr(offset)
	writeTags(h.mem, bp, size, false)
	writeWord(h.mem, hdrp(nextBlock(h.mem, bp)), pack(0, true))

	return bp
}

// TestFreeIndexTree covers the unbalanced, in-place BST keyed by block
// size: insertion, ceiling search, and removal (leaf, two-children, and
// duplicate-key cases).
func TestFreeIndexTree(t *testing.T) {
	t.Run("InsertCeilingExactFit", func(t *testing.T) {
		h := newTestHeap(t)
		h.root = NullPtr // start from an empty tree for this white-box test

		sizes := []int{16, 32, 24, 64, 48}
		blocks := make(map[int]Ptr)

		for _, s := range sizes {
			bp := freshFreeBlock(t, h, s)
			blocks[s] = bp
			h.treeInsert(bp)
		}

		for _, s := range sizes {
			got := h.treeCeiling(s)
			if got != blocks[s] {
				t.Errorf("treeCeiling(%d) = %d, want exact-fit block %d", s, got, blocks[s])
			}
		}

		// A request between two sizes should get the smallest block >=
		// request.
		if got := h.treeCeiling(40); got != blocks[48] {
			t.Errorf("treeCeiling(40) = %d, want %d (size 48)", got, blocks[48])
		}

		if got := h.treeCeiling(65); got != NullPtr {
			t.Errorf("treeCeiling(65) = %d, want NullPtr (no block big enough)", got)
		}
	})

	t.Run("RemoveLeaf", func(t *testing.T) {
		h := newTestHeap(t)
		h.root = NullPtr

		a := freshFreeBlock(t, h, 16)
		b := freshFreeBlock(t, h, 32)
		h.treeInsert(a)
		h.treeInsert(b)

		h.treeRemove(b)

		if got := h.treeCeiling(32); got != NullPtr {
			t.Errorf("after removing the only 32-byte block, treeCeiling(32) = %d, want NullPtr", got)
		}

		if got := h.treeCeiling(16); got != a {
			t.Errorf("treeCeiling(16) = %d, want %d", got, a)
		}
	})

	t.Run("RemoveTwoChildren", func(t *testing.T) {
		h := newTestHeap(t)
		h.root = NullPtr

		// Build a small tree where the root has two children, forcing the
		// two-child removal path (in-order predecessor splice) when root is
		// removed.
		sizes := []int{40, 24, 56, 16, 32, 48, 64}
		byBize := make(map[int]Ptr)

		for _, s := range sizes {
			bp := freshFreeBlock(t, h, s)
			byBize[s] = bp
			h.treeInsert(bp)
		}

		root := h.root
		if root != byBize[40] {
			t.Fatalf("expected root to be the first-inserted block (size 40), got block of size %d", sizeOf(h.mem, root))
		}

		h.treeRemove(root)

		// Every size except 40 must still be found, and 40's block must be
		// gone even though other blocks remain.
		for _, s := range []int{24, 56, 16, 32, 48, 64} {
			if got := h.treeCeiling(s); got != byBize[s] {
				t.Errorf("after removing root, treeCeiling(%d) = %d, want %d", s, got, byBize[s])
			}
		}

		if got := h.treeCeiling(40); got == byBize[40] {
			t.Errorf("removed block (size 40) is still reachable via treeCeiling")
		}
	})

	t.Run("DuplicateSizesRemoveSpecificBlock", func(t *testing.T) {
		h := newTestHeap(t)
		h.root = NullPtr

		// Three distinct free blocks that all happen to carry the same size.
		first := freshFreeBlock(t, h, 32)
		second := freshFreeBlock(t, h, 32)
		third := freshFreeBlock(t, h, 32)

		h.treeInsert(first)
		h.treeInsert(second)
		h.treeInsert(third)

		// Removing the middle-inserted block must not disturb the other two.
		h.treeRemove(second)

		seen := map[Ptr]bool{}
		for i := 0; i < 3; i++ {
			bp := h.treeCeiling(32)
			if bp == NullPtr {
				break
			}

			seen[bp] = true
			h.treeRemove(bp)
		}

		if seen[second] {
			t.Error("removed block is still reachable")
		}

		if !seen[first] || !seen[third] {
			t.Errorf("expected first and third blocks to remain reachable, got %v", seen)
		}

		if len(seen) != 2 {
			t.Errorf("expected exactly 2 reachable same-size blocks, got %d", len(seen))
		}
	})
}
