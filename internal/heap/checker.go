package heap

import (
	"fmt"

	"github.com/blockforge/heapcore/internal/heap/diag"
	"github.com/blockforge/heapcore/internal/herr"
)

// CheckHeap walks the region from the prologue to the epilogue, asserting
// the structural invariants from spec.md §3 and §8, and separately walks
// the free-index tree checking its ordering invariant and membership
// against the physical layout. It never mutates the heap; verbose adds an
// info-level finding per block.
func (h *Heap) CheckHeap(verbose bool) diag.Report {
	var report diag.Report

	h.checkLayout(&report, verbose)
	h.checkTree(&report)

	return report
}

// Verify runs CheckHeap and turns the first error-level finding, if any,
// into a categorized *herr.HeapError so callers that just want a go/no-go
// answer don't need to understand diag.Report's shape.
func (h *Heap) Verify() error {
	report := h.CheckHeap(false)

	for _, f := range report.Findings {
		if f.Level != diag.LevelError {
			continue
		}

		switch f.Category {
		case diag.CategoryBoundaryTag:
			bp := Ptr(f.Offset)
			size := unpackSize(readWord(h.mem, hdrp(bp)))
			header := readWord(h.mem, hdrp(bp))
			footer := readWord(h.mem, ftrp(bp, size))
			return herr.BoundaryTagMismatch(f.Offset, int(header), int(footer))
		case diag.CategoryCoalescing:
			return herr.AdjacentFreeBlocks(int(prevBlock(h.mem, Ptr(f.Offset))), f.Offset)
		case diag.CategoryAlignment:
			return herr.MisalignedBlock(f.Offset, sizeOf(h.mem, Ptr(f.Offset)))
		case diag.CategoryTree:
			return herr.InvalidPointer("CheckHeap/tree")
		default:
			return herr.InvalidPointer("CheckHeap")
		}
	}

	return nil
}

func (h *Heap) checkLayout(report *diag.Report, verbose bool) {
	prologueSize := sizeOf(h.mem, h.listPtr)
	if prologueSize != dsize || !isAllocated(h.mem, h.listPtr) {
		report.Add(diag.New().Error().In(diag.CategoryLayout).At(int(h.listPtr)).
			Message(fmt.Sprintf("prologue must be an allocated block of size %d, got size %d", dsize, prologueSize)).Build())
	}

	var prevFree bool
	prevOffset := -1
	first := true

	h.walkBlocks(func(bp Ptr, size int, allocated bool) {
		if verbose {
			info := diag.New().Message(fmt.Sprintf("block at %d: size=%d allocated=%v", bp, size, allocated)).Build()
			info.Level = diag.LevelInfo
			report.Add(info)
		}

		if size == 0 {
			if !allocated {
				report.Add(diag.New().Error().In(diag.CategoryLayout).At(int(bp)).
					Message("epilogue must be marked allocated").Build())
			}

			return
		}

		if int(bp)%dsize != 0 {
			report.Add(diag.New().Error().In(diag.CategoryAlignment).At(int(bp)).
				Message("payload pointer is not double-word aligned").Build())
		}

		// The prologue is exempt from the minimum-block-size rule: it has
		// no payload by design.
		if bp != h.listPtr && (size%dsize != 0 || size < minBlock) {
			report.Add(diag.New().Error().In(diag.CategoryAlignment).At(int(bp)).
				Message(fmt.Sprintf("block size %d violates size%%8==0, size>=%d", size, minBlock)).Build())
		}

		header := readWord(h.mem, hdrp(bp))
		footer := readWord(h.mem, ftrp(bp, size))

		if header != footer {
			report.Add(diag.New().Error().In(diag.CategoryBoundaryTag).At(int(bp)).
				Message(fmt.Sprintf("header %#x != footer %#x", header, footer)).Build())
		}

		if !first && prevFree && !allocated {
			report.Add(diag.New().Error().In(diag.CategoryCoalescing).At(int(bp)).
				Message(fmt.Sprintf("block at %d and preceding block at %d are both free: missed coalesce", bp, prevOffset)).Build())
		}

		prevFree = !allocated
		prevOffset = int(bp)
		first = false
	})
}

func (h *Heap) checkTree(report *diag.Report) {
	freeBlocks := make(map[Ptr]bool)

	h.walkBlocks(func(bp Ptr, size int, allocated bool) {
		if size != 0 && !allocated {
			freeBlocks[bp] = true
		}
	})

	seen := make(map[Ptr]bool)
	h.checkSubtree(report, h.root, 0, maxBlockSize, seen)

	if len(seen) != len(freeBlocks) {
		report.Add(diag.New().Error().In(diag.CategoryTree).
			Message(fmt.Sprintf("tree has %d reachable nodes but the region has %d free blocks", len(seen), len(freeBlocks))).Build())
	}

	for bp := range seen {
		if !freeBlocks[bp] {
			report.Add(diag.New().Error().In(diag.CategoryTree).At(int(bp)).
				Message("tree references a block the physical layout does not mark free").Build())
		}
	}
}

const maxBlockSize = int(^uint(0) >> 1)

// checkSubtree verifies the BST ordering invariant (every size in the left
// subtree <= node size < every size in the right subtree) over the whole
// subtree, not just the immediate children, and records every node it
// visits in seen. A revisited node indicates a cycle, which is reported
// and not re-descended.
func (h *Heap) checkSubtree(report *diag.Report, node Ptr, lowExclusive, highInclusive int, seen map[Ptr]bool) {
	if node == NullPtr {
		return
	}

	if seen[node] {
		report.Add(diag.New().Error().In(diag.CategoryTree).At(int(node)).
			Message("cycle detected in free-index tree").Build())

		return
	}

	seen[node] = true

	size := sizeOf(h.mem, node)
	if size <= lowExclusive || size > highInclusive {
		report.Add(diag.New().Error().In(diag.CategoryTree).At(int(node)).
			Message(fmt.Sprintf("node size %d violates bounds (%d, %d]", size, lowExclusive, highInclusive)).Build())
	}

	if isAllocated(h.mem, node) {
		report.Add(diag.New().Error().In(diag.CategoryTree).At(int(node)).
			Message("allocated block is present in the free-index tree").Build())
	}

	h.checkSubtree(report, getLeft(h.mem, node), lowExclusive, size, seen)
	h.checkSubtree(report, getRight(h.mem, node), size, highInclusive, seen)
}
