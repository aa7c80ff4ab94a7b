package heap

// OpKind identifies a trace operation.
type OpKind int

const (
	OpAllocate OpKind = iota
	OpFree
	OpResize
)

// Op is one step of a synthetic allocation trace, used only by tests to
// express scenarios like spec.md §8's literal end-to-end sequences as
// data instead of repeated boilerplate. It is not part of the public API:
// the original C malloclab's own trace-driven harness is out of scope
// (spec.md §1), and no trace format survived distillation from
// original_source/ (its C sources were filtered out entirely), so this is
// a minimal supplement rather than a ported format.
type Op struct {
	Kind OpKind
	Size int
	// Handle indexes into the Replay call's handle table: OpAllocate and
	// OpResize store their result there; OpFree and OpResize read the
	// existing pointer from there.
	Handle int
}

// Replay executes a sequence of Ops against h, maintaining a table of
// live pointers indexed by Op.Handle. It returns the payload pointer each
// op produced (NullPtr for OpFree, which returns nothing), in call order,
// followed by the allocator's stats after the final step.
func (h *Heap) Replay(ops []Op) ([]Ptr, Stats) {
	handles := make(map[int]Ptr)
	results := make([]Ptr, len(ops))

	for i, op := range ops {
		switch op.Kind {
		case OpAllocate:
			handles[op.Handle] = h.Allocate(op.Size)
			results[i] = handles[op.Handle]
		case OpFree:
			h.Free(handles[op.Handle])
			delete(handles, op.Handle)
			results[i] = NullPtr
		case OpResize:
			handles[op.Handle] = h.Resize(handles[op.Handle], op.Size)
			results[i] = handles[op.Handle]
		}
	}

	return results, h.Stats()
}
