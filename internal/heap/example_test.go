package heap_test

import (
	"fmt"

	"github.com/blockforge/heapcore/internal/heap"
	"github.com/blockforge/heapcore/internal/region"
)

func ExampleHeap_Allocate() {
	h := heap.New(region.NewSliceProvider(1 << 16))
	if err := h.Init(); err != nil {
		fmt.Println("init error:", err)
		return
	}

	a := h.Allocate(24)
	b := h.Allocate(48)

	fmt.Println(a != heap.NullPtr)
	fmt.Println(b != heap.NullPtr)
	fmt.Println(a != b)

	// Output:
	// true
	// true
	// true
}

func ExampleHeap_Free() {
	h := heap.New(region.NewSliceProvider(1 << 16))
	if err := h.Init(); err != nil {
		fmt.Println("init error:", err)
		return
	}

	before := h.Stats().FreeBlockCount

	a := h.Allocate(32)
	h.Free(a)

	after := h.Stats().FreeBlockCount

	fmt.Println(before == after)

	// Output:
	// true
}

func ExampleHeap_Resize() {
	h := heap.New(region.NewSliceProvider(1 << 16))
	if err := h.Init(); err != nil {
		fmt.Println("init error:", err)
		return
	}

	a := h.Allocate(16)
	copy(h.PayloadBytes(a), []byte("hello"))

	b := h.Resize(a, 128)

	fmt.Println(string(h.PayloadBytes(b)[:5]))

	// Output:
	// hello
}

func ExampleHeap_CheckHeap() {
	h := heap.New(region.NewSliceProvider(1 << 16))
	if err := h.Init(); err != nil {
		fmt.Println("init error:", err)
		return
	}

	h.Allocate(16)
	h.Allocate(32)

	report := h.CheckHeap(false)
	fmt.Println(report.OK())

	// Output:
	// true
}
