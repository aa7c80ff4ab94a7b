package region

// alignUp rounds n up to the nearest multiple of alignment. alignment must
// be a power of two.
func alignUp(n, alignment int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}
