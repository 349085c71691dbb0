package mem

import "unsafe"

// Memset fills size bytes starting at addr with value. It doubles the
// filled region with each copy instead of writing byte by byte, so a
// page-sized fill takes log2(size) copies rather than size individual
// stores.
func Memset(addr uintptr, value byte, size Size) {
	if size == 0 {
		return
	}

	target := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))

	target[0] = value
	for filled := Size(1); filled < size; filled *= 2 {
		copy(target[filled:], target[:filled])
	}
}
