// Package mmap provides read-only memory-mapped file access for cache segments.
//
// # Usage
//
//	m, err := mmap.Open("train/data.seg")
//	if err != nil { ... }
//	defer m.Close()
//
//	// Random sample lookups gain nothing from kernel read-ahead.
//	_ = m.Advise(mmap.AccessRandom)
//
//	data := m.Bytes()
//	idx, _ := m.Region(indexOffset, indexSize)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (advice is a no-op)
//
// # Thread Safety
//
// Mapping and Region are safe for concurrent read access. Close is idempotent.
// Callers must not touch slices returned by Bytes after Close returns.
package mmap
