// Package hash provides the CRC32-Castagnoli checksum used for cache
// integrity.
//
// Two places rely on it. The segment engine stores the checksum of its sorted
// index in the file footer and refuses to map a file whose index does not
// match. Published manifests list the checksum of every store file so Fetch
// can reject a damaged download before it replaces a local split.
//
// One-shot:
//
//	sum := hash.CRC32C(index)
//
// Streaming, while copying a store file:
//
//	h := hash.NewCRC32C()
//	_, err := io.Copy(io.MultiWriter(dst, h), src)
//	sum := h.Sum32()
package hash
