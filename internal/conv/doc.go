// Package conv provides checked integer conversions for values read from
// cache files and record buffers.
//
// Lengths, offsets and counts decoded from disk are untrusted. The helpers
// here reject values that do not fit the target type instead of letting them
// wrap silently.
package conv
