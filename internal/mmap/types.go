package mmap

import "errors"

// AccessPattern is a read-ahead hint passed to the kernel.
type AccessPattern int

const (
	// AccessDefault restores the kernel's normal read-ahead.
	AccessDefault AccessPattern = iota
	// AccessRandom disables read-ahead for point lookups.
	AccessRandom
	// AccessSequential enables aggressive read-ahead for whole-file copies.
	AccessSequential
)

var (
	// ErrClosed is returned after the mapping has been unmapped.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files that cannot be addressed by int.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrOutOfBounds is returned for regions that extend past the mapping.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
)
