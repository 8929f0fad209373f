package textcache

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/hupe1980/textcache/internal/fs"
	"github.com/hupe1980/textcache/kv"
	"github.com/hupe1980/textcache/kv/bolt"
	"github.com/hupe1980/textcache/kv/segment"
)

// Engines returns the names accepted by EngineByName.
func Engines() []string { return []string{"bolt", "segment"} }

// EngineByName returns a store engine by name.
func EngineByName(name string) (kv.Engine, error) {
	switch name {
	case "", "bolt":
		return bolt.Engine{}, nil
	case "segment":
		return segment.New(), nil
	default:
		return nil, fmt.Errorf("textcache: unknown engine %q (want one of %v)", name, Engines())
	}
}

// detectEngine picks the engine whose store file exists in dir, falling
// back to bolt so that missing stores report through the engine. An
// unfinished segment build counts as a segment store.
func detectEngine(fsys fs.FileSystem, dir string) kv.Engine {
	for _, name := range []string{segment.FileName, segment.TempFileName} {
		if fs.Exists(fsys, filepath.Join(dir, name)) {
			return segment.New(segment.WithFileSystem(fsys))
		}
	}
	return bolt.Engine{}
}

// isStoreFile reports whether name is a file any engine writes.
func isStoreFile(name string) bool {
	return slices.Contains([]string{bolt.FileName, segment.FileName}, name)
}
