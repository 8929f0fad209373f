// Package fs provides the filesystem abstraction used by cache builds,
// segment files and remote fetches.
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test wrapper injecting write, sync, close and rename failures
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
//
// Tests inject [FaultyFS] to simulate a disk filling up mid-build:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("data.seg", fs.Fault{FailAfterBytes: 4096})
//
// Operations take no context.Context; local syscalls are not interruptible.
package fs
