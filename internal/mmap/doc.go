// Package mmap maps snapshot files read-only into memory.
//
// The local blob store hands the mapped bytes straight to the snapshot
// decoder, so loading a large snapshot does not hold a second copy of the
// file while it is decoded.
//
//	f, err := mmap.Open("snapshots/0192f6c1.kgr")
//	if err != nil { ... }
//	defer f.Close()
//
//	_ = f.Advise(mmap.Sequential)
//	header, _ := f.Slice(0, 64)
//
// Unix platforms use mmap(2) with madvise(2) hints; Windows maps views with
// MapViewOfFile and ignores hints.
package mmap
