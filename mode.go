package assoofs

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// modeToFileMode converts an on-disk InodeRecord.Mode (Linux S_IFDIR /
// S_IFREG plus permission bits) to a Go fs.FileMode, sourcing the type
// bits from golang.org/x/sys/unix rather than hand-rolling S_IFDIR/S_IFREG
// constants.
func modeToFileMode(mode uint32) fs.FileMode {
	perm := fs.FileMode(mode & 0777)
	switch mode & modeFmt {
	case uint32(unix.S_IFDIR):
		return perm | fs.ModeDir
	case uint32(unix.S_IFREG):
		return perm
	default:
		return perm
	}
}

// unixMode builds an InodeRecord.Mode value from a Go fs.FileMode and a
// type tag, using the combined "S_IFDIR | mode" shape consistently across
// every site that builds a mode (create and mkdir, via Filesystem.create).
func unixMode(perm fs.FileMode, dir bool) uint32 {
	m := uint32(perm.Perm())
	if dir {
		m |= uint32(unix.S_IFDIR)
	} else {
		m |= uint32(unix.S_IFREG)
	}
	return m
}
