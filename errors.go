package assoofs

import (
	"errors"
	"syscall"
)

// Package-specific error variables, usable with errors.Is() for error handling.
var (
	// ErrNotAssoofs is returned when the superblock's magic number doesn't match.
	ErrNotAssoofs = errors.New("assoofs: not an assoofs filesystem image")

	// ErrWrongBlockSize is returned when the superblock's block_size field
	// doesn't match BlockSize.
	ErrWrongBlockSize = errors.New("assoofs: image formatted with wrong block size")

	// ErrNoSpace is returned when the free-block bitmap has no free block, or
	// an append would overflow a block's capacity.
	ErrNoSpace = errors.New("assoofs: no space left on device")

	// ErrNotFound is returned when an inode number or filename can't be located.
	ErrNotFound = errors.New("assoofs: not found")

	// ErrNotDir is returned when a directory-only operation targets a file.
	ErrNotDir = errors.New("assoofs: not a directory")

	// ErrNameTooLong is returned when a filename exceeds FilenameMax-1 bytes.
	ErrNameTooLong = errors.New("assoofs: filename too long")

	// ErrObjectCapExceeded is returned when creating an object would exceed MaxObjects.
	ErrObjectCapExceeded = errors.New("assoofs: maximum number of filesystem objects exceeded")

	// ErrCorruptImage is returned when a decoded record violates a structural invariant.
	ErrCorruptImage = errors.New("assoofs: corrupt image")

	// ErrInodeVanished is returned when InodeStore.Update can't find the
	// record it was asked to overwrite. Unlike a failed Lookup — where a
	// missing name is an ordinary, locally handled outcome — this means an
	// inode a caller just read (and is holding a live reference to) is gone
	// from the store it's supposed to still be in: an invariant breach, not
	// a normal not-found.
	ErrInodeVanished = errors.New("assoofs: inode vanished from store during update")

	// ErrReadOnly is returned when a mutating operation is attempted on a
	// filesystem mounted with WithReadOnly(true).
	ErrReadOnly = errors.New("assoofs: filesystem is read-only")
)

// errno maps a core error to the syscall.Errno the VFS host surfaces to
// userspace.
func errno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotAssoofs), errors.Is(err, ErrWrongBlockSize):
		return syscall.EPERM
	case errors.Is(err, ErrNoSpace), errors.Is(err, ErrObjectCapExceeded):
		return syscall.ENOSPC
	case errors.Is(err, ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrNotDir):
		return syscall.ENOTDIR
	case errors.Is(err, ErrNameTooLong):
		return syscall.ENAMETOOLONG
	case errors.Is(err, ErrCorruptImage), errors.Is(err, ErrInodeVanished):
		return syscall.EIO
	case errors.Is(err, ErrReadOnly):
		return syscall.EROFS
	default:
		return syscall.EIO
	}
}
