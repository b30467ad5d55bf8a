package assoofs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMountRejectsWrongMagic(t *testing.T) {
	d := newTestImage(t)
	sb := Superblock{Version: 1, MagicNumber: 0xbad, BlockSize: BlockSize, InodesCount: 1}
	raw, _ := sb.MarshalBinary()
	require.NoError(t, d.WriteBlock(SuperblockBlock, raw))

	_, err := Mount(d)
	require.ErrorIs(t, err, ErrNotAssoofs)
}

func TestMountAndStat(t *testing.T) {
	d := newTestImage(t)
	fsys, err := Mount(d)
	require.NoError(t, err)

	stats := fsys.Stat()
	require.EqualValues(t, 1, stats.InodesCount)
	require.Equal(t, MaxObjects-3, stats.FreeBlocks)
	require.NotEqual(t, stats.Session.String(), "")
}

func TestFilesystemCreateFileAndLookup(t *testing.T) {
	d := newTestImage(t)
	fsys, err := Mount(d)
	require.NoError(t, err)

	root, err := fsys.root()
	require.NoError(t, err)

	child, err := fsys.create(&root, "greeting.txt", false, fs.FileMode(0644))
	require.NoError(t, err)
	require.True(t, child.IsReg())
	require.EqualValues(t, 2, child.InodeNo)

	found, err := fsys.lookup(root, "greeting.txt")
	require.NoError(t, err)
	require.Equal(t, child, found)
}

func TestFilesystemMkdirNested(t *testing.T) {
	d := newTestImage(t)
	fsys, err := Mount(d)
	require.NoError(t, err)

	root, err := fsys.root()
	require.NoError(t, err)

	sub, err := fsys.create(&root, "sub", true, fs.FileMode(0755))
	require.NoError(t, err)
	require.True(t, sub.IsDir())

	leaf, err := fsys.create(&sub, "leaf.txt", false, fs.FileMode(0644))
	require.NoError(t, err)
	require.True(t, leaf.IsReg())

	children, err := fsys.readdir(sub)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "leaf.txt", children[0].Filename)
}

func TestFilesystemCreateUnderFileFails(t *testing.T) {
	d := newTestImage(t)
	fsys, err := Mount(d)
	require.NoError(t, err)

	root, err := fsys.root()
	require.NoError(t, err)

	file, err := fsys.create(&root, "notadir", false, fs.FileMode(0644))
	require.NoError(t, err)

	_, err = fsys.create(&file, "x", false, fs.FileMode(0644))
	require.ErrorIs(t, err, ErrNotDir)
}

func TestFilesystemCreateExhaustsBlockBitmap(t *testing.T) {
	// The free-block bitmap runs out before the inode-count cap does, since
	// MaxObjects bounds both the inode array and the bitmap and every object
	// needs exactly one of each. Nesting one subdirectory inside the last
	// avoids ever tripping the (unrelated) per-directory child-count cap,
	// which a flat fan-out under root would hit first (a directory's data
	// block holds at most 15 DirRecords).
	d := newTestImage(t)
	fsys, err := Mount(d)
	require.NoError(t, err)

	current, err := fsys.root()
	require.NoError(t, err)

	created := 0
	for {
		child, err := fsys.create(&current, "sub", true, fs.FileMode(0755))
		if err != nil {
			require.ErrorIs(t, err, ErrNoSpace)
			break
		}
		current = child
		created++
	}
	require.Equal(t, MaxObjects-3, created)
}

func TestFilesystemCreateExhaustsObjectCap(t *testing.T) {
	// Isolates the inode-count cap itself, independent of the block bitmap,
	// by advancing InodesCount directly rather than performing MaxObjects
	// real creates.
	d := newTestImage(t)
	fsys, err := Mount(d)
	require.NoError(t, err)

	root, err := fsys.root()
	require.NoError(t, err)

	require.NoError(t, fsys.sb.SetInodesCount(MaxObjects))

	_, err = fsys.create(&root, "overflow", false, fs.FileMode(0644))
	require.ErrorIs(t, err, ErrObjectCapExceeded)
}

func TestFilesystemReadOnlyRejectsCreate(t *testing.T) {
	d := newTestImage(t)
	fsys, err := Mount(d, WithReadOnly(true))
	require.NoError(t, err)

	root, err := fsys.root()
	require.NoError(t, err)

	_, err = fsys.create(&root, "x", false, fs.FileMode(0644))
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestFilesystemWriteThenRead(t *testing.T) {
	d := newTestImage(t)
	fsys, err := Mount(d)
	require.NoError(t, err)

	root, err := fsys.root()
	require.NoError(t, err)

	child, err := fsys.create(&root, "f", false, fs.FileMode(0644))
	require.NoError(t, err)

	// The first write at offset 0 on a zero-size file is rejected: writes
	// are only accepted when offset < current size.
	n, err := fsys.write(&child, []byte("hi"), 0)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	buf := make([]byte, 2)
	n, err = fsys.read(child, buf, 0)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
