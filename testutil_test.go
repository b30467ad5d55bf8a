package assoofs

import "testing"

// newTestImage builds a minimal, valid in-memory image: a superblock with
// one live inode (the root directory), an empty root directory data block,
// and every block above index 2 marked free. Formatting a fresh image is
// out of scope for the package itself, but tests still need one to mount
// against.
func newTestImage(t *testing.T) *memDevice {
	t.Helper()

	d := newMemDevice()

	sb := Superblock{
		Version:     1,
		MagicNumber: Magic,
		BlockSize:   BlockSize,
		InodesCount: 1,
		FreeBlocks:  ^uint64(0) &^ (1 << SuperblockBlock) &^ (1 << InodeStoreBlock) &^ (1 << RootDirBlock),
	}
	raw, err := sb.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal superblock: %v", err)
	}
	if err := d.WriteBlock(SuperblockBlock, raw); err != nil {
		t.Fatalf("write superblock: %v", err)
	}

	root := InodeRecord{
		Mode:        ModeDir | 0755,
		InodeNo:     RootDirIno,
		DataBlockNo: RootDirBlock,
	}
	inodeBlock := make([]byte, BlockSize)
	if err := encodeInodeAt(inodeBlock, 0, root); err != nil {
		t.Fatalf("encode root inode: %v", err)
	}
	if err := d.WriteBlock(InodeStoreBlock, inodeBlock); err != nil {
		t.Fatalf("write inode store: %v", err)
	}

	if err := d.WriteBlock(RootDirBlock, make([]byte, BlockSize)); err != nil {
		t.Fatalf("write root dir block: %v", err)
	}

	return d
}
