package assoofs

// DirectoryOps reads and writes a directory's child list within its single
// data block. A directory's record list lives entirely in one BlockSize
// buffer, addressed by the owning inode's DataBlockNo and bounded by its
// DirChildrenCount.
type DirectoryOps struct {
	device BlockDevice
	inodes *InodeStore
}

// NewDirectoryOps builds a DirectoryOps over device, persisting inode
// count changes through inodes.
func NewDirectoryOps(device BlockDevice, inodes *InodeStore) *DirectoryOps {
	return &DirectoryOps{device: device, inodes: inodes}
}

// Iterate returns the directory's children in stored (append) order, which
// must remain stable across mounts.
func (d *DirectoryOps) Iterate(dir InodeRecord) ([]DirRecord, error) {
	if !dir.IsDir() {
		return nil, ErrNotDir
	}

	raw, err := d.device.ReadBlock(dir.DataBlockNo)
	if err != nil {
		return nil, err
	}

	count := dir.DirChildrenCount()
	out := make([]DirRecord, 0, count)
	for i := uint64(0); i < count; i++ {
		rec, err := decodeDirAt(raw, i)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Lookup does a linear scan of dir's data block for an exact filename
// match and returns the matching inode number.
//
// InsertChild never checks for an existing name, so duplicate names can
// occur; Lookup returns the *first* stored match, not the most recently
// inserted one — see DESIGN.md's note on this.
func (d *DirectoryOps) Lookup(dir InodeRecord, name string) (uint64, error) {
	children, err := d.Iterate(dir)
	if err != nil {
		return 0, err
	}
	for _, c := range children {
		if c.Filename == name {
			return c.InodeNo, nil
		}
	}
	return 0, ErrNotFound
}

// InsertChild appends a new DirRecord at offset
// DirChildrenCount*sizeof(DirRecord) in dir's data block, flushes,
// increments dir.SizeOrChildren, and persists dir through the InodeStore —
// writing the child record before updating the parent inode. dir is
// updated in place so the caller's copy reflects the new count.
func (d *DirectoryOps) InsertChild(dir *InodeRecord, name string, childIno uint64) error {
	if !dir.IsDir() {
		return ErrNotDir
	}
	if len(name) > FilenameMax-1 {
		return ErrNameTooLong
	}

	count := dir.DirChildrenCount()
	if (count+1)*dirRecordSize > BlockSize {
		return ErrNoSpace
	}

	raw, err := d.device.ReadBlock(dir.DataBlockNo)
	if err != nil {
		return err
	}

	if err := encodeDirAt(raw, count, DirRecord{Filename: name, InodeNo: childIno}); err != nil {
		return err
	}

	if err := d.device.WriteBlock(dir.DataBlockNo, raw); err != nil {
		return err
	}
	if err := d.device.Flush(); err != nil {
		return err
	}

	dir.SizeOrChildren = count + 1
	return d.inodes.Update(*dir)
}

func decodeDirAt(block []byte, index uint64) (DirRecord, error) {
	off := index * dirRecordSize
	if off+dirRecordSize > uint64(len(block)) {
		return DirRecord{}, ErrCorruptImage
	}
	var rec DirRecord
	if err := rec.UnmarshalBinary(block[off : off+dirRecordSize]); err != nil {
		return DirRecord{}, err
	}
	return rec, nil
}

func encodeDirAt(block []byte, index uint64, rec DirRecord) error {
	off := index * dirRecordSize
	if off+dirRecordSize > uint64(len(block)) {
		return ErrNoSpace
	}
	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	copy(block[off:off+dirRecordSize], raw)
	return nil
}
