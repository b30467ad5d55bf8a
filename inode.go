package assoofs

// InodeStore provides iteration, fetch-by-number, append, and in-place
// update over the packed array of InodeRecords in block 1. There is no
// free-list of inode records in this format: creation is an O(1) append
// and update is an O(n) scan bounded by InodesCount, which is an
// acceptable trade-off given MaxObjects == 64.
type InodeStore struct {
	device BlockDevice
	sb     *SuperblockManager
}

// NewInodeStore builds an InodeStore reading through sb's device.
func NewInodeStore(device BlockDevice, sb *SuperblockManager) *InodeStore {
	return &InodeStore{device: device, sb: sb}
}

// Get scans block 1 linearly up to InodesCount records and returns a
// detached copy of the one matching inodeNo.
func (s *InodeStore) Get(inodeNo uint64) (InodeRecord, error) {
	raw, err := s.device.ReadBlock(InodeStoreBlock)
	if err != nil {
		return InodeRecord{}, err
	}

	count := s.sb.InodesCount()
	for i := uint64(0); i < count; i++ {
		rec, err := decodeInodeAt(raw, i)
		if err != nil {
			return InodeRecord{}, err
		}
		if rec.InodeNo == inodeNo {
			return rec, nil
		}
	}
	return InodeRecord{}, ErrNotFound
}

// Append writes rec at offset InodesCount*sizeof(InodeRecord), increments
// InodesCount, flushes block 1, then persists the superblock. It fails
// with ErrNoSpace before writing anything once InodesCount has reached
// MaxObjects. Filesystem.create checks the same cap itself before calling
// Append and reports ErrObjectCapExceeded, so create/mkdir never reach
// this ErrNoSpace path.
func (s *InodeStore) Append(rec InodeRecord) error {
	count := s.sb.InodesCount()
	if count >= MaxObjects {
		return ErrNoSpace
	}

	raw, err := s.device.ReadBlock(InodeStoreBlock)
	if err != nil {
		return err
	}

	if err := encodeInodeAt(raw, count, rec); err != nil {
		return err
	}

	if err := s.device.WriteBlock(InodeStoreBlock, raw); err != nil {
		return err
	}
	if err := s.device.Flush(); err != nil {
		return err
	}

	return s.sb.SetInodesCount(count + 1)
}

// Update finds the first record whose InodeNo equals rec.InodeNo and
// overwrites it in place, bounded by InodesCount. It fails with
// ErrInodeVanished if no such record exists: a caller only calls Update
// with a record it just read from this same store, so a missing match is
// an invariant breach, not an ordinary not-found — the VFS bridge surfaces
// it as EIO rather than ENOENT.
func (s *InodeStore) Update(rec InodeRecord) error {
	raw, err := s.device.ReadBlock(InodeStoreBlock)
	if err != nil {
		return err
	}

	count := s.sb.InodesCount()
	found := false
	for i := uint64(0); i < count; i++ {
		existing, err := decodeInodeAt(raw, i)
		if err != nil {
			return err
		}
		if existing.InodeNo == rec.InodeNo {
			if err := encodeInodeAt(raw, i, rec); err != nil {
				return err
			}
			found = true
			break
		}
	}
	if !found {
		return ErrInodeVanished
	}

	if err := s.device.WriteBlock(InodeStoreBlock, raw); err != nil {
		return err
	}
	return s.device.Flush()
}

func decodeInodeAt(block []byte, index uint64) (InodeRecord, error) {
	off := index * inodeRecordSize
	if off+inodeRecordSize > uint64(len(block)) {
		return InodeRecord{}, ErrCorruptImage
	}
	var rec InodeRecord
	if err := rec.UnmarshalBinary(block[off : off+inodeRecordSize]); err != nil {
		return InodeRecord{}, err
	}
	return rec, nil
}

func encodeInodeAt(block []byte, index uint64, rec InodeRecord) error {
	off := index * inodeRecordSize
	if off+inodeRecordSize > uint64(len(block)) {
		return ErrNoSpace
	}
	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	copy(block[off:off+inodeRecordSize], raw)
	return nil
}
