package assoofs

import (
	"fmt"
	iofs "io/fs"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Filesystem is the mounted, in-memory handle over one ASSOOFS image: the
// superblock, the inode store, the directory and file operators, and the
// single lock that serializes every mutation. Read-only operations
// (Lookup, Iterate, Read) take the lock for reading;
// every mutating operation (AllocateBlock, Append, Update, InsertChild,
// Write) takes it for writing.
type Filesystem struct {
	mu sync.RWMutex

	device BlockDevice
	sb     *SuperblockManager
	inodes *InodeStore
	dirs   *DirectoryOps
	files  *FileOps

	sessionID uuid.UUID
	log       *logrus.Entry
	readOnly  bool
}

// Mount loads the superblock from device, validates it, and wires the four
// core components over it. opts apply after the core wiring and before the
// root-inode sanity check, so WithLogger can capture the mount-time log
// lines.
func Mount(device BlockDevice, opts ...Option) (*Filesystem, error) {
	sb, err := Load(device)
	if err != nil {
		return nil, err
	}

	inodes := NewInodeStore(device, sb)
	dirs := NewDirectoryOps(device, inodes)
	files := NewFileOps(device, inodes)
	sessionID := uuid.New()

	fsys := &Filesystem{
		device:    device,
		sb:        sb,
		inodes:    inodes,
		dirs:      dirs,
		files:     files,
		sessionID: sessionID,
		log: logrus.WithFields(logrus.Fields{
			"component": "assoofs",
			"session":   sessionID.String(),
		}),
	}

	for _, opt := range opts {
		if err := opt(fsys); err != nil {
			return nil, fmt.Errorf("assoofs: apply option: %w", err)
		}
	}

	if _, err := inodes.Get(RootDirIno); err != nil {
		return nil, fmt.Errorf("assoofs: mount: root inode %d: %w", RootDirIno, err)
	}

	fsys.log.Info("mounted assoofs image")
	return fsys, nil
}

// Stats is the read-only summary returned by Filesystem.Stat, used by the
// "assoofs info" CLI command and by tests asserting the free-block
// invariant. It's observability, not a new on-disk feature.
type Stats struct {
	Session     uuid.UUID
	InodesCount uint64
	FreeBlocks  int
	MaxObjects  int
}

// Stat reports the current superblock counters under a read lock.
func (f *Filesystem) Stat() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Stats{
		Session:     f.sessionID,
		InodesCount: f.sb.InodesCount(),
		FreeBlocks:  f.sb.FreeBlockCount(),
		MaxObjects:  MaxObjects,
	}
}

// root fetches the root directory's inode record.
func (f *Filesystem) root() (InodeRecord, error) {
	return f.inodes.Get(RootDirIno)
}

// stat returns a detached copy of the inode record for ino, under a read
// lock. Readdir uses this to recover each child's mode bits, which
// DirRecord itself doesn't carry.
func (f *Filesystem) stat(ino uint64) (InodeRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.inodes.Get(ino)
}

// lookup resolves name within parent by walking its data block for a
// matching directory record.
func (f *Filesystem) lookup(parent InodeRecord, name string) (InodeRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ino, err := f.dirs.Lookup(parent, name)
	if err != nil {
		return InodeRecord{}, err
	}
	return f.inodes.Get(ino)
}

// readdir returns parent's children in stored order.
func (f *Filesystem) readdir(parent InodeRecord) ([]DirRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dirs.Iterate(parent)
}

// read forwards to FileOps.Read under a read lock.
func (f *Filesystem) read(inode InodeRecord, buf []byte, offset int64) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.files.Read(inode, buf, offset)
}

// write forwards to FileOps.Write under the write lock.
func (f *Filesystem) write(inode *InodeRecord, buf []byte, offset int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readOnly {
		return 0, ErrReadOnly
	}
	return f.files.Write(inode, buf, offset)
}

// create folds file and directory creation into one routine: allocate a
// data block and an inode record, then link the new inode into parent. The
// only difference between a file and a directory at this layer is the mode
// bit and whether the freshly allocated block is ever treated as a
// directory data block by a later Iterate call.
func (f *Filesystem) create(parent *InodeRecord, name string, dir bool, perm iofs.FileMode) (InodeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readOnly {
		return InodeRecord{}, ErrReadOnly
	}
	if !parent.IsDir() {
		return InodeRecord{}, ErrNotDir
	}
	if f.sb.InodesCount() >= MaxObjects {
		return InodeRecord{}, ErrObjectCapExceeded
	}

	block, err := f.sb.AllocateBlock()
	if err != nil {
		return InodeRecord{}, err
	}

	newIno := f.sb.InodesCount() + 1
	rec := InodeRecord{
		Mode:        unixMode(perm, dir),
		InodeNo:     newIno,
		DataBlockNo: block,
	}

	if err := f.inodes.Append(rec); err != nil {
		return InodeRecord{}, err
	}

	if err := f.dirs.InsertChild(parent, name, newIno); err != nil {
		return InodeRecord{}, err
	}

	f.log.WithFields(logrus.Fields{
		"name": name,
		"ino":  newIno,
		"dir":  dir,
	}).Debug("created filesystem object")

	return rec, nil
}
