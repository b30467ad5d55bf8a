package assoofs

import (
	"context"
	iofs "io/fs"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Node is the FUSE-visible handle for one on-disk object: a detached copy
// of its InodeRecord plus a back-reference to the mounted Filesystem. It is
// re-derived on every lookup/create/mkdir rather than cached across calls —
// go-fuse's own inode cache (fs.Inode) is what spans calls.
type Node struct {
	fs.Inode

	fsys *Filesystem
	rec  InodeRecord
}

var (
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeCreater   = (*Node)(nil)
	_ fs.NodeMkdirer   = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.FileReader    = (*Node)(nil)
	_ fs.FileWriter    = (*Node)(nil)
)

// newNode is the single dispatch point that builds a Node from a stored
// InodeRecord, used by Mount's root, Lookup, Create, and Mkdir alike.
func (f *Filesystem) newNode(rec InodeRecord) *Node {
	return &Node{fsys: f, rec: rec}
}

func (f *Filesystem) stableAttr(rec InodeRecord) fs.StableAttr {
	mode := uint32(fuse.S_IFREG)
	if rec.IsDir() {
		mode = uint32(fuse.S_IFDIR)
	}
	return fs.StableAttr{Mode: mode, Ino: rec.InodeNo}
}

// fillAttr populates a fuse.Attr from rec. rec.Mode is already stored in
// the combined S_IFDIR|S_IFREG-plus-permission shape (unixMode), the same
// shape fuse.Attr.Mode expects, so it's copied through directly rather than
// re-derived via modeToFileMode (which instead produces the io/fs.FileMode
// view).
func (f *Filesystem) fillAttr(rec InodeRecord, attr *fuse.Attr) {
	attr.Ino = rec.InodeNo
	attr.Mode = rec.Mode
	if rec.IsReg() {
		attr.Size = rec.FileSize()
		attr.Blocks = 1
	} else {
		attr.Size = 0
	}
}

func (f *Filesystem) fillEntry(rec InodeRecord, out *fuse.EntryOut) {
	out.NodeId = rec.InodeNo
	f.fillAttr(rec, &out.Attr)
	out.SetEntryTimeout(time.Second)
	out.SetAttrTimeout(time.Second)
}

// Lookup resolves name within this directory and hands go-fuse a child
// Node backed by the resolved InodeRecord.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child, err := n.fsys.lookup(n.rec, name)
	if err != nil {
		return nil, errno(err)
	}
	childNode := n.fsys.newNode(child)
	inode := n.NewInode(ctx, childNode, n.fsys.stableAttr(child))
	n.fsys.fillEntry(child, out)
	return inode, 0
}

// Readdir lists this directory's children in stored order, recovering each
// child's mode bits via Filesystem.stat since DirRecord carries only a
// name and an inode number.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	children, err := n.fsys.readdir(n.rec)
	if err != nil {
		return nil, errno(err)
	}

	entries := make([]fuse.DirEntry, 0, len(children))
	for _, c := range children {
		child, err := n.fsys.stat(c.InodeNo)
		if err != nil {
			return nil, errno(err)
		}
		entries = append(entries, fuse.DirEntry{
			Mode: child.Mode,
			Name: c.Filename,
			Ino:  c.InodeNo,
		})
	}
	return fs.NewListDirStream(entries), 0
}

// Create allocates a data block and an inode record for a new regular
// file, links it into this directory, and hands back both the new Node and
// itself as the open file handle (Node implements FileReader and
// FileWriter directly — there's no per-open state to track beyond the
// InodeRecord already on the Node).
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	child, err := n.fsys.create(&n.rec, name, false, iofs.FileMode(mode).Perm())
	if err != nil {
		return nil, nil, 0, errno(err)
	}
	childNode := n.fsys.newNode(child)
	inode := n.NewInode(ctx, childNode, n.fsys.stableAttr(child))
	n.fsys.fillEntry(child, out)
	return inode, childNode, 0, 0
}

// Mkdir allocates a data block and an inode record for a new subdirectory
// and links it into this directory. The stored mode is S_IFDIR|mode
// throughout: there's no second code path that builds the attribute value
// from mode alone.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child, err := n.fsys.create(&n.rec, name, true, iofs.FileMode(mode).Perm())
	if err != nil {
		return nil, errno(err)
	}
	childNode := n.fsys.newNode(child)
	inode := n.NewInode(ctx, childNode, n.fsys.stableAttr(child))
	n.fsys.fillEntry(child, out)
	return inode, 0
}

// Getattr fills the attribute output straight from rec.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	n.fsys.fillAttr(n.rec, &out.Attr)
	return 0
}

// Open refuses to open a directory as a file and otherwise hands back no
// file handle: Node itself satisfies FileReader/FileWriter, so go-fuse
// routes Read/Write calls straight back to this Node.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if n.rec.IsDir() {
		return nil, 0, syscall.EISDIR
	}
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

// Read forwards to FileOps.Read under the Filesystem's read lock.
func (n *Node) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	nRead, err := n.fsys.read(n.rec, dest, off)
	if err != nil {
		return nil, errno(err)
	}
	return fuse.ReadResultData(dest[:nRead]), 0
}

// Write forwards to FileOps.Write under the Filesystem's write lock. n.rec
// is updated in place so a subsequent Getattr on the same Node sees the
// new file_size without a re-Lookup.
func (n *Node) Write(ctx context.Context, fh fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	written, err := n.fsys.write(&n.rec, data, off)
	if err != nil {
		return 0, errno(err)
	}
	return uint32(written), 0
}

// MountFUSE loads the root directory from fsys and starts a FUSE server at
// mountpoint. opts may be nil to accept go-fuse's defaults.
func MountFUSE(fsys *Filesystem, mountpoint string, opts *fs.Options) (*fuse.Server, error) {
	root, err := fsys.root()
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &fs.Options{}
	}
	return fs.Mount(mountpoint, fsys.newNode(root), opts)
}
