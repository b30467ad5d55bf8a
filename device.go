package assoofs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// BlockDevice is the abstract fixed-block-size read/write capability the
// core is built against. Block I/O itself — and the device behind it — is
// an injected external collaborator, not part of the core.
type BlockDevice interface {
	// ReadBlock returns a freshly allocated BlockSize-byte buffer holding
	// the contents of block no.
	ReadBlock(no uint64) ([]byte, error)

	// WriteBlock writes data (which must be exactly BlockSize bytes) to
	// block no. It does not imply durability; call Flush for that.
	WriteBlock(no uint64, data []byte) error

	// Flush marks any pending writes dirty-and-synced, so that they are
	// durable before Flush returns. Every mutation in this package calls
	// Flush before returning control to its caller.
	Flush() error
}

// FileDevice is a BlockDevice backed by a real file, using positioned
// syscalls so that each block access is independent of the file's current
// offset and so that Flush maps to an explicit fsync.
type FileDevice struct {
	f *os.File
}

var _ BlockDevice = (*FileDevice)(nil)

// OpenFileDevice opens path as a block device backing store. The file must
// already exist; formatting a new image is out of scope.
func OpenFileDevice(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &FileDevice{f: f}, nil
}

// Close releases the underlying file descriptor.
func (d *FileDevice) Close() error {
	return d.f.Close()
}

func (d *FileDevice) ReadBlock(no uint64) ([]byte, error) {
	buf := make([]byte, BlockSize)
	n, err := unix.Pread(int(d.f.Fd()), buf, int64(no)*BlockSize)
	if err != nil {
		return nil, fmt.Errorf("assoofs: read block %d: %w", no, err)
	}
	if n != BlockSize {
		return nil, fmt.Errorf("assoofs: short read on block %d: got %d bytes", no, n)
	}
	return buf, nil
}

func (d *FileDevice) WriteBlock(no uint64, data []byte) error {
	if len(data) != BlockSize {
		return fmt.Errorf("assoofs: write block %d: buffer is %d bytes, want %d", no, len(data), BlockSize)
	}
	n, err := unix.Pwrite(int(d.f.Fd()), data, int64(no)*BlockSize)
	if err != nil {
		return fmt.Errorf("assoofs: write block %d: %w", no, err)
	}
	if n != BlockSize {
		return fmt.Errorf("assoofs: short write on block %d: wrote %d bytes", no, n)
	}
	return nil
}

func (d *FileDevice) Flush() error {
	return unix.Fsync(int(d.f.Fd()))
}

// memDevice is an in-memory BlockDevice, used by tests in place of a real
// file.
type memDevice struct {
	blocks map[uint64][]byte
}

var _ BlockDevice = (*memDevice)(nil)

func newMemDevice() *memDevice {
	return &memDevice{blocks: make(map[uint64][]byte)}
}

func (d *memDevice) ReadBlock(no uint64) ([]byte, error) {
	b, ok := d.blocks[no]
	if !ok {
		return make([]byte, BlockSize), nil
	}
	out := make([]byte, BlockSize)
	copy(out, b)
	return out, nil
}

func (d *memDevice) WriteBlock(no uint64, data []byte) error {
	if len(data) != BlockSize {
		return fmt.Errorf("assoofs: write block %d: buffer is %d bytes, want %d", no, len(data), BlockSize)
	}
	buf := make([]byte, BlockSize)
	copy(buf, data)
	d.blocks[no] = buf
	return nil
}

func (d *memDevice) Flush() error { return nil }
