//go:build linux

// Package rawfd owns kernel file descriptors: closing exactly once,
// duplication, close-on-exec and blocking-mode control. It knows nothing
// about sockets.
package rawfd

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrClosed is returned by operations on a descriptor whose ownership has
// already been closed or released.
var ErrClosed = errors.New("file descriptor closed")

// FD is the exclusive owner of one kernel file descriptor.
//
// Mutating operations on the same FD from multiple goroutines require
// external synchronization; the mutex only guards the ownership transitions.
type FD struct {
	mu sync.Mutex
	fd int
}

// New takes ownership of fd. The caller must not close fd afterwards.
func New(fd int) *FD {
	return &FD{fd: fd}
}

// Raw returns the descriptor without releasing ownership. The descriptor is
// still closed when Close is called; -1 is returned after Close or Release.
func (f *FD) Raw() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fd
}

// Release releases ownership and returns the descriptor. The descriptor will
// not be closed by this FD. Returns -1 if ownership was already gone.
func (f *FD) Release() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	fd := f.fd
	f.fd = -1
	return fd
}

// Close closes the descriptor. Only the first call closes; later calls
// return nil.
func (f *FD) Close() error {
	f.mu.Lock()
	fd := f.fd
	f.fd = -1
	f.mu.Unlock()
	if fd < 0 {
		return nil
	}
	if err := unix.Close(fd); err != nil {
		return errors.Wrap(err, "closing file descriptor")
	}
	return nil
}

// Dup duplicates the descriptor into a new independently owned FD referring
// to the same kernel object. The duplicate has close-on-exec set atomically.
func (f *FD) Dup() (*FD, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fd < 0 {
		return nil, ErrClosed
	}
	fd, err := unix.FcntlInt(uintptr(f.fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrap(err, "duplicating file descriptor")
	}
	return New(fd), nil
}

// SetCloseOnExec sets the close-on-exec flag on the descriptor.
func (f *FD) SetCloseOnExec() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fd < 0 {
		return ErrClosed
	}
	if _, err := unix.FcntlInt(uintptr(f.fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		return errors.Wrap(err, "setting close-on-exec")
	}
	return nil
}

// SetNonblock puts the descriptor in non-blocking or blocking mode.
func (f *FD) SetNonblock(nonblocking bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fd < 0 {
		return ErrClosed
	}
	if err := unix.SetNonblock(f.fd, nonblocking); err != nil {
		return errors.Wrap(err, "setting non-blocking mode")
	}
	return nil
}

// Nonblock reports whether the descriptor is in non-blocking mode.
func (f *FD) Nonblock() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fd < 0 {
		return false, ErrClosed
	}
	flags, err := unix.FcntlInt(uintptr(f.fd), unix.F_GETFL, 0)
	if err != nil {
		return false, errors.Wrap(err, "reading descriptor flags")
	}
	return flags&unix.O_NONBLOCK != 0, nil
}
