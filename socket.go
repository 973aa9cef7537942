//go:build linux

package posixsock

import (
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/posixsock/go-posixsock/internal/rawfd"
	"github.com/posixsock/go-posixsock/pkg/sockaddr"
)

// Socket is a POSIX socket whose addresses are values of T. It is the
// exclusive owner of one kernel descriptor; Close releases it exactly once.
//
// Every kernel error is surfaced as an *os.SyscallError carrying the errno,
// with no automatic retry. In non-blocking mode, operations that would
// suspend fail with EAGAIN; that is a "retry later" signal, not a hard
// failure.
type Socket[T any, A sockaddr.Ptr[T]] struct {
	f *rawfd.FD
}

// Common instantiations.
type (
	UnixSocket  = Socket[sockaddr.Unix, *sockaddr.Unix]
	Inet4Socket = Socket[sockaddr.Inet4, *sockaddr.Inet4]
	Inet6Socket = Socket[sockaddr.Inet6, *sockaddr.Inet6]
)

// New creates a socket of the given kind (SOCK_STREAM, SOCK_DGRAM,
// SOCK_SEQPACKET, ...) and protocol. The address family is fixed by the
// address type.
//
// The descriptor has close-on-exec set. The flag is requested atomically at
// creation; on kernels that reject SOCK_CLOEXEC the creation is retried
// without it and the flag is set afterwards.
func New[T any, A sockaddr.SpecificPtr[T]](kind, protocol int) (*Socket[T, A], error) {
	return NewGeneric[T, A](int(A(new(T)).StaticFamily()), kind, protocol)
}

// NewGeneric is New with the address family chosen at runtime, for use with
// sockaddr.Storage or with families the caller selects dynamically.
func NewGeneric[T any, A sockaddr.Ptr[T]](family, kind, protocol int) (*Socket[T, A], error) {
	f, err := newFD(family, kind, protocol)
	if err != nil {
		return nil, err
	}
	return &Socket[T, A]{f: f}, nil
}

// Pair creates a connected pair of sockets, with the same close-on-exec
// handling as New. Only some families support this; see socketpair(2).
func Pair[T any, A sockaddr.SpecificPtr[T]](kind, protocol int) (*Socket[T, A], *Socket[T, A], error) {
	family := int(A(new(T)).StaticFamily())
	fds, err := unix.Socketpair(family, kind|unix.SOCK_CLOEXEC, protocol)
	if err == unix.EINVAL {
		// Old kernels reject SOCK_CLOEXEC with EINVAL.
		if fds, err = unix.Socketpair(family, kind, protocol); err == nil {
			unix.CloseOnExec(fds[0])
			unix.CloseOnExec(fds[1])
		}
	}
	if err != nil {
		return nil, nil, os.NewSyscallError("socketpair", err)
	}
	return &Socket[T, A]{f: rawfd.New(fds[0])}, &Socket[T, A]{f: rawfd.New(fds[1])}, nil
}

// FromRawFD takes ownership of an existing socket descriptor. No flags or
// options are changed; the caller is responsible for close-on-exec.
func FromRawFD[T any, A sockaddr.Ptr[T]](fd int) *Socket[T, A] {
	return &Socket[T, A]{f: rawfd.New(fd)}
}

// NewUnix creates a Unix domain socket.
func NewUnix(kind, protocol int) (*UnixSocket, error) {
	return New[sockaddr.Unix](kind, protocol)
}

// NewInet4 creates an IPv4 socket.
func NewInet4(kind, protocol int) (*Inet4Socket, error) {
	return New[sockaddr.Inet4](kind, protocol)
}

// NewInet6 creates an IPv6 socket.
func NewInet6(kind, protocol int) (*Inet6Socket, error) {
	return New[sockaddr.Inet6](kind, protocol)
}

// UnixPair creates a connected pair of Unix domain sockets.
func UnixPair(kind, protocol int) (*UnixSocket, *UnixSocket, error) {
	return Pair[sockaddr.Unix](kind, protocol)
}

func newFD(family, kind, protocol int) (*rawfd.FD, error) {
	fd, err := unix.Socket(family, kind|unix.SOCK_CLOEXEC, protocol)
	if err == unix.EINVAL {
		// Old kernels reject SOCK_CLOEXEC with EINVAL.
		if fd, err = unix.Socket(family, kind, protocol); err == nil {
			unix.CloseOnExec(fd)
		}
	}
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	return rawfd.New(fd), nil
}

// Close closes the socket descriptor. Closing an already closed socket is a
// no-op.
func (s *Socket[T, A]) Close() error {
	return s.f.Close()
}

// TryClone duplicates the socket. The returned socket is an independent
// owner of a new descriptor referring to the same kernel object, with
// close-on-exec set.
func (s *Socket[T, A]) TryClone() (*Socket[T, A], error) {
	f, err := s.f.Dup()
	if err != nil {
		return nil, err
	}
	return &Socket[T, A]{f: f}, nil
}

// RawFD returns the underlying descriptor without releasing ownership.
func (s *Socket[T, A]) RawFD() int {
	return s.f.Raw()
}

// IntoRawFD releases ownership of the descriptor and returns it. The
// descriptor will not be closed by this socket.
func (s *Socket[T, A]) IntoRawFD() int {
	return s.f.Release()
}

// SetNonblock puts the socket in non-blocking or blocking mode.
func (s *Socket[T, A]) SetNonblock(nonblocking bool) error {
	return s.f.SetNonblock(nonblocking)
}

// Nonblock reports whether the socket is in non-blocking mode.
func (s *Socket[T, A]) Nonblock() (bool, error) {
	return s.f.Nonblock()
}

// TakeError returns and clears the pending error on the socket (SO_ERROR).
// It returns nil if no error is pending.
func (s *Socket[T, A]) TakeError() error {
	v, err := unix.GetsockoptInt(s.f.Raw(), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return os.NewSyscallError("getsockopt", err)
	}
	if v == 0 {
		return nil
	}
	return syscall.Errno(v)
}

// Bind binds the socket to a local address. What binding means depends on
// the socket type; see bind(2).
func (s *Socket[T, A]) Bind(addr A) error {
	ptr, n, err := addr.Sockaddr()
	if err != nil {
		return err
	}
	if _, _, e := unix.Syscall(unix.SYS_BIND, uintptr(s.f.Raw()), uintptr(ptr), uintptr(n)); e != 0 {
		return os.NewSyscallError("bind", e)
	}
	return nil
}

// Connect connects the socket to a remote address. What connecting means
// depends on the socket type; see connect(2).
func (s *Socket[T, A]) Connect(addr A) error {
	ptr, n, err := addr.Sockaddr()
	if err != nil {
		return err
	}
	if _, _, e := unix.Syscall(unix.SYS_CONNECT, uintptr(s.f.Raw()), uintptr(ptr), uintptr(n)); e != 0 {
		return os.NewSyscallError("connect", e)
	}
	return nil
}

// Listen puts the socket in listening mode, ready to accept connections
// with Accept. Not all socket types support this; see listen(2).
func (s *Socket[T, A]) Listen(backlog int) error {
	if err := unix.Listen(s.f.Raw(), backlog); err != nil {
		return os.NewSyscallError("listen", err)
	}
	return nil
}

// Accept accepts a pending connection, returning the connected socket and
// the peer's address. The new descriptor has close-on-exec set atomically.
func (s *Socket[T, A]) Accept() (*Socket[T, A], A, error) {
	peer := A(new(T))
	ptr, capacity := peer.Prepare()
	n := capacity
	fd, _, e := unix.Syscall6(unix.SYS_ACCEPT4,
		uintptr(s.f.Raw()), uintptr(ptr), uintptr(unsafe.Pointer(&n)),
		uintptr(unix.SOCK_CLOEXEC), 0, 0)
	if e != 0 {
		return nil, nil, os.NewSyscallError("accept4", e)
	}
	if err := peer.Finalize(n); err != nil {
		unix.Close(int(fd))
		return nil, nil, err
	}
	return &Socket[T, A]{f: rawfd.New(int(fd))}, peer, nil
}

// LocalAddr returns the address the socket is bound to.
func (s *Socket[T, A]) LocalAddr() (A, error) {
	return s.getAddr(unix.SYS_GETSOCKNAME, "getsockname")
}

// PeerAddr returns the address of the connected peer.
func (s *Socket[T, A]) PeerAddr() (A, error) {
	return s.getAddr(unix.SYS_GETPEERNAME, "getpeername")
}

func (s *Socket[T, A]) getAddr(trap uintptr, name string) (A, error) {
	addr := A(new(T))
	ptr, capacity := addr.Prepare()
	n := capacity
	if _, _, e := unix.Syscall(trap, uintptr(s.f.Raw()), uintptr(ptr), uintptr(unsafe.Pointer(&n))); e != 0 {
		return nil, os.NewSyscallError(name, e)
	}
	if err := addr.Finalize(n); err != nil {
		return nil, err
	}
	return addr, nil
}

// Shutdown disables sending, receiving or both on the socket, without
// closing the descriptor. how is one of unix.SHUT_RD, unix.SHUT_WR or
// unix.SHUT_RDWR.
func (s *Socket[T, A]) Shutdown(how int) error {
	if err := unix.Shutdown(s.f.Raw(), how); err != nil {
		return os.NewSyscallError("shutdown", err)
	}
	return nil
}
