//go:build linux

package sockaddr

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// unixPathOffset is the offset of the path bytes inside sockaddr_un, i.e. the
// size of the family header.
const unixPathOffset = uint32(unsafe.Offsetof(unix.RawSockaddrUnix{}.Path))

// Unix is a Unix domain socket address.
//
// A finalized value is in exactly one of three states, distinguished by the
// logical length and the first path byte: unnamed (length equals the header
// size), pathname (first path byte non-zero, NUL terminated) or abstract
// (first path byte zero, remaining bytes an opaque name). Abstract addresses
// are a Linux extension.
//
// The logical length of a pathname address includes the terminating NUL. The
// constructor and the accessors apply that convention uniformly.
type Unix struct {
	raw unix.RawSockaddrUnix
	len uint32
}

var _ Specific = &Unix{}

// NewUnix creates a Unix socket address from a filesystem path.
//
// The path is not checked against the filesystem; that is deferred to bind or
// connect. An empty path yields an unnamed address. A path that does not fit
// in the record alongside its terminating NUL fails with ErrPathTooLong.
func NewUnix(path string) (*Unix, error) {
	a := &Unix{raw: unix.RawSockaddrUnix{Family: unix.AF_UNIX}}
	room := a.MaxLen() - unixPathOffset
	if uint32(len(path)) > room-1 {
		return nil, fmt.Errorf("path is %d bytes, limit %d: %w", len(path), room-1, ErrPathTooLong)
	}
	if path == "" {
		a.len = unixPathOffset
		return a, nil
	}
	copy(a.pathBytes(), path)
	a.len = unixPathOffset + uint32(len(path)) + 1
	return a, nil
}

// NewUnixUnnamed creates an unnamed Unix socket address.
func NewUnixUnnamed() *Unix {
	return &Unix{
		raw: unix.RawSockaddrUnix{Family: unix.AF_UNIX},
		len: unixPathOffset,
	}
}

// NewUnixAbstract creates an abstract Unix socket address from an opaque
// name. The name has no path semantics and may contain zero bytes.
//
// Abstract addresses are a Linux extension.
func NewUnixAbstract(name []byte) (*Unix, error) {
	a := &Unix{raw: unix.RawSockaddrUnix{Family: unix.AF_UNIX}}
	room := a.MaxLen() - unixPathOffset
	if uint32(len(name)) > room-1 {
		return nil, fmt.Errorf("abstract name is %d bytes, limit %d: %w", len(name), room-1, ErrPathTooLong)
	}
	copy(a.pathBytes()[1:], name)
	a.len = unixPathOffset + 1 + uint32(len(name))
	return a, nil
}

// Path returns the filesystem path of a pathname address. The second return
// value is false for unnamed and abstract addresses.
func (a *Unix) Path() (string, bool) {
	n := a.pathLen()
	if n == 0 || a.raw.Path[0] == 0 {
		return "", false
	}
	// n includes the terminating NUL.
	return string(a.pathBytes()[:n-1]), true
}

// Abstract returns the opaque name of an abstract address, without the
// leading zero marker. The second return value is false for unnamed and
// pathname addresses.
func (a *Unix) Abstract() ([]byte, bool) {
	n := a.pathLen()
	if n == 0 || a.raw.Path[0] != 0 {
		return nil, false
	}
	name := make([]byte, n-1)
	copy(name, a.pathBytes()[1:n])
	return name, true
}

// IsUnnamed reports whether the address is unnamed.
func (a *Unix) IsUnnamed() bool {
	return a.pathLen() == 0
}

// Network returns the address's network name, "unix".
func (a *Unix) Network() string {
	return "unix"
}

func (a *Unix) String() string {
	if p, ok := a.Path(); ok {
		return p
	}
	if name, ok := a.Abstract(); ok {
		return "@" + string(name)
	}
	return ""
}

// StaticFamily returns AF_UNIX.
func (*Unix) StaticFamily() uint16 {
	return unix.AF_UNIX
}

// Family returns the family tag stored in the record.
func (a *Unix) Family() uint16 {
	return a.raw.Family
}

// Sockaddr implements SocketAddress.
func (a *Unix) Sockaddr() (unsafe.Pointer, uint32, error) {
	if a == nil {
		return nil, 0, fmt.Errorf("nil address: %w", ErrInvalidPointer)
	}
	if err := validateSockaddr(unsafe.Pointer(&a.raw), a.len); err != nil {
		return nil, 0, err
	}
	return unsafe.Pointer(&a.raw), a.len, nil
}

// Prepare implements SocketAddress.
func (a *Unix) Prepare() (unsafe.Pointer, uint32) {
	*a = Unix{}
	return unsafe.Pointer(&a.raw), a.MaxLen()
}

// Len implements SocketAddress.
func (a *Unix) Len() uint32 {
	return a.len
}

// MaxLen implements SocketAddress.
func (*Unix) MaxLen() uint32 {
	return unix.SizeofSockaddrUnix
}

// Finalize implements SocketAddress.
func (a *Unix) Finalize(written uint32) error {
	if a.raw.Family != unix.AF_UNIX {
		return fmt.Errorf("got %d, want %d: %w", a.raw.Family, unix.AF_UNIX, ErrAddrFamily)
	}
	if written > a.MaxLen() {
		return fmt.Errorf("got %d, want at most %d: %w", written, a.MaxLen(), ErrBufferSize)
	}
	a.len = written
	return nil
}

// pathLen is the length of the path portion of the address. For pathname
// addresses it includes the terminating NUL.
func (a *Unix) pathLen() uint32 {
	if a.len <= unixPathOffset {
		return 0
	}
	return a.len - unixPathOffset
}

func (a *Unix) pathBytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&a.raw.Path[0])), len(a.raw.Path))
}
