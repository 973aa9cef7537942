//go:build linux

package sockaddr

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Storage is a generic socket address, large enough to hold any supported
// family's record. The family is only known at runtime; use AsInet4, AsInet6
// or AsUnix to recover a typed view.
type Storage struct {
	raw unix.RawSockaddrAny
	len uint32
}

var _ SocketAddress = &Storage{}

// FromAddr copies any finalized address into generic form.
func FromAddr(addr SocketAddress) (*Storage, error) {
	ptr, n, err := addr.Sockaddr()
	if err != nil {
		return nil, err
	}
	var s Storage
	dst, capacity := s.Prepare()
	if n > capacity {
		return nil, fmt.Errorf("got %d, want at most %d: %w", n, capacity, ErrBufferSize)
	}
	copy(unsafe.Slice((*byte)(dst), capacity), unsafe.Slice((*byte)(ptr), n))
	if err := s.Finalize(n); err != nil {
		return nil, err
	}
	return &s, nil
}

// AsInet4 returns the address as an IPv4 socket address.
// The second return value is false if the address is of another family.
func (a *Storage) AsInet4() (*Inet4, bool) {
	if a.Family() != unix.AF_INET {
		return nil, false
	}
	return &Inet4{raw: *(*unix.RawSockaddrInet4)(unsafe.Pointer(&a.raw))}, true
}

// AsInet6 returns the address as an IPv6 socket address.
// The second return value is false if the address is of another family.
func (a *Storage) AsInet6() (*Inet6, bool) {
	if a.Family() != unix.AF_INET6 {
		return nil, false
	}
	return &Inet6{raw: *(*unix.RawSockaddrInet6)(unsafe.Pointer(&a.raw))}, true
}

// AsUnix returns the address as a Unix socket address.
// The second return value is false if the address is of another family.
func (a *Storage) AsUnix() (*Unix, bool) {
	if a.Family() != unix.AF_UNIX {
		return nil, false
	}
	return &Unix{
		raw: *(*unix.RawSockaddrUnix)(unsafe.Pointer(&a.raw)),
		len: a.len,
	}, true
}

// Network returns the address's network name for the stored family.
func (a *Storage) Network() string {
	switch a.Family() {
	case unix.AF_INET:
		return "ip4"
	case unix.AF_INET6:
		return "ip6"
	case unix.AF_UNIX:
		return "unix"
	default:
		return "unknown"
	}
}

func (a *Storage) String() string {
	if v, ok := a.AsInet4(); ok {
		return v.String()
	}
	if v, ok := a.AsInet6(); ok {
		return v.String()
	}
	if v, ok := a.AsUnix(); ok {
		return v.String()
	}
	return fmt.Sprintf("family(%d)", a.Family())
}

// Family returns the family tag stored in the record.
func (a *Storage) Family() uint16 {
	return a.raw.Addr.Family
}

// Sockaddr implements SocketAddress.
func (a *Storage) Sockaddr() (unsafe.Pointer, uint32, error) {
	if a == nil {
		return nil, 0, fmt.Errorf("nil address: %w", ErrInvalidPointer)
	}
	if err := validateSockaddr(unsafe.Pointer(&a.raw), a.len); err != nil {
		return nil, 0, err
	}
	return unsafe.Pointer(&a.raw), a.len, nil
}

// Prepare implements SocketAddress.
func (a *Storage) Prepare() (unsafe.Pointer, uint32) {
	*a = Storage{}
	return unsafe.Pointer(&a.raw), a.MaxLen()
}

// Len implements SocketAddress.
func (a *Storage) Len() uint32 {
	return a.len
}

// MaxLen implements SocketAddress.
func (*Storage) MaxLen() uint32 {
	return unix.SizeofSockaddrAny
}

// Finalize implements SocketAddress. Storage accepts any family; only the
// length is validated.
func (a *Storage) Finalize(written uint32) error {
	if written > a.MaxLen() {
		return fmt.Errorf("got %d, want at most %d: %w", written, a.MaxLen(), ErrBufferSize)
	}
	a.len = written
	return nil
}
