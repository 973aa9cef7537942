//go:build linux

package sockaddr

import (
	"fmt"
	"net/netip"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Inet4 is an IPv4 socket address: an IPv4 address plus a 16-bit port.
//
// Values built with NewInet4 are always finalized; the zero value is only
// useful as a Prepare/Finalize target.
type Inet4 struct {
	raw unix.RawSockaddrInet4
}

var _ Specific = &Inet4{}

// NewInet4 creates an IPv4 socket address from an IP address and a port
// number. The address must be an IPv4 address (or an IPv4-mapped IPv6
// address); anything else is a caller type error and panics.
func NewInet4(ip netip.Addr, port uint16) *Inet4 {
	a := &Inet4{
		raw: unix.RawSockaddrInet4{
			Family: unix.AF_INET,
			Addr:   ip.As4(),
		},
	}
	a.SetPort(port)
	return a
}

// IP returns the IP address associated with the socket address.
func (a *Inet4) IP() netip.Addr {
	return netip.AddrFrom4(a.raw.Addr)
}

// SetIP replaces the IP address associated with the socket address.
func (a *Inet4) SetIP(ip netip.Addr) {
	a.raw.Addr = ip.As4()
}

// Port returns the port number associated with the socket address.
func (a *Inet4) Port() uint16 {
	p := (*[2]byte)(unsafe.Pointer(&a.raw.Port))
	return uint16(p[0])<<8 | uint16(p[1])
}

// SetPort replaces the port number associated with the socket address.
func (a *Inet4) SetPort(port uint16) {
	// The kernel struct stores the port in network byte order.
	p := (*[2]byte)(unsafe.Pointer(&a.raw.Port))
	p[0] = byte(port >> 8)
	p[1] = byte(port)
}

// Network returns the address's network name, "ip4".
func (a *Inet4) Network() string {
	return "ip4"
}

func (a *Inet4) String() string {
	return netip.AddrPortFrom(a.IP(), a.Port()).String()
}

// StaticFamily returns AF_INET.
func (*Inet4) StaticFamily() uint16 {
	return unix.AF_INET
}

// Family returns the family tag stored in the record.
func (a *Inet4) Family() uint16 {
	return a.raw.Family
}

// Sockaddr implements SocketAddress.
func (a *Inet4) Sockaddr() (unsafe.Pointer, uint32, error) {
	if a == nil {
		return nil, 0, fmt.Errorf("nil address: %w", ErrInvalidPointer)
	}
	return unsafe.Pointer(&a.raw), a.Len(), nil
}

// Prepare implements SocketAddress.
func (a *Inet4) Prepare() (unsafe.Pointer, uint32) {
	a.raw = unix.RawSockaddrInet4{}
	return unsafe.Pointer(&a.raw), a.MaxLen()
}

// Len implements SocketAddress. IPv4 addresses are never partially populated,
// so the logical length always equals the record size.
func (a *Inet4) Len() uint32 {
	return a.MaxLen()
}

// MaxLen implements SocketAddress.
func (*Inet4) MaxLen() uint32 {
	return unix.SizeofSockaddrInet4
}

// Finalize implements SocketAddress. A family tag other than AF_INET is a
// validation error. A length other than the exact record size means the
// caller bypassed the capacity contract and panics.
func (a *Inet4) Finalize(written uint32) error {
	if a.raw.Family != unix.AF_INET {
		return fmt.Errorf("got %d, want %d: %w", a.raw.Family, unix.AF_INET, ErrAddrFamily)
	}
	if written != a.MaxLen() {
		panic(fmt.Sprintf("sockaddr: AF_INET address finalized with length %d, want %d", written, a.MaxLen()))
	}
	return nil
}
