//go:build linux

package sockaddr

import (
	"fmt"
	"net/netip"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Inet6 is an IPv6 socket address: an IPv6 address, a 16-bit port, flow
// information and a scope ID.
type Inet6 struct {
	raw unix.RawSockaddrInet6
}

var _ Specific = &Inet6{}

// NewInet6 creates an IPv6 socket address. The address must be an IPv6
// address; passing an IPv4 address is a caller type error and panics.
func NewInet6(ip netip.Addr, port uint16, flowinfo, scopeID uint32) *Inet6 {
	a := &Inet6{
		raw: unix.RawSockaddrInet6{
			Family:   unix.AF_INET6,
			Addr:     ip.As16(),
			Flowinfo: flowinfo,
			Scope_id: scopeID,
		},
	}
	a.SetPort(port)
	return a
}

// IP returns the IP address associated with the socket address.
func (a *Inet6) IP() netip.Addr {
	return netip.AddrFrom16(a.raw.Addr)
}

// SetIP replaces the IP address associated with the socket address.
func (a *Inet6) SetIP(ip netip.Addr) {
	a.raw.Addr = ip.As16()
}

// Port returns the port number associated with the socket address.
func (a *Inet6) Port() uint16 {
	p := (*[2]byte)(unsafe.Pointer(&a.raw.Port))
	return uint16(p[0])<<8 | uint16(p[1])
}

// SetPort replaces the port number associated with the socket address.
func (a *Inet6) SetPort(port uint16) {
	p := (*[2]byte)(unsafe.Pointer(&a.raw.Port))
	p[0] = byte(port >> 8)
	p[1] = byte(port)
}

// Flowinfo returns the flow information associated with the socket address.
func (a *Inet6) Flowinfo() uint32 {
	return a.raw.Flowinfo
}

// SetFlowinfo replaces the flow information associated with the socket address.
func (a *Inet6) SetFlowinfo(flowinfo uint32) {
	a.raw.Flowinfo = flowinfo
}

// ScopeID returns the scope ID associated with the socket address.
func (a *Inet6) ScopeID() uint32 {
	return a.raw.Scope_id
}

// SetScopeID replaces the scope ID associated with the socket address.
func (a *Inet6) SetScopeID(scopeID uint32) {
	a.raw.Scope_id = scopeID
}

// Network returns the address's network name, "ip6".
func (a *Inet6) Network() string {
	return "ip6"
}

func (a *Inet6) String() string {
	return netip.AddrPortFrom(a.IP(), a.Port()).String()
}

// StaticFamily returns AF_INET6.
func (*Inet6) StaticFamily() uint16 {
	return unix.AF_INET6
}

// Family returns the family tag stored in the record.
func (a *Inet6) Family() uint16 {
	return a.raw.Family
}

// Sockaddr implements SocketAddress.
func (a *Inet6) Sockaddr() (unsafe.Pointer, uint32, error) {
	if a == nil {
		return nil, 0, fmt.Errorf("nil address: %w", ErrInvalidPointer)
	}
	return unsafe.Pointer(&a.raw), a.Len(), nil
}

// Prepare implements SocketAddress.
func (a *Inet6) Prepare() (unsafe.Pointer, uint32) {
	a.raw = unix.RawSockaddrInet6{}
	return unsafe.Pointer(&a.raw), a.MaxLen()
}

// Len implements SocketAddress. IPv6 addresses are never partially populated,
// so the logical length always equals the record size.
func (a *Inet6) Len() uint32 {
	return a.MaxLen()
}

// MaxLen implements SocketAddress.
func (*Inet6) MaxLen() uint32 {
	return unix.SizeofSockaddrInet6
}

// Finalize implements SocketAddress. A family tag other than AF_INET6 is a
// validation error; any length other than the exact record size panics.
func (a *Inet6) Finalize(written uint32) error {
	if a.raw.Family != unix.AF_INET6 {
		return fmt.Errorf("got %d, want %d: %w", a.raw.Family, unix.AF_INET6, ErrAddrFamily)
	}
	if written != a.MaxLen() {
		panic(fmt.Sprintf("sockaddr: AF_INET6 address finalized with length %d, want %d", written, a.MaxLen()))
	}
	return nil
}
