//go:build linux

// Package sockaddr provides typed, validated views of the kernel's native
// socket address structures (sockaddr_in, sockaddr_in6, sockaddr_un and the
// generic sockaddr_storage).
//
// The kernel writes variable-length, family-tagged records into caller-supplied
// memory. SocketAddress splits that exchange into two phases: Prepare exposes a
// write target and its capacity before any bytes are valid, and Finalize is the
// only path that turns a kernel-populated buffer into a value whose family tag
// and length can be trusted.
package sockaddr

import (
	"errors"
	"fmt"
	"net"
	"unsafe"
)

var (
	ErrBufferSize     = errors.New("buffer size")
	ErrInvalidPointer = errors.New("invalid pointer")
	ErrAddrFamily     = errors.New("address family")
	ErrPathTooLong    = errors.New("path too long")
)

// SocketAddress allows structs to be used with Bind, Connect and the
// address-returning socket calls. The struct must be layout-compatible with
// the kernel's sockaddr definition for its family.
type SocketAddress interface {
	// Network and String per net.Addr, so addresses plug into net.OpError
	// and the Conn/Listener adapters.
	net.Addr

	// Sockaddr returns a pointer to the native address bytes and the logical
	// length of the address. It is the input side of bind, connect and sendto,
	// and requires a finalized value.
	Sockaddr() (ptr unsafe.Pointer, len uint32, err error)

	// Prepare resets the value and returns a pointer to its full backing
	// storage along with the capacity in bytes. The kernel may write up to
	// capacity bytes through the pointer; the value must not be inspected
	// until Finalize accepts the written length.
	Prepare() (ptr unsafe.Pointer, capacity uint32)

	// Len returns the logical length of the address, including the family tag.
	Len() uint32

	// MaxLen returns the capacity needed to hold any value of this type.
	MaxLen() uint32

	// Family returns the address family tag currently stored in the record.
	Family() uint16

	// Finalize validates a buffer produced by Prepare after the kernel wrote
	// written bytes into it. Implementers must check the buffer is correctly
	// sized and the address family is appropriate.
	// Receivers should be pointers.
	Finalize(written uint32) error
}

// Specific is implemented by address types that correspond to exactly one
// address family. The generic Storage address is deliberately not Specific.
type Specific interface {
	SocketAddress

	// StaticFamily returns the family every value of this type carries.
	StaticFamily() uint16
}

// Ptr constrains a type parameter to a pointer to a socket address value, so
// callers can allocate fresh addresses for the kernel to populate.
type Ptr[T any] interface {
	*T
	SocketAddress
}

// SpecificPtr is Ptr for single-family address types.
type SpecificPtr[T any] interface {
	*T
	Specific
}

func validateSockaddr(ptr unsafe.Pointer, n uint32) error {
	if ptr == nil {
		return fmt.Errorf("pointer is %p: %w", ptr, ErrInvalidPointer)
	}
	if n < 1 {
		return fmt.Errorf("buffer size %d < 1: %w", n, ErrBufferSize)
	}
	return nil
}
