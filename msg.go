//go:build linux

package posixsock

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Used as the base pointer of empty buffers, matching the x/sys convention.
var _zero uintptr

func bytePointer(b []byte) unsafe.Pointer {
	if len(b) > 0 {
		return unsafe.Pointer(&b[0])
	}
	return unsafe.Pointer(&_zero)
}

// Send sends data to the connected peer, returning the number of bytes
// transferred. MSG_NOSIGNAL is added to flags so a closed peer surfaces as
// EPIPE instead of a process signal.
func (s *Socket[T, A]) Send(p []byte, flags int) (int, error) {
	n, _, e := unix.Syscall6(unix.SYS_SENDTO,
		uintptr(s.f.Raw()), uintptr(bytePointer(p)), uintptr(len(p)),
		uintptr(flags|unix.MSG_NOSIGNAL), 0, 0)
	if e != 0 {
		return 0, os.NewSyscallError("send", e)
	}
	return int(n), nil
}

// Recv receives data from the connected peer, returning the number of bytes
// transferred.
func (s *Socket[T, A]) Recv(p []byte, flags int) (int, error) {
	n, _, e := unix.Syscall6(unix.SYS_RECVFROM,
		uintptr(s.f.Raw()), uintptr(bytePointer(p)), uintptr(len(p)),
		uintptr(flags), 0, 0)
	if e != 0 {
		return 0, os.NewSyscallError("recv", e)
	}
	return int(n), nil
}

// SendTo sends data to the given address. Only valid for connectionless
// protocols such as UDP or Unix datagram sockets.
func (s *Socket[T, A]) SendTo(p []byte, addr A, flags int) (int, error) {
	ptr, salen, err := addr.Sockaddr()
	if err != nil {
		return 0, err
	}
	n, _, e := unix.Syscall6(unix.SYS_SENDTO,
		uintptr(s.f.Raw()), uintptr(bytePointer(p)), uintptr(len(p)),
		uintptr(flags|unix.MSG_NOSIGNAL), uintptr(ptr), uintptr(salen))
	if e != 0 {
		return 0, os.NewSyscallError("sendto", e)
	}
	return int(n), nil
}

// RecvFrom receives data along with the sender's address.
func (s *Socket[T, A]) RecvFrom(p []byte, flags int) (int, A, error) {
	addr := A(new(T))
	ptr, capacity := addr.Prepare()
	salen := capacity
	n, _, e := unix.Syscall6(unix.SYS_RECVFROM,
		uintptr(s.f.Raw()), uintptr(bytePointer(p)), uintptr(len(p)),
		uintptr(flags), uintptr(ptr), uintptr(unsafe.Pointer(&salen)))
	if e != 0 {
		return 0, nil, os.NewSyscallError("recvfrom", e)
	}
	if err := addr.Finalize(salen); err != nil {
		return 0, nil, err
	}
	return int(n), addr, nil
}

// SendMsg sends the buffer segments as one message to the connected peer,
// with control as the ancillary (out-of-band) region. control may be nil.
func (s *Socket[T, A]) SendMsg(bufs [][]byte, control []byte, flags int) (int, error) {
	return s.sendmsg(nil, 0, bufs, control, flags, "sendmsg")
}

// SendMsgTo is SendMsg with an explicit destination address. Only valid for
// connectionless protocols.
func (s *Socket[T, A]) SendMsgTo(addr A, bufs [][]byte, control []byte, flags int) (int, error) {
	ptr, salen, err := addr.Sockaddr()
	if err != nil {
		return 0, err
	}
	return s.sendmsg(ptr, salen, bufs, control, flags, "sendmsg")
}

// RecvMsg receives one message into the buffer segments. If control is not
// nil, ancillary data is received into it and its length and truncation
// state are updated; a truncated region must not be decoded as well-formed
// control records. MSG_CMSG_CLOEXEC is added to flags so any descriptors
// carried in the ancillary data arrive with close-on-exec set.
func (s *Socket[T, A]) RecvMsg(bufs [][]byte, control *AncillaryBuffer, flags int) (int, error) {
	n, _, err := s.recvmsg(nil, 0, bufs, control, flags)
	return n, err
}

// RecvMsgFrom is RecvMsg returning the sender's address as well.
func (s *Socket[T, A]) RecvMsgFrom(bufs [][]byte, control *AncillaryBuffer, flags int) (int, A, error) {
	addr := A(new(T))
	ptr, capacity := addr.Prepare()
	n, salen, err := s.recvmsg(ptr, capacity, bufs, control, flags)
	if err != nil {
		return 0, nil, err
	}
	if err := addr.Finalize(salen); err != nil {
		return 0, nil, err
	}
	return n, addr, nil
}

func (s *Socket[T, A]) sendmsg(name unsafe.Pointer, salen uint32, bufs [][]byte, control []byte, flags int, op string) (int, error) {
	var msg unix.Msghdr
	msg.Name = (*byte)(name)
	msg.Namelen = salen
	iovs := makeIovecs(bufs)
	if len(iovs) > 0 {
		msg.Iov = &iovs[0]
		msg.SetIovlen(len(iovs))
	}
	if len(control) > 0 {
		msg.Control = &control[0]
		msg.SetControllen(len(control))
	}
	n, _, e := unix.Syscall(unix.SYS_SENDMSG,
		uintptr(s.f.Raw()), uintptr(unsafe.Pointer(&msg)), uintptr(flags|unix.MSG_NOSIGNAL))
	if e != 0 {
		return 0, os.NewSyscallError(op, e)
	}
	return int(n), nil
}

func (s *Socket[T, A]) recvmsg(name unsafe.Pointer, capacity uint32, bufs [][]byte, control *AncillaryBuffer, flags int) (int, uint32, error) {
	var msg unix.Msghdr
	msg.Name = (*byte)(name)
	msg.Namelen = capacity
	iovs := makeIovecs(bufs)
	if len(iovs) > 0 {
		msg.Iov = &iovs[0]
		msg.SetIovlen(len(iovs))
	}
	if control != nil && control.Capacity() > 0 {
		msg.Control = &control.buf[0]
		msg.SetControllen(control.Capacity())
	}
	n, _, e := unix.Syscall(unix.SYS_RECVMSG,
		uintptr(s.f.Raw()), uintptr(unsafe.Pointer(&msg)), uintptr(flags|unix.MSG_CMSG_CLOEXEC))
	if e != 0 {
		if control != nil {
			control.setResult(0, false)
		}
		return 0, 0, os.NewSyscallError("recvmsg", e)
	}
	if control != nil {
		control.setResult(int(msg.Controllen), msg.Flags&unix.MSG_CTRUNC != 0)
	}
	return int(n), msg.Namelen, nil
}

func makeIovecs(bufs [][]byte) []unix.Iovec {
	iovs := make([]unix.Iovec, len(bufs))
	for i, b := range bufs {
		if len(b) > 0 {
			iovs[i].Base = &b[0]
		}
		iovs[i].SetLen(len(b))
	}
	return iovs
}
