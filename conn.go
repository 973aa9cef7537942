//go:build linux

package posixsock

import (
	"io"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/posixsock/go-posixsock/pkg/sockaddr"
)

// Listener adapts a listening stream Socket to net.Listener.
type Listener[T any, A sockaddr.Ptr[T]] struct {
	sock *Socket[T, A]
	addr A
}

// Conn adapts a connected stream Socket to net.Conn.
//
// Deadlines are not supported at this layer; the SetDeadline methods return
// os.ErrNoDeadline. Callers that need timeouts use non-blocking mode plus
// external polling.
type Conn[T any, A sockaddr.Ptr[T]] struct {
	sock          *Socket[T, A]
	local, remote A
}

// ListenStream creates a stream socket, binds it to addr and puts it in
// listening mode.
func ListenStream[T any, A sockaddr.SpecificPtr[T]](addr A) (_ *Listener[T, A], err error) {
	l := &Listener[T, A]{addr: addr}
	sock, err := New[T, A](unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, l.opErr("listen", err)
	}
	defer func() {
		if err != nil {
			sock.Close()
		}
	}()
	if err := sock.Bind(addr); err != nil {
		return nil, l.opErr("listen", err)
	}
	if err := sock.Listen(16); err != nil {
		return nil, l.opErr("listen", err)
	}
	l.sock = sock
	return l, nil
}

// ListenUnix listens for stream connections on the given filesystem path.
func ListenUnix(path string) (*Listener[sockaddr.Unix, *sockaddr.Unix], error) {
	addr, err := sockaddr.NewUnix(path)
	if err != nil {
		return nil, &net.OpError{Op: "listen", Net: "unix", Err: err}
	}
	return ListenStream(addr)
}

func (l *Listener[T, A]) opErr(op string, err error) error {
	return &net.OpError{Op: op, Net: l.addr.Network(), Addr: l.addr, Err: err}
}

// Addr returns the listener's network address.
func (l *Listener[T, A]) Addr() net.Addr {
	return l.addr
}

// Accept waits for the next connection and returns it.
func (l *Listener[T, A]) Accept() (net.Conn, error) {
	sock, remote, err := l.sock.Accept()
	if err != nil {
		return nil, l.opErr("accept", err)
	}
	local, err := sock.LocalAddr()
	if err != nil {
		sock.Close()
		return nil, l.opErr("accept", err)
	}
	return &Conn[T, A]{sock: sock, local: local, remote: remote}, nil
}

// Close closes the listener, causing pending Accept calls to fail.
func (l *Listener[T, A]) Close() error {
	return l.sock.Close()
}

// DialStream creates a stream socket and connects it to remote.
func DialStream[T any, A sockaddr.SpecificPtr[T]](remote A) (_ *Conn[T, A], err error) {
	conn := &Conn[T, A]{remote: remote}
	sock, err := New[T, A](unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, conn.opErr("dial", err)
	}
	defer func() {
		if err != nil {
			sock.Close()
		}
	}()
	if err := sock.Connect(remote); err != nil {
		return nil, conn.opErr("dial", err)
	}
	local, err := sock.LocalAddr()
	if err != nil {
		return nil, conn.opErr("dial", err)
	}
	conn.sock = sock
	conn.local = local
	return conn, nil
}

// DialUnix connects to a stream listener at the given filesystem path.
func DialUnix(path string) (*Conn[sockaddr.Unix, *sockaddr.Unix], error) {
	addr, err := sockaddr.NewUnix(path)
	if err != nil {
		return nil, &net.OpError{Op: "dial", Net: "unix", Err: err}
	}
	return DialStream(addr)
}

func (c *Conn[T, A]) opErr(op string, err error) error {
	var source, addr net.Addr
	if c.local != nil {
		source = c.local
	}
	if c.remote != nil {
		addr = c.remote
	}
	return &net.OpError{Op: op, Net: c.remote.Network(), Source: source, Addr: addr, Err: err}
}

func (c *Conn[T, A]) Read(b []byte) (int, error) {
	n, err := c.sock.Recv(b, 0)
	if err != nil {
		return 0, c.opErr("read", err)
	}
	if n == 0 && len(b) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (c *Conn[T, A]) Write(b []byte) (int, error) {
	t := 0
	for len(b) != 0 {
		n, err := c.sock.Send(b, 0)
		if err != nil {
			return t + n, c.opErr("write", err)
		}
		t += n
		b = b[n:]
	}
	return t, nil
}

// Close closes the socket connection, failing any pending read or write
// calls.
func (c *Conn[T, A]) Close() error {
	return c.sock.Close()
}

// CloseRead shuts down the read end of the socket, preventing future read
// operations.
func (c *Conn[T, A]) CloseRead() error {
	if err := c.sock.Shutdown(unix.SHUT_RD); err != nil {
		return c.opErr("closeread", err)
	}
	return nil
}

// CloseWrite shuts down the write end of the socket, preventing future
// write operations and notifying the peer that no more data will be
// written.
func (c *Conn[T, A]) CloseWrite() error {
	if err := c.sock.Shutdown(unix.SHUT_WR); err != nil {
		return c.opErr("closewrite", err)
	}
	return nil
}

// Socket returns the underlying socket, for operations the net.Conn surface
// does not expose (ancillary data, vectored I/O, cloning).
func (c *Conn[T, A]) Socket() *Socket[T, A] {
	return c.sock
}

// LocalAddr returns the local address of the connection.
func (c *Conn[T, A]) LocalAddr() net.Addr {
	return c.local
}

// RemoteAddr returns the remote address of the connection.
func (c *Conn[T, A]) RemoteAddr() net.Addr {
	return c.remote
}

// SetDeadline implements net.Conn; deadlines are not supported.
func (c *Conn[T, A]) SetDeadline(time.Time) error {
	return os.ErrNoDeadline
}

// SetReadDeadline implements net.Conn; deadlines are not supported.
func (c *Conn[T, A]) SetReadDeadline(time.Time) error {
	return os.ErrNoDeadline
}

// SetWriteDeadline implements net.Conn; deadlines are not supported.
func (c *Conn[T, A]) SetWriteDeadline(time.Time) error {
	return os.ErrNoDeadline
}
