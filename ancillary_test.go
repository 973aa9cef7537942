//go:build linux

package posixsock

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestAncillaryBufferZero(t *testing.T) {
	b := NewAncillaryBuffer(0)
	if b.Capacity() != 0 || b.Len() != 0 || b.Truncated() {
		t.Fatalf("zero buffer: capacity=%d len=%d truncated=%v", b.Capacity(), b.Len(), b.Truncated())
	}
	if len(b.Bytes()) != 0 {
		t.Fatal("Bytes() should be empty before any receive")
	}
}

// Sending with no ancillary region and receiving with a zero-capacity buffer
// reports no ancillary bytes and no truncation.
func TestAncillaryEmpty(t *testing.T) {
	a, b := datagramPair(t)

	if _, err := a.SendMsg([][]byte{[]byte("hi")}, nil, 0); err != nil {
		t.Fatal(err)
	}
	anc := NewAncillaryBuffer(0)
	n, err := b.RecvMsg([][]byte{make([]byte, 8)}, anc, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("received %d bytes, want 2", n)
	}
	if anc.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", anc.Len())
	}
	if anc.Truncated() {
		t.Fatal("Truncated() = true, want false")
	}
}

func TestAncillaryFdTransfer(t *testing.T) {
	a, b := datagramPair(t)

	f, err := os.CreateTemp(t.TempDir(), "payload")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString("through the socket"); err != nil {
		t.Fatal(err)
	}

	rights := unix.UnixRights(int(f.Fd()))
	if _, err := a.SendMsg([][]byte{[]byte("fd")}, rights, 0); err != nil {
		t.Fatal(err)
	}

	anc := NewAncillaryBuffer(64)
	n, err := b.RecvMsg([][]byte{make([]byte, 8)}, anc, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("received %d payload bytes, want 2", n)
	}
	if anc.Truncated() {
		t.Fatal("ancillary data truncated")
	}
	if anc.Len() == 0 {
		t.Fatal("no ancillary bytes received")
	}

	// Decoding is the caller's job; the buffer only guarantees the region is
	// complete when Truncated() is false.
	msgs, err := unix.ParseSocketControlMessage(anc.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d control messages, want 1", len(msgs))
	}
	fds, err := unix.ParseUnixRights(&msgs[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(fds) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(fds))
	}
	defer unix.Close(fds[0])

	buf := make([]byte, 32)
	rn, err := unix.Pread(fds[0], buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:rn]) != "through the socket" {
		t.Fatalf("read %q through transferred descriptor", buf[:rn])
	}
}

// A control region smaller than one cmsghdr forces kernel-side truncation,
// which must surface as a flag rather than an error.
func TestAncillaryTruncation(t *testing.T) {
	a, b := datagramPair(t)

	rights := unix.UnixRights(int(os.Stdin.Fd()))
	if _, err := a.SendMsg([][]byte{[]byte("fd")}, rights, 0); err != nil {
		t.Fatal(err)
	}

	anc := NewAncillaryBuffer(4)
	if _, err := b.RecvMsg([][]byte{make([]byte, 8)}, anc, 0); err != nil {
		t.Fatal(err)
	}
	if !anc.Truncated() {
		t.Fatal("expected ancillary truncation to be reported")
	}
}

func TestVectoredSendRecv(t *testing.T) {
	a, b := datagramPair(t)

	n, err := a.SendMsg([][]byte{[]byte("hello"), []byte(" "), []byte("world")}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 11 {
		t.Fatalf("sent %d bytes, want 11", n)
	}

	first := make([]byte, 5)
	rest := make([]byte, 16)
	n, err = b.RecvMsg([][]byte{first, rest}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 11 || string(first) != "hello" || string(rest[:6]) != " world" {
		t.Fatalf("received %d bytes, segments %q %q", n, first, rest[:6])
	}
}
