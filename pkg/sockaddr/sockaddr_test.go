//go:build linux

package sockaddr

import (
	"errors"
	"net/netip"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func mustUnix(t *testing.T, path string) *Unix {
	t.Helper()
	a, err := NewUnix(path)
	if err != nil {
		t.Fatalf("NewUnix(%q): %v", path, err)
	}
	return a
}

func mustAbstract(t *testing.T, name []byte) *Unix {
	t.Helper()
	a, err := NewUnixAbstract(name)
	if err != nil {
		t.Fatalf("NewUnixAbstract(%q): %v", name, err)
	}
	return a
}

func TestUnixPathRoundTrip(t *testing.T) {
	for _, path := range []string{
		"/",
		"/tmp/sock",
		"relative.sock",
		strings.Repeat("a", int(unix.SizeofSockaddrUnix-unixPathOffset-1)),
	} {
		a := mustUnix(t, path)
		got, ok := a.Path()
		if !ok {
			t.Fatalf("Path() reported no path for %q", path)
		}
		if got != path {
			t.Fatalf("Path() = %q, want %q", got, path)
		}
		want := unixPathOffset + uint32(len(path)) + 1
		if a.Len() != want {
			t.Fatalf("Len() = %d, want %d (path + terminator)", a.Len(), want)
		}
	}
}

func TestUnixPathLimit(t *testing.T) {
	limit := int(unix.SizeofSockaddrUnix - unixPathOffset - 1)

	if _, err := NewUnix(strings.Repeat("a", limit)); err != nil {
		t.Fatalf("path of %d bytes should fit: %v", limit, err)
	}
	_, err := NewUnix(strings.Repeat("a", limit+1))
	if !errors.Is(err, ErrPathTooLong) {
		t.Fatalf("path of %d bytes: got %v, want ErrPathTooLong", limit+1, err)
	}
	_, err = NewUnixAbstract([]byte(strings.Repeat("a", limit+1)))
	if !errors.Is(err, ErrPathTooLong) {
		t.Fatalf("abstract name of %d bytes: got %v, want ErrPathTooLong", limit+1, err)
	}
}

func TestUnixEmptyPathIsUnnamed(t *testing.T) {
	a := mustUnix(t, "")
	if !a.IsUnnamed() {
		t.Fatal("empty path should produce an unnamed address")
	}
	if a.Len() != unixPathOffset {
		t.Fatalf("Len() = %d, want header size %d", a.Len(), unixPathOffset)
	}
}

// Exactly one of IsUnnamed, Path and Abstract must hold for every finalized
// Unix address.
func TestUnixTriState(t *testing.T) {
	tests := []struct {
		name string
		addr *Unix
		want string // "unnamed", "path" or "abstract"
	}{
		{"unnamed", NewUnixUnnamed(), "unnamed"},
		{"empty path", mustUnix(t, ""), "unnamed"},
		{"pathname", mustUnix(t, "/tmp/x"), "path"},
		{"abstract", mustAbstract(t, []byte("x")), "abstract"},
		{"abstract empty name", mustAbstract(t, nil), "abstract"},
		{"abstract with zeros", mustAbstract(t, []byte{0, 1, 0}), "abstract"},
	}
	for _, tt := range tests {
		_, isPath := tt.addr.Path()
		_, isAbstract := tt.addr.Abstract()
		isUnnamed := tt.addr.IsUnnamed()

		count := 0
		for _, b := range []bool{isUnnamed, isPath, isAbstract} {
			if b {
				count++
			}
		}
		if count != 1 {
			t.Errorf("%s: %d states hold (unnamed=%v path=%v abstract=%v), want exactly 1",
				tt.name, count, isUnnamed, isPath, isAbstract)
		}

		got := "unnamed"
		if isPath {
			got = "path"
		} else if isAbstract {
			got = "abstract"
		}
		if got != tt.want {
			t.Errorf("%s: got state %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUnixAbstractRoundTrip(t *testing.T) {
	name := []byte("abstract\x00name")
	a := mustAbstract(t, name)
	got, ok := a.Abstract()
	if !ok {
		t.Fatal("Abstract() reported no name")
	}
	if string(got) != string(name) {
		t.Fatalf("Abstract() = %q, want %q", got, name)
	}
	if _, ok := a.Path(); ok {
		t.Fatal("abstract address must not report a path")
	}
}

func TestUnixFinalizeWrongFamily(t *testing.T) {
	var a Unix
	a.Prepare()
	a.raw.Family = unix.AF_INET
	err := a.Finalize(unixPathOffset)
	if !errors.Is(err, ErrAddrFamily) {
		t.Fatalf("got %v, want ErrAddrFamily", err)
	}
}

func TestUnixFinalizeTooLong(t *testing.T) {
	var a Unix
	a.Prepare()
	a.raw.Family = unix.AF_UNIX
	err := a.Finalize(a.MaxLen() + 1)
	if !errors.Is(err, ErrBufferSize) {
		t.Fatalf("got %v, want ErrBufferSize", err)
	}
}

func TestUnixFinalizeHeaderOnlyIsUnnamed(t *testing.T) {
	var a Unix
	a.Prepare()
	a.raw.Family = unix.AF_UNIX
	if err := a.Finalize(unixPathOffset); err != nil {
		t.Fatal(err)
	}
	if !a.IsUnnamed() {
		t.Fatal("header-only address should be unnamed")
	}
}

func TestUnixUnfinalizedSockaddr(t *testing.T) {
	var a Unix
	if _, _, err := a.Sockaddr(); !errors.Is(err, ErrBufferSize) {
		t.Fatalf("got %v, want ErrBufferSize for a zero-length address", err)
	}
}

func TestInet4RoundTrip(t *testing.T) {
	tests := []struct {
		ip   netip.Addr
		port uint16
	}{
		{netip.MustParseAddr("0.0.0.0"), 0},
		{netip.MustParseAddr("127.0.0.1"), 8080},
		{netip.MustParseAddr("255.255.255.255"), 65535},
	}
	for _, tt := range tests {
		a := NewInet4(tt.ip, tt.port)
		if a.IP() != tt.ip {
			t.Errorf("IP() = %v, want %v", a.IP(), tt.ip)
		}
		if a.Port() != tt.port {
			t.Errorf("Port() = %d, want %d", a.Port(), tt.port)
		}
		if a.Family() != unix.AF_INET {
			t.Errorf("Family() = %d, want AF_INET", a.Family())
		}
		if a.Len() != unix.SizeofSockaddrInet4 {
			t.Errorf("Len() = %d, want %d", a.Len(), unix.SizeofSockaddrInet4)
		}
	}
}

func TestInet4Mutators(t *testing.T) {
	a := NewInet4(netip.MustParseAddr("127.0.0.1"), 80)
	a.SetIP(netip.MustParseAddr("10.0.0.1"))
	a.SetPort(443)
	if got := a.String(); got != "10.0.0.1:443" {
		t.Fatalf("String() = %q", got)
	}
}

func TestInet6RoundTrip(t *testing.T) {
	tests := []struct {
		ip                netip.Addr
		port              uint16
		flowinfo, scopeID uint32
	}{
		{netip.MustParseAddr("::"), 0, 0, 0},
		{netip.MustParseAddr("::1"), 8080, 7, 3},
		{netip.MustParseAddr("ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff"), 65535, 1, 2},
	}
	for _, tt := range tests {
		a := NewInet6(tt.ip, tt.port, tt.flowinfo, tt.scopeID)
		if a.IP() != tt.ip {
			t.Errorf("IP() = %v, want %v", a.IP(), tt.ip)
		}
		if a.Port() != tt.port {
			t.Errorf("Port() = %d, want %d", a.Port(), tt.port)
		}
		if a.Flowinfo() != tt.flowinfo || a.ScopeID() != tt.scopeID {
			t.Errorf("Flowinfo/ScopeID = %d/%d, want %d/%d",
				a.Flowinfo(), a.ScopeID(), tt.flowinfo, tt.scopeID)
		}
	}
}

func TestInetFinalizeWrongFamily(t *testing.T) {
	var a4 Inet4
	a4.Prepare()
	a4.raw.Family = unix.AF_UNIX
	if err := a4.Finalize(a4.MaxLen()); !errors.Is(err, ErrAddrFamily) {
		t.Fatalf("Inet4: got %v, want ErrAddrFamily", err)
	}

	var a6 Inet6
	a6.Prepare()
	a6.raw.Family = unix.AF_INET
	if err := a6.Finalize(a6.MaxLen()); !errors.Is(err, ErrAddrFamily) {
		t.Fatalf("Inet6: got %v, want ErrAddrFamily", err)
	}
}

func TestInet4FinalizeBadLengthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("finalizing a fixed-size address with a short length must panic")
		}
	}()
	var a Inet4
	a.Prepare()
	a.raw.Family = unix.AF_INET
	a.Finalize(unix.SizeofSockaddrInet4 - 1)
}

func TestStorageFromAddr(t *testing.T) {
	u := mustUnix(t, "/tmp/storage-test")
	s, err := FromAddr(u)
	if err != nil {
		t.Fatal(err)
	}
	if s.Family() != unix.AF_UNIX {
		t.Fatalf("Family() = %d, want AF_UNIX", s.Family())
	}
	if s.Len() != u.Len() {
		t.Fatalf("Len() = %d, want %d", s.Len(), u.Len())
	}

	back, ok := s.AsUnix()
	if !ok {
		t.Fatal("AsUnix() failed on an AF_UNIX storage address")
	}
	if p, ok := back.Path(); !ok || p != "/tmp/storage-test" {
		t.Fatalf("round-tripped path = %q (ok=%v)", p, ok)
	}

	if _, ok := s.AsInet4(); ok {
		t.Fatal("AsInet4() succeeded on an AF_UNIX address")
	}
	if _, ok := s.AsInet6(); ok {
		t.Fatal("AsInet6() succeeded on an AF_UNIX address")
	}
}

func TestStorageInetConversions(t *testing.T) {
	a4 := NewInet4(netip.MustParseAddr("192.0.2.1"), 53)
	s, err := FromAddr(a4)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := s.AsInet4()
	if !ok {
		t.Fatal("AsInet4() failed")
	}
	if got.IP() != a4.IP() || got.Port() != a4.Port() {
		t.Fatalf("got %v, want %v", got, a4)
	}

	a6 := NewInet6(netip.MustParseAddr("2001:db8::1"), 53, 0, 0)
	s, err = FromAddr(a6)
	if err != nil {
		t.Fatal(err)
	}
	got6, ok := s.AsInet6()
	if !ok {
		t.Fatal("AsInet6() failed")
	}
	if got6.IP() != a6.IP() || got6.Port() != a6.Port() {
		t.Fatalf("got %v, want %v", got6, a6)
	}
}

func TestStorageUnfinalizedSockaddr(t *testing.T) {
	var s Storage
	if _, _, err := s.Sockaddr(); !errors.Is(err, ErrBufferSize) {
		t.Fatalf("got %v, want ErrBufferSize for a zero-length address", err)
	}
}

func TestAddrStrings(t *testing.T) {
	tests := []struct {
		give interface {
			Network() string
			String() string
		}
		network, str string
	}{
		{NewInet4(netip.MustParseAddr("1.2.3.4"), 80), "ip4", "1.2.3.4:80"},
		{NewInet6(netip.MustParseAddr("::1"), 80, 0, 0), "ip6", "[::1]:80"},
		{mustUnix(t, "/tmp/x"), "unix", "/tmp/x"},
		{mustAbstract(t, []byte("x")), "unix", "@x"},
		{NewUnixUnnamed(), "unix", ""},
	}
	for _, tt := range tests {
		if tt.give.Network() != tt.network {
			t.Errorf("Network() = %q, want %q", tt.give.Network(), tt.network)
		}
		if tt.give.String() != tt.str {
			t.Errorf("String() = %q, want %q", tt.give.String(), tt.str)
		}
	}
}
