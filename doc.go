// Package posixsock is a thin, typed wrapper around POSIX sockets.
//
// The standard library covers TCP, UDP and the common Unix socket flavors,
// but hides the descriptor-level API: there is no portable way to open a
// seqpacket socket, pass file descriptors, or control the exact sockaddr
// bytes exchanged with the kernel. This package exposes that layer directly.
//
// Socket is generic over the address family via the sockaddr package: a
// Socket[sockaddr.Unix, *sockaddr.Unix] speaks sockaddr_un, and the aliases
// UnixSocket, Inet4Socket and Inet6Socket name the common instantiations.
// All operations are synchronous; blocking behavior follows the descriptor's
// mode, set with SetNonblock.
package posixsock
