//go:build linux

// Shows a sample usage of the posixsock package: a Unix datagram socket
// pair exchanging a message and a file descriptor.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/posixsock/go-posixsock"
)

func main() {
	a, b, err := posixsock.UnixPair(unix.SOCK_DGRAM, 0)
	if err != nil {
		logrus.Error(err)
		return
	}
	defer func() {
		if err := a.Close(); err != nil {
			logrus.Error(err)
		}
		if err := b.Close(); err != nil {
			logrus.Error(err)
		}
	}()

	if _, err := a.Send([]byte("hello!"), 0); err != nil {
		logrus.Error(err)
		return
	}
	buf := make([]byte, 16)
	n, err := b.Recv(buf, 0)
	if err != nil {
		logrus.Error(err)
		return
	}
	fmt.Printf("received: %q\n", buf[:n])

	// Pass our stdout descriptor across the pair as ancillary data.
	rights := unix.UnixRights(int(os.Stdout.Fd()))
	if _, err := a.SendMsg([][]byte{[]byte("fd")}, rights, 0); err != nil {
		logrus.Error(err)
		return
	}
	anc := posixsock.NewAncillaryBuffer(64)
	if _, err := b.RecvMsg([][]byte{make([]byte, 8)}, anc, 0); err != nil {
		logrus.Error(err)
		return
	}
	if anc.Truncated() {
		logrus.WithField("len", anc.Len()).Error("ancillary data truncated")
		return
	}
	msgs, err := unix.ParseSocketControlMessage(anc.Bytes())
	if err != nil {
		logrus.Error(err)
		return
	}
	for _, m := range msgs {
		fds, err := unix.ParseUnixRights(&m)
		if err != nil {
			logrus.Error(err)
			return
		}
		for _, fd := range fds {
			fmt.Println("received descriptor:", fd)
			unix.Close(fd)
		}
	}
}
