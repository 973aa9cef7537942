//go:build linux

package posixsock

// AncillaryBuffer is a byte region for ancillary (control message) data
// received alongside a socket message, such as transferred file descriptors.
//
// The buffer does not interpret its contents; decoding control records is
// layered on top by the caller, for example with
// unix.ParseSocketControlMessage. A caller must check Truncated before
// decoding: a truncated region is not guaranteed to hold well-formed records.
type AncillaryBuffer struct {
	buf       []byte
	used      int
	truncated bool
}

// NewAncillaryBuffer creates an ancillary buffer with the given capacity.
// A zero capacity is valid and receives no ancillary data.
func NewAncillaryBuffer(capacity int) *AncillaryBuffer {
	return &AncillaryBuffer{buf: make([]byte, capacity)}
}

// Capacity returns the size of the underlying byte region.
func (b *AncillaryBuffer) Capacity() int {
	return len(b.buf)
}

// Len returns the number of bytes written by the kernel during the most
// recent receive call.
func (b *AncillaryBuffer) Len() int {
	return b.used
}

// Truncated reports whether the kernel indicated that ancillary data was
// dropped because the buffer was too small during the most recent receive
// call.
func (b *AncillaryBuffer) Truncated() bool {
	return b.truncated
}

// Bytes returns the portion of the buffer written by the kernel.
func (b *AncillaryBuffer) Bytes() []byte {
	return b.buf[:b.used]
}

func (b *AncillaryBuffer) setResult(used int, truncated bool) {
	if used > len(b.buf) {
		used = len(b.buf)
	}
	b.used = used
	b.truncated = truncated
}
