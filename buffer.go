package bson

import "encoding/binary"

// storageKind tags the four mutually exclusive storage modes a document
// handle can own its bytes through, plus the externally-managed "writer"
// mode. A Doc in kindChild mode never owns bytes itself; its root field
// always points at the nearest ancestor whose kind is one of the other
// four.
type storageKind uint8

const (
	kindInline storageKind = iota
	kindHeap
	kindStatic
	kindWriter
	kindChild
)

// inlineCap mirrors libbson's embedded small-buffer region: documents
// that fit inside it never allocate. 120 matches the original's
// BSON_INLINE_DATA_SIZE.
const inlineCap = 120

// Writer is an externally-managed output buffer that many documents are
// streamed into back-to-back, sharing one growable allocation. Used when
// a caller assembles a sequence of top-level documents (e.g. a
// bulk-write payload) into a single wire buffer.
type Writer struct {
	buf *[]byte
}

// NewWriter wraps a caller-owned byte slice pointer. Growth happens
// in-place on *buf using the same doubling-from-64 policy as an owned
// Doc; the caller retains ownership and reads *buf at any point between
// documents.
func NewWriter(buf *[]byte) *Writer {
	return &Writer{buf: buf}
}

// Begin reserves a fresh, minimal empty document (length 5) at the
// current tail of the writer's buffer and returns a root-mode handle
// over it. The returned Doc behaves exactly like one built with New,
// except its bytes live in the writer's shared allocation.
func (w *Writer) Begin() (*Doc, error) {
	off := int32(len(*w.buf))
	if off > maxDocLen-minDocLen {
		return nil, ErrSizeOverflow
	}
	d := &Doc{kind: kindWriter, writer: w, offset: off, length: minDocLen}
	d.root = d
	*w.buf = growSlice(*w.buf, off+minDocLen)
	writeEmptyDoc((*w.buf)[off:])
	return d, nil
}

func writeEmptyDoc(dst []byte) {
	binary.LittleEndian.PutUint32(dst, uint32(minDocLen))
	dst[minDocLen-1] = 0x00
}

// growSlice returns a slice of length neededLen backed by buf's storage
// when buf already has the capacity, or a freshly allocated, zero-filled
// block otherwise. New allocations use the next power of two >= 64 that
// satisfies neededLen; because a new allocation always starts from that
// rule rather than from the previous capacity, repeated growth still
// doubles (64, 128, 256, ...).
func growSlice(buf []byte, neededLen int32) []byte {
	if int32(cap(buf)) >= neededLen {
		return buf[:neededLen]
	}
	newCap := int32(64)
	for newCap < neededLen {
		newCap *= 2
	}
	nb := make([]byte, neededLen, newCap)
	copy(nb, buf)
	return nb
}

// physical returns the full backing slice of d's ultimate root, i.e. the
// single buffer that every offset on the child chain is relative to.
func (d *Doc) physical() []byte {
	r := d.root
	if r.kind == kindWriter {
		return *r.writer.buf
	}
	return r.buf
}

// bytes returns d's own encoded byte range within the physical buffer.
func (d *Doc) bytes() []byte {
	p := d.physical()
	return p[d.offset : d.offset+d.length]
}

// writeLengthPrefix re-encodes d's length into the first four bytes of
// its own byte range, in place.
func (d *Doc) writeLengthPrefix() {
	p := d.physical()
	binary.LittleEndian.PutUint32(p[d.offset:], uint32(d.length))
}

// ensurePhysicalCapacity grows the root's physical storage so that it can
// hold at least neededLen bytes, promoting inline storage to a heap
// allocation when the inline region is exceeded. Must be called on a
// root Doc (kind != kindChild).
func (root *Doc) ensurePhysicalCapacity(neededLen int32) error {
	if neededLen > maxDocLen {
		return ErrSizeOverflow
	}
	switch root.kind {
	case kindStatic:
		return ErrReadOnly
	case kindWriter:
		*root.writer.buf = growSlice(*root.writer.buf, neededLen)
	case kindInline:
		if neededLen <= int32(len(root.inlineArr)) {
			root.buf = root.inlineArr[:neededLen]
			return nil
		}
		newCap := int32(64)
		for newCap < neededLen {
			newCap *= 2
		}
		nb := make([]byte, neededLen, newCap)
		copy(nb, root.buf)
		root.buf = nb
		root.kind = kindHeap
	case kindHeap:
		root.buf = growSlice(root.buf, neededLen)
	}
	return nil
}
