package bson

import "encoding/binary"

// Doc is a handle onto a BSON document. It is either a root — owning its
// bytes (inline, heap, static, or writer-backed) — or a child, sharing
// its root's buffer. The zero Doc is not usable;
// construct one with New, NewFromData, SizedNew, InitStatic, or by
// opening a child with AppendDocumentBegin/AppendArrayBegin.
type Doc struct {
	kind    storageKind
	isArray bool
	closed  bool // true once a child has been passed to AppendDocumentEnd/End

	length int32 // encoded size in bytes of this handle's document, >= 5
	offset int32 // byte offset of this handle's length prefix within physical()

	parent *Doc // nil unless kind == kindChild
	root   *Doc // self for a root; nearest owning ancestor for a child

	writer *Writer // set only when kind == kindWriter

	buf       []byte          // root-owned backing slice (inline/heap/static); nil for child/writer
	inlineArr [inlineCap]byte // backing array for kindInline
}

// New returns an empty, owned document (length 5) using inline storage.
func New() *Doc {
	d := &Doc{kind: kindInline}
	d.root = d
	d.buf = d.inlineArr[:minDocLen]
	writeEmptyDoc(d.buf)
	d.length = minDocLen
	return d
}

// SizedNew returns an empty document pre-sized to hold at least
// sizeHint bytes without a subsequent reallocation. A sizeHint at or
// under inlineCap still uses inline storage.
func SizedNew(sizeHint int) (*Doc, error) {
	d := New()
	if sizeHint <= inlineCap {
		return d, nil
	}
	if err := d.ensurePhysicalCapacity(int32(sizeHint)); err != nil {
		return nil, err
	}
	d.buf = d.buf[:minDocLen]
	return d, nil
}

// NewFromData copies data into a new owned document, validating that the
// bytes form a well-formed document before copying:
// data must be at least 5 bytes, its first four bytes (little-endian)
// must equal len(data), and the last byte must be the 0x00 terminator.
func NewFromData(data []byte) (*Doc, error) {
	if err := checkWellFormed(data); err != nil {
		return nil, err
	}
	d, err := SizedNew(len(data))
	if err != nil {
		return nil, err
	}
	d.buf = d.buf[:len(data)]
	copy(d.buf, data)
	d.length = int32(len(data))
	return d, nil
}

// InitStatic wraps caller-owned bytes without copying them. The returned
// Doc is static-read-only: every Append* call against it (directly, or
// against a child opened on it) fails with ErrReadOnly. data must outlive
// the returned Doc.
func InitStatic(data []byte) (*Doc, error) {
	if err := checkWellFormed(data); err != nil {
		return nil, err
	}
	d := &Doc{kind: kindStatic, buf: data, length: int32(len(data))}
	d.root = d
	return d, nil
}

func checkWellFormed(data []byte) error {
	if len(data) < minDocLen {
		return ErrTruncated
	}
	declared := int32(binary.LittleEndian.Uint32(data))
	if declared < minDocLen || int(declared) != len(data) {
		return ErrTruncated
	}
	if data[len(data)-1] != 0x00 {
		return ErrTruncated
	}
	return nil
}

// GetData returns the handle's encoded bytes. For a root this is its own
// backing slice; for a child it is a view into the root's buffer. The
// returned slice must not be retained past the next mutation of the
// handle or any of its ancestors/root.
func (d *Doc) GetData() []byte {
	return d.bytes()
}

// Len reports the handle's logical length in bytes, always >= 5.
func (d *Doc) Len() int32 {
	return d.length
}

// Count returns the number of top-level elements in d.
func (d *Doc) Count() int {
	it := NewIterator(d)
	n := 0
	for it.Next() {
		n++
	}
	return n
}

// Empty0 reports whether d has no elements (length <= 5, i.e. only the
// length prefix and terminator byte).
func (d *Doc) Empty0() bool {
	return d.length <= minDocLen
}

// IsArray reports whether d was opened as an array (AppendArrayBegin) or
// read from an array element by Iterator.Document, vs. a plain document.
func (d *Doc) IsArray() bool {
	return d.isArray
}

// ReadOnly reports whether Append* calls against d will fail with
// ErrReadOnly.
func (d *Doc) ReadOnly() bool {
	return d.root.kind == kindStatic
}
