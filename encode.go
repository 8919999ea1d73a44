package bson

import (
	"encoding/binary"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// appendElement is the single append primitive every Append* method and
// the nested builder funnel through. It writes tag ‖ key ‖ 0x00 ‖ value
// at the byte that was d's terminator, writes a fresh terminator, and
// re-encodes the length prefix of d and every ancestor up to the root.
// It returns the absolute physical offset the value chunks were written
// at, which the nested builder needs to anchor a new child.
func appendElement(d *Doc, tag Type, key string, valueChunks ...[]byte) (int32, error) {
	if d.closed {
		return 0, ErrClosedChild
	}
	if d.root.kind == kindStatic {
		return 0, ErrReadOnly
	}

	total := int32(1 + len(key) + 1)
	for _, c := range valueChunks {
		total += int32(len(c))
	}

	// The physical buffer must hold every ancestor's terminator byte too:
	// while d is an open child, those bytes sit contiguously right after
	// d's own terminator, all the way out to the root's.
	root := d.root
	needed := root.offset + root.length + total
	if err := root.ensurePhysicalCapacity(needed); err != nil {
		return 0, err
	}

	p := d.physical()
	w := d.offset + d.length - 1 // old terminator position = new element start
	p[w] = byte(tag)
	w++
	w += int32(copy(p[w:], key))
	p[w] = 0x00
	w++
	valueOffset := w
	for _, c := range valueChunks {
		w += int32(copy(p[w:], c))
	}
	p[w] = 0x00 // d's new terminator
	for n := d.parent; n != nil; n = n.parent {
		w++
		p[w] = 0x00 // ancestor's terminator, shifted out by total
	}

	for n := d; n != nil; n = n.parent {
		n.length += total
		n.writeLengthPrefix()
	}
	return valueOffset, nil
}

func le32(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func le64(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func cstringChunk(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	b[len(s)] = 0x00
	return b
}

// lengthPrefixedStringChunks returns the int32-length-including-NUL chunk
// and the bytes‖NUL chunk shared by utf8, code, and symbol encoding.
func lengthPrefixedStringChunks(s string) ([]byte, []byte) {
	return le32(int32(len(s) + 1)), cstringChunk(s)
}

// AppendDouble appends an IEEE-754 double element.
func (d *Doc) AppendDouble(key string, v float64) error {
	_, err := appendElement(d, TypeDouble, key, le64(int64(math.Float64bits(v))))
	return err
}

// AppendString appends a UTF-8 string element.
func (d *Doc) AppendString(key string, v string) error {
	lenChunk, bytesChunk := lengthPrefixedStringChunks(v)
	_, err := appendElement(d, TypeString, key, lenChunk, bytesChunk)
	return err
}

// AppendStringPtr appends a UTF-8 string, or a null element when v is
// nil: a NULL value maps to a null element instead of a string element.
func (d *Doc) AppendStringPtr(key string, v *string) error {
	if v == nil {
		return d.AppendNull(key)
	}
	return d.AppendString(key, *v)
}

// AppendBinary appends binary data under the given one-byte BSON binary
// subtype (0x00 for generic binary).
func (d *Doc) AppendBinary(key string, subtype byte, data []byte) error {
	_, err := appendElement(d, TypeBinary, key, le32(int32(len(data))), []byte{subtype}, data)
	return err
}

// AppendUndefined appends a deprecated "undefined" element.
func (d *Doc) AppendUndefined(key string) error {
	_, err := appendElement(d, TypeUndefined, key)
	return err
}

// AppendObjectID appends a 12-byte ObjectId.
func (d *Doc) AppendObjectID(key string, id primitive.ObjectID) error {
	oidBytes := make([]byte, 12)
	copy(oidBytes, id[:])
	_, err := appendElement(d, TypeObjectID, key, oidBytes)
	return err
}

// AppendBool appends a boolean, coercing v to the canonical 0x00/0x01
// byte.
func (d *Doc) AppendBool(key string, v bool) error {
	b := byte(0x00)
	if v {
		b = 0x01
	}
	_, err := appendElement(d, TypeBool, key, []byte{b})
	return err
}

// AppendDateTime appends a UTC datetime as milliseconds since the Unix
// epoch.
func (d *Doc) AppendDateTime(key string, v primitive.DateTime) error {
	_, err := appendElement(d, TypeDateTime, key, le64(int64(v)))
	return err
}

// AppendTime converts a time.Time to milliseconds since epoch (seconds *
// 1000 + nanoseconds / 1e6) before encoding.
func (d *Doc) AppendTime(key string, v time.Time) error {
	ms := v.Unix()*1000 + int64(v.Nanosecond())/1_000_000
	return d.AppendDateTime(key, primitive.DateTime(ms))
}

// AppendNull appends a null element.
func (d *Doc) AppendNull(key string) error {
	_, err := appendElement(d, TypeNull, key)
	return err
}

// AppendRegex appends a regular expression. A nil/absent pattern or
// options maps to an empty C-string.
func (d *Doc) AppendRegex(key string, v primitive.Regex) error {
	_, err := appendElement(d, TypeRegex, key, cstringChunk(v.Pattern), cstringChunk(v.Options))
	return err
}

// AppendDBPointer appends a deprecated DBPointer element.
func (d *Doc) AppendDBPointer(key string, v primitive.DBPointer) error {
	lenChunk, nameChunk := lengthPrefixedStringChunks(v.DB)
	oidBytes := make([]byte, 12)
	copy(oidBytes, v.Pointer[:])
	_, err := appendElement(d, TypeDBPointer, key, lenChunk, nameChunk, oidBytes)
	return err
}

// AppendCode appends a JavaScript code element without a scope document.
func (d *Doc) AppendCode(key string, js primitive.JavaScript) error {
	lenChunk, bytesChunk := lengthPrefixedStringChunks(string(js))
	_, err := appendElement(d, TypeJavaScript, key, lenChunk, bytesChunk)
	return err
}

// AppendSymbol appends a symbol element (encoded identically to a
// string).
func (d *Doc) AppendSymbol(key string, v primitive.Symbol) error {
	lenChunk, bytesChunk := lengthPrefixedStringChunks(string(v))
	_, err := appendElement(d, TypeSymbol, key, lenChunk, bytesChunk)
	return err
}

// AppendCodeWithScope appends JavaScript code with an associated scope
// document. If scope is nil or empty, this downgrades to a plain
// AppendCode element instead.
func (d *Doc) AppendCodeWithScope(key string, js primitive.JavaScript, scope *Doc) error {
	if scope == nil || scope.Empty0() {
		return d.AppendCode(key, js)
	}
	codeLenChunk, codeBytesChunk := lengthPrefixedStringChunks(string(js))
	scopeBytes := scope.bytes()
	total := int32(4+len(codeLenChunk)+len(codeBytesChunk)) + int32(len(scopeBytes))
	_, err := appendElement(d, TypeCodeWithScope, key, le32(total), codeLenChunk, codeBytesChunk, scopeBytes)
	return err
}

// AppendInt32 appends a 32-bit integer.
func (d *Doc) AppendInt32(key string, v int32) error {
	_, err := appendElement(d, TypeInt32, key, le32(v))
	return err
}

// AppendTimestamp appends a replication timestamp: high 32 bits are
// seconds, low 32 bits are the per-second increment.
func (d *Doc) AppendTimestamp(key string, v primitive.Timestamp) error {
	packed := uint64(v.T)<<32 | uint64(v.I)
	_, err := appendElement(d, TypeTimestamp, key, le64(int64(packed)))
	return err
}

// AppendInt64 appends a 64-bit integer.
func (d *Doc) AppendInt64(key string, v int64) error {
	_, err := appendElement(d, TypeInt64, key, le64(v))
	return err
}

// AppendMinKey appends a min-key element.
func (d *Doc) AppendMinKey(key string) error {
	_, err := appendElement(d, TypeMinKey, key)
	return err
}

// AppendMaxKey appends a max-key element.
func (d *Doc) AppendMaxKey(key string) error {
	_, err := appendElement(d, TypeMaxKey, key)
	return err
}

// AppendDocument appends sub's bytes as an already-built embedded
// document value, in one atomic element — the single-append counterpart
// to AppendDocumentBegin/End.
func (d *Doc) AppendDocument(key string, sub *Doc) error {
	_, err := appendElement(d, TypeDocument, key, sub.bytes())
	return err
}

// AppendArray appends sub's bytes as an already-built embedded array
// value.
func (d *Doc) AppendArray(key string, sub *Doc) error {
	_, err := appendElement(d, TypeArray, key, sub.bytes())
	return err
}
