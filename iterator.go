package bson

import (
	"encoding/binary"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Iterator positions at successive elements of an immutable document
// view without copying it. The backing Doc must outlive the Iterator
// and must not be mutated while the Iterator is in use — doing so
// invalidates it.
type Iterator struct {
	data []byte
	pos  int32 // cursor: start of the next unread element, or the terminator offset

	tag       Type
	key       string
	elemStart int32
	valStart  int32
	valEnd    int32

	errOffset int32
	corrupt   bool
}

// NewIterator initializes an Iterator over d's current bytes. It fails
// if d's own bytes are not well-formed, which should never happen for a
// Doc built or parsed through this package, but is cheap to check.
func NewIterator(d *Doc) *Iterator {
	data := d.bytes()
	it := &Iterator{data: data, pos: 4}
	if err := checkWellFormed(data); err != nil {
		it.corrupt = true
		it.errOffset = 0
	}
	return it
}

// Next advances to the following element and reports whether one was
// found. It returns false both at normal end-of-document and on
// corruption — call Err to distinguish the two.
func (it *Iterator) Next() bool {
	if it.corrupt {
		return false
	}
	if it.pos >= int32(len(it.data))-1 {
		return false // positioned on (or past) the terminator: no more elements
	}

	it.elemStart = it.pos
	tag := Type(it.data[it.pos])
	keyStart := it.pos + 1

	nul := indexNUL(it.data, keyStart, int32(len(it.data))-1)
	if nul < 0 {
		return it.fail(it.pos)
	}
	it.tag = tag
	it.key = string(it.data[keyStart:nul])

	valStart := nul + 1
	valLen, ok := valueLength(tag, it.data, valStart)
	if !ok {
		return it.fail(it.pos)
	}
	valEnd := valStart + valLen
	if valEnd < valStart || valEnd > int32(len(it.data))-1 {
		return it.fail(it.pos)
	}

	it.valStart = valStart
	it.valEnd = valEnd
	it.pos = valEnd
	return true
}

func (it *Iterator) fail(offset int32) bool {
	it.corrupt = true
	it.errOffset = offset
	return false
}

// Err reports whether iteration stopped due to corruption, and if so the
// byte offset of the offending element.
func (it *Iterator) Err() (ok bool, offset int32) {
	return !it.corrupt, it.errOffset
}

// Offset returns the byte offset of the element the iterator is
// currently positioned on (the byte of its type tag).
func (it *Iterator) Offset() int32 { return it.elemStart }

// Type returns the current element's type tag.
func (it *Iterator) Type() Type { return it.tag }

// Key returns the current element's key.
func (it *Iterator) Key() string { return it.key }

func indexNUL(data []byte, from, limit int32) int32 {
	for i := from; i < limit; i++ {
		if data[i] == 0x00 {
			return i
		}
	}
	return -1
}

// valueLength computes the byte length of the value at data[valStart:]
// for the given tag, returning ok=false if the declared length would run
// past len(data) (corruption).
func valueLength(tag Type, data []byte, valStart int32) (int32, bool) {
	remain := int32(len(data)) - valStart
	switch tag {
	case TypeDouble, TypeDateTime, TypeTimestamp, TypeInt64:
		return fixedLen(8, remain)
	case TypeInt32:
		return fixedLen(4, remain)
	case TypeBool:
		return fixedLen(1, remain)
	case TypeObjectID:
		return fixedLen(12, remain)
	case TypeUndefined, TypeNull, TypeMinKey, TypeMaxKey:
		return fixedLen(0, remain)
	case TypeString, TypeJavaScript, TypeSymbol:
		return lengthPrefixedLen(data, valStart, remain, 0)
	case TypeDocument, TypeArray:
		return embeddedDocLen(data, valStart, remain)
	case TypeBinary:
		if remain < 5 {
			return 0, false
		}
		n := int32(binary.LittleEndian.Uint32(data[valStart:]))
		if n < 0 {
			return 0, false
		}
		total := 4 + 1 + n
		if total > remain {
			return 0, false
		}
		return total, true
	case TypeDBPointer:
		strLen, ok := lengthPrefixedLen(data, valStart, remain, 12)
		if !ok {
			return 0, false
		}
		return strLen, true
	case TypeCodeWithScope:
		if remain < 4 {
			return 0, false
		}
		n := int32(binary.LittleEndian.Uint32(data[valStart:]))
		if n < 4 || n > remain {
			return 0, false
		}
		return n, true
	case TypeRegex:
		p1 := indexNUL(data, valStart, int32(len(data)))
		if p1 < 0 {
			return 0, false
		}
		p2 := indexNUL(data, p1+1, int32(len(data)))
		if p2 < 0 {
			return 0, false
		}
		return p2 + 1 - valStart, true
	}
	return 0, false
}

func fixedLen(n, remain int32) (int32, bool) {
	if n > remain {
		return 0, false
	}
	return n, true
}

// lengthPrefixedLen handles the "int32 length-including-NUL, bytes, NUL"
// string layout, optionally followed by extra trailing bytes (used by
// DBPointer's 12-byte oid tail).
func lengthPrefixedLen(data []byte, valStart, remain, trailer int32) (int32, bool) {
	if remain < 4 {
		return 0, false
	}
	n := int32(binary.LittleEndian.Uint32(data[valStart:]))
	if n < 1 {
		return 0, false
	}
	total := 4 + n + trailer
	if total > remain {
		return 0, false
	}
	return total, true
}

func embeddedDocLen(data []byte, valStart, remain int32) (int32, bool) {
	if remain < minDocLen {
		return 0, false
	}
	n := int32(binary.LittleEndian.Uint32(data[valStart:]))
	if n < minDocLen || n > remain {
		return 0, false
	}
	return n, true
}

// The typed accessors below are only valid when Type() matches; calling
// the wrong one is a programmer error and
// returns the zero value plus ErrWrongType rather than panicking.

func (it *Iterator) Double() (float64, error) {
	if it.tag != TypeDouble {
		return 0, ErrWrongType
	}
	bits := binary.LittleEndian.Uint64(it.data[it.valStart:])
	return math.Float64frombits(bits), nil
}

func (it *Iterator) StringValue() (string, error) {
	switch it.tag {
	case TypeString, TypeJavaScript, TypeSymbol:
		return it.cstringValue(), nil
	}
	return "", ErrWrongType
}

func (it *Iterator) cstringValue() string {
	n := int32(binary.LittleEndian.Uint32(it.data[it.valStart:]))
	b := it.data[it.valStart+4 : it.valStart+4+n-1]
	return string(b)
}

func (it *Iterator) Document() (*Doc, error) {
	if it.tag != TypeDocument && it.tag != TypeArray {
		return nil, ErrWrongType
	}
	sub, err := InitStatic(it.data[it.valStart:it.valEnd])
	if err != nil {
		it.fail(it.elemStart)
		return nil, err
	}
	sub.isArray = it.tag == TypeArray
	return sub, nil
}

func (it *Iterator) Binary() (subtype byte, data []byte, err error) {
	if it.tag != TypeBinary {
		return 0, nil, ErrWrongType
	}
	n := int32(binary.LittleEndian.Uint32(it.data[it.valStart:]))
	subtype = it.data[it.valStart+4]
	data = it.data[it.valStart+5 : it.valStart+5+n]
	return subtype, data, nil
}

func (it *Iterator) ObjectID() (primitive.ObjectID, error) {
	var oid primitive.ObjectID
	if it.tag != TypeObjectID {
		return oid, ErrWrongType
	}
	copy(oid[:], it.data[it.valStart:it.valStart+12])
	return oid, nil
}

func (it *Iterator) Bool() (bool, error) {
	if it.tag != TypeBool {
		return false, ErrWrongType
	}
	return it.data[it.valStart] != 0x00, nil
}

func (it *Iterator) DateTime() (primitive.DateTime, error) {
	if it.tag != TypeDateTime {
		return 0, ErrWrongType
	}
	return primitive.DateTime(binary.LittleEndian.Uint64(it.data[it.valStart:])), nil
}

func (it *Iterator) Regex() (primitive.Regex, error) {
	if it.tag != TypeRegex {
		return primitive.Regex{}, ErrWrongType
	}
	p1 := indexNUL(it.data, it.valStart, int32(len(it.data)))
	p2 := indexNUL(it.data, p1+1, int32(len(it.data)))
	return primitive.Regex{Pattern: string(it.data[it.valStart:p1]), Options: string(it.data[p1+1 : p2])}, nil
}

func (it *Iterator) DBPointer() (primitive.DBPointer, error) {
	if it.tag != TypeDBPointer {
		return primitive.DBPointer{}, ErrWrongType
	}
	n := int32(binary.LittleEndian.Uint32(it.data[it.valStart:]))
	name := string(it.data[it.valStart+4 : it.valStart+4+n-1])
	oidStart := it.valStart + 4 + n
	var oid primitive.ObjectID
	copy(oid[:], it.data[oidStart:oidStart+12])
	return primitive.DBPointer{DB: name, Pointer: oid}, nil
}

func (it *Iterator) CodeWithScope() (js primitive.JavaScript, scope *Doc, err error) {
	if it.tag != TypeCodeWithScope {
		return "", nil, ErrWrongType
	}
	codeLen := int32(binary.LittleEndian.Uint32(it.data[it.valStart+4:]))
	code := string(it.data[it.valStart+8 : it.valStart+8+codeLen-1])
	scopeStart := it.valStart + 8 + codeLen
	sub, err := InitStatic(it.data[scopeStart:it.valEnd])
	if err != nil {
		it.fail(it.elemStart)
		return "", nil, err
	}
	return primitive.JavaScript(code), sub, nil
}

func (it *Iterator) Int32() (int32, error) {
	if it.tag != TypeInt32 {
		return 0, ErrWrongType
	}
	return int32(binary.LittleEndian.Uint32(it.data[it.valStart:])), nil
}

func (it *Iterator) Timestamp() (primitive.Timestamp, error) {
	if it.tag != TypeTimestamp {
		return primitive.Timestamp{}, ErrWrongType
	}
	packed := binary.LittleEndian.Uint64(it.data[it.valStart:])
	return primitive.Timestamp{T: uint32(packed >> 32), I: uint32(packed)}, nil
}

func (it *Iterator) Int64() (int64, error) {
	if it.tag != TypeInt64 {
		return 0, ErrWrongType
	}
	return int64(binary.LittleEndian.Uint64(it.data[it.valStart:])), nil
}
