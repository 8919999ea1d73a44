package bson

import (
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidateFlags selects which structural and policy checks Validate
// performs.
type ValidateFlags uint32

const (
	// ValidateUTF8 checks every key and string-bearing value (utf8,
	// code, symbol, code-with-scope's code) for UTF-8 correctness.
	ValidateUTF8 ValidateFlags = 1 << iota
	// ValidateUTF8AllowNull permits an embedded NUL byte inside a
	// UTF-8 string value; without it, an embedded NUL is a violation.
	ValidateUTF8AllowNull
	// ValidateDollarKeys rejects keys starting with "$".
	ValidateDollarKeys
	// ValidateDotKeys rejects keys containing ".".
	ValidateDotKeys
)

// Validate walks d, recursing into every sub-document and sub-array, and
// reports whether it is both structurally sound and compliant with the
// given policy flags. On failure, offset is the byte offset of the first
// violation.
func Validate(d *Doc, flags ValidateFlags) (ok bool, offset int32) {
	s := &validateState{flags: flags, ok: true}
	s.run(d)
	return s.ok, s.offset
}

type validateState struct {
	flags  ValidateFlags
	ok     bool
	offset int32
}

func (s *validateState) fail(offset int32) bool {
	if s.ok {
		s.ok = false
		s.offset = offset
	}
	return true
}

func (s *validateState) run(d *Doc) {
	it := NewIterator(d)
	allowNull := s.flags&ValidateUTF8AllowNull != 0

	v := &Visitor{
		Before: func(key string, tag Type) bool {
			if s.flags&ValidateDollarKeys != 0 && strings.HasPrefix(key, "$") {
				return s.fail(it.Offset())
			}
			if s.flags&ValidateDotKeys != 0 && strings.ContainsRune(key, '.') {
				return s.fail(it.Offset())
			}
			if s.flags&ValidateUTF8 != 0 && !validUTF8(key, false) {
				return s.fail(it.Offset())
			}
			return false
		},
		Corrupt: func(offset int32) {
			s.fail(offset)
		},
		Document: func(key string, sub *Doc) bool {
			s.run(sub)
			return !s.ok
		},
		Array: func(key string, sub *Doc) bool {
			s.run(sub)
			return !s.ok
		},
		CodeWithScope: func(key string, js primitive.JavaScript, scope *Doc) bool {
			if s.flags&ValidateUTF8 != 0 && !validUTF8(string(js), allowNull) {
				return s.fail(it.Offset())
			}
			s.run(scope)
			return !s.ok
		},
	}
	if s.flags&ValidateUTF8 != 0 {
		v.String = func(key, val string) bool {
			if !validUTF8(val, allowNull) {
				return s.fail(it.Offset())
			}
			return false
		}
		v.Code = func(key string, val primitive.JavaScript) bool {
			if !validUTF8(string(val), allowNull) {
				return s.fail(it.Offset())
			}
			return false
		}
		v.Symbol = func(key string, val primitive.Symbol) bool {
			if !validUTF8(string(val), allowNull) {
				return s.fail(it.Offset())
			}
			return false
		}
	}
	VisitAll(it, v)
}

func validUTF8(s string, allowNull bool) bool {
	if !utf8.ValidString(s) {
		return false
	}
	return allowNull || strings.IndexByte(s, 0x00) < 0
}
