package bson

import "bytes"

// Compare returns a negative number, zero, or a positive number as a
// orders before, the same as, or after b. The primary key is the
// difference in encoded length, not a byte-wise lexicographic compare of
// equal-prefix content — this defines a total order, but not one that
// agrees with comparing the documents' logical contents for documents of
// differing length. Kept for compatibility with the reference C library.
func Compare(a, b *Doc) int {
	if a.length != b.length {
		return int(a.length - b.length)
	}
	return bytes.Compare(a.bytes(), b.bytes())
}

// Equal reports whether a and b are byte-identical.
func Equal(a, b *Doc) bool {
	return Compare(a, b) == 0
}
