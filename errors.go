package bson

import "github.com/pkg/errors"

// Sentinel errors for the mutation/construction error taxonomy.
// Structural corruption and policy violations are instead reported as
// (bool, offset) pairs by Validate and the Iterator.
var (
	// ErrReadOnly is returned by any Append* call against a static
	// read-only Doc. The reference C library this package ports ignores
	// such appends silently; this port surfaces the condition instead.
	ErrReadOnly = errors.New("bson: append on a static read-only document")

	// ErrSizeOverflow is returned when an append would grow a document
	// past the int32 length-prefix limit.
	ErrSizeOverflow = errors.New("bson: document would exceed maximum size")

	// ErrClosedChild is returned by an append into a child Doc after
	// AppendDocumentEnd/AppendArrayEnd has closed it.
	ErrClosedChild = errors.New("bson: append into a closed child document")

	// ErrNotOwner is returned by AppendDocumentEnd/AppendArrayEnd when the
	// supplied child was not opened by the receiver.
	ErrNotOwner = errors.New("bson: child document does not belong to this parent")

	// ErrTruncated is returned by NewFromData/InitStatic when the byte
	// slice is shorter than the minimum possible document, its length
	// differs from the length its own prefix declares, or its last byte
	// is not the 0x00 terminator.
	ErrTruncated = errors.New("bson: truncated or malformed document")

	// ErrWrongType is returned by a typed Iterator accessor called
	// against an element whose tag doesn't match — a programmer error.
	ErrWrongType = errors.New("bson: iterator accessor called against the wrong element type")
)
