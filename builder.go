package bson

// emptyChildValue is the value chunk for a placeholder embedded document:
// a minimal empty document (length 5, one terminator byte). Reusing
// appendElement to write it means the nested builder gets growth and
// parent-chain length fixup for free — exactly the element encoder's
// normal path, just with this one fixed-shape value.
func emptyChildValue() []byte {
	v := make([]byte, minDocLen)
	writeEmptyDoc(v)
	return v
}

func (d *Doc) appendChildBegin(key string, tag Type, isArray bool) (*Doc, error) {
	valueOffset, err := appendElement(d, tag, key, emptyChildValue())
	if err != nil {
		return nil, err
	}
	child := &Doc{
		kind:    kindChild,
		isArray: isArray,
		length:  minDocLen,
		offset:  valueOffset,
		parent:  d,
		root:    d.root,
	}
	return child, nil
}

// AppendDocumentBegin opens a sub-document keyed key inside d, returning
// a handle that writes into d's own buffer. The child must be closed with
// AppendDocumentEnd before d (or any ancestor) is appended to again.
func (d *Doc) AppendDocumentBegin(key string) (*Doc, error) {
	return d.appendChildBegin(key, TypeDocument, false)
}

// AppendArrayBegin opens a sub-array keyed key inside d. The caller is
// responsible for keying the child's elements with ASCII decimal indices
// ("0", "1", ...); this package does not enforce that.
func (d *Doc) AppendArrayBegin(key string) (*Doc, error) {
	return d.appendChildBegin(key, TypeArray, true)
}

// AppendDocumentEnd closes a child opened with AppendDocumentBegin on d.
// Every ancestor's length prefix is already correct after each append
// into child, so this is a purely logical operation: it marks
// child unusable for further appends and validates that d is its parent.
func (d *Doc) AppendDocumentEnd(child *Doc) error {
	return d.closeChild(child)
}

// AppendArrayEnd closes a child opened with AppendArrayBegin on d.
func (d *Doc) AppendArrayEnd(child *Doc) error {
	return d.closeChild(child)
}

func (d *Doc) closeChild(child *Doc) error {
	if child.parent != d {
		return ErrNotOwner
	}
	child.closed = true
	return nil
}
