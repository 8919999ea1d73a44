package bson

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNestedDocumentBuilderMatchesSingleAppend checks that building a
// sub-document incrementally via AppendDocumentBegin/End produces the
// same bytes as pre-building it and calling AppendDocument once.
func TestNestedDocumentBuilderMatchesSingleAppend(t *testing.T) {
	incremental := New()
	child, err := incremental.AppendDocumentBegin("sub")
	assert.NoError(t, err)
	assert.NoError(t, child.AppendInt32("x", 1))
	assert.NoError(t, child.AppendString("y", "z"))
	assert.NoError(t, incremental.AppendDocumentEnd(child))

	sub := New()
	assert.NoError(t, sub.AppendInt32("x", 1))
	assert.NoError(t, sub.AppendString("y", "z"))
	singleShot := New()
	assert.NoError(t, singleShot.AppendDocument("sub", sub))

	assert.True(t, Equal(incremental, singleShot))
}

func TestNestedArrayBuilderKeysByIndex(t *testing.T) {
	d := New()
	arr, err := d.AppendArrayBegin("list")
	assert.NoError(t, err)
	assert.NoError(t, arr.AppendInt32("0", 10))
	assert.NoError(t, arr.AppendInt32("1", 20))
	assert.NoError(t, d.AppendArrayEnd(arr))

	it := NewIterator(d)
	assert.True(t, it.Next())
	assert.Equal(t, TypeArray, it.Type())
	sub, err := it.Document()
	assert.NoError(t, err)
	assert.True(t, sub.IsArray())
	assert.Equal(t, 2, sub.Count())

	subIt := NewIterator(sub)
	assert.True(t, subIt.Next())
	assert.Equal(t, "0", subIt.Key())
	assert.True(t, subIt.Next())
	assert.Equal(t, "1", subIt.Key())
}

func TestDeeplyNestedBuilderPropagatesLengthToRoot(t *testing.T) {
	root := New()
	a, err := root.AppendDocumentBegin("a")
	assert.NoError(t, err)
	b, err := a.AppendDocumentBegin("b")
	assert.NoError(t, err)
	assert.NoError(t, b.AppendInt32("c", 42))
	assert.NoError(t, a.AppendDocumentEnd(b))
	assert.NoError(t, root.AppendDocumentEnd(a))

	// Re-parse the finished bytes and confirm the nested value survives.
	parsed, err := NewFromData(root.GetData())
	assert.NoError(t, err)

	it := NewIterator(parsed)
	assert.True(t, it.Next())
	subA, err := it.Document()
	assert.NoError(t, err)
	itA := NewIterator(subA)
	assert.True(t, itA.Next())
	subB, err := itA.Document()
	assert.NoError(t, err)
	itB := NewIterator(subB)
	assert.True(t, itB.Next())
	v, err := itB.Int32()
	assert.NoError(t, err)
	assert.EqualValues(t, 42, v)
}

func TestAppendDocumentEndRejectsForeignChild(t *testing.T) {
	d1 := New()
	d2 := New()
	child, err := d1.AppendDocumentBegin("sub")
	assert.NoError(t, err)

	err = d2.AppendDocumentEnd(child)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestBuilderGrowsPastInlineCapacity(t *testing.T) {
	d := New()
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'x'
	}
	assert.NoError(t, d.AppendBinary("blob", 0x00, big))
	assert.Equal(t, kindHeap, d.kind)

	it := NewIterator(d)
	assert.True(t, it.Next())
	_, data, err := it.Binary()
	assert.NoError(t, err)
	assert.Equal(t, big, data)
}
