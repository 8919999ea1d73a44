package bson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestAppendInt32ByteLayout checks a specific worked example: appending
// int32 value 1 keyed "a" to an empty document produces exactly
// 0c 00 00 00 10 61 00 01 00 00 00 00.
func TestAppendInt32ByteLayout(t *testing.T) {
	d := New()
	assert.NoError(t, d.AppendInt32("a", 1))
	want := []byte{0x0c, 0x00, 0x00, 0x00, 0x10, 0x61, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}
	assert.Equal(t, want, d.GetData())
}

func TestAppendBoolCoercesToCanonicalByte(t *testing.T) {
	d := New()
	assert.NoError(t, d.AppendBool("t", true))
	assert.NoError(t, d.AppendBool("f", false))
	data := d.GetData()
	assert.Contains(t, data, byte(0x01))

	it := NewIterator(d)
	assert.True(t, it.Next())
	v, err := it.Bool()
	assert.NoError(t, err)
	assert.True(t, v)
	assert.True(t, it.Next())
	v, err = it.Bool()
	assert.NoError(t, err)
	assert.False(t, v)
}

// TestAppendStringPtrNullLaw checks that a nil *string encodes as a
// null element, not a string element.
func TestAppendStringPtrNullLaw(t *testing.T) {
	d := New()
	assert.NoError(t, d.AppendStringPtr("k", nil))

	it := NewIterator(d)
	assert.True(t, it.Next())
	assert.Equal(t, TypeNull, it.Type())

	s := "hello"
	d2 := New()
	assert.NoError(t, d2.AppendStringPtr("k", &s))
	it2 := NewIterator(d2)
	assert.True(t, it2.Next())
	assert.Equal(t, TypeString, it2.Type())
	v, err := it2.StringValue()
	assert.NoError(t, err)
	assert.Equal(t, "hello", v)
}

// TestAppendCodeWithScopeDowngradeLaw checks that an empty or nil scope
// downgrades code_w_s to a plain code element.
func TestAppendCodeWithScopeDowngradeLaw(t *testing.T) {
	d := New()
	assert.NoError(t, d.AppendCodeWithScope("f", "function(){}", nil))
	it := NewIterator(d)
	assert.True(t, it.Next())
	assert.Equal(t, TypeJavaScript, it.Type())

	d2 := New()
	empty := New()
	assert.NoError(t, d2.AppendCodeWithScope("f", "function(){}", empty))
	it2 := NewIterator(d2)
	assert.True(t, it2.Next())
	assert.Equal(t, TypeJavaScript, it2.Type())

	d3 := New()
	scope := New()
	assert.NoError(t, scope.AppendInt32("x", 1))
	assert.NoError(t, d3.AppendCodeWithScope("f", "function(){}", scope))
	it3 := NewIterator(d3)
	assert.True(t, it3.Next())
	assert.Equal(t, TypeCodeWithScope, it3.Type())
	js, sub, err := it3.CodeWithScope()
	assert.NoError(t, err)
	assert.Equal(t, primitive.JavaScript("function(){}"), js)
	assert.False(t, sub.Empty0())
}

func TestAppendEveryScalarTypeRoundTrips(t *testing.T) {
	oid := primitive.NewObjectID()
	d := New()
	assert.NoError(t, d.AppendDouble("double", 3.5))
	assert.NoError(t, d.AppendString("string", "s"))
	assert.NoError(t, d.AppendBinary("binary", 0x00, []byte{1, 2, 3}))
	assert.NoError(t, d.AppendUndefined("undefined"))
	assert.NoError(t, d.AppendObjectID("oid", oid))
	assert.NoError(t, d.AppendBool("bool", true))
	assert.NoError(t, d.AppendDateTime("date", primitive.DateTime(1000)))
	assert.NoError(t, d.AppendNull("null"))
	assert.NoError(t, d.AppendRegex("regex", primitive.Regex{Pattern: "^a", Options: "i"}))
	assert.NoError(t, d.AppendDBPointer("dbref", primitive.DBPointer{DB: "ns", Pointer: oid}))
	assert.NoError(t, d.AppendCode("code", "1+1"))
	assert.NoError(t, d.AppendSymbol("sym", "s"))
	assert.NoError(t, d.AppendInt32("i32", -7))
	assert.NoError(t, d.AppendTimestamp("ts", primitive.Timestamp{T: 5, I: 9}))
	assert.NoError(t, d.AppendInt64("i64", -8))
	assert.NoError(t, d.AppendMinKey("min"))
	assert.NoError(t, d.AppendMaxKey("max"))

	assert.Equal(t, 17, d.Count())

	it := NewIterator(d)

	assert.True(t, it.Next())
	v, err := it.Double()
	assert.NoError(t, err)
	assert.Equal(t, 3.5, v)

	assert.True(t, it.Next())
	sv, err := it.StringValue()
	assert.NoError(t, err)
	assert.Equal(t, "s", sv)

	assert.True(t, it.Next())
	subtype, data, err := it.Binary()
	assert.NoError(t, err)
	assert.Equal(t, byte(0x00), subtype)
	assert.Equal(t, []byte{1, 2, 3}, data)

	assert.True(t, it.Next())
	assert.Equal(t, TypeUndefined, it.Type())

	assert.True(t, it.Next())
	readOid, err := it.ObjectID()
	assert.NoError(t, err)
	assert.Equal(t, oid, readOid)

	assert.True(t, it.Next())
	bv, err := it.Bool()
	assert.NoError(t, err)
	assert.True(t, bv)

	assert.True(t, it.Next())
	dtv, err := it.DateTime()
	assert.NoError(t, err)
	assert.EqualValues(t, 1000, dtv)

	assert.True(t, it.Next())
	assert.Equal(t, TypeNull, it.Type())

	assert.True(t, it.Next())
	rv, err := it.Regex()
	assert.NoError(t, err)
	assert.Equal(t, primitive.Regex{Pattern: "^a", Options: "i"}, rv)

	assert.True(t, it.Next())
	dbp, err := it.DBPointer()
	assert.NoError(t, err)
	assert.Equal(t, "ns", dbp.DB)
	assert.Equal(t, oid, dbp.Pointer)

	assert.True(t, it.Next())
	cv, err := it.StringValue()
	assert.NoError(t, err)
	assert.Equal(t, "1+1", cv)

	assert.True(t, it.Next())
	symv, err := it.StringValue()
	assert.NoError(t, err)
	assert.Equal(t, "s", symv)

	assert.True(t, it.Next())
	i32, err := it.Int32()
	assert.NoError(t, err)
	assert.EqualValues(t, -7, i32)

	assert.True(t, it.Next())
	ts, err := it.Timestamp()
	assert.NoError(t, err)
	assert.Equal(t, primitive.Timestamp{T: 5, I: 9}, ts)

	assert.True(t, it.Next())
	i64, err := it.Int64()
	assert.NoError(t, err)
	assert.EqualValues(t, -8, i64)

	assert.True(t, it.Next())
	assert.Equal(t, TypeMinKey, it.Type())

	assert.True(t, it.Next())
	assert.Equal(t, TypeMaxKey, it.Type())

	assert.False(t, it.Next())
	ok, _ := it.Err()
	assert.True(t, ok)
}

func TestAppendOnClosedChildFails(t *testing.T) {
	d := New()
	child, err := d.AppendDocumentBegin("sub")
	assert.NoError(t, err)
	assert.NoError(t, d.AppendDocumentEnd(child))

	err = child.AppendInt32("x", 1)
	assert.ErrorIs(t, err, ErrClosedChild)
}

func TestAppendTimeConvertsToMillis(t *testing.T) {
	d := New()
	tm := time.Unix(1_600_000_000, 123_000_000).UTC()
	assert.NoError(t, d.AppendTime("t", tm))

	it := NewIterator(d)
	assert.True(t, it.Next())
	v, err := it.DateTime()
	assert.NoError(t, err)
	assert.EqualValues(t, 1_600_000_000_123, v)
}
