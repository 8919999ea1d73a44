package bson

import "go.mongodb.org/mongo-driver/bson/primitive"

// Visitor is a table of optional per-type callbacks plus the two hooks
// every traversal needs: Before, called once an element is positioned on
// (keyed by name), and Corrupt, called if the iterator aborts. Each
// callback returns true to stop the traversal early. Validate and
// AsExtJSON are both just Visitor implementations over the same
// VisitAll driver — the only thing that differs between them is which of
// these fields is set.
type Visitor struct {
	Before func(key string, tag Type) (stop bool)
	Corrupt func(offset int32)

	Double        func(key string, v float64) (stop bool)
	String        func(key string, v string) (stop bool)
	Document      func(key string, v *Doc) (stop bool)
	Array         func(key string, v *Doc) (stop bool)
	Binary        func(key string, subtype byte, data []byte) (stop bool)
	Undefined     func(key string) (stop bool)
	ObjectID      func(key string, v primitive.ObjectID) (stop bool)
	Bool          func(key string, v bool) (stop bool)
	DateTime      func(key string, v primitive.DateTime) (stop bool)
	Null          func(key string) (stop bool)
	Regex         func(key string, v primitive.Regex) (stop bool)
	DBPointer     func(key string, v primitive.DBPointer) (stop bool)
	Code          func(key string, v primitive.JavaScript) (stop bool)
	Symbol        func(key string, v primitive.Symbol) (stop bool)
	CodeWithScope func(key string, js primitive.JavaScript, scope *Doc) (stop bool)
	Int32         func(key string, v int32) (stop bool)
	Timestamp     func(key string, v primitive.Timestamp) (stop bool)
	Int64         func(key string, v int64) (stop bool)
	MinKey        func(key string) (stop bool)
	MaxKey        func(key string) (stop bool)
}

// VisitAll drives it to exhaustion, dispatching each element to the
// matching callback on v. It stops early if a callback returns true, or
// if the iterator hits corruption (in which case v.Corrupt is invoked
// with the offending offset, if set).
func VisitAll(it *Iterator, v *Visitor) {
	for it.Next() {
		tag := it.Type()
		key := it.Key()
		if v.Before != nil && v.Before(key, tag) {
			return
		}
		if dispatch(it, v, key, tag) {
			break
		}
	}
	if ok, offset := it.Err(); !ok && v.Corrupt != nil {
		v.Corrupt(offset)
	}
}

func dispatch(it *Iterator, v *Visitor, key string, tag Type) bool {
	switch tag {
	case TypeDouble:
		if v.Double == nil {
			return false
		}
		val, _ := it.Double()
		return v.Double(key, val)
	case TypeString, TypeJavaScript, TypeSymbol:
		return dispatchString(it, v, key, tag)
	case TypeDocument:
		if v.Document == nil {
			return false
		}
		val, err := it.Document()
		if err != nil {
			return true // iterator recorded the corruption; stop
		}
		return v.Document(key, val)
	case TypeArray:
		if v.Array == nil {
			return false
		}
		val, err := it.Document()
		if err != nil {
			return true
		}
		return v.Array(key, val)
	case TypeBinary:
		if v.Binary == nil {
			return false
		}
		subtype, data, _ := it.Binary()
		return v.Binary(key, subtype, data)
	case TypeUndefined:
		if v.Undefined == nil {
			return false
		}
		return v.Undefined(key)
	case TypeObjectID:
		if v.ObjectID == nil {
			return false
		}
		val, _ := it.ObjectID()
		return v.ObjectID(key, val)
	case TypeBool:
		if v.Bool == nil {
			return false
		}
		val, _ := it.Bool()
		return v.Bool(key, val)
	case TypeDateTime:
		if v.DateTime == nil {
			return false
		}
		val, _ := it.DateTime()
		return v.DateTime(key, val)
	case TypeNull:
		if v.Null == nil {
			return false
		}
		return v.Null(key)
	case TypeRegex:
		if v.Regex == nil {
			return false
		}
		val, _ := it.Regex()
		return v.Regex(key, val)
	case TypeDBPointer:
		if v.DBPointer == nil {
			return false
		}
		val, _ := it.DBPointer()
		return v.DBPointer(key, val)
	case TypeCodeWithScope:
		if v.CodeWithScope == nil {
			return false
		}
		js, scope, err := it.CodeWithScope()
		if err != nil {
			return true
		}
		return v.CodeWithScope(key, js, scope)
	case TypeInt32:
		if v.Int32 == nil {
			return false
		}
		val, _ := it.Int32()
		return v.Int32(key, val)
	case TypeTimestamp:
		if v.Timestamp == nil {
			return false
		}
		val, _ := it.Timestamp()
		return v.Timestamp(key, val)
	case TypeInt64:
		if v.Int64 == nil {
			return false
		}
		val, _ := it.Int64()
		return v.Int64(key, val)
	case TypeMinKey:
		if v.MinKey == nil {
			return false
		}
		return v.MinKey(key)
	case TypeMaxKey:
		if v.MaxKey == nil {
			return false
		}
		return v.MaxKey(key)
	}
	return false
}

func dispatchString(it *Iterator, v *Visitor, key string, tag Type) bool {
	val, _ := it.StringValue()
	switch tag {
	case TypeString:
		if v.String == nil {
			return false
		}
		return v.String(key, val)
	case TypeJavaScript:
		if v.Code == nil {
			return false
		}
		return v.Code(key, primitive.JavaScript(val))
	case TypeSymbol:
		if v.Symbol == nil {
			return false
		}
		return v.Symbol(key, primitive.Symbol(val))
	}
	return false
}
