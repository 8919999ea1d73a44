package bson

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AsExtJSON renders d as MongoDB's extended JSON: every BSON type without
// a native JSON analogue is spelled out as a "$"-prefixed wrapper object.
// mode selects between the canonical, round-trippable rendering this
// package defaults to and the legacy, lossy one the reference C library
// produced.
func (d *Doc) AsExtJSON(mode RenderMode) string {
	var sb strings.Builder
	renderDoc(&sb, d, mode)
	return sb.String()
}

// AsJSON renders d using the package default, RenderModeCanonical.
func (d *Doc) AsJSON() string {
	return d.AsExtJSON(RenderModeCanonical)
}

func renderDoc(sb *strings.Builder, d *Doc, mode RenderMode) {
	if d.Empty0() {
		if d.IsArray() {
			sb.WriteString("[]")
		} else {
			sb.WriteString("{}")
		}
		return
	}

	open, closeTok := "{ ", " }"
	if d.IsArray() {
		open, closeTok = "[ ", " ]"
	}
	sb.WriteString(open)
	count := 0
	keysEnabled := !d.IsArray()

	it := NewIterator(d)
	v := &Visitor{
		Before: func(key string, tag Type) bool {
			if count > 0 {
				sb.WriteString(", ")
			}
			count++
			if keysEnabled {
				writeJSONString(sb, key)
				sb.WriteString(" : ")
			}
			return false
		},
		Double: func(key string, v float64) bool {
			writeDouble(sb, v, mode)
			return false
		},
		String: func(key, v string) bool {
			writeJSONString(sb, v)
			return false
		},
		Document: func(key string, sub *Doc) bool {
			renderDoc(sb, sub, mode)
			return false
		},
		Array: func(key string, sub *Doc) bool {
			renderDoc(sb, sub, mode)
			return false
		},
		Binary: func(key string, subtype byte, data []byte) bool {
			fmt.Fprintf(sb, `{ "$type" : "%02x", "$binary" : "%s" }`, subtype, base64.StdEncoding.EncodeToString(data))
			return false
		},
		Undefined: func(key string) bool {
			sb.WriteString(`{ "$undefined" : true }`)
			return false
		},
		ObjectID: func(key string, v primitive.ObjectID) bool {
			fmt.Fprintf(sb, `{ "$oid" : "%s" }`, v.Hex())
			return false
		},
		Bool: func(key string, v bool) bool {
			if v {
				sb.WriteString("true")
			} else {
				sb.WriteString("false")
			}
			return false
		},
		DateTime: func(key string, v primitive.DateTime) bool {
			fmt.Fprintf(sb, `{ "$date" : %d }`, int64(v))
			return false
		},
		Null: func(key string) bool {
			sb.WriteString("null")
			return false
		},
		Regex: func(key string, v primitive.Regex) bool {
			sb.WriteString(`{ "$regex" : `)
			writeJSONString(sb, v.Pattern)
			sb.WriteString(`, "$options" : `)
			writeJSONString(sb, v.Options)
			sb.WriteString(" }")
			return false
		},
		DBPointer: func(key string, v primitive.DBPointer) bool {
			sb.WriteString(`{ "$ref" : `)
			writeJSONString(sb, v.DB)
			fmt.Fprintf(sb, `, "$id" : "%s" }`, v.Pointer.Hex())
			return false
		},
		Code: func(key string, v primitive.JavaScript) bool {
			writeCode(sb, string(v), mode)
			return false
		},
		Symbol: func(key string, v primitive.Symbol) bool {
			writeJSONString(sb, string(v))
			return false
		},
		CodeWithScope: func(key string, js primitive.JavaScript, scope *Doc) bool {
			writeCode(sb, string(js), mode)
			return false
		},
		Int32: func(key string, v int32) bool {
			sb.WriteString(strconv.FormatInt(int64(v), 10))
			return false
		},
		Timestamp: func(key string, v primitive.Timestamp) bool {
			fmt.Fprintf(sb, `{ "$timestamp" : { "t" : %d, "i" : %d } }`, v.T, v.I)
			return false
		},
		Int64: func(key string, v int64) bool {
			sb.WriteString(strconv.FormatInt(v, 10))
			return false
		},
		MinKey: func(key string) bool {
			sb.WriteString(`{ "$minKey" : 1 }`)
			return false
		},
		MaxKey: func(key string) bool {
			sb.WriteString(`{ "$maxKey" : 1 }`)
			return false
		},
	}
	VisitAll(it, v)
	sb.WriteString(closeTok)
}

func writeDouble(sb *strings.Builder, v float64, mode RenderMode) {
	if mode == RenderModeLegacy {
		fmt.Fprintf(sb, "%v", v)
		return
	}
	var s string
	switch {
	case math.IsNaN(v):
		s = "NaN"
	case math.IsInf(v, 1):
		s = "Infinity"
	case math.IsInf(v, -1):
		s = "-Infinity"
	default:
		s = strconv.FormatFloat(v, 'G', -1, 64)
	}
	sb.WriteString(`{ "$numberDouble" : `)
	writeJSONString(sb, s)
	sb.WriteString(" }")
}

func writeCode(sb *strings.Builder, code string, mode RenderMode) {
	if mode == RenderModeLegacy {
		writeJSONString(sb, code)
		return
	}
	sb.WriteString(`{ "$code" : `)
	writeJSONString(sb, code)
	sb.WriteString(" }")
}

// writeJSONString escapes s for JSON the same way encoding/json would
// marshal a bare string, reusing the standard library's escaper rather
// than hand-rolling one.
func writeJSONString(sb *strings.Builder, s string) {
	b, _ := json.Marshal(s)
	sb.Write(b)
}
