package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// DataType is the on-disk type code of a property value.
type DataType uint32

// Property data types.
const (
	Int1     DataType = 0
	Float1   DataType = 1
	Float2   DataType = 2
	Float3   DataType = 3
	Float4   DataType = 4
	Float4x3 DataType = 5
	Float4x4 DataType = 6
	Bool     DataType = 7
	String   DataType = 8
	Texture  DataType = 9
)

var typeNames = [...]string{
	Int1:     "int",
	Float1:   "float",
	Float2:   "float2",
	Float3:   "float3",
	Float4:   "float4",
	Float4x3: "float4x3",
	Float4x4: "float4x4",
	Bool:     "bool",
	String:   "string",
	Texture:  "texture",
}

// String returns the type name.
func (t DataType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "type(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// Valid reports whether t is a known type code.
func (t DataType) Valid() bool {
	return int(t) < len(typeNames)
}

// Components returns the number of float components of the float types.
func (t DataType) Components() int {
	switch t {
	case Float1, Float2, Float3, Float4:
		return int(t)
	case Float4x3:
		return 12
	case Float4x4:
		return 16
	default:
		return 0
	}
}

func (t DataType) numeric() bool {
	return t == Int1 || t == Float1
}

// Value is a typed property value. Values are comparable with ==.
type Value struct {
	typ    DataType
	floats [16]float32
	i      int32
	b      bool
	s      string
}

// Int returns an Int1 value.
func Int(i int32) Value {
	return Value{typ: Int1, i: i}
}

// Float returns a Float1 value.
func Float(f float32) Value {
	v := Value{typ: Float1}
	v.floats[0] = f
	return v
}

// Vector returns a Float1 to Float4 value with one to four components.
func Vector(fs ...float32) (Value, error) {
	if len(fs) < 1 || len(fs) > 4 {
		return Value{}, fmt.Errorf("%w: vector of %d components", ErrTypeMismatch, len(fs))
	}
	v := Value{typ: DataType(len(fs))}
	copy(v.floats[:], fs)
	return v, nil
}

// Matrix returns a Float4x3 value from 12 components or a Float4x4 value
// from 16, in row order.
func Matrix(fs ...float32) (Value, error) {
	var v Value
	switch len(fs) {
	case 12:
		v.typ = Float4x3
	case 16:
		v.typ = Float4x4
	default:
		return Value{}, fmt.Errorf("%w: matrix of %d components", ErrTypeMismatch, len(fs))
	}
	copy(v.floats[:], fs)
	return v, nil
}

// BoolValue returns a Bool value.
func BoolValue(b bool) Value {
	return Value{typ: Bool, b: b}
}

// StringValue returns a String value.
func StringValue(s string) Value {
	return Value{typ: String, s: s}
}

// TextureValue returns a Texture value naming a texture path.
func TextureValue(path string) Value {
	return Value{typ: Texture, s: path}
}

// Type returns the value's type.
func (v Value) Type() DataType {
	return v.typ
}

// Equal reports whether v and o have the same type and contents.
func (v Value) Equal(o Value) bool {
	return v == o
}

// Float1 returns the first float component, the integer converted to float
// for Int1 values, and 0 or 1 for Bool values.
func (v Value) Float1() float32 {
	switch v.typ {
	case Int1:
		return float32(v.i)
	case Bool:
		if v.b {
			return 1
		}
		return 0
	default:
		return v.floats[0]
	}
}

// Floats returns the float components of float and matrix values.
func (v Value) Floats() []float32 {
	return append([]float32(nil), v.floats[:v.typ.Components()]...)
}

// AsInt returns the value of an Int1.
func (v Value) AsInt() int32 {
	return v.i
}

// AsBool returns the value of a Bool.
func (v Value) AsBool() bool {
	return v.b
}

// Text returns the contents of a String or the path of a Texture.
func (v Value) Text() string {
	return v.s
}

// String formats the value for display.
func (v Value) String() string {
	switch v.typ {
	case Int1:
		return strconv.FormatInt(int64(v.i), 10)
	case Bool:
		return strconv.FormatBool(v.b)
	case String, Texture:
		return strconv.Quote(v.s)
	}
	parts := make([]string, 0, v.typ.Components())
	for _, f := range v.Floats() {
		parts = append(parts, strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
