package model

import (
	"fmt"

	"github.com/meigma/essence/chunky"
	"github.com/meigma/essence/condition"
)

// ReadValue reads a value of type typ from r. Float and matrix types are
// stored as consecutive floats, Int1 as an i32, Bool as one byte, and String
// and Texture as length-prefixed strings.
func ReadValue(r *chunky.Reader, typ condition.DataType) (condition.Value, error) {
	var (
		v   condition.Value
		err error
	)
	switch typ {
	case condition.Int1:
		v = condition.Int(r.Int32())
	case condition.Float1:
		v = condition.Float(r.Float32())
	case condition.Float2, condition.Float3, condition.Float4:
		fs := make([]float32, typ.Components())
		if r.Decode(fs) == nil {
			v, err = condition.Vector(fs...)
		}
	case condition.Float4x3, condition.Float4x4:
		fs := make([]float32, typ.Components())
		if r.Decode(fs) == nil {
			v, err = condition.Matrix(fs...)
		}
	case condition.Bool:
		v = condition.BoolValue(r.Uint8() != 0)
	case condition.String:
		v = condition.StringValue(r.String())
	case condition.Texture:
		v = condition.TextureValue(r.String())
	default:
		return condition.Value{}, fmt.Errorf("%w: %d", ErrUnknownType, uint32(typ))
	}
	if err != nil {
		return condition.Value{}, err
	}
	if err := r.Err(); err != nil {
		return condition.Value{}, err
	}
	return v, nil
}
