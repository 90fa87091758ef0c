package model

import "errors"

var (
	// ErrNotModel is returned when a chunky file has no FOLDMODL chunk or
	// no mesh group.
	ErrNotModel = errors.New("model: not a model file")

	// ErrMissingShader is returned when a material lacks its DATAINFO chunk.
	ErrMissingShader = errors.New("model: material has no shader")

	// ErrMissingMaterial is returned when a mesh references a material that
	// the model does not define.
	ErrMissingMaterial = errors.New("model: mesh references unknown material")

	// ErrMissingMeshData is returned when a mesh has no DATADATA v8 chunk.
	ErrMissingMeshData = errors.New("model: mesh has no data")

	// ErrUnsupportedLayout is returned for vertex elements with an unknown
	// semantic or format.
	ErrUnsupportedLayout = errors.New("model: unsupported vertex layout")

	// ErrStrideMismatch is returned when the declared vertex stride differs
	// from the size of the vertex layout.
	ErrStrideMismatch = errors.New("model: vertex stride mismatch")

	// ErrUnknownType is returned for values with an unknown type code.
	ErrUnknownType = errors.New("model: unknown value type")
)
