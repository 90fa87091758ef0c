package model

import (
	"errors"
	"fmt"

	"github.com/meigma/essence/arena"
	"github.com/meigma/essence/chunky"
	"github.com/meigma/essence/condition"
)

// TextureExtension is appended to texture variable paths.
const TextureExtension = ".rgt"

// Material is a named shader with its parameters.
type Material struct {
	Name      string
	Shader    string
	Variables []MaterialVariable
}

// MaterialVariable is a shader parameter.
//
// Values of unknown type are kept undecoded in Raw and Value is the zero
// value.
type MaterialVariable struct {
	Name  string
	Type  condition.DataType
	Value condition.Value
	Raw   []byte
}

// Texture returns the path of the texture file for Texture variables.
func (v MaterialVariable) Texture() (string, bool) {
	if v.Type != condition.Texture || v.Value.Text() == "" {
		return "", false
	}
	return v.Value.Text() + TextureExtension, true
}

// Variable returns the material variable called name.
func (m *Material) Variable(name string) (MaterialVariable, bool) {
	for _, v := range m.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return MaterialVariable{}, false
}

func (m *Model) loadMaterial(c *chunky.Chunk) (*Material, error) {
	mat := arena.Make[Material](m.arena, nil)
	mat.Name = c.Name()
	info := c.FindFirst("DATAINFO v1")
	if info == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingShader, mat.Name)
	}
	r := info.Reader()
	mat.Shader = r.String()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("model: material %q: %w", mat.Name, err)
	}

	for _, dv := range c.FindAll("DATAVAR v1") {
		mv, err := readMaterialVariable(dv)
		if err != nil {
			return nil, fmt.Errorf("model: material %q: %w", mat.Name, err)
		}
		mat.Variables = append(mat.Variables, mv)
	}
	return mat, nil
}

func readMaterialVariable(c *chunky.Chunk) (MaterialVariable, error) {
	r := c.Reader()
	mv := MaterialVariable{Name: r.String()}
	mv.Type = condition.DataType(r.Uint32())
	if err := r.Err(); err != nil {
		return mv, err
	}
	start := r.Tell()
	mv.Raw = c.Contents()[start:]
	v, err := ReadValue(r, mv.Type)
	switch {
	case errors.Is(err, ErrUnknownType):
		return mv, nil
	case err != nil:
		return mv, fmt.Errorf("variable %q: %w", mv.Name, err)
	}
	mv.Value = v
	mv.Raw = c.Contents()[start:r.Tell()]
	return mv, nil
}
