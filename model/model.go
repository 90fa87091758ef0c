package model

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/meigma/essence/arena"
	"github.com/meigma/essence/chunky"
	"github.com/meigma/essence/condition"
	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/mappable"
)

// Model is a loaded model. Its meshes alias the mapped file; Close releases
// the mapping.
type Model struct {
	arena  *arena.Arena
	file   *chunky.File
	logger *slog.Logger

	materials     map[string]*Material
	materialOrder []*Material
	meshes        []*Mesh
	objects       []*Object

	vars  *condition.Variables
	conds []*condition.Condition
	vis   *condition.Visibility
}

// Load parses the model in f. The model owns f: it is closed by Close, or
// before Load returns when loading fails.
func Load(f mappable.File, opts ...Option) (*Model, error) {
	m := &Model{
		arena:     arena.New(),
		materials: make(map[string]*Material),
		vars:      condition.NewVariables(),
	}
	for _, opt := range opts {
		opt(m)
	}

	cf, err := chunky.Open(f)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	m.file = cf
	m.arena.AddCloser(cf)

	if err := m.load(); err != nil {
		return nil, errors.Join(err, m.arena.Release())
	}
	m.log().Info("model loaded",
		"materials", len(m.materialOrder),
		"meshes", len(m.meshes),
		"objects", len(m.objects),
		"variables", m.vars.Len(),
		"conditions", len(m.conds),
	)
	return m, nil
}

// LoadFrom reads path from src and loads it.
func LoadFrom(src filesource.FileSource, path string, opts ...Option) (*Model, error) {
	f, err := src.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (m *Model) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return slog.New(slog.DiscardHandler)
}

func (m *Model) load() error {
	modl := m.file.Root().FindFirst("FOLDMODL")
	if modl == nil {
		return fmt.Errorf("%w: no FOLDMODL chunk", ErrNotModel)
	}
	group := modl.FindFirst("FOLDMESH").FindFirst("FOLDMGRP")
	if group == nil {
		return fmt.Errorf("%w: no mesh group", ErrNotModel)
	}

	for _, c := range modl.FindAll("FOLDMTRL v1") {
		mat, err := m.loadMaterial(c)
		if err != nil {
			return err
		}
		m.materials[mat.Name] = mat
		m.materialOrder = append(m.materialOrder, mat)
		m.log().Debug("material loaded", "material", mat.Name, "shader", mat.Shader, "variables", len(mat.Variables))
	}

	for _, c := range group.FindAll("FOLDMESH v3") {
		mesh, err := m.loadMesh(c)
		if err != nil {
			return err
		}
		for _, obj := range mesh.Objects {
			obj.Index = len(m.objects)
			m.objects = append(m.objects, obj)
		}
		m.meshes = append(m.meshes, mesh)
	}

	names := make([]string, len(m.objects))
	for i, obj := range m.objects {
		names[i] = obj.Name
	}
	m.vis = condition.NewVisibility(names)

	if vars := modl.FindFirst("FOLDVARS"); vars != nil {
		return m.loadVariables(vars)
	}
	return nil
}

// Materials returns the materials in file order.
func (m *Model) Materials() []*Material {
	return m.materialOrder
}

// Material returns the material called name.
func (m *Model) Material(name string) (*Material, bool) {
	mat, ok := m.materials[name]
	return mat, ok
}

// Meshes returns the meshes in file order.
func (m *Model) Meshes() []*Mesh {
	return m.meshes
}

// Objects returns every object of every mesh. An object's position in the
// slice is its Index.
func (m *Model) Objects() []*Object {
	return m.objects
}

// Variables returns the model variables.
func (m *Model) Variables() *condition.Variables {
	return m.vars
}

// Conditions returns the conditions in file order.
func (m *Model) Conditions() []*condition.Condition {
	return m.conds
}

// Textures returns the sorted, de-duplicated texture paths referenced by
// the materials.
func (m *Model) Textures() []string {
	var out []string
	for _, mat := range m.materialOrder {
		for _, v := range mat.Variables {
			if p, ok := v.Texture(); ok {
				out = append(out, p)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// SetVariable sets the model variable called name. Conditions over it are
// re-evaluated and object visibility follows.
func (m *Model) SetVariable(name string, v condition.Value) error {
	variable, ok := m.vars.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", condition.ErrUnboundProperty, name)
	}
	return variable.SetValue(v)
}

// Visible reports whether the object with index i is visible. Objects not
// controlled by any condition are always visible.
func (m *Model) Visible(i int) bool {
	return m.vis.Visible(i)
}

// Close releases the model's file. Slices obtained from the model must not
// be used afterwards.
func (m *Model) Close() error {
	return m.arena.Release()
}
