package model

import (
	"fmt"

	"github.com/meigma/essence/chunky"
	"github.com/meigma/essence/condition"
)

// loadVariables reads the FOLDVARS section: DATAMVAR chunks declare model
// variables and DATACOND chunks declare conditions together with the
// objects whose visibility they control.
func (m *Model) loadVariables(folder *chunky.Chunk) error {
	for _, c := range folder.FindAll("DATAMVAR v1") {
		v, err := readVariable(c.Reader())
		if err != nil {
			return fmt.Errorf("model: variable: %w", err)
		}
		if err := m.vars.Add(v); err != nil {
			return fmt.Errorf("model: %w", err)
		}
	}

	for _, c := range folder.FindAll("DATACOND v1") {
		r := c.Reader()
		name := r.String()
		specs, err := readClauses(r)
		if err != nil {
			return fmt.Errorf("model: condition %q: %w", name, err)
		}
		objects := readStrings(r)
		if err := r.Err(); err != nil {
			return fmt.Errorf("model: condition %q: %w", name, err)
		}

		cond, err := condition.NewCondition(name, m.vars, specs)
		if err != nil {
			return fmt.Errorf("model: %w", err)
		}
		if _, err := m.vis.Bind(cond, objects...); err != nil {
			return fmt.Errorf("model: condition %q: %w", name, err)
		}
		m.conds = append(m.conds, cond)
		m.log().Debug("condition bound", "condition", name, "clauses", cond.Len(), "objects", len(objects))
	}
	return nil
}

func readVariable(r *chunky.Reader) (*condition.Variable, error) {
	name := r.String()
	typ := condition.DataType(r.Uint32())
	def, err := ReadValue(r, typ)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}

	var opts []condition.VariableOption
	n := r.Uint32()
	var possible []condition.Value
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		v, err := ReadValue(r, typ)
		if err != nil {
			return nil, fmt.Errorf("%q: possible value %d: %w", name, i, err)
		}
		possible = append(possible, v)
	}
	if len(possible) > 0 {
		opts = append(opts, condition.WithPossibleValues(possible...))
	}
	if r.Uint8() != 0 {
		lo, hi := r.Float32(), r.Float32()
		opts = append(opts, condition.WithRange(lo, hi))
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	return condition.NewVariable(name, def, opts...)
}

func readClauses(r *chunky.Reader) ([]condition.ClauseSpec, error) {
	n := r.Uint32()
	var specs []condition.ClauseSpec
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		spec := condition.ClauseSpec{
			Property: r.String(),
			Op:       condition.Op(r.Uint32()),
			Negate:   r.Uint8() != 0,
			Or:       r.Uint8() != 0,
		}
		v, err := ReadValue(r, condition.DataType(r.Uint32()))
		if err != nil {
			return nil, fmt.Errorf("clause %d: %w", i, err)
		}
		spec.Value = v
		spec.Tolerance = r.Float32()
		spec.Lo = r.Float32()
		spec.Hi = r.Float32()
		specs = append(specs, spec)
	}
	return specs, r.Err()
}

func readStrings(r *chunky.Reader) []string {
	n := r.Uint32()
	var out []string
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		out = append(out, r.String())
	}
	return out
}
