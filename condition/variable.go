package condition

import (
	"fmt"
	"slices"
)

// Variable is a model variable: a named value restricted to a set of
// possible values or a range, and the head of the list of clauses that
// test it.
type Variable struct {
	name   string
	value  Value
	def    Value
	values []Value
	lo, hi float32
	ranged bool

	dependents *clause
}

// VariableOption configures a Variable.
type VariableOption func(*Variable)

// WithPossibleValues restricts the variable to values.
func WithPossibleValues(values ...Value) VariableOption {
	return func(v *Variable) {
		v.values = append(v.values, values...)
	}
}

// WithRange restricts a numeric variable to [lo, hi].
func WithRange(lo, hi float32) VariableOption {
	return func(v *Variable) {
		v.lo, v.hi, v.ranged = lo, hi, true
	}
}

// NewVariable returns a variable holding def.
func NewVariable(name string, def Value, opts ...VariableOption) (*Variable, error) {
	v := &Variable{name: name, value: def, def: def}
	for _, opt := range opts {
		opt(v)
	}
	for _, pv := range v.values {
		if pv.Type() != def.Type() {
			return nil, fmt.Errorf("%w: variable %q is %s, possible value is %s", ErrTypeMismatch, name, def.Type(), pv.Type())
		}
	}
	if v.ranged && !def.Type().numeric() {
		return nil, fmt.Errorf("%w: range on %s variable %q", ErrTypeMismatch, def.Type(), name)
	}
	return v, nil
}

// Name returns the variable name.
func (v *Variable) Name() string { return v.name }

// Type returns the variable type.
func (v *Variable) Type() DataType { return v.def.Type() }

// Value returns the current value.
func (v *Variable) Value() Value { return v.value }

// Default returns the value the variable started with.
func (v *Variable) Default() Value { return v.def }

// PossibleValues returns the enumerated values, if any.
func (v *Variable) PossibleValues() []Value { return v.values }

// Range returns the allowed range of a ranged variable.
func (v *Variable) Range() (lo, hi float32, ok bool) { return v.lo, v.hi, v.ranged }

// Dependents returns the number of clauses that test the variable.
func (v *Variable) Dependents() int {
	n := 0
	for c := v.dependents; c != nil; c = c.next {
		n++
	}
	return n
}

func (v *Variable) allowed(val Value) bool {
	if len(v.values) > 0 && !slices.Contains(v.values, val) {
		return false
	}
	if v.ranged {
		f := val.Float1()
		return f >= v.lo && f <= v.hi
	}
	return true
}

// SetValue changes the variable and updates every condition that tests it.
//
// Only the clauses of this variable are re-evaluated. A condition's
// listeners run at most once per call, and only when the condition's truth
// differs from before the call.
func (v *Variable) SetValue(val Value) error {
	if val.Type() != v.Type() {
		return fmt.Errorf("%w: variable %q is %s, got %s", ErrTypeMismatch, v.name, v.Type(), val.Type())
	}
	if !v.allowed(val) {
		return fmt.Errorf("%w: %q = %s", ErrInvalidValue, v.name, val)
	}
	v.set(val)
	return nil
}

// Reset restores the default value.
func (v *Variable) Reset() {
	v.set(v.def)
}

func (v *Variable) set(val Value) {
	if v.value == val {
		return
	}
	v.value = val

	var touched []*Condition
	for c := v.dependents; c != nil; c = c.next {
		sat := c.test(val)
		if sat == c.satisfied {
			continue
		}
		cond := c.cond
		if !cond.touched {
			cond.touched = true
			cond.wasTrue = cond.IsTrue()
			touched = append(touched, cond)
		}
		c.satisfied = sat
		if sat != c.negate {
			cond.counter += c.weight
		} else {
			cond.counter -= c.weight
		}
	}
	for _, cond := range touched {
		cond.touched = false
		if cond.IsTrue() != cond.wasTrue {
			cond.notify()
		}
	}
}

// Variables is a registry of variables by name.
type Variables struct {
	byName map[string]*Variable
	all    []*Variable
}

// NewVariables returns an empty registry.
func NewVariables() *Variables {
	return &Variables{byName: make(map[string]*Variable)}
}

// Add registers v.
func (vs *Variables) Add(v *Variable) error {
	if _, ok := vs.byName[v.name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateVariable, v.name)
	}
	vs.byName[v.name] = v
	vs.all = append(vs.all, v)
	return nil
}

// Lookup returns the variable called name.
func (vs *Variables) Lookup(name string) (*Variable, bool) {
	v, ok := vs.byName[name]
	return v, ok
}

// All returns the variables in registration order.
func (vs *Variables) All() []*Variable {
	return vs.all
}

// Len returns the number of variables.
func (vs *Variables) Len() int {
	return len(vs.all)
}
