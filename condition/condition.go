package condition

import (
	"fmt"
	"slices"
)

// Op is a clause test.
type Op uint32

// Clause tests.
const (
	// OpEqual and OpNotEqual compare against Value. For Float1 variables a
	// positive Tolerance turns the test into the range
	// [Value-Tolerance, Value+Tolerance).
	OpEqual Op = iota
	OpNotEqual
	// OpRange tests Lo <= x < Hi.
	OpRange
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
)

var opNames = [...]string{
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpRange:        "in",
	OpLess:         "<",
	OpGreater:      ">",
	OpLessEqual:    "<=",
	OpGreaterEqual: ">=",
}

// String returns the operator symbol.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint32(o))
}

// ClauseSpec describes one clause of a condition.
type ClauseSpec struct {
	// Property is the name of the variable tested.
	Property string
	Op       Op
	// Negate inverts the result of the test.
	Negate bool
	// Or places the clause in the OR group; otherwise it is an AND clause.
	Or bool

	Value     Value
	Tolerance float32
	Lo, Hi    float32
}

type clause struct {
	cond      *Condition
	next      *clause
	test      func(Value) bool
	weight    int
	negate    bool
	satisfied bool
}

type listener struct {
	id int
	fn func(*Condition)
}

// Condition is a boolean expression over variables.
type Condition struct {
	name      string
	counter   int
	clauses   []clause
	listeners []listener
	nextID    int

	touched bool
	wasTrue bool
}

// NewCondition builds a condition from specs, looking variables up in vars.
//
// Every clause is resolved and type checked before any is attached to its
// variable, so a failed construction leaves the variables untouched.
func NewCondition(name string, vars *Variables, specs []ClauseSpec) (*Condition, error) {
	c := &Condition{name: name, clauses: make([]clause, len(specs))}
	targets := make([]*Variable, len(specs))

	numOrs, numAnds := 0, 0
	for i, spec := range specs {
		v, ok := vars.Lookup(spec.Property)
		if !ok {
			return nil, fmt.Errorf("%w: %q in condition %q", ErrUnboundProperty, spec.Property, name)
		}
		test, negate, err := compile(spec, v.Type())
		if err != nil {
			return nil, fmt.Errorf("condition %q clause %d: %w", name, i, err)
		}
		targets[i] = v
		c.clauses[i] = clause{cond: c, test: test, negate: negate}
		if spec.Or {
			numOrs++
		} else {
			numAnds++
		}
	}

	andWeight := 1 + numOrs
	c.counter = -andWeight * numAnds
	if numOrs > 0 {
		c.counter--
	}
	for i := range c.clauses {
		cl := &c.clauses[i]
		cl.weight = 1
		if !specs[i].Or {
			cl.weight = andWeight
		}
		// A clause starts unsatisfied, which a negated clause counts as met.
		if cl.negate {
			c.counter += cl.weight
		}
		if cl.test(targets[i].value) {
			cl.satisfied = true
			if cl.negate {
				c.counter -= cl.weight
			} else {
				c.counter += cl.weight
			}
		}
	}

	for i := range c.clauses {
		cl := &c.clauses[i]
		cl.next = targets[i].dependents
		targets[i].dependents = cl
	}
	return c, nil
}

// compile builds the test function of a clause and reports whether its
// result is negated.
func compile(spec ClauseSpec, typ DataType) (func(Value) bool, bool, error) {
	switch spec.Op {
	case OpEqual, OpNotEqual:
		negate := spec.Negate != (spec.Op == OpNotEqual)
		want := spec.Value
		switch {
		case typ == Float1 && want.Type().numeric() && spec.Tolerance > 0:
			x := want.Float1()
			return inRange(x-spec.Tolerance, x+spec.Tolerance), negate, nil
		case typ.numeric() && want.Type().numeric() && typ != want.Type():
			x := want.Float1()
			return func(v Value) bool { return v.Float1() == x }, negate, nil
		case typ == want.Type():
			return func(v Value) bool { return v == want }, negate, nil
		default:
			return nil, false, fmt.Errorf("%w: %s variable compared with %s", ErrTypeMismatch, typ, want.Type())
		}

	case OpRange:
		if !typ.numeric() {
			return nil, false, fmt.Errorf("%w: range test on %s variable", ErrTypeMismatch, typ)
		}
		return inRange(spec.Lo, spec.Hi), spec.Negate, nil

	case OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
		if !typ.numeric() || !spec.Value.Type().numeric() {
			return nil, false, fmt.Errorf("%w: %s test on %s variable", ErrTypeMismatch, spec.Op, typ)
		}
		return relation(spec.Op, spec.Value.Float1()), spec.Negate, nil

	default:
		return nil, false, fmt.Errorf("%w: operator %s", ErrInvalidClause, spec.Op)
	}
}

func inRange(lo, hi float32) func(Value) bool {
	return func(v Value) bool {
		x := v.Float1()
		return lo <= x && x < hi
	}
}

func relation(op Op, t float32) func(Value) bool {
	switch op {
	case OpLess:
		return func(v Value) bool { return v.Float1() < t }
	case OpGreater:
		return func(v Value) bool { return v.Float1() > t }
	case OpLessEqual:
		return func(v Value) bool { return v.Float1() <= t }
	default:
		return func(v Value) bool { return v.Float1() >= t }
	}
}

// Name returns the condition name.
func (c *Condition) Name() string {
	return c.name
}

// IsTrue reports whether the condition holds.
func (c *Condition) IsTrue() bool {
	return c.counter >= 0
}

// Counter returns the weighted truth counter.
func (c *Condition) Counter() int {
	return c.counter
}

// Len returns the number of clauses.
func (c *Condition) Len() int {
	return len(c.clauses)
}

// AddListener registers fn to run whenever the condition's truth changes.
// The returned function unregisters it.
func (c *Condition) AddListener(fn func(*Condition)) (remove func()) {
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	return func() {
		c.listeners = slices.DeleteFunc(c.listeners, func(l listener) bool {
			return l.id == id
		})
	}
}

func (c *Condition) notify() {
	for _, l := range slices.Clone(c.listeners) {
		l.fn(c)
	}
}
