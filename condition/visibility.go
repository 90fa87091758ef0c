package condition

import (
	"fmt"

	"github.com/meigma/essence/internal/index"
)

// Visibility holds one visibility flag per object and binds flags to
// conditions by object name. Several objects may share a name.
type Visibility struct {
	visible []bool
	names   *index.Table[int]
}

// NewVisibility returns flags for objects named names, all visible.
func NewVisibility(names []string) *Visibility {
	v := &Visibility{
		visible: make([]bool, len(names)),
		names:   index.New[int](len(names)),
	}
	for i, name := range names {
		v.visible[i] = true
		v.names.Insert(name, i)
	}
	return v
}

// Len returns the number of objects.
func (v *Visibility) Len() int {
	return len(v.visible)
}

// Visible reports whether object i is visible. Out of range indices are
// never visible.
func (v *Visibility) Visible(i int) bool {
	return i >= 0 && i < len(v.visible) && v.visible[i]
}

// Slots returns the indices of the objects called name.
func (v *Visibility) Slots(name string) []int {
	var out []int
	for i := range v.names.LookupAll(name) {
		out = append(out, i)
	}
	return out
}

// Bind makes the objects called names visible exactly when c holds, now
// and after every change of c. The returned function stops the syncing.
func (v *Visibility) Bind(c *Condition, names ...string) (unbind func(), err error) {
	var slots []int
	for _, name := range names {
		s := v.Slots(name)
		if len(s) == 0 {
			return nil, fmt.Errorf("%w: %q in condition %q", ErrUnknownObject, name, c.Name())
		}
		slots = append(slots, s...)
	}
	apply := func(c *Condition) {
		on := c.IsTrue()
		for _, i := range slots {
			v.visible[i] = on
		}
	}
	apply(c)
	return c.AddListener(apply), nil
}
