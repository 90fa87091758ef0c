package condition

import "errors"

var (
	// ErrUnboundProperty is returned when a clause names a variable that
	// does not exist.
	ErrUnboundProperty = errors.New("condition: unbound property")

	// ErrTypeMismatch is returned when a value or clause operand does not
	// match the type of its variable.
	ErrTypeMismatch = errors.New("condition: type mismatch")

	// ErrInvalidValue is returned when a variable is set to a value outside
	// its possible values or range.
	ErrInvalidValue = errors.New("condition: value not allowed for variable")

	// ErrInvalidClause is returned for clauses with an unknown operator.
	ErrInvalidClause = errors.New("condition: invalid clause")

	// ErrDuplicateVariable is returned when two variables share a name.
	ErrDuplicateVariable = errors.New("condition: duplicate variable")

	// ErrUnknownObject is returned when a visibility binding names an object
	// that does not exist.
	ErrUnknownObject = errors.New("condition: unknown object")
)
