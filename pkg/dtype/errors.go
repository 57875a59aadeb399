package dtype

import "errors"

// ErrCheckByValue is returned when a dtype-to-dtype comparison involves an
// untyped port. Those checks must be done against the output's current value.
var ErrCheckByValue = errors.New("untyped ports must be checked by value, not by dtype")

// ErrUnknownKind is returned when a serialized dtype names a kind that does not exist.
var ErrUnknownKind = errors.New("unknown dtype kind")

// ErrUnknownClass is returned when a class parent has not been registered.
var ErrUnknownClass = errors.New("unknown class")
