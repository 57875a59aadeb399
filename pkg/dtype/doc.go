/*
Package dtype implements the data types carried by node ports and the rules
deciding which output may feed which input.

A DType is attached to every port. Output-to-input compatibility is decided by
the input's dtype:

  - Untyped ports are always checked by value, never by dtype.
  - The data family (Data, Integer, Float, Boolean, String) matches within the
    family when the output's valid classes are a subset of the input's.
  - Choice restricts values to a list of items.
  - List holds iterables whose elements belong to the valid classes.

Any dtype may be batched, in which case the port carries a list of values and
the owning node runs once per element.

Valid classes live in a small class hierarchy (see Classes) so that a
subclass output can feed a superclass input but not the other way round.
*/
package dtype
