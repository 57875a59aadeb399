// Package std is the built-in node library: array handling, numeric
// generators, string input parsing and the exec-flow helpers.
//
// All templates live in the "std" group. Register them with Register, or
// get fresh copies from Templates.
package std
