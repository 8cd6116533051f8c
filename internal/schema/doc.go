// Package schema holds the table of configuration keys understood by
// Spirit's input file and validates caller supplied values against it.
//
// Every key maps to exactly one [Rule]:
//
//   - [Bool], [BoolVector]: genuine booleans, written as 1/0
//   - [Int], [IntVector]: integers with optional bounds
//   - [Float], [FloatVector]: numbers (integers accepted) with optional bounds
//   - [Enum]: one of a fixed set of strings
//
// Keys owned by the generator itself (output folders, lattice keys,
// wall-time limits) are on a deny-list and always rejected.
//
// # Example
//
//	text, err := schema.Validate("llg_damping", 0.3)
//	if errors.Is(err, schema.ErrOutOfRange) { ... }
package schema
