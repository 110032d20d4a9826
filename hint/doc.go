// Package hint manages the hint library: named directories of prompt
// instructions, read-only resources and shell modules that specialize an
// agent for a category of task.
//
// A hint lives at <root>/<name>/ and contains:
//
//   - a prompt file, selected by platform suffix (hint_<platform>.md,
//     <name>_<platform>.md, hint.md, <name>.md, first match wins)
//   - an optional hint.yaml with descriptive metadata
//   - an optional resources/ directory served through the resource gate
//   - an optional modules/ directory of shell modules (*.sh on unix,
//     *.psm1 and *.ps1 on windows)
//
// The Registry enforces the single-active-hint invariant: loading a hint
// atomically replaces the previously active one, and a failed load leaves
// the previous hint active. The Gate confines resource reads to the active
// hint's resources directory.
package hint
