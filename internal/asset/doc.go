// Package asset is the in-memory model of one decoded content unit.
//
// A Graph holds an ordered list of Import records (objects defined in other
// packages), an ordered list of Export records (objects defined here) and the
// name table every Name in the graph must be present in.
//
// # Indices
//
// Cross references use a signed Index:
//   - 0 is the null reference
//   - a positive value N refers to Exports[N-1]
//   - a negative value -N refers to Imports[N-1]
//
// Every non-null Index stored in the graph must resolve to a live record. The
// loader treats a dangling index as fatal corruption, so Validate is run as a
// post-condition wherever the graph is mutated in tests.
//
// # Ordering metadata
//
// Each export carries four dependency lists that together form the input of
// the loader's staged initialisation pass. BuildDependencyGraph turns them into
// an explicit (object, phase) graph that can be checked for cycles.
//
// # Encoding
//
// Encode and Decode use CBOR with Core Deterministic Encoding so the same graph
// always produces identical bytes. DecodeJSON reads the human-editable form used
// for baked template assets.
package asset
