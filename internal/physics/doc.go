// Package physics holds the electron-ID physics constants and the pure
// per-electron computations built on them.
//
// Everything here is immutable configuration: Default returns a fresh
// Constants value, and callers pass it explicitly into the flattener.
// There is no package-level mutable state.
//
// Numeric conventions:
//   - Pseudorapidity is the supercluster eta (etaSC); region tests use |etaSC|.
//   - Energies and momenta are in GeV, as stored in the input ntuples.
package physics
