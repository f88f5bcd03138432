// Package rootio adapts ROOT files, read and written with go-hep's groot,
// to the flattener's EventSource and RowSink.
//
// Input trees store each per-electron quantity as a std::vector branch;
// output trees store one scalar branch per flat column, named after
// ntuple.Columns. Every handle returned here must be closed by the caller;
// a TreeSink is only complete once Close returns nil.
package rootio
