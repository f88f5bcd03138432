// Package flatten converts event-structured electron ntuples into flat,
// one-row-per-electron tables.
//
// A Flattener is built for one Job (sample, match mode, region). Building
// it resolves the kinematic weighting up front, so a job that needs a
// weight surface fails with weights.ErrMissingSurface before any event is
// read. Run then makes a single sequential pass over an EventSource:
//
//	for each event:
//	    zip the parallel branches into electrons (length mismatch is fatal)
//	    for each electron, in index order:
//	        preselection (truth, region, pt, conversion veto, dz)
//	        derive relIsoWithEA, hOverEscaled, kinWeight
//	        append the flat row to the RowSink
//
// Rows therefore come out in event order, then electron index. An
// electron whose supercluster energy is ill-defined for the H/E
// correction is rejected with reason "energy" and the run continues.
//
// Sources and sinks are owned, and closed, by the caller.
package flatten
