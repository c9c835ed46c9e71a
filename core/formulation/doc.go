// Package formulation turns a batch of jobs and a resource curve into an
// optimisation model with one selector variable per (job, interval) pair.
//
// Two objectives are available. Peak minimises the single variable d that is
// forced above the excess of every time step, which is the peak demand above
// curve. Area minimises one slack per time step summed over the horizon. They
// have different optima and are never mixed in one model.
package formulation
