// Package scheduling implements the strategies that place every job of a
// batch into one of its feasible intervals: the release-time baseline, the
// least-flexible-first greedy heuristic, the exact integer model, and the
// relaxed model with randomized rounding.
package scheduling
