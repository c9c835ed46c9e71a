// Package solver describes optimisation models in a solver-neutral form:
// bounded continuous or integer variables, sparse linear constraints and a
// minimised linear objective. Implementations live under infra.
package solver
