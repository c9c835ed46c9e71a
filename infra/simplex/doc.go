// Package simplex solves solver.Model instances with the gonum simplex
// method. Integer variables are handled by branch-and-bound over LP
// relaxations, and every solve honours the context deadline.
package simplex
