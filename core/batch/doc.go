// Package batch draws job batches out of a larger pool of source records and
// rescales their heights against a resource curve.
package batch
