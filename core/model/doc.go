// Package model holds the scheduling data types: jobs with their feasible
// intervals, resource curves, demand profiles and validated batches.
package model
