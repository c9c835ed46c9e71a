// Package export writes trial results and schedules as CSV or JSON.
package export
