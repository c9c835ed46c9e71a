// Package loader reads the job pool and resource curve files.
package loader
