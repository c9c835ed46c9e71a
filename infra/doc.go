// Package infra contains technical adapters: the simplex solver, the data
// file loaders, the MQTT and metrics sinks and the zerolog logger. These
// packages depend only on the interfaces defined in the core packages.
package infra
