// Package metrics defines how trial results leave the experiment runner.
// Sinks such as the Prometheus, InfluxDB, JSONL and MQTT implementations in
// infra register themselves by type name and are combined with
// NewMultiSink when several are configured.
package metrics
