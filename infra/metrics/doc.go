// Package metrics holds the result sinks backed by Prometheus, InfluxDB and
// JSONL files. Importing it registers them with core/metrics under the
// names "prometheus", "influx" and "jsonl".
package metrics
