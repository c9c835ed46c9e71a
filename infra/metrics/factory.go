package metrics

import (
	"github.com/kilianp07/pdac/core/factory"
	coremetrics "github.com/kilianp07/pdac/core/metrics"
)

// init registers the built-in result sinks.
func init() {
	_ = coremetrics.RegisterSink("prometheus", func(map[string]any) (coremetrics.ResultSink, error) {
		return NewPromSink()
	})

	_ = coremetrics.RegisterSink("influx", func(conf map[string]any) (coremetrics.ResultSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})

	_ = coremetrics.RegisterSink("jsonl", func(conf map[string]any) (coremetrics.ResultSink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewJSONLSink(c.Path)
	})
}
