package mqtt

import (
	"github.com/kilianp07/pdac/core/factory"
	coremetrics "github.com/kilianp07/pdac/core/metrics"
)

func init() {
	_ = coremetrics.RegisterSink("mqtt", func(conf map[string]any) (coremetrics.ResultSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSink(c)
	})
}
