package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/pdac/core/metrics"
	"github.com/kilianp07/pdac/infra/logger"
)

// InfluxConfig holds the connection settings of an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes trial results to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.ResultSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTrials writes one pdac_trial point per result.
func (s *InfluxSink) RecordTrials(res []coremetrics.TrialResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(res))
	for _, r := range res {
		points = append(points, trialPoint(r))
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordSummaries writes one pdac_summary point per strategy and batch size.
func (s *InfluxSink) RecordSummaries(sum []coremetrics.Summary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	for _, m := range sum {
		p := write.NewPointWithMeasurement("pdac_summary").
			AddTag("run_id", m.RunID).
			AddTag("strategy", m.Strategy).
			AddTag("batch_size", strconv.Itoa(m.BatchSize)).
			AddField("trials", m.Trials).
			AddField("failures", m.Failures).
			AddField("fallbacks", m.Fallbacks).
			AddField("mean_peak", round3(m.MeanPeak)).
			AddField("std_peak", round3(m.StdPeak)).
			AddField("mean_area", round3(m.MeanArea)).
			SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func trialPoint(r coremetrics.TrialResult) *write.Point {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPointWithMeasurement("pdac_trial").
		AddTag("run_id", r.RunID).
		AddTag("strategy", r.Strategy).
		AddTag("batch_size", strconv.Itoa(r.BatchSize)).
		AddTag("trial", strconv.Itoa(r.Trial)).
		AddField("peak", round3(r.Peak)).
		AddField("area", round3(r.Area)).
		AddField("solver_objective", round3(r.SolverObjective)).
		AddField("duration_ms", round3(r.Duration.Seconds()*1000)).
		AddField("fell_back", r.FellBack).
		SetTime(ts)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
