// Package experiment repeats the scheduling comparison over a range of
// batch sizes. Each trial draws a batch from the job pool, scales its
// heights against the resource curve and runs every configured strategy on
// it. Results go to a metrics.ResultSink as they are produced and are
// summarised per batch size and strategy at the end of the run.
package experiment
