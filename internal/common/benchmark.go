package common

import (
	"time"

	"github.com/rs/zerolog"
)

type Benchmarker struct {
	start time.Time
	label string
	log   zerolog.Logger
}

func RuntimeBenchmark[T any](log zerolog.Logger, label string, functionUnderTest func() (T, error)) (T, error) {
	start := time.Now()
	result, err := functionUnderTest()
	log.Info().Str("step", label).Dur("took", time.Since(start)).Err(err).Msg("bench")
	return result, err
}

func NewBenchmarker(log zerolog.Logger, label string) *Benchmarker {
	return &Benchmarker{start: time.Now(), label: label, log: log}
}

func (benchmarker *Benchmarker) Elapsed() time.Duration {
	return time.Since(benchmarker.start)
}

func (benchmarker *Benchmarker) Close() {
	benchmarker.log.Info().Str("step", benchmarker.label).Dur("took", benchmarker.Elapsed()).Msg("bench")
}
